package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rusenback/webtopd/internal/fault"
	"github.com/rusenback/webtopd/internal/model"
)

// Event is one decoded push message. Exactly one of System and Updates is
// set.
type Event struct {
	System  *model.SystemStats
	Updates []model.ContainerUpdate
}

// Decode turns a raw frame into an Event. Unknown types are an error.
func Decode(env model.Envelope) (Event, error) {
	switch env.Type {
	case model.MessageSystemStats:
		var s model.SystemStats
		if err := json.Unmarshal(env.Data, &s); err != nil {
			return Event{}, errors.Wrap(err, "decode system_stats")
		}
		return Event{System: &s}, nil
	case model.MessageContainerUpdates:
		updates := []model.ContainerUpdate{}
		if err := json.Unmarshal(env.Data, &updates); err != nil {
			return Event{}, errors.Wrap(err, "decode container_updates")
		}
		return Event{Updates: updates}, nil
	}
	return Event{}, errors.Errorf("unknown message type: %q", env.Type)
}

// Subscribe opens the push channel. Events arrive on the first channel until
// ctx ends or the connection fails; the failure, if any, is sent on the
// second channel and both are closed.
func (c *Client) Subscribe(ctx context.Context) (<-chan Event, <-chan error, error) {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = c.base.Path + "/ws"

	header := http.Header{}
	header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.user+":"+c.pass)))

	conn, res, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if res != nil && res.StatusCode == http.StatusUnauthorized {
			return nil, nil, fault.Errorf(fault.KindAuth, "invalid credentials")
		}
		return nil, nil, errors.Wrap(err, "connect")
	}

	events := make(chan Event)
	errs := make(chan error, 1)

	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	go func() {
		defer close(events)
		defer close(errs)
		defer conn.Close()
		defer close(done)

		for {
			var env model.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					errs <- err
				}
				return
			}

			ev, err := Decode(env)
			if err != nil {
				continue
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, errs, nil
}
