package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rusenback/webtopd/internal/fleet"
	"github.com/rusenback/webtopd/internal/model"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// wsSink writes loop messages as JSON text frames
type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) Send(ctx context.Context, msg model.Message) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}

// Stream upgrades to a websocket and runs a poll loop for it until the
// client goes away
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client
		s.log.At("stream").Logf("state=rejected error=%q", err.Error())
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// the client never sends anything we need; reading only notices close
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	loop := &fleet.Loop{
		Source:   s.opts.Fleet,
		Interval: s.opts.Interval,
		Logger:   s.opts.Logger,
	}

	if err := loop.Run(ctx, &wsSink{conn: conn}); err != nil {
		s.log.At("stream").Logf("state=closed error=%q", err.Error())
		return nil
	}

	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))

	return nil
}
