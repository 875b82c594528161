// Package client talks to a running webtopd over its REST routes and the
// /ws push channel. The terminal dashboard is its main user.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rusenback/webtopd/internal/fault"
	"github.com/rusenback/webtopd/internal/model"
)

// Client is an authenticated webtopd client
type Client struct {
	base *url.URL
	user string
	pass string

	HTTP *http.Client
}

func New(base, user, pass string) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(base, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("unsupported scheme: %q", u.Scheme)
	}

	return &Client{
		base: u,
		user: user,
		pass: pass,
		HTTP: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// remoteError is the error body the server answers with
type remoteError struct {
	Error     string     `json:"error"`
	ErrorKind fault.Kind `json:"error_kind"`
	Detail    string     `json:"detail"`
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.user, c.pass)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	if res.StatusCode == http.StatusUnauthorized {
		return fault.Errorf(fault.KindAuth, "invalid credentials")
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var re remoteError
		if json.Unmarshal(data, &re) == nil && re.Error != "" {
			kind := re.ErrorKind
			if kind == fault.KindNone {
				kind = fault.KindRequest
			}
			return fault.Errorf(kind, "%s", re.Error)
		}
		return fault.Errorf(fault.KindRequest, "%s %s: %s", method, path, res.Status)
	}

	if out == nil {
		return nil
	}

	return errors.Wrap(json.Unmarshal(data, out), "decode response")
}

func containerPath(name, action string) string {
	p := "/api/containers/" + url.PathEscape(name)
	if action != "" {
		p += "/" + action
	}
	return p
}

func (c *Client) SystemStats(ctx context.Context) (model.SystemStats, error) {
	var s model.SystemStats
	err := c.do(ctx, "GET", "/api/system/stats", nil, nil, &s)
	return s, err
}

// ContainerSummary is one entry of the container list as served
type ContainerSummary struct {
	Name   string                `json:"name"`
	Config model.ContainerConfig `json:"config"`
	Stats  model.ContainerStats  `json:"stats"`
}

func (c *Client) Containers(ctx context.Context) ([]ContainerSummary, error) {
	var out struct {
		Containers []ContainerSummary `json:"containers"`
	}
	err := c.do(ctx, "GET", "/api/containers", nil, nil, &out)
	return out.Containers, err
}

func (c *Client) command(ctx context.Context, method, path string, query url.Values, in interface{}) (model.CommandResult, error) {
	var res model.CommandResult
	err := c.do(ctx, method, path, query, in, &res)
	return res, err
}

func (c *Client) Create(ctx context.Context, cfg model.ContainerConfig) (model.CommandResult, error) {
	return c.command(ctx, "POST", "/api/containers", nil, cfg)
}

func (c *Client) Delete(ctx context.Context, name string) (model.CommandResult, error) {
	return c.command(ctx, "DELETE", containerPath(name, ""), nil, nil)
}

func (c *Client) Start(ctx context.Context, name string) (model.CommandResult, error) {
	return c.command(ctx, "POST", containerPath(name, "start"), nil, nil)
}

func (c *Client) Stop(ctx context.Context, name string) (model.CommandResult, error) {
	return c.command(ctx, "POST", containerPath(name, "stop"), nil, nil)
}

func (c *Client) Restart(ctx context.Context, name string) (model.CommandResult, error) {
	return c.command(ctx, "POST", containerPath(name, "restart"), nil, nil)
}

func (c *Client) Backup(ctx context.Context, name string, cfg model.BackupConfig) (model.CommandResult, error) {
	return c.command(ctx, "POST", containerPath(name, "backup"), nil, cfg)
}

// Logs returns the last lines of output. A runtime failure reported in the
// body is returned as an error.
func (c *Client) Logs(ctx context.Context, name string, lines int) (string, error) {
	var out struct {
		Logs string `json:"logs"`
		remoteError
	}

	q := url.Values{"lines": {strconv.Itoa(lines)}}
	if err := c.do(ctx, "GET", containerPath(name, "logs"), q, nil, &out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", fault.Errorf(out.ErrorKind, "%s", out.Error)
	}

	return out.Logs, nil
}

func (c *Client) Processes(ctx context.Context, name string) ([]model.Process, error) {
	var out struct {
		Processes []model.Process `json:"processes"`
		remoteError
	}

	if err := c.do(ctx, "GET", containerPath(name, "processes"), nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fault.Errorf(out.ErrorKind, "%s", out.Error)
	}

	return out.Processes, nil
}

// History returns recorded samples; rng is one of 30min, 1hour, 6hours,
// 1day, 1week
func (c *Client) History(ctx context.Context, name, rng string) ([]model.HistoryPoint, error) {
	var out struct {
		Points []model.HistoryPoint `json:"points"`
	}
	err := c.do(ctx, "GET", containerPath(name, "history"), url.Values{"range": {rng}}, nil, &out)
	return out.Points, err
}

func (c *Client) Backups(ctx context.Context, name string) ([]model.BackupInfo, error) {
	var out struct {
		Backups []model.BackupInfo `json:"backups"`
	}
	err := c.do(ctx, "GET", containerPath(name, "backups"), nil, nil, &out)
	return out.Backups, err
}

func (c *Client) Health(ctx context.Context) (model.CommandResult, error) {
	return c.command(ctx, "GET", "/api/health", nil, nil)
}

// URL is the base address the client talks to
func (c *Client) URL() string {
	return c.base.String()
}
