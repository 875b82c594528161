package docker

import (
	"context"
	"path/filepath"
	"time"

	"github.com/docker/docker/client"
	"github.com/rusenback/webtopd/internal/fault"
)

// Config describes how to reach the container runtime.
type Config struct {
	Host string

	// CertDir holds ca.pem, cert.pem and key.pem when set.
	CertDir string

	PingTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Host:        "unix:///var/run/docker.sock",
		PingTimeout: 30 * time.Second,
	}
}

// Client is the Runtime backed by the docker engine API.
type Client struct {
	api *client.Client
}

// NewClient connects to the engine and pings it once so a dead socket
// fails at startup instead of on the first tick.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}

	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}

	if cfg.CertDir != "" {
		opts = append(opts, client.WithTLSClientConfig(
			filepath.Join(cfg.CertDir, "ca.pem"),
			filepath.Join(cfg.CertDir, "cert.pem"),
			filepath.Join(cfg.CertDir, "key.pem"),
		))
	}

	api, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fault.Wrap(fault.KindRuntime, err, "docker client")
	}

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().PingTimeout
	}

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := api.Ping(pctx); err != nil {
		api.Close()
		return nil, fault.Wrap(fault.KindRuntime, err, "docker ping")
	}

	return &Client{api: api}, nil
}

func (c *Client) Close() error {
	if c.api == nil {
		return nil
	}
	return c.api.Close()
}
