// Package network owns the panel's HTTP client and its view of whether
// the telemetry host is reachable.
package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/http2"

	"hwpanel-go/errcode"
)

// maxBody bounds any response body read into memory.
const maxBody = 1 << 20

type Options struct {
	ProbeURL           string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

type Client struct {
	log       zerolog.Logger
	http      *http.Client
	probeURL  string
	connected atomic.Bool
}

// New builds a client whose transport negotiates HTTP/2 on TLS endpoints
// and falls back to HTTP/1.1 elsewhere.
func New(log zerolog.Logger, opts Options) (*Client, error) {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // opt-in for self-signed LAN hosts
		},
	}
	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, fmt.Errorf("failed to configure http2 transport: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return NewWithHTTP(log, &http.Client{Transport: tr, Timeout: timeout}, opts.ProbeURL), nil
}

// NewWithHTTP wraps an existing *http.Client.
func NewWithHTTP(log zerolog.Logger, hc *http.Client, probeURL string) *Client {
	return &Client{log: log, http: hc, probeURL: probeURL}
}

// Connect probes the configured host. Any HTTP response counts as
// reachable; only transport failures mark the network down.
func (c *Client) Connect(ctx context.Context) error {
	if c.probeURL == "" {
		c.connected.Store(false)
		return &errcode.E{C: errcode.NetworkDown, Op: "network.connect", Msg: "no probe url"}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.probeURL, nil)
	if err != nil {
		return errcode.Wrap(errcode.NetworkDown, "network.connect", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.connected.Store(false)
		return errcode.Wrap(errcode.NetworkDown, "network.connect", err)
	}
	resp.Body.Close()
	c.connected.Store(true)
	c.log.Debug().Str("url", c.probeURL).Str("proto", resp.Proto).Int("status", resp.StatusCode).Msg("probe ok")
	return nil
}

func (c *Client) IsConnected() bool { return c.connected.Load() }

// Get fetches url and returns the body of a 200 response.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errcode.Wrap(errcode.FetchFailed, "network.get", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		c.connected.Store(false)
		return nil, errcode.Wrap(errcode.FetchFailed, "network.get", err)
	}
	defer resp.Body.Close()
	c.connected.Store(true)

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, &errcode.E{C: errcode.FetchFailed, Op: "network.get", Msg: "unexpected status " + resp.Status}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errcode.Wrap(errcode.FetchFailed, "network.get", err)
	}
	return body, nil
}

// Date returns the server's Date header for url.
func (c *Client) Date(ctx context.Context, url string) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return time.Time{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return time.Time{}, err
	}
	resp.Body.Close()
	h := resp.Header.Get("Date")
	if h == "" {
		return time.Time{}, fmt.Errorf("no Date header from %s", url)
	}
	return http.ParseTime(h)
}
