// Package client provides an HTTP client for the kiosk daemon control API
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// defaultTimeout bounds every control call; the daemon answers on the
// local network, so anything slower is a hang, not a slow link
const defaultTimeout = 30 * time.Second

// Client talks to a running kiosk daemon
type Client struct {
	base       *url.URL
	httpClient *http.Client

	// pin unlocks the settings surface for mutating calls
	pin string
}

// Option configures a Client
type Option func(*Client)

// WithPIN sets the settings PIN used by mutating calls
func WithPIN(pin string) Option {
	return func(c *Client) {
		c.pin = pin
	}
}

// WithTLSConfig swaps in custom TLS settings, such as trusting a
// self-signed daemon certificate
func WithTLSConfig(config *tls.Config) Option {
	return func(c *Client) {
		c.httpClient.Transport = &http.Transport{TLSClientConfig: config}
	}
}

// NewClient builds a client for the daemon at baseURL. The URL must
// name a scheme and host; any path component is discarded.
func NewClient(baseURL string, options ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must include scheme and host", baseURL)
	}
	u.Path = ""

	c := &Client{
		base:       u,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// doRequest issues one API call and hands the raw response to the
// caller for decodeResponse to drain
func (c *Client) doRequest(ctx context.Context, method, apiPath string, body interface{}) (*http.Response, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error encoding request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(apiPath).String(), payload)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}
