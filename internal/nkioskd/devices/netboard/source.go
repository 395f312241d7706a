// Package netboard fetches the device feed from a Netboard dashboard server
// over its REST API.
package netboard

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/netboard/netboard-kiosk/internal/nkioskd/devices"
)

// Source pulls devices and fleet stats from the dashboard API
type Source struct {
	// baseURL is the root URL for all API requests
	baseURL string
	// httpClient is the underlying HTTP client
	httpClient *http.Client
	// token is the bearer token, if the server requires one
	token string
}

// Option configures a Source
type Option func(*Source)

// WithToken sets the bearer token sent with every request
func WithToken(token string) Option {
	return func(s *Source) {
		s.token = token
	}
}

// WithTLSConfig sets custom TLS configuration
func WithTLSConfig(config *tls.Config) Option {
	return func(s *Source) {
		s.httpClient = &http.Client{
			Transport: &http.Transport{TLSClientConfig: config},
			Timeout:   30 * time.Second,
		}
	}
}

// NewSource creates a dashboard API source
func NewSource(baseURL string, options ...Option) (*Source, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}
	u.Path = ""

	s := &Source{
		baseURL: u.String(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range options {
		opt(s)
	}

	return s, nil
}

// wireDevice is a device row as the dashboard serves it
type wireDevice struct {
	Name     string  `json:"name"`
	IP       string  `json:"ip"`
	Location string  `json:"location"`
	Status   string  `json:"status"`
	CPUUsage float64 `json:"cpuUsage"`
}

// wireStats is the fleet aggregate as the dashboard serves it
type wireStats struct {
	TotalDevices    int     `json:"totalDevices"`
	OnlineDevices   int     `json:"onlineDevices"`
	OfflineDevices  int     `json:"offlineDevices"`
	CriticalDevices int     `json:"criticalDevices"`
	AverageCPU      float64 `json:"averageCpu"`
}

// FetchDevices retrieves the device list in server order
func (s *Source) FetchDevices(ctx context.Context) ([]devices.Device, error) {
	var wire []wireDevice
	if err := s.get(ctx, "/api/v1/devices", &wire); err != nil {
		return nil, fmt.Errorf("error fetching devices: %w", err)
	}

	out := make([]devices.Device, 0, len(wire))
	for _, d := range wire {
		out = append(out, devices.Device{
			Name:     d.Name,
			IP:       d.IP,
			Location: d.Location,
			Status:   devices.ParseStatus(d.Status),
			CPUUsage: d.CPUUsage,
		})
	}
	return out, nil
}

// FetchStats retrieves the fleet aggregate
func (s *Source) FetchStats(ctx context.Context) (devices.Stats, error) {
	var wire wireStats
	if err := s.get(ctx, "/api/v1/stats", &wire); err != nil {
		return devices.Stats{}, fmt.Errorf("error fetching stats: %w", err)
	}

	return devices.Stats{
		Total:      wire.TotalDevices,
		Online:     wire.OnlineDevices,
		Offline:    wire.OfflineDevices,
		Critical:   wire.CriticalDevices,
		AverageCPU: wire.AverageCPU,
	}, nil
}

// get performs a GET request and decodes the JSON response
func (s *Source) get(ctx context.Context, pathStr string, target interface{}) error {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = path.Join(u.Path, pathStr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error performing request: %w", err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, target)
}

// decodeResponse decodes a JSON response into the provided target
func decodeResponse(resp *http.Response, target interface{}) error {
	if err := handleResponse(resp); err != nil {
		return err
	}
	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("error decoding response: %w", err)
		}
	}
	return nil
}

// handleResponse returns an error if the status code indicates failure
func handleResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		return fmt.Errorf("HTTP %d: unable to decode error response", resp.StatusCode)
	}

	msg := apiErr.Message
	if msg == "" {
		msg = apiErr.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, msg)
}
