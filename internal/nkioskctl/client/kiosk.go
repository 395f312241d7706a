package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/netboard/netboard-kiosk/api/types/v1alpha1"
)

const apiBase = "/api/v1alpha1/kiosk"

// GetState fetches the current kiosk state record
func (c *Client) GetState(ctx context.Context) (*v1alpha1.KioskState, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, apiBase+"/state", nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching state: %w", err)
	}

	var state v1alpha1.KioskState
	if err := decodeResponse(resp, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// GetDevices fetches the device feed as the display renders it
func (c *Client) GetDevices(ctx context.Context) (*v1alpha1.DeviceReport, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, apiBase+"/devices", nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching devices: %w", err)
	}

	var report v1alpha1.DeviceReport
	if err := decodeResponse(resp, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// SetView switches the dashboard to the given screen
func (c *Client) SetView(ctx context.Context, view v1alpha1.ViewMode) (*v1alpha1.KioskState, error) {
	return c.putState(ctx, apiBase+"/view", http.MethodPut, &v1alpha1.SetViewRequest{View: view})
}

// Wake turns the display back on during a scheduled sleep window
func (c *Client) Wake(ctx context.Context) (*v1alpha1.KioskState, error) {
	return c.putState(ctx, apiBase+"/wake", http.MethodPost, nil)
}

// Unlock submits a PIN candidate to open the settings surface
func (c *Client) Unlock(ctx context.Context, pin string) (*v1alpha1.KioskState, error) {
	return c.putState(ctx, apiBase+"/settings/unlock", http.MethodPost, &v1alpha1.UnlockRequest{PIN: pin})
}

// Dismiss closes the settings surface and re-arms the PIN guard
func (c *Client) Dismiss(ctx context.Context) (*v1alpha1.KioskState, error) {
	return c.putState(ctx, apiBase+"/settings/dismiss", http.MethodPost, nil)
}

// SetActive engages or disengages kiosk mode. Requires an unlocked
// settings surface; see WithSettingsUnlocked.
func (c *Client) SetActive(ctx context.Context, active bool) (*v1alpha1.KioskState, error) {
	return c.putState(ctx, apiBase+"/active", http.MethodPut, &v1alpha1.SetActiveRequest{Active: active})
}

// SetInterval changes the view rotation period in seconds. Values below
// one disable rotation. Requires an unlocked settings surface.
func (c *Client) SetInterval(ctx context.Context, seconds int) (*v1alpha1.KioskState, error) {
	return c.putState(ctx, apiBase+"/interval", http.MethodPut, &v1alpha1.SetIntervalRequest{Seconds: seconds})
}

// SetSchedule updates the sleep schedule; nil fields keep their current
// values. Requires an unlocked settings surface.
func (c *Client) SetSchedule(ctx context.Context, req *v1alpha1.SetScheduleRequest) (*v1alpha1.KioskState, error) {
	return c.putState(ctx, apiBase+"/schedule", http.MethodPut, req)
}

// UpdatePIN replaces the stored settings PIN. Requires an unlocked
// settings surface. The daemon never echoes the value back.
func (c *Client) UpdatePIN(ctx context.Context, newPIN string) error {
	resp, err := c.doRequest(ctx, http.MethodPut, apiBase+"/pin", &v1alpha1.UpdatePINRequest{PIN: newPIN})
	if err != nil {
		return fmt.Errorf("error updating PIN: %w", err)
	}
	return decodeResponse(resp, nil)
}

// WithSettingsUnlocked unlocks the settings surface with the client's
// PIN, runs fn, and dismisses the surface again even when fn fails.
func (c *Client) WithSettingsUnlocked(ctx context.Context, fn func(context.Context) error) error {
	if c.pin == "" {
		return fmt.Errorf("no PIN configured; pass --pin or run 'nkioskctl config set --pin'")
	}

	if _, err := c.Unlock(ctx, c.pin); err != nil {
		return fmt.Errorf("error unlocking settings: %w", err)
	}

	fnErr := fn(ctx)

	if _, err := c.Dismiss(ctx); err != nil && fnErr == nil {
		return fmt.Errorf("error re-locking settings: %w", err)
	}

	return fnErr
}

// putState issues a state-mutating request and decodes the fresh state
// record the daemon responds with
func (c *Client) putState(ctx context.Context, path, method string, body interface{}) (*v1alpha1.KioskState, error) {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return nil, fmt.Errorf("error calling %s: %w", path, err)
	}

	var state v1alpha1.KioskState
	if err := decodeResponse(resp, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
