package client

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// decodeResponse drains one API response. Non-2xx statuses become
// errors carrying the daemon's error body; success decodes into target
// when one is given.
func decodeResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiErrorFrom(resp)
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

// apiErrorFrom renders the daemon's {"error","message"} body as a
// client error, falling back to the status text on opaque bodies.
func apiErrorFrom(resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	detail := http.StatusText(resp.StatusCode)
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		switch {
		case body.Message != "":
			detail = body.Message
		case body.Error != "":
			detail = body.Error
		}
	}

	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, detail)
}
