package netboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netboard/netboard-kiosk/internal/nkioskd/devices"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sekrit" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"missing token"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/devices":
			w.Write([]byte(`[
				{"name":"core-sw-1","ip":"10.0.0.1","location":"dc-1","status":"online","cpuUsage":41.5},
				{"name":"edge-fw-1","ip":"10.0.0.2","location":"dc-1","status":"Critical","cpuUsage":97.0},
				{"name":"sensor-7","ip":"10.0.0.9","location":"roof","status":"flapping","cpuUsage":12.0}
			]`))
		case "/api/v1/stats":
			w.Write([]byte(`{"totalDevices":3,"onlineDevices":1,"offlineDevices":0,"criticalDevices":1,"averageCpu":50.2}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"not found"}`))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSource_FetchDevices(t *testing.T) {
	server := newTestServer(t)
	src, err := NewSource(server.URL, WithToken("sekrit"))
	require.NoError(t, err)

	list, err := src.FetchDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, devices.Device{
		Name: "core-sw-1", IP: "10.0.0.1", Location: "dc-1",
		Status: devices.StatusOnline, CPUUsage: 41.5,
	}, list[0])
	assert.Equal(t, devices.StatusCritical, list[1].Status, "status case is normalized")
	assert.Equal(t, devices.StatusWarning, list[2].Status, "unknown statuses render as WARNING")
}

func TestSource_FetchStats(t *testing.T) {
	server := newTestServer(t)
	src, err := NewSource(server.URL, WithToken("sekrit"))
	require.NoError(t, err)

	stats, err := src.FetchStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, devices.Stats{
		Total:      3,
		Online:     1,
		Critical:   1,
		AverageCPU: 50.2,
	}, stats)
}

func TestSource_AuthFailure(t *testing.T) {
	server := newTestServer(t)
	src, err := NewSource(server.URL)
	require.NoError(t, err)

	_, err = src.FetchDevices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
	assert.Contains(t, err.Error(), "missing token")
}

func TestNewSource_RejectsBadURL(t *testing.T) {
	_, err := NewSource("not a url")
	assert.Error(t, err)

	_, err = NewSource("://broken")
	assert.Error(t, err)
}
