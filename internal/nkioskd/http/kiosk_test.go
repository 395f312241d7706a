package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netboard/netboard-kiosk/api/types/v1alpha1"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/devices"
	testhttp "github.com/netboard/netboard-kiosk/internal/nkioskd/http/testing"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/kiosk"
)

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) v1alpha1.KioskState {
	t.Helper()
	var state v1alpha1.KioskState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	return state
}

func unlock(t *testing.T, router http.Handler) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/v1alpha1/kiosk/settings/unlock", v1alpha1.UnlockRequest{PIN: "0000"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetState_Defaults(t *testing.T) {
	th := testhttp.NewTestHandler(t)
	router := th.Handler.Router()

	rec := doJSON(t, router, http.MethodGet, "/api/v1alpha1/kiosk/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	state := decodeState(t, rec)
	assert.Equal(t, "KioskState", state.Kind)
	assert.False(t, state.Active)
	assert.Equal(t, v1alpha1.ViewModeOverview, state.ViewMode)
	assert.Equal(t, 10, state.CycleIntervalSeconds)
	assert.False(t, state.SettingsUnlocked)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", state.SessionID.String())
}

func TestUnlockFlow(t *testing.T) {
	th := testhttp.NewTestHandler(t)
	router := th.Handler.Router()

	// Factory default PIN opens the panel when none is stored
	rec := doJSON(t, router, http.MethodPost, "/api/v1alpha1/kiosk/settings/unlock", v1alpha1.UnlockRequest{PIN: "0000"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeState(t, rec).SettingsUnlocked)

	// Guarded mutation now works
	rec = doJSON(t, router, http.MethodPut, "/api/v1alpha1/kiosk/active", v1alpha1.SetActiveRequest{Active: true})
	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeState(t, rec)
	assert.True(t, state.Active)
	assert.False(t, state.WakeLockHeld, "no wake lock support on the test platform")

	// Dismissing re-arms the guard
	rec = doJSON(t, router, http.MethodPost, "/api/v1alpha1/kiosk/settings/dismiss", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeState(t, rec).SettingsUnlocked)

	rec = doJSON(t, router, http.MethodPut, "/api/v1alpha1/kiosk/active", v1alpha1.SetActiveRequest{Active: false})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUnlock_WrongPIN(t *testing.T) {
	th := testhttp.NewTestHandler(t)
	router := th.Handler.Router()
	require.NoError(t, th.Settings.SavePIN(context.Background(), "4321"))

	rec := doJSON(t, router, http.MethodPost, "/api/v1alpha1/kiosk/settings/unlock", v1alpha1.UnlockRequest{PIN: "1111"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "PIN_MISMATCH")
	assert.NotContains(t, rec.Body.String(), "4321")
	assert.NotContains(t, rec.Body.String(), "1111")
}

func TestUnlock_RateLimited(t *testing.T) {
	th := testhttp.NewTestHandler(t)
	router := th.Handler.Router()
	require.NoError(t, th.Settings.SavePIN(context.Background(), "4321"))

	for i := 0; i < 5; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/v1alpha1/kiosk/settings/unlock", v1alpha1.UnlockRequest{PIN: "1111"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := doJSON(t, router, http.MethodPost, "/api/v1alpha1/kiosk/settings/unlock", v1alpha1.UnlockRequest{PIN: "1111"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestSetInterval(t *testing.T) {
	th := testhttp.NewTestHandler(t)
	router := th.Handler.Router()
	unlock(t, router)

	rec := doJSON(t, router, http.MethodPut, "/api/v1alpha1/kiosk/interval", v1alpha1.SetIntervalRequest{Seconds: 30})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, decodeState(t, rec).CycleIntervalSeconds)

	// Out-of-range values are accepted; zero parks the rotator
	rec = doJSON(t, router, http.MethodPut, "/api/v1alpha1/kiosk/interval", v1alpha1.SetIntervalRequest{Seconds: 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeState(t, rec).CycleIntervalSeconds)
}

func TestSetSchedule(t *testing.T) {
	th := testhttp.NewTestHandler(t)
	router := th.Handler.Router()
	unlock(t, router)

	enabled := true
	start, end := "08:00", "18:00"
	rec := doJSON(t, router, http.MethodPut, "/api/v1alpha1/kiosk/schedule", v1alpha1.SetScheduleRequest{
		Enabled: &enabled,
		Start:   &start,
		End:     &end,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	state := decodeState(t, rec)
	assert.True(t, state.Schedule.Enabled)
	assert.Equal(t, "08:00", state.Schedule.Window.Start)
	assert.Equal(t, "18:00", state.Schedule.Window.End)

	stored, ok := th.Settings.StoredSchedule()
	require.True(t, ok, "schedule is persisted for the next boot")
	assert.Equal(t, kiosk.Schedule{Enabled: true, Start: "08:00", End: "18:00"}, stored)

	// Omitted fields keep their values
	disabled := false
	rec = doJSON(t, router, http.MethodPut, "/api/v1alpha1/kiosk/schedule", v1alpha1.SetScheduleRequest{Enabled: &disabled})
	require.Equal(t, http.StatusOK, rec.Code)
	state = decodeState(t, rec)
	assert.False(t, state.Schedule.Enabled)
	assert.Equal(t, "08:00", state.Schedule.Window.Start)
}

func TestSetSchedule_MalformedWindow(t *testing.T) {
	th := testhttp.NewTestHandler(t)
	router := th.Handler.Router()
	unlock(t, router)

	start := "8pm"
	rec := doJSON(t, router, http.MethodPut, "/api/v1alpha1/kiosk/schedule", v1alpha1.SetScheduleRequest{Start: &start})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePIN(t *testing.T) {
	th := testhttp.NewTestHandler(t)
	router := th.Handler.Router()
	unlock(t, router)

	rec := doJSON(t, router, http.MethodPut, "/api/v1alpha1/kiosk/pin", v1alpha1.UpdatePINRequest{PIN: "4321"})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String(), "the new PIN is never echoed back")

	pin, ok := th.Settings.StoredPIN()
	require.True(t, ok)
	assert.Equal(t, "4321", pin)

	// The old default stops working immediately
	rec = doJSON(t, router, http.MethodPost, "/api/v1alpha1/kiosk/settings/dismiss", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodPost, "/api/v1alpha1/kiosk/settings/unlock", v1alpha1.UnlockRequest{PIN: "0000"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = doJSON(t, router, http.MethodPost, "/api/v1alpha1/kiosk/settings/unlock", v1alpha1.UnlockRequest{PIN: "4321"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdatePIN_RejectsMalformed(t *testing.T) {
	th := testhttp.NewTestHandler(t)
	router := th.Handler.Router()
	unlock(t, router)

	for _, pin := range []string{"123", "12345", "abcd", ""} {
		rec := doJSON(t, router, http.MethodPut, "/api/v1alpha1/kiosk/pin", v1alpha1.UpdatePINRequest{PIN: pin})
		assert.Equal(t, http.StatusBadRequest, rec.Code, pin)
	}

	_, ok := th.Settings.StoredPIN()
	assert.False(t, ok, "rejected candidates are never stored")
}

func TestSetView(t *testing.T) {
	th := testhttp.NewTestHandler(t)
	router := th.Handler.Router()

	// Free navigation while kiosk mode is off
	rec := doJSON(t, router, http.MethodPut, "/api/v1alpha1/kiosk/view", v1alpha1.SetViewRequest{View: v1alpha1.ViewModeTopology})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, v1alpha1.ViewModeTopology, decodeState(t, rec).ViewMode)

	unlock(t, router)
	rec = doJSON(t, router, http.MethodPut, "/api/v1alpha1/kiosk/active", v1alpha1.SetActiveRequest{Active: true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, v1alpha1.ViewModeOverview, decodeState(t, rec).ViewMode, "activation pulls the display back to overview")

	// Kiosk mode restricts the reachable screens
	rec = doJSON(t, router, http.MethodPut, "/api/v1alpha1/kiosk/view", v1alpha1.SetViewRequest{View: v1alpha1.ViewModeLocation})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/v1alpha1/kiosk/view", v1alpha1.SetViewRequest{View: v1alpha1.ViewModeInsights})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/v1alpha1/kiosk/view", v1alpha1.SetViewRequest{View: "terminal"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDevices(t *testing.T) {
	th := testhttp.NewTestHandler(t)
	router := th.Handler.Router()
	ctx := context.Background()

	require.NoError(t, th.Controller.UpdateDevices(ctx, []devices.Device{
		{Name: "core-sw-1", IP: "10.0.0.1", Location: "dc-1", Status: devices.StatusOnline, CPUUsage: 12},
		{Name: "edge-fw-1", IP: "10.0.0.2", Location: "dc-1", Status: devices.StatusOffline},
	}))
	require.NoError(t, th.Controller.UpdateStats(ctx, devices.Stats{Total: 2, Online: 1, Offline: 1}))

	rec := doJSON(t, router, http.MethodGet, "/api/v1alpha1/kiosk/devices", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report v1alpha1.DeviceReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "DeviceReport", report.Kind)
	assert.Len(t, report.Devices, 2)
	require.Len(t, report.Problematic, 1)
	assert.Equal(t, "edge-fw-1", report.Problematic[0].Name)
	require.NotNil(t, report.CurrentAlert)
	assert.Equal(t, "edge-fw-1", report.CurrentAlert.Name)
	assert.Equal(t, 2, report.Stats.TotalDevices)
}

func TestWake(t *testing.T) {
	clock := time.Date(2024, 3, 14, 20, 0, 0, 0, time.Local)
	th := testhttp.NewTestHandler(t, kiosk.WithClock(func() time.Time { return clock }))
	router := th.Handler.Router()
	ctx := context.Background()

	require.NoError(t, th.Controller.SetScheduleWindow(ctx, "08:00", "18:00"))
	require.NoError(t, th.Controller.SetScheduleEnabled(ctx, true))
	require.NoError(t, th.Controller.SetActive(ctx, true))
	require.True(t, th.Controller.Snapshot().Sleeping)

	rec := doJSON(t, router, http.MethodPost, "/api/v1alpha1/kiosk/wake", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeState(t, rec).Sleeping)
}
