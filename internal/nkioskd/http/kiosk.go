package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/netboard/netboard-kiosk/api/types/v1alpha1"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/devices"
	apperrors "github.com/netboard/netboard-kiosk/internal/nkioskd/errors"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/kiosk"
)

// stateToAPI converts a controller snapshot to the API type
func stateToAPI(s kiosk.State) *v1alpha1.KioskState {
	return &v1alpha1.KioskState{
		TypeMeta: v1alpha1.TypeMeta{
			Kind:       "KioskState",
			APIVersion: "v1alpha1",
		},
		SessionID:            s.SessionID,
		Active:               s.Active,
		ViewMode:             v1alpha1.ViewMode(s.ViewMode),
		CycleIntervalSeconds: int(s.CycleInterval / time.Second),
		AlertIndex:           s.AlertIndex,
		Sleeping:             s.Sleeping,
		Schedule: v1alpha1.KioskSchedule{
			Enabled: s.Schedule.Enabled,
			Window: v1alpha1.TimeRange{
				Start: s.Schedule.Start,
				End:   s.Schedule.End,
			},
		},
		WakeLockHeld:     s.WakeLockHeld,
		SettingsUnlocked: s.SettingsUnlocked,
		UpdatedAt:        s.UpdatedAt,
	}
}

func deviceToAPI(d devices.Device) v1alpha1.Device {
	return v1alpha1.Device{
		Name:     d.Name,
		IP:       d.IP,
		Location: d.Location,
		Status:   v1alpha1.DeviceStatus(d.Status),
		CPUUsage: d.CPUUsage,
	}
}

func deviceListToAPI(list []devices.Device) []v1alpha1.Device {
	out := make([]v1alpha1.Device, len(list))
	for i, d := range list {
		out[i] = deviceToAPI(d)
	}
	return out
}

// reportToAPI converts a device feed to the API type
func reportToAPI(feed kiosk.DeviceFeed) *v1alpha1.DeviceReport {
	report := &v1alpha1.DeviceReport{
		TypeMeta: v1alpha1.TypeMeta{
			Kind:       "DeviceReport",
			APIVersion: "v1alpha1",
		},
		Devices:     deviceListToAPI(feed.Devices),
		Problematic: deviceListToAPI(feed.Problematic),
		Stats: v1alpha1.SystemStats{
			TotalDevices:    feed.Stats.Total,
			OnlineDevices:   feed.Stats.Online,
			OfflineDevices:  feed.Stats.Offline,
			CriticalDevices: feed.Stats.Critical,
			AverageCPU:      feed.Stats.AverageCPU,
		},
		UpdatedAt: feed.UpdatedAt,
	}
	if feed.CurrentAlert != nil {
		alert := deviceToAPI(*feed.CurrentAlert)
		report.CurrentAlert = &alert
	}
	return report
}

// writeJSON encodes a response body
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response",
			"error", err,
			"requestId", middleware.GetReqID(r.Context()),
		)
	}
}

// decodeJSON parses a request body
func decodeJSON(r *http.Request, op string, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.NewError("INVALID_INPUT", "Malformed request body", op, err)
	}
	return nil
}

// GetState returns the current kiosk state record
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, stateToAPI(h.controller.Snapshot()))
}

// GetDevices returns the device feed as the renderer consumes it
func (h *Handler) GetDevices(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, reportToAPI(h.controller.DeviceFeed()))
}

// SetActive engages or disengages kiosk mode
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.SetActiveRequest
	if err := decodeJSON(r, "SetActive", &req); err != nil {
		writeError(w, err, http.StatusBadRequest, h.logger)
		return
	}

	if err := h.controller.SetActive(r.Context(), req.Active); err != nil {
		h.logger.Error("failed to set kiosk mode",
			"error", err,
			"requestId", middleware.GetReqID(r.Context()),
			"active", req.Active,
		)
		writeError(w, err, http.StatusInternalServerError, h.logger)
		return
	}

	h.writeJSON(w, r, stateToAPI(h.controller.Snapshot()))
}

// SetInterval changes the view rotation period. Out-of-range values are
// accepted; anything below one second parks the rotator.
func (h *Handler) SetInterval(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.SetIntervalRequest
	if err := decodeJSON(r, "SetInterval", &req); err != nil {
		writeError(w, err, http.StatusBadRequest, h.logger)
		return
	}

	interval := time.Duration(req.Seconds) * time.Second
	if err := h.controller.SetCycleInterval(r.Context(), interval); err != nil {
		writeError(w, err, http.StatusInternalServerError, h.logger)
		return
	}

	h.writeJSON(w, r, stateToAPI(h.controller.Snapshot()))
}

// SetSchedule updates the sleep schedule; omitted fields keep their
// current values. The new schedule is persisted so it survives restarts.
func (h *Handler) SetSchedule(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.SetScheduleRequest
	if err := decodeJSON(r, "SetSchedule", &req); err != nil {
		writeError(w, err, http.StatusBadRequest, h.logger)
		return
	}

	current := h.controller.Snapshot().Schedule
	start, end := current.Start, current.End
	if req.Start != nil {
		start = *req.Start
	}
	if req.End != nil {
		end = *req.End
	}

	if start != current.Start || end != current.End {
		if err := h.controller.SetScheduleWindow(r.Context(), start, end); err != nil {
			writeError(w, err, http.StatusBadRequest, h.logger)
			return
		}
	}
	if req.Enabled != nil {
		if err := h.controller.SetScheduleEnabled(r.Context(), *req.Enabled); err != nil {
			writeError(w, err, http.StatusInternalServerError, h.logger)
			return
		}
	}

	sched := h.controller.Snapshot().Schedule
	if err := h.settings.SaveSchedule(r.Context(), sched); err != nil {
		h.logger.Error("failed to persist schedule",
			"error", err,
			"requestId", middleware.GetReqID(r.Context()),
		)
		writeError(w, apperrors.NewError("STORAGE_ERROR", "Schedule applied but not persisted", "SetSchedule", err), http.StatusInternalServerError, h.logger)
		return
	}

	h.writeJSON(w, r, stateToAPI(h.controller.Snapshot()))
}

// SetView selects a dashboard screen
func (h *Handler) SetView(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.SetViewRequest
	if err := decodeJSON(r, "SetView", &req); err != nil {
		writeError(w, err, http.StatusBadRequest, h.logger)
		return
	}

	if err := h.controller.SetViewMode(r.Context(), kiosk.ViewMode(req.View)); err != nil {
		writeError(w, err, http.StatusInternalServerError, h.logger)
		return
	}

	h.writeJSON(w, r, stateToAPI(h.controller.Snapshot()))
}

// Wake clears the sleep overlay until the next schedule evaluation
func (h *Handler) Wake(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Wake(r.Context()); err != nil {
		writeError(w, err, http.StatusInternalServerError, h.logger)
		return
	}

	h.writeJSON(w, r, stateToAPI(h.controller.Snapshot()))
}

// UnlockSettings checks a PIN candidate and opens the settings panel
func (h *Handler) UnlockSettings(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.UnlockRequest
	if err := decodeJSON(r, "UnlockSettings", &req); err != nil {
		writeError(w, err, http.StatusBadRequest, h.logger)
		return
	}

	if err := h.controller.SubmitPIN(r.Context(), req.PIN); err != nil {
		// The error carries no PIN material, stored or submitted
		h.logger.Warn("settings unlock rejected",
			"requestId", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, err, http.StatusInternalServerError, h.logger)
		return
	}

	h.writeJSON(w, r, stateToAPI(h.controller.Snapshot()))
}

// DismissSettings closes the settings panel and re-arms the guard
func (h *Handler) DismissSettings(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.DismissSettings(r.Context()); err != nil {
		writeError(w, err, http.StatusInternalServerError, h.logger)
		return
	}

	h.writeJSON(w, r, stateToAPI(h.controller.Snapshot()))
}

// UpdatePIN replaces the stored settings PIN. The response never echoes
// the value back.
func (h *Handler) UpdatePIN(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.UpdatePINRequest
	if err := decodeJSON(r, "UpdatePIN", &req); err != nil {
		writeError(w, err, http.StatusBadRequest, h.logger)
		return
	}

	if err := kiosk.ValidatePIN(req.PIN); err != nil {
		writeError(w, err, http.StatusBadRequest, h.logger)
		return
	}

	if err := h.settings.SavePIN(r.Context(), req.PIN); err != nil {
		h.logger.Error("failed to store PIN",
			"error", err,
			"requestId", middleware.GetReqID(r.Context()),
		)
		writeError(w, apperrors.NewError("STORAGE_ERROR", "Failed to store PIN", "UpdatePIN", err), http.StatusInternalServerError, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
