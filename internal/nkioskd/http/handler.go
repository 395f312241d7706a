// Package http implements the control API for the kiosk daemon
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/netboard/netboard-kiosk/internal/nkioskd/kiosk"
	"github.com/netboard/netboard-kiosk/internal/nkioskd/ratelimit"
)

// Handler encapsulates the HTTP API for the kiosk controller
type Handler struct {
	controller *kiosk.Controller
	settings   kiosk.SettingsRepository
	ratelimit  ratelimit.Service
	logger     *slog.Logger
	hub        *hub
}

// NewHandler creates a new HTTP handler for kiosk endpoints
func NewHandler(
	controller *kiosk.Controller,
	settings kiosk.SettingsRepository,
	rateLimit ratelimit.Service,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		controller: controller,
		settings:   settings,
		ratelimit:  rateLimit,
		logger:     logger,
		hub:        newHub(logger),
	}
}

// Run pumps controller events to connected sockets until ctx ends
func (h *Handler) Run(ctx context.Context) {
	unsubscribe := h.controller.Events().OnAll(func(e kiosk.Event) {
		h.forwardEvent(ctx, e)
	})
	defer unsubscribe()
	h.hub.run(ctx)
}

// Router creates and configures the HTTP router for kiosk endpoints
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	// Basic middleware for all routes
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestIDHeaderMiddleware)
	r.Use(recoverMiddleware(h.logger))
	r.Use(logMiddleware(h.logger))

	rateLimits := ratelimit.NewCommonRateLimiters(h.ratelimit, h.logger)

	// Public health check endpoints
	r.Group(func(r chi.Router) {
		r.Get("/healthz", h.handleHealth())
		r.Get("/readyz", h.handleReady())
	})

	// API Routes
	r.Route("/api/v1alpha1/kiosk", func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Use(rateLimits.APIRequestLimiter())

		// Read surface
		r.Get("/state", h.GetState)
		r.Get("/devices", h.GetDevices)

		// Display surface available on every screen, locked or not
		r.Put("/view", h.SetView)
		r.Post("/wake", h.Wake)

		// Settings guard (with PIN attempt rate limiting)
		r.With(rateLimits.PINAttemptLimiter()).Post("/settings/unlock", h.UnlockSettings)
		r.Post("/settings/dismiss", h.DismissSettings)

		// Mutations behind the settings guard
		r.Group(func(r chi.Router) {
			r.Use(guardMiddleware(h.controller, h.logger))
			r.Use(rateLimits.SettingsWriteLimiter())

			r.Put("/active", h.SetActive)
			r.Put("/interval", h.SetInterval)
			r.Put("/schedule", h.SetSchedule)
			r.Put("/pin", h.UpdatePIN)
		})

		// WebSocket state feed
		r.With(rateLimits.WebSocketLimiter()).Get("/ws", h.ServeWs)

		// 404 Handler
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"not found"}`))
		})
	})

	return r
}

// handleHealth returns basic health check status
func (h *Handler) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}
}

// handleReady checks if the server is ready to accept requests
func (h *Handler) handleReady() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}
}
