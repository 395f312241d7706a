package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// RateLimitOptions configures per-route rate limiting behavior
type RateLimitOptions struct {
	// LimitType selects the registered limit to enforce
	LimitType string

	// WaitOnLimit holds the request briefly instead of failing fast
	WaitOnLimit bool

	// WaitTimeout overrides the limit's wait timeout when non-zero
	WaitTimeout time.Duration

	// SkipLimitCheck bypasses the limiter for matching requests
	SkipLimitCheck func(*http.Request) bool
}

// Middleware enforces one registered limit on every request that passes
// through it. Responses carry RateLimit-* headers; refusals are 429s
// with Retry-After per RFC 6585.
func Middleware(service Service, logger *slog.Logger, options RateLimitOptions) func(http.Handler) http.Handler {
	// Jitter source for the capacity wait loop
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := logger.With("requestId", middleware.GetReqID(r.Context()))

			if options.SkipLimitCheck != nil && options.SkipLimitCheck(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFor(r, options)

			err := service.Allow(r.Context(), key)
			if err == nil {
				writeLimitHeaders(w, statusOrEmpty(r.Context(), service, key))
				next.ServeHTTP(w, r)
				return
			}

			if !errors.Is(err, ErrLimitExceeded) {
				reqLogger.Error("rate limit check failed",
					"error", err,
					"type", options.LimitType,
					"path", r.URL.Path,
				)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			standing := statusOrEmpty(r.Context(), service, key)
			if canWait(options, standing.Limit) {
				if waitErr := awaitCapacity(r.Context(), service, key, options, rnd); waitErr == nil {
					writeLimitHeaders(w, statusOrEmpty(r.Context(), service, key))
					next.ServeHTTP(w, r)
					return
				}
			}

			writeLimitExceeded(w, r, standing, reqLogger)
		})
	}
}

// keyFor derives the counter key for a request: the limit type plus the
// caller's IP and the path being hit.
func keyFor(r *http.Request, options RateLimitOptions) LimitKey {
	return LimitKey{
		Type:     options.LimitType,
		RemoteIP: realIP(r),
		Endpoint: r.URL.Path,
	}
}

// statusOrEmpty never fails; header writing falls back to a bare limit
// when the store cannot report standing.
func statusOrEmpty(ctx context.Context, service Service, key LimitKey) *LimitStatus {
	status, err := service.Status(ctx, key)
	if err != nil || status == nil {
		return &LimitStatus{Limit: service.GetLimit(key.Type), Reset: time.Now()}
	}
	return status
}

// writeLimitHeaders exposes the caller's budget on the response
func writeLimitHeaders(w http.ResponseWriter, st *LimitStatus) {
	h := w.Header()
	h.Set("RateLimit-Limit", strconv.Itoa(st.Limit.Rate))
	h.Set("RateLimit-Remaining", strconv.Itoa(st.Remaining))
	h.Set("RateLimit-Reset", strconv.FormatInt(st.Reset.Unix(), 10))

	if st.Limit.BurstSize > 0 {
		h.Set("RateLimit-Burst", strconv.Itoa(st.Limit.BurstSize))
	}
}

// writeLimitExceeded refuses the request with 429 and tells the caller
// when the window opens again.
func writeLimitExceeded(w http.ResponseWriter, r *http.Request, st *LimitStatus, logger *slog.Logger) {
	retryAfter := int(time.Until(st.Reset).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	logger.Warn("rate limit exceeded",
		"path", r.URL.Path,
		"method", r.Method,
		"remoteIP", realIP(r),
		"retryAfter", retryAfter,
	)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	fmt.Fprintf(w, `{"error":"rate_limit_exceeded","message":"Too many requests, please retry after %d seconds"}`, retryAfter)
}

// canWait reports whether this route is allowed to hold the request
// until capacity frees up instead of refusing outright.
func canWait(options RateLimitOptions, limit Limit) bool {
	if !options.WaitOnLimit {
		return false
	}

	timeout := limit.WaitTimeout
	if options.WaitTimeout > 0 {
		timeout = options.WaitTimeout
	}

	return timeout > 0
}

// awaitCapacity retries Allow under exponential backoff until it
// succeeds, the wait timeout lapses, or the request context ends.
func awaitCapacity(ctx context.Context, service Service, key LimitKey, options RateLimitOptions, rnd *rand.Rand) error {
	timeout := options.WaitTimeout
	if timeout == 0 {
		timeout = service.GetLimit(key.Type).WaitTimeout
	}

	start := time.Now()
	backoff := 100 * time.Millisecond
	maxBackoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context canceled while waiting for capacity: %w", ctx.Err())
		default:
			if time.Since(start) > timeout {
				return fmt.Errorf("timeout waiting for rate limit capacity")
			}
		}

		if err := service.Allow(ctx, key); err == nil {
			return nil
		}

		// Jitter spreads out renderers that hit the wall together
		sleep := time.Duration(float64(backoff) * (0.5 + rnd.Float64()))
		time.Sleep(sleep)

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// realIP resolves the caller identity counters are scoped to. Proxy
// headers win over the socket address so limits follow the kiosk, not
// the reverse proxy in front of it.
func realIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// CommonRateLimiters hands out the middleware stacks used by the kiosk
// API so routes stay consistent about which limit they carry
type CommonRateLimiters struct {
	service Service
	logger  *slog.Logger
}

// NewCommonRateLimiters creates a provider of standard rate limiters
func NewCommonRateLimiters(service Service, logger *slog.Logger) *CommonRateLimiters {
	return &CommonRateLimiters{
		service: service,
		logger:  logger,
	}
}

// PINAttemptLimiter guards the settings unlock endpoint. Attempts are
// never queued; a wrong guess burns budget immediately.
func (c *CommonRateLimiters) PINAttemptLimiter() func(http.Handler) http.Handler {
	return Middleware(c.service, c.logger, RateLimitOptions{
		LimitType:   "pin_attempt",
		WaitOnLimit: false,
	})
}

// APIRequestLimiter covers the general API surface. Bursty but
// well-behaved clients ride the burst allowance; probes do not.
func (c *CommonRateLimiters) APIRequestLimiter() func(http.Handler) http.Handler {
	return Middleware(c.service, c.logger, RateLimitOptions{
		LimitType:   "api_request",
		WaitOnLimit: true,
		SkipLimitCheck: func(r *http.Request) bool {
			// Liveness and readiness probes stay unthrottled
			return strings.HasPrefix(r.URL.Path, "/healthz") ||
				strings.HasPrefix(r.URL.Path, "/readyz")
		},
	})
}

// WebSocketLimiter bounds how often a renderer may open the event
// socket; established connections are unaffected.
func (c *CommonRateLimiters) WebSocketLimiter() func(http.Handler) http.Handler {
	return Middleware(c.service, c.logger, RateLimitOptions{
		LimitType:   "ws_connect",
		WaitOnLimit: false,
	})
}

// SettingsWriteLimiter bounds mutations behind the unlocked panel
func (c *CommonRateLimiters) SettingsWriteLimiter() func(http.Handler) http.Handler {
	return Middleware(c.service, c.logger, RateLimitOptions{
		LimitType:   "settings_write",
		WaitOnLimit: false,
	})
}
