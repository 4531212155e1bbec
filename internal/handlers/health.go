package handlers

import (
	"net/http"
	"time"

	"github.com/Micevski239/gerbera-sub000/internal/domain"
	"github.com/Micevski239/gerbera-sub000/internal/platform/httpx"
	"github.com/Micevski239/gerbera-sub000/internal/services"
)

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	system  services.SystemService
	version string
	clock   func() time.Time
	started time.Time
}

// HealthOption customises HealthHandlers.
type HealthOption func(*HealthHandlers)

// WithSystemService wires readiness to the dependency probes.
func WithSystemService(svc services.SystemService) HealthOption {
	return func(h *HealthHandlers) {
		h.system = svc
	}
}

// WithVersion reports the build version in probe responses.
func WithVersion(version string) HealthOption {
	return func(h *HealthHandlers) {
		h.version = version
	}
}

// WithHealthClock overrides the clock used for timestamps and uptime.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewHealthHandlers constructs the probe handlers. Without a system service,
// readiness mirrors liveness.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	h.started = h.clock()
	return h
}

type healthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]checkResult `json:"checks,omitempty"`
}

type checkResult struct {
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Healthz reports liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	httpx.WriteJSON(w, http.StatusOK, healthResponse{
		Status:    domain.HealthStatusOK,
		Version:   h.version,
		Uptime:    now.Sub(h.started).Truncate(time.Second).String(),
		Timestamp: now.UTC().Format(time.RFC3339),
	})
}

// Readyz reports readiness. Any probe in error status yields 503; degraded
// probes still serve traffic.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.system == nil {
		h.Healthz(w, r)
		return
	}
	report, err := h.system.Readiness(r.Context())
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("readiness_failed", err.Error(), http.StatusServiceUnavailable).AsRetryable())
		return
	}

	resp := healthResponse{
		Status:    report.Status,
		Version:   h.version,
		Timestamp: report.GeneratedAt.UTC().Format(time.RFC3339),
		Checks:    make(map[string]checkResult, len(report.Checks)),
	}
	for name, check := range report.Checks {
		resp.Checks[name] = checkResult{
			Status:    check.Status,
			Detail:    check.Detail,
			LatencyMS: check.Latency.Milliseconds(),
		}
	}

	status := http.StatusOK
	if report.Status == domain.HealthStatusError {
		status = http.StatusServiceUnavailable
	}
	httpx.WriteJSON(w, status, resp)
}
