package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Micevski239/gerbera-sub000/internal/domain"
)

const defaultProbeTimeout = 1500 * time.Millisecond

// Probe is a named readiness check.
type Probe struct {
	Name    string
	Timeout time.Duration
	Check   func(context.Context) error
}

// HealthOption customises the probe-backed health repository.
type HealthOption func(*probeHealthRepository)

// WithProbeTimeout overrides the timeout used by probes that omit their own.
func WithProbeTimeout(timeout time.Duration) HealthOption {
	return func(r *probeHealthRepository) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithHealthClock injects a clock.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(r *probeHealthRepository) {
		if clock != nil {
			r.now = clock
		}
	}
}

type probeHealthRepository struct {
	probes  []Probe
	timeout time.Duration
	now     func() time.Time
}

// NewHealthRepository validates probes up front and returns a repository that runs them concurrently.
func NewHealthRepository(probes []Probe, opts ...HealthOption) (HealthRepository, error) {
	if len(probes) == 0 {
		return nil, errors.New("health repository: at least one probe is required")
	}
	for _, p := range probes {
		if strings.TrimSpace(p.Name) == "" {
			return nil, errors.New("health repository: probe missing name")
		}
		if p.Check == nil {
			return nil, fmt.Errorf("health repository: probe %s missing check function", p.Name)
		}
	}
	r := &probeHealthRepository{
		probes:  append([]Probe(nil), probes...),
		timeout: defaultProbeTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

func (r *probeHealthRepository) Collect(ctx context.Context) (domain.HealthReport, error) {
	results := make(map[string]domain.HealthCheck, len(r.probes))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, p := range r.probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			result := r.run(ctx, p)
			mu.Lock()
			results[p.Name] = result
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	status := domain.HealthStatusOK
	for _, result := range results {
		switch result.Status {
		case domain.HealthStatusError:
			status = domain.HealthStatusError
		case domain.HealthStatusDegraded:
			if status == domain.HealthStatusOK {
				status = domain.HealthStatusDegraded
			}
		}
	}
	return domain.HealthReport{Status: status, Checks: results, GeneratedAt: r.now()}, nil
}

func (r *probeHealthRepository) run(ctx context.Context, p Probe) domain.HealthCheck {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := r.now()
	err := p.Check(probeCtx)
	end := r.now()

	check := domain.HealthCheck{Status: domain.HealthStatusOK, Detail: "ok", Latency: end.Sub(start), CheckedAt: end}
	switch {
	case err == nil && probeCtx.Err() == nil:
	case errors.Is(err, context.DeadlineExceeded) || (err == nil && probeCtx.Err() != nil):
		check.Status = domain.HealthStatusError
		check.Detail = "timeout"
	case errors.Is(err, context.Canceled):
		check.Status = domain.HealthStatusError
		check.Detail = "cancelled"
	default:
		var repoErr RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
			check.Status = domain.HealthStatusError
		} else {
			check.Status = domain.HealthStatusDegraded
		}
		check.Detail = err.Error()
	}
	return check
}
