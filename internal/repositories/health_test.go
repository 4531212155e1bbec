package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Micevski239/gerbera-sub000/internal/domain"
)

type unavailableErr struct{}

func (unavailableErr) Error() string       { return "down" }
func (unavailableErr) IsNotFound() bool    { return false }
func (unavailableErr) IsConflict() bool    { return false }
func (unavailableErr) IsUnavailable() bool { return true }

func TestHealthRepositoryAggregatesStatus(t *testing.T) {
	repo, err := NewHealthRepository([]Probe{
		{Name: "datastore", Check: func(context.Context) error { return nil }},
		{Name: "images", Check: func(context.Context) error { return errors.New("slow bucket") }},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report, err := repo.Collect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != domain.HealthStatusDegraded {
		t.Fatalf("expected degraded, got %s", report.Status)
	}
	if report.Checks["datastore"].Status != domain.HealthStatusOK {
		t.Fatalf("expected datastore ok, got %+v", report.Checks["datastore"])
	}
	if report.Checks["images"].Detail != "slow bucket" {
		t.Fatalf("expected detail to carry error, got %q", report.Checks["images"].Detail)
	}
}

func TestHealthRepositoryUnavailableAndTimeout(t *testing.T) {
	repo, err := NewHealthRepository([]Probe{
		{Name: "datastore", Check: func(context.Context) error { return unavailableErr{} }},
		{Name: "secrets", Timeout: 10 * time.Millisecond, Check: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report, _ := repo.Collect(context.Background())
	if report.Status != domain.HealthStatusError {
		t.Fatalf("expected error status, got %s", report.Status)
	}
	if report.Checks["secrets"].Detail != "timeout" {
		t.Fatalf("expected timeout detail, got %q", report.Checks["secrets"].Detail)
	}
	if report.Checks["datastore"].Status != domain.HealthStatusError {
		t.Fatalf("expected unavailable store to be an error, got %s", report.Checks["datastore"].Status)
	}
}

func TestNewHealthRepositoryValidation(t *testing.T) {
	if _, err := NewHealthRepository(nil); err == nil {
		t.Fatalf("expected error for empty probes")
	}
	if _, err := NewHealthRepository([]Probe{{Name: "x"}}); err == nil {
		t.Fatalf("expected error for missing check")
	}
}
