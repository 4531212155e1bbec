package services

import (
	"context"
	"errors"

	"github.com/Micevski239/gerbera-sub000/internal/repositories"
)

// ErrHealthRepositoryMissing indicates readiness probes were not configured.
var ErrHealthRepositoryMissing = errors.New("system service: health repository is not configured")

type systemService struct {
	health repositories.HealthRepository
}

// NewSystemService wraps a health repository.
func NewSystemService(health repositories.HealthRepository) (SystemService, error) {
	if health == nil {
		return nil, ErrHealthRepositoryMissing
	}
	return &systemService{health: health}, nil
}

func (s *systemService) Readiness(ctx context.Context) (HealthReport, error) {
	return s.health.Collect(ctx)
}
