package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/pearlpos/api/internal/repositories"
)

// SystemServiceDeps bundles the collaborators for the system service.
type SystemServiceDeps struct {
	Health repositories.HealthRepository
}

type systemService struct {
	health repositories.HealthRepository
}

// NewSystemService wires dependencies into a SystemService.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.Health == nil {
		return nil, errors.New("system service: health repository is required")
	}
	return &systemService{health: deps.Health}, nil
}

func (s *systemService) Ready(ctx context.Context) error {
	if err := s.health.Ping(ctx); err != nil {
		return fmt.Errorf("system service: store ping: %w", err)
	}
	return nil
}
