package attendance

import (
	"context"

	"github.com/smart-attendance/attendance/internal/access"
	"github.com/smart-attendance/attendance/internal/platform/httpx"
)

// Service implements attendance workflows.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns records matching filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Record, error) {
	return s.repo.List(ctx, filter)
}

// Record stores a new entry.
func (s *Service) Record(ctx context.Context, in RecordInput) (*Record, error) {
	return s.repo.Create(ctx, in)
}

// Mine returns the caller's own records.
func (s *Service) Mine(ctx context.Context, caller *access.Identity) ([]Record, error) {
	if caller == nil {
		return nil, httpx.Unauthenticated(access.MessageAuthenticationRequired)
	}
	return s.repo.List(ctx, Filter{StudentID: caller.ID})
}
