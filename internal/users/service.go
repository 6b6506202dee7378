package users

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListStudents(ctx context.Context) ([]Student, error)
	GetProfile(ctx context.Context, id string) (*Profile, error)
}

// Service handles user business logic.
type Service struct {
	repo   RepositoryPort
	roster singleflight.Group
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListStudents returns students narrowed by tolerance kind.
func (s *Service) ListStudents(ctx context.Context, kind ToleranceKind) ([]Student, error) {
	students, err := s.loadRoster(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByTolerance(kind, students)
}

// GetProfile returns one user. Malformed ids are reported as not found.
func (s *Service) GetProfile(ctx context.Context, id string) (*Profile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUserNotFound
	}
	return s.repo.GetProfile(ctx, id)
}
