package permissions

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/smart-attendance/attendance/internal/access"
	"github.com/smart-attendance/attendance/jobs"
)

// DecisionPublisher hands review decisions to background processing.
type DecisionPublisher interface {
	EnqueuePermissionDecided(ctx context.Context, payload jobs.PermissionDecidedPayload) error
}

// Service implements permission request workflows.
type Service struct {
	repo      Repository
	publisher DecisionPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a Service. publisher may be nil.
func NewService(repo Repository, publisher DecisionPublisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

// List returns requests matching filter. Students only ever see their own.
func (s *Service) List(ctx context.Context, caller *access.Identity, filter Filter) ([]Request, error) {
	if caller != nil && caller.Role == access.RoleStudent {
		filter.StudentID = caller.ID
	}
	return s.repo.List(ctx, filter)
}

// Get returns one request. Malformed ids and other students' requests are
// reported as not found.
func (s *Service) Get(ctx context.Context, caller *access.Identity, id string) (*Request, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller != nil && caller.Role == access.RoleStudent && req.StudentID != caller.ID {
		return nil, ErrNotFound
	}
	return req, nil
}

// Create files a new pending request.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Request, error) {
	if in.EndDate.Before(in.StartDate) {
		return nil, ErrDateRange
	}
	return s.repo.Create(ctx, in)
}

// UpdateStatus records the reviewer's decision. adminID is optional; when it
// is given it must name the reviewer.
func (s *Service) UpdateStatus(ctx context.Context, reviewer access.Identity, id string, status Status, adminID string) (*Request, error) {
	if !status.Decided() {
		return nil, ErrInvalidReview
	}
	if adminID != "" && adminID != reviewer.ID {
		return nil, ErrAdminMismatch
	}
	if !validID(id) {
		return nil, ErrNotFound
	}

	review := Review{Status: status, ReviewerID: reviewer.ID, ReviewedAt: s.now().UTC()}
	var updated *Request
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetForUpdate(ctx, id); err != nil {
			return err
		}
		if err := tx.ApplyReview(ctx, id, review); err != nil {
			return err
		}
		req, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, updated)
	return updated, nil
}

func (s *Service) publish(ctx context.Context, req *Request) {
	if s.publisher == nil {
		return
	}
	payload := jobs.PermissionDecidedPayload{
		PermissionID: req.ID,
		StudentID:    req.StudentID,
		Status:       string(req.Status),
	}
	if req.ReviewedBy != nil {
		payload.ReviewerID = *req.ReviewedBy
	}
	if err := s.publisher.EnqueuePermissionDecided(ctx, payload); err != nil {
		s.logger.Warn("enqueue permission decision", slog.String("permission_id", req.ID), slog.Any("error", err))
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
