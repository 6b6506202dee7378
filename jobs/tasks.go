package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/smart-attendance/attendance/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPermissionDecided fires after a permission request is approved or
	// rejected.
	TaskPermissionDecided = "permission:decided"
)

// PermissionDecidedPayload describes a review decision.
type PermissionDecidedPayload struct {
	PermissionID string `json:"permission_id"`
	StudentID    string `json:"student_id"`
	Status       string `json:"status"`
	ReviewerID   string `json:"reviewer_id"`
}

// NewPermissionDecidedTask constructs an Asynq task.
func NewPermissionDecidedTask(payload PermissionDecidedPayload) (*asynq.Task, error) {
	if payload.PermissionID == "" {
		return nil, fmt.Errorf("jobs: permission id required")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPermissionDecided, data), nil
}

// Notifier delivers decision notices to students.
type Notifier interface {
	PermissionDecided(ctx context.Context, payload PermissionDecidedPayload) error
}

// LogNotifier writes decisions to the structured log. It stands in until an
// outbound channel such as email is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

// PermissionDecided implements Notifier.
func (n LogNotifier) PermissionDecided(ctx context.Context, payload PermissionDecidedPayload) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "permission decision notice",
		slog.String("permission_id", payload.PermissionID),
		slog.String("student_id", payload.StudentID),
		slog.String("status", payload.Status),
		slog.String("reviewer_id", payload.ReviewerID))
	return nil
}

// NewPermissionDecidedHandler processes TaskPermissionDecided tasks.
// Undecodable payloads are not retried.
func NewPermissionDecidedHandler(notifier Notifier, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskPermissionDecided)
		var payload PermissionDecidedPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return tracker.End(fmt.Errorf("jobs: decode %s: %v: %w", t.Type(), err, asynq.SkipRetry))
		}
		return tracker.End(notifier.PermissionDecided(ctx, payload))
	}
}
