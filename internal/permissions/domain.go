// Package permissions manages student leave (permission) requests and their
// review by administrators.
package permissions

import (
	"time"

	"github.com/smart-attendance/attendance/internal/platform/httpx"
)

// Status is the review state of a request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Decided reports whether s is a final review outcome.
func (s Status) Decided() bool {
	return s == StatusApproved || s == StatusRejected
}

// Type classifies the reason for absence.
type Type string

const (
	TypeSick  Type = "sick"
	TypeLeave Type = "leave"
	TypeOther Type = "other"
)

// Request is a student's permission request.
type Request struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"student_id"`
	StudentName string     `json:"student_name"`
	StudentNIM  *string    `json:"student_nim,omitempty"`
	Type        Type       `json:"type"`
	Reason      string     `json:"reason"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	Status      Status     `json:"status"`
	ReviewedBy  *string    `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	Status    Status
	StudentID string
}

// CreateInput holds a validated new request.
type CreateInput struct {
	StudentID string
	Type      Type
	Reason    string
	StartDate time.Time
	EndDate   time.Time
}

// Review records a decision on a request.
type Review struct {
	Status     Status
	ReviewerID string
	ReviewedAt time.Time
}

var (
	ErrNotFound      = httpx.NotFound("Permission request not found")
	ErrInvalidStatus = httpx.Validation("Invalid status. Must be one of: pending, approved, rejected, all")
	ErrInvalidReview = httpx.Validation("Invalid status. Must be either 'approved' or 'rejected'")
	ErrAdminMismatch = httpx.Validation("admin_id does not match the authenticated user")
	ErrDateRange     = httpx.Validation("end_date must not be before start_date")
)

// ParseStatusFilter maps the list query value to a filter status. "all" and
// the empty string disable filtering.
func ParseStatusFilter(raw string) (Status, error) {
	switch s := Status(raw); s {
	case "", "all":
		return "", nil
	case StatusPending, StatusApproved, StatusRejected:
		return s, nil
	default:
		return "", ErrInvalidStatus
	}
}
