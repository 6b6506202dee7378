// Package attendance records per-session attendance for students.
package attendance

import (
	"time"

	"github.com/smart-attendance/attendance/internal/platform/httpx"
)

// Status is the attendance outcome for one session.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

// Record is a single attendance entry.
type Record struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	CourseCode  string    `json:"course_code"`
	SessionDate time.Time `json:"session_date"`
	Status      Status    `json:"status"`
	RecordedBy  string    `json:"recorded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	StudentID string
	Date      *time.Time
}

// RecordInput is a validated new record.
type RecordInput struct {
	StudentID   string
	CourseCode  string
	SessionDate time.Time
	Status      Status
	RecordedBy  string
}

var (
	ErrDuplicate       = httpx.Conflict("Attendance already recorded for this student, course and date")
	ErrUnknownStudent  = httpx.Validation("student_id does not refer to a student")
	ErrInvalidFilterID = httpx.Validation("student_id must be a valid id")
	ErrInvalidDate     = httpx.Validation("date must be formatted 2006-01-02")
)
