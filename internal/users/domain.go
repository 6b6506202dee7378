package users

import (
	"time"

	"github.com/smart-attendance/attendance/internal/access"
	"github.com/smart-attendance/attendance/internal/platform/httpx"
)

// Student is a student row in the admin user list.
type Student struct {
	UserID         string  `json:"user_id"`
	NIM            *string `json:"nim"`
	FullName       string  `json:"full_name"`
	EnrollmentYear *int    `json:"enrollment_year"`
	Absences       int     `json:"absences"`
	Tolerance      int     `json:"tolerance"`
}

// Profile is a single user account as seen by administrators.
type Profile struct {
	ID             string      `json:"id"`
	Email          string      `json:"email"`
	FullName       string      `json:"full_name"`
	Role           access.Role `json:"role"`
	NIM            *string     `json:"nim,omitempty"`
	EnrollmentYear *int        `json:"enrollment_year,omitempty"`
	Tolerance      int         `json:"absence_tolerance"`
	Absences       int         `json:"absences"`
	IsActive       bool        `json:"is_active"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// ToleranceKind selects students by how their absences compare with their
// allowed tolerance.
type ToleranceKind string

const (
	ToleranceAll   ToleranceKind = "all"
	TolerancePast  ToleranceKind = "past"
	ToleranceReach ToleranceKind = "reach"
)

var (
	ErrUserNotFound     = httpx.NotFound("User not found")
	ErrInvalidTolerance = httpx.Validation("Invalid tolerance. Must be one of: all, past, reach")
)

// ParseToleranceKind maps the query value; empty means all.
func ParseToleranceKind(raw string) (ToleranceKind, error) {
	switch k := ToleranceKind(raw); k {
	case "":
		return ToleranceAll, nil
	case ToleranceAll, TolerancePast, ToleranceReach:
		return k, nil
	default:
		return "", ErrInvalidTolerance
	}
}

// FilterByTolerance returns the students matching kind, preserving order.
// "past" keeps students whose absences exceed their tolerance and "reach"
// keeps those exactly at it. The input slice is never modified.
func FilterByTolerance(kind ToleranceKind, students []Student) ([]Student, error) {
	var keep func(Student) bool
	switch kind {
	case ToleranceAll:
		out := make([]Student, len(students))
		copy(out, students)
		return out, nil
	case TolerancePast:
		keep = func(s Student) bool { return s.Absences > s.Tolerance }
	case ToleranceReach:
		keep = func(s Student) bool { return s.Absences == s.Tolerance }
	default:
		return nil, ErrInvalidTolerance
	}
	out := make([]Student, 0, len(students))
	for _, s := range students {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out, nil
}
