package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/smart-attendance/attendance/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	db db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

// ListStudents returns every active student with their absence count.
func (r *Repository) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := r.db.Query(ctx, `SELECT u.id::text, u.nim, u.full_name, u.enrollment_year, u.absence_tolerance,
	COUNT(a.id) FILTER (WHERE a.status = 'absent')
FROM users u
LEFT JOIN attendance_records a ON a.student_id = u.id
WHERE u.role = 'student' AND u.is_active
GROUP BY u.id
ORDER BY u.nim NULLS LAST, u.full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	students := make([]Student, 0)
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.UserID, &s.NIM, &s.FullName, &s.EnrollmentYear, &s.Tolerance, &s.Absences); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return students, nil
}

// GetProfile returns one user by id.
func (r *Repository) GetProfile(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	err := r.db.QueryRow(ctx, `SELECT u.id::text, u.email, u.full_name, u.role, u.nim, u.enrollment_year, u.absence_tolerance,
	(SELECT COUNT(*) FROM attendance_records a WHERE a.student_id = u.id AND a.status = 'absent'),
	u.is_active, u.created_at, u.updated_at
FROM users u WHERE u.id = $1::uuid`, id).Scan(
		&p.ID, &p.Email, &p.FullName, &p.Role, &p.NIM, &p.EnrollmentYear, &p.Tolerance, &p.Absences,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &p, nil
}
