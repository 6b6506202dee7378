package attendance

import (
	"context"
	"strconv"
	"strings"

	"github.com/smart-attendance/attendance/internal/platform/db"
)

// Repository defines persistence for attendance records.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Record, error)
	Create(ctx context.Context, in RecordInput) (*Record, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const selectRecord = `SELECT a.id::text, a.student_id::text, u.full_name, a.course_code, a.session_date, a.status, a.recorded_by::text, a.created_at
FROM attendance_records a
JOIN users u ON u.id = a.student_id`

func (r *repository) List(ctx context.Context, filter Filter) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		where = append(where, "a.student_id = $"+strconv.Itoa(len(args))+"::uuid")
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		where = append(where, "a.session_date = $"+strconv.Itoa(len(args)))
	}
	query := selectRecord
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.session_date DESC, a.course_code, u.full_name"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.StudentName, &rec.CourseCode, &rec.SessionDate, &rec.Status, &rec.RecordedBy, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Create inserts a record for an existing student. Duplicates map to
// ErrDuplicate and non-student ids to ErrUnknownStudent.
func (r *repository) Create(ctx context.Context, in RecordInput) (*Record, error) {
	var rec Record
	err := r.db.QueryRow(ctx, `WITH ins AS (
	INSERT INTO attendance_records (student_id, course_code, session_date, status, recorded_by)
	SELECT u.id, $2, $3, $4, $5::uuid FROM users u WHERE u.id = $1::uuid AND u.role = 'student'
	RETURNING id, student_id, course_code, session_date, status, recorded_by, created_at
)
SELECT ins.id::text, ins.student_id::text, u.full_name, ins.course_code, ins.session_date, ins.status, ins.recorded_by::text, ins.created_at
FROM ins JOIN users u ON u.id = ins.student_id`,
		in.StudentID, in.CourseCode, in.SessionDate, string(in.Status), in.RecordedBy,
	).Scan(&rec.ID, &rec.StudentID, &rec.StudentName, &rec.CourseCode, &rec.SessionDate, &rec.Status, &rec.RecordedBy, &rec.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		if db.IsNoRows(err) {
			return nil, ErrUnknownStudent
		}
		return nil, err
	}
	return &rec, nil
}
