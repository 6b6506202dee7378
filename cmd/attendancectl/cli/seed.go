package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/smart-attendance/attendance/internal/auth"
	"github.com/smart-attendance/attendance/internal/platform/db"
)

type seedUser struct {
	email    string
	password string
	name     string
	role     string
	nim      string
	year     int
	absences int
}

// demoUsers covers every tolerance bucket: under, reached and past.
var demoUsers = []seedUser{
	{email: "admin@attendance.local", password: "admin12345", name: "Dewi Admin", role: "admin"},
	{email: "lecturer@attendance.local", password: "lecturer123", name: "Agus Lecturer", role: "lecturer"},
	{email: "siti@attendance.local", password: "student123", name: "Siti Rahma", role: "student", nim: "220101", year: 2022},
	{email: "budi@attendance.local", password: "student123", name: "Budi Santoso", role: "student", nim: "220102", year: 2022, absences: 2},
	{email: "rina@attendance.local", password: "student123", name: "Rina Wijaya", role: "student", nim: "230101", year: 2023, absences: 3},
	{email: "andi@attendance.local", password: "student123", name: "Andi Pratama", role: "student", nim: "230102", year: 2023, absences: 5},
}

const seedCourse = "IF101"

// Seed inserts demo accounts, absences and one pending permission request.
// Existing rows are left untouched so it can be rerun.
func Seed(ctx context.Context, conn db.DBTX, out io.Writer) error {
	fmt.Fprintln(out, "seeding users...")
	ids := make(map[string]string, len(demoUsers))
	for _, u := range demoUsers {
		hash, err := auth.HashPassword(u.password)
		if err != nil {
			return err
		}
		var nim *string
		var year *int
		if u.nim != "" {
			nim, year = &u.nim, &u.year
		}
		var id string
		err = conn.QueryRow(ctx, `
			INSERT INTO users (email, password_hash, full_name, role, nim, enrollment_year)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
			RETURNING id::text`, u.email, hash, u.name, u.role, nim, year).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.email, err)
		}
		ids[u.email] = id
	}

	fmt.Fprintln(out, "seeding attendance...")
	lecturer := ids["lecturer@attendance.local"]
	start := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)
	for _, u := range demoUsers {
		if u.role != "student" {
			continue
		}
		for week := 0; week < 6; week++ {
			status := "present"
			if week < u.absences {
				status = "absent"
			}
			_, err := conn.Exec(ctx, `
				INSERT INTO attendance_records (student_id, course_code, session_date, status, recorded_by)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (student_id, course_code, session_date) DO NOTHING`,
				ids[u.email], seedCourse, start.AddDate(0, 0, 7*week), status, lecturer)
			if err != nil {
				return fmt.Errorf("seed attendance for %s: %w", u.email, err)
			}
		}
	}

	fmt.Fprintln(out, "seeding permission requests...")
	sick := start.AddDate(0, 0, 7*6)
	_, err := conn.Exec(ctx, `
		INSERT INTO permission_requests (student_id, type, reason, start_date, end_date)
		SELECT $1, 'sick', 'Fever, doctor note attached', $2, $2
		WHERE NOT EXISTS (SELECT 1 FROM permission_requests WHERE student_id = $1)`,
		ids["budi@attendance.local"], sick)
	if err != nil {
		return fmt.Errorf("seed permission request: %w", err)
	}

	fmt.Fprintln(out, "seed complete")
	return nil
}
