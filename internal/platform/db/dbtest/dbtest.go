// Package dbtest starts a throwaway PostgreSQL for repository integration
// tests. Tests are skipped unless TEST_INTEGRATION is set.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"

	"github.com/smart-attendance/attendance/internal/platform/db"
)

// Start runs a migrated PostgreSQL container and returns a pool connected to
// it. Both are released when the test ends.
func Start(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION not set")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("attendance_test"),
		postgres.WithUsername("attendance"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	if err := db.Migrate(dsn, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	pool, err := db.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// User describes a row inserted by SeedUser.
type User struct {
	Email          string
	Password       string
	FullName       string
	Role           string
	NIM            string
	EnrollmentYear int
	Tolerance      int
	Inactive       bool
}

// SeedUser inserts u and returns its id.
func SeedUser(t *testing.T, pool *pgxpool.Pool, u User) string {
	t.Helper()
	if u.Password == "" {
		u.Password = "password123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	var nim *string
	if u.NIM != "" {
		nim = &u.NIM
	}
	var year *int
	if u.EnrollmentYear != 0 {
		year = &u.EnrollmentYear
	}
	var id string
	err = pool.QueryRow(context.Background(), `INSERT INTO users (email, password_hash, full_name, role, nim, enrollment_year, absence_tolerance, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id::text`,
		u.Email, string(hash), u.FullName, u.Role, nim, year, u.Tolerance, !u.Inactive).Scan(&id)
	if err != nil {
		t.Fatalf("seed user %s: %v", u.Email, err)
	}
	return id
}
