package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-attendance/attendance/internal/platform/db/dbtest"
	"github.com/smart-attendance/attendance/internal/users"
)

func TestSeedIsRerunnable(t *testing.T) {
	pool := dbtest.Start(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, Seed(ctx, pool, &out))
	require.NoError(t, Seed(ctx, pool, &out))
	assert.Contains(t, out.String(), "seed complete")

	svc := users.NewService(users.NewRepository(pool))
	all, err := svc.ListStudents(ctx, users.ToleranceAll)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	reached, err := svc.ListStudents(ctx, users.ToleranceReach)
	require.NoError(t, err)
	require.Len(t, reached, 1)
	require.NotNil(t, reached[0].NIM)
	assert.Equal(t, "230101", *reached[0].NIM)

	past, err := svc.ListStudents(ctx, users.TolerancePast)
	require.NoError(t, err)
	require.Len(t, past, 1)
	assert.Equal(t, 5, past[0].Absences)

	var pending int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM permission_requests WHERE status = 'pending'`).Scan(&pending))
	assert.Equal(t, 1, pending)
}
