// Package testing switches the application into test mode for any test
// binary that imports it.
package testing

import (
	"os"

	"github.com/smart-attendance/attendance/internal/app"
)

func init() {
	_ = os.Setenv(app.TestModeEnv, "1")
	if os.Getenv("TOKEN_SECRET") == "" {
		_ = os.Setenv("TOKEN_SECRET", "test-token-secret")
	}
}
