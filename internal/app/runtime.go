package app

import (
	"os"
	"strconv"
)

// TestModeEnv makes the binaries return before opening PostgreSQL or Redis
// connections. Test binaries set it through the testing package.
const TestModeEnv = "ATTENDANCE_TEST_MODE"

// InTestMode reports whether TestModeEnv holds a true value.
func InTestMode() bool {
	on, _ := strconv.ParseBool(os.Getenv(TestModeEnv))
	return on
}
