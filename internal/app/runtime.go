package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

// TestModeEnv makes the binaries return before touching Postgres, Redis or
// Gotenberg. Any value strconv.ParseBool accepts as true enables it.
const TestModeEnv = "SEJAHTERA_TEST_MODE"

var testMode struct {
	once sync.Once
	on   atomic.Bool
}

// InTestMode reports whether startup side effects must be skipped. The
// environment is read on first use; call RefreshTestMode after changing it.
func InTestMode() bool {
	testMode.once.Do(RefreshTestMode)
	return testMode.on.Load()
}

// RefreshTestMode re-reads TestModeEnv.
func RefreshTestMode() {
	on, _ := strconv.ParseBool(os.Getenv(TestModeEnv))
	testMode.on.Store(on)
}
