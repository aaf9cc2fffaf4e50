// Package guard switches the binaries into test mode when imported by a
// test package, so no test ever dials Postgres, Redis or Gotenberg on start.
package guard

import (
	"os"
	"sync"
)

const envKey = "SEJAHTERA_TEST_MODE"

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv(envKey) == "" {
			_ = os.Setenv(envKey, "1")
		}
		if os.Getenv("GOTENBERG_URL") == "" {
			_ = os.Setenv("GOTENBERG_URL", "http://127.0.0.1:0")
		}
	})
}

// Enabled reports whether test mode is active.
func Enabled() bool {
	return os.Getenv(envKey) == "1"
}
