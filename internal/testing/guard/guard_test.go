package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImportEnablesTestMode(t *testing.T) {
	assert.True(t, Enabled())
}
