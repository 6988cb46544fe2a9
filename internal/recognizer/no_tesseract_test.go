//go:build !tesseract

package recognizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TesseractNotCompiledIn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendTesseract

	eng, err := New(cfg)
	require.ErrorIs(t, err, ErrNoBackend)
	assert.Nil(t, eng)
}
