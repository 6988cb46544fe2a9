package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/cardscan/internal/models"
)

func TestModelsCheck_Missing(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "--models-dir", dir, "models", "check", "--json=false", "--inspect=false")
	require.Error(t, err)
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, filepath.Join(dir, models.RecognitionMobile))
}

func TestModelsCheck_PresentFlatLayout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, models.RecognitionMobile), make([]byte, 2048), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, models.DictionaryPPOCRKeysV1), []byte("0\n1\n"), 0o600))

	out, err := execute(t, "--models-dir", dir, "models", "check", "--json", "--inspect=false")
	require.NoError(t, err)

	var files []ModelFileStatus
	require.NoError(t, json.Unmarshal([]byte(out), &files))
	require.Len(t, files, 2)
	assert.Equal(t, "recognition", files[0].Kind)
	assert.True(t, files[0].Present)
	assert.Equal(t, "dictionary", files[1].Kind)
	assert.True(t, files[1].Present)
}
