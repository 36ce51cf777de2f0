package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreMissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	data, err := store.GetSection("llm")
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.SetSection("llm", map[string]any{"model": "gpt-4o"}))
	require.NoError(t, store.SetSection("chat", map[string]any{
		"auto_generate_title": true,
		"save_debounce":       "2s",
	}))
	require.NoError(t, store.Save())

	reloaded, err := NewFileStore(path)
	require.NoError(t, err)

	llm, err := reloaded.GetSection("llm")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", llm["model"])

	chatData, err := reloaded.GetSection("chat")
	require.NoError(t, err)
	assert.Equal(t, true, chatData["auto_generate_title"])
	assert.Equal(t, "2s", chatData["save_debounce"])
}

func TestFileStoreSaveLeavesNoTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.SetSection("llm", map[string]any{"model": "m"}))
	require.NoError(t, store.Save())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o600))

	_, err := NewFileStore(path)
	require.Error(t, err)
}
