package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKV_GetMissing(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)

	_, err = kv.Get(context.Background(), "nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileKV_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	require.NoError(t, kv.Set(ctx, "saving-goals-data", []byte(`{"goals":[]}`)))
	require.NoError(t, kv.Set(ctx, "saving-goals-data", []byte(`{"goals":null}`)))

	data, err := kv.Get(ctx, "saving-goals-data")
	require.NoError(t, err)
	assert.Equal(t, `{"goals":null}`, string(data))

	_, err = os.Stat(filepath.Join(dir, "saving-goals-data.json.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	require.NoError(t, kv.Delete(ctx, "saving-goals-data"))
	_, err = kv.Get(ctx, "saving-goals-data")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting again is fine
	assert.NoError(t, kv.Delete(ctx, "saving-goals-data"))
}

func TestFileKV_KeysAreEscaped(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	require.NoError(t, kv.Set(ctx, "../escape", []byte("x")))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
