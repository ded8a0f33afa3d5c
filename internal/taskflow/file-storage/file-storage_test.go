package filestorage

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name := uuid.Must(uuid.NewV4())
	content := []byte("attachment payload")

	exist, err := storage.Exist(name)
	require.NoError(t, err)
	assert.False(t, exist)

	require.NoError(t, storage.SaveReader(bytes.NewReader(content), int64(len(content)), name, "text/plain"))

	exist, err = storage.Exist(name)
	require.NoError(t, err)
	assert.True(t, exist)

	data, err := storage.Load(name)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	require.NoError(t, storage.Delete(name))

	exist, err = storage.Exist(name)
	require.NoError(t, err)
	assert.False(t, exist)
}

func TestLocalStorageDeleteMissing(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, storage.Delete(uuid.Must(uuid.NewV4())))
}

func TestLocalStorageListRoot(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	names := map[string]bool{}
	for range 3 {
		name := uuid.Must(uuid.NewV4())
		require.NoError(t, storage.SaveReader(strings.NewReader("x"), 1, name, "text/plain"))
		names[name.String()] = true
	}

	var seen int
	require.NoError(t, storage.ListRoot(func(fi FileInfo) error {
		assert.True(t, names[fi.Name])
		seen++
		return nil
	}))
	assert.Equal(t, 3, seen)
}
