package assets

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAndResolve(t *testing.T) {
	reg, err := NewDirRegistry(t.TempDir())
	require.NoError(t, err)

	stored, err := reg.Store("photo.PNG", []byte("png-bytes"))
	require.NoError(t, err)
	require.NotEmpty(t, stored.ID)
	_, err = uuid.Parse(stored.ID)
	assert.NoError(t, err)
	assert.Equal(t, "image/png", stored.ContentType)
	assert.Equal(t, int64(9), stored.Size)

	got, err := reg.Resolve(stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, "image/png", got.ContentType)
	assert.Equal(t, []byte("png-bytes"), got.Content)
}

func TestResolveUnknownID(t *testing.T) {
	reg, err := NewDirRegistry(t.TempDir())
	require.NoError(t, err)

	_, err = reg.Resolve("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreRejectsUnknownExtension(t *testing.T) {
	reg, err := NewDirRegistry(t.TempDir())
	require.NoError(t, err)

	_, err = reg.Store("malware.exe", []byte("x"))
	assert.Error(t, err)
}

func TestAllowedType(t *testing.T) {
	assert.True(t, AllowedType("image/jpeg"))
	assert.True(t, AllowedType("image/webp"))
	assert.False(t, AllowedType("application/pdf"))
}

func TestURL(t *testing.T) {
	reg, err := NewDirRegistry(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "/api/images/abc", reg.URL("abc"))
}
