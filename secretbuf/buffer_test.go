package secretbuf

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ZeroFilled(t *testing.T) {
	sb, err := New(16)
	require.NoError(t, err)
	assert.Equal(t, 16, sb.Length())

	view, err := sb.Expose()
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 16), view)
	sb.Unexpose()
}

func TestNewFromExposed_CopiesSource(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	sb, err := NewFromExposed(src)
	require.NoError(t, err)

	view, err := sb.Expose()
	require.NoError(t, err)
	assert.Equal(t, src, view)

	// mutating src does not affect the buffer
	src[0] = 0xFF
	view2, _ := sb.Expose()
	assert.Equal(t, byte(1), view2[0])
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secret.bin")
	want := []byte("super-secret-material")
	require.NoError(t, os.WriteFile(path, want, 0o600))

	sb, err := NewFromFile(path)
	require.NoError(t, err)
	view, err := sb.Expose()
	require.NoError(t, err)
	assert.Equal(t, want, view)
}

func TestNewFromReader(t *testing.T) {
	want := []byte("0123456789abcdef")
	sb, err := NewFromReader(bytes.NewReader(want), len(want))
	require.NoError(t, err)
	view, err := sb.Expose()
	require.NoError(t, err)
	assert.Equal(t, want, view)
}

func TestExposeModify_Mutates(t *testing.T) {
	sb, err := New(4)
	require.NoError(t, err)

	view, err := sb.ExposeModify()
	require.NoError(t, err)
	copy(view, []byte{9, 9, 9, 9})
	sb.UnexposeModify()

	view2, _ := sb.Expose()
	assert.Equal(t, []byte{9, 9, 9, 9}, view2)
}

func TestDeleteClear_WipesAndIsIdempotent(t *testing.T) {
	sb, err := NewFromExposed([]byte{1, 2, 3})
	require.NoError(t, err)

	view, _ := sb.Expose()
	underlying := view // keep a reference to the same backing array

	sb.DeleteClear()
	assert.Equal(t, []byte{0, 0, 0}, underlying, "storage must be wiped before release")

	// idempotent
	assert.NotPanics(t, func() { sb.DeleteClear() })

	_, err = sb.Expose()
	assert.ErrorIs(t, err, ErrReleased)

	_, err = sb.ExposeModify()
	assert.ErrorIs(t, err, ErrReleased)
}

func TestDeleteClear_NilReceiver(t *testing.T) {
	var sb *SecretBuffer
	assert.NotPanics(t, func() { sb.DeleteClear() })
	assert.Equal(t, 0, sb.Length())
}
