package intake

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreviewLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("frames"), 0o600))

	p, err := OpenPreview(path)
	require.NoError(t, err)
	require.NotEmpty(t, p.ID())
	require.True(t, strings.HasPrefix(p.URL(), "preview://"))
	require.Equal(t, "clip.mp4", p.Name())
	require.False(t, p.Released())

	section, err := p.Section()
	require.NoError(t, err)
	data, err := io.ReadAll(section)
	require.NoError(t, err)
	require.Equal(t, "frames", string(data))

	require.NoError(t, p.Release())
	require.True(t, p.Released())
	require.NoError(t, p.Release())

	_, err = p.Section()
	require.ErrorIs(t, err, ErrPreviewReleased)
}

func TestPreviewIDsAreUnique(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	a, err := OpenPreview(path)
	require.NoError(t, err)
	defer a.Release()
	b, err := OpenPreview(path)
	require.NoError(t, err)
	defer b.Release()

	require.NotEqual(t, a.ID(), b.ID())
}

func TestOpenPreviewMissingFile(t *testing.T) {
	_, err := OpenPreview(filepath.Join(t.TempDir(), "missing.mp4"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "open preview")
}
