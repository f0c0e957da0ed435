package framedir

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/interview-engine/internal/perception"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestSource_CyclesInNameOrder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 20, 10)
	writePNG(t, filepath.Join(dir, "a.png"), 10, 5)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	src, err := New(dir)
	require.NoError(t, err)
	require.Equal(t, 2, src.Len())

	ctx := context.Background()
	f1, err := src.NextFrame(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, f1.Width)
	assert.Equal(t, "png", f1.Format)

	f2, err := src.NextFrame(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, f2.Width)

	f3, err := src.NextFrame(ctx)
	require.NoError(t, err)
	assert.Equal(t, f1.Width, f3.Width)
}

func TestSource_DownscalesWideFrames(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "wide.png"), 200, 100)

	src, err := New(dir)
	require.NoError(t, err)
	src.MaxWidth = 50

	f, err := src.NextFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, f.Width)
	assert.Equal(t, 25, f.Height)
	assert.Equal(t, "jpeg", f.Format)

	_, format, err := image.DecodeConfig(bytes.NewReader(f.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestSource_EmptyDirIsNoData(t *testing.T) {
	src, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = src.NextFrame(context.Background())
	assert.ErrorIs(t, err, perception.ErrNoFrame)
}

func TestSource_CorruptImage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.jpg"), []byte("not an image"), 0o644))

	src, err := New(dir)
	require.NoError(t, err)
	_, err = src.NextFrame(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, perception.ErrNoFrame)
}

func TestNew_MissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestSource_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 4, 4)
	src, err := New(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.NextFrame(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
