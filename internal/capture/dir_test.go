package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cubeface/internal/colorclass"
	"github.com/banshee-data/cubeface/internal/monitoring"
)

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 12, 9))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	fh, err := os.Create(path)
	require.NoError(t, err)
	defer fh.Close()
	require.NoError(t, png.Encode(fh, img))
}

func frameDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), color.RGBA{0, 0, 255, 255})
	writePNG(t, filepath.Join(dir, "a.png"), color.RGBA{255, 0, 0, 255})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0755))
	return dir
}

func TestDirReplaysInNameOrder(t *testing.T) {
	monitoring.SetLogger(nil)
	defer monitoring.SetLogger(nil)

	d, err := OpenDir(frameDir(t), DirConfig{})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())

	ctx := context.Background()
	f, err := d.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), f.Seq)
	assert.Equal(t, 12, f.Width)
	assert.Equal(t, 9, f.Height)
	assert.Equal(t, colorclass.NewRGB(255, 0, 0), f.At(3, 3))

	f, err = d.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, colorclass.NewRGB(0, 0, 255), f.At(3, 3))

	_, err = d.Next(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestDirLoop(t *testing.T) {
	monitoring.SetLogger(nil)
	defer monitoring.SetLogger(nil)

	d, err := OpenDir(frameDir(t), DirConfig{Loop: true})
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f, err := d.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), f.Seq)
		want := colorclass.NewRGB(255, 0, 0)
		if i%2 == 1 {
			want = colorclass.NewRGB(0, 0, 255)
		}
		assert.Equal(t, want, f.At(0, 0), "frame %d", i)
	}

	require.NoError(t, d.Close())
	_, err = d.Next(ctx)
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestOpenDirErrors(t *testing.T) {
	_, err := OpenDir(filepath.Join(t.TempDir(), "missing"), DirConfig{})
	assert.Error(t, err)

	_, err = OpenDir(t.TempDir(), DirConfig{})
	assert.ErrorContains(t, err, "no images")
}

func TestDirCorruptImage(t *testing.T) {
	monitoring.SetLogger(nil)
	defer monitoring.SetLogger(nil)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("not a jpeg"), 0644))

	d, err := OpenDir(dir, DirConfig{})
	require.NoError(t, err)
	_, err = d.Next(context.Background())
	assert.ErrorContains(t, err, "decode broken.jpg")
}
