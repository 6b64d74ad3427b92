package app

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"mlpaint/internal/config"
	"mlpaint/internal/engine"
	mlimage "mlpaint/internal/image"
	"mlpaint/internal/label"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, path string, w, h int) {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: 90, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestDefaultLabelPath(t *testing.T) {
	require.Equal(t, "/data/scene_labels.png", DefaultLabelPath("/data/scene.tif"))
	require.Equal(t, "scene_labels.png", DefaultLabelPath("scene"))
}

func TestOpenSave(t *testing.T) {
	log := logs.NewTestingLog(t)
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "scene.png")
	writeImage(t, imgPath, 32, 24)
	bandPath := filepath.Join(dir, "dem.png")
	writeImage(t, bandPath, 16, 12)

	doc, err := Open(log, config.Default(), OpenOptions{Image: imgPath, Bands: []string{bandPath}})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "scene_labels.png"), doc.LabelPath)
	require.Equal(t, 32, doc.Session.Width())
	require.Equal(t, 32*24, doc.Session.Labels().Count(label.Unlabeled))
	require.False(t, doc.Modified())

	saved, err := doc.SaveIfModified()
	require.NoError(t, err)
	require.False(t, saved)

	doc.Session.Labels().Set(3, 4, label.Positive)
	doc.Session.Emit(engine.EventLabelsChanged, nil)
	require.True(t, doc.Modified())

	saved, err = doc.SaveIfModified()
	require.NoError(t, err)
	require.True(t, saved)
	require.False(t, doc.Modified())

	got, err := mlimage.LoadLabels(doc.LabelPath, 32, 24)
	require.NoError(t, err)
	require.Equal(t, label.Positive, got.At(3, 4))
	_, err = os.Stat(doc.LabelPath + ".tmp.png")
	require.True(t, os.IsNotExist(err))

	// Reopening picks the saved labels up.
	again, err := Open(log, config.Default(), OpenOptions{Image: imgPath})
	require.NoError(t, err)
	require.Equal(t, label.Positive, again.Session.Labels().At(3, 4))
}

func TestOpenErrors(t *testing.T) {
	log := logs.NewTestingLog(t)
	dir := t.TempDir()
	_, err := Open(log, config.Default(), OpenOptions{Image: filepath.Join(dir, "missing.png")})
	require.Error(t, err)

	imgPath := filepath.Join(dir, "scene.png")
	writeImage(t, imgPath, 8, 8)
	bad := filepath.Join(dir, "bad_labels.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0o644))
	_, err = Open(log, config.Default(), OpenOptions{Image: imgPath, Labels: bad})
	require.Error(t, err)
}

func TestAutosaver(t *testing.T) {
	require.Nil(t, NewAutosaver(logs.NewTestingLog(t), 0, nil))

	var calls atomic.Int32
	a := NewAutosaver(logs.NewTestingLog(t), 5*time.Millisecond, func() (bool, error) {
		calls.Add(1)
		return true, nil
	})
	a.Start()
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	a.Stop()
	n := calls.Load()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, n, calls.Load())
}
