package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mlimage "mlpaint/internal/image"
	"mlpaint/internal/label"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

const testConfig = `
growth:
  block_size: 2
  default_depth: 8
  interior_steps: 4
training:
  trees: 8
session:
  autosave_interval: 0s
`

// testScript paints negative dabs across rows 0..10 and one positive dab in the middle of the
// disk.
func testScript() string {
	var b strings.Builder
	b.WriteString("strokes:\n")
	for x := 0; x <= 64; x += 4 {
		prefix := "    - "
		if x == 0 {
			prefix = "  - - "
		}
		fmt.Fprintf(&b, "%s{center: {x: %d, y: 5}, radius: 6, brush: negative}\n", prefix, x)
	}
	b.WriteString("  - - {center: {x: 32, y: 32}, radius: 6, brush: positive}\n")
	b.WriteString("grow: 2\ncommit: positive\n")
	return b.String()
}

func writeDisk(t *testing.T, path string) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			dx, dy := x-32, y-32
			if dx*dx+dy*dy <= 16*16 {
				img.Set(x, y, color.RGBA{R: 30, G: 180, B: 40, A: 255})
			} else {
				img.Set(x, y, color.RGBA{R: 120, G: 80, B: 40, A: 255})
			}
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func setup(t *testing.T) (dir string, opt Options) {
	dir = t.TempDir()
	writeDisk(t, filepath.Join(dir, "disk.png"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(testConfig), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "script.yaml"), []byte(testScript()), 0o644))
	return dir, Options{
		Image:   filepath.Join(dir, "disk.png"),
		Config:  filepath.Join(dir, "config.yaml"),
		Script:  filepath.Join(dir, "script.yaml"),
		Grow:    -1,
		Timeout: 30 * time.Second,
	}
}

func TestLoadScript(t *testing.T) {
	dir, opt := setup(t)
	s, err := LoadScript(opt.Script)
	require.NoError(t, err)
	require.Len(t, s.Strokes, 2)
	require.Len(t, s.Strokes[0], 17)
	require.Equal(t, 32.0, s.Strokes[1][0].Center.X)
	require.Equal(t, 2, s.Grow)
	code, err := s.CommitCode()
	require.NoError(t, err)
	require.Equal(t, label.Positive, code)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("commit: sky\n"), 0o644))
	_, err = LoadScript(bad)
	require.Error(t, err)
}

func TestRunCommitsDisk(t *testing.T) {
	dir, opt := setup(t)
	opt.Output = filepath.Join(dir, "out.png")
	opt.ProbMap = filepath.Join(dir, "prob.png")
	require.NoError(t, run(logs.NewTestingLog(t), opt))

	labels, err := mlimage.LoadLabels(opt.Output, 64, 64)
	require.NoError(t, err)
	require.Equal(t, label.Positive, labels.At(32, 32))
	require.Greater(t, labels.Count(label.Positive), 100)
	for y := 0; y <= 10; y++ {
		for x := 0; x < 64; x++ {
			require.NotEqual(t, label.Positive, labels.At(x, y), "(%d,%d)", x, y)
		}
	}

	f, err := os.Open(opt.ProbMap)
	require.NoError(t, err)
	defer f.Close()
	pm, err := png.Decode(f)
	require.NoError(t, err)
	center := color.GrayModel.Convert(pm.At(32, 32)).(color.Gray).Y
	top := color.GrayModel.Convert(pm.At(20, 3)).(color.Gray).Y
	require.Less(t, center, top)
}

func TestRunWithoutCommitLeavesLabels(t *testing.T) {
	dir, opt := setup(t)
	opt.Commit = ""
	script := filepath.Join(dir, "nocommit.yaml")
	require.NoError(t, os.WriteFile(script, []byte(`
strokes:
  - - {center: {x: 32, y: 32}, radius: 6, brush: positive}
`), 0o644))
	opt.Script = script
	require.NoError(t, run(logs.NewTestingLog(t), opt))

	// Labels default to the file next to the image.
	labels, err := mlimage.LoadLabels(filepath.Join(dir, "disk_labels.png"), 64, 64)
	require.NoError(t, err)
	require.Equal(t, 64*64, labels.Count(label.Unlabeled))
}

func TestRunNeedsPositives(t *testing.T) {
	dir, opt := setup(t)
	script := filepath.Join(dir, "neg.yaml")
	require.NoError(t, os.WriteFile(script, []byte(`
strokes:
  - - {center: {x: 10, y: 10}, radius: 4, brush: negative}
`), 0o644))
	opt.Script = script
	require.Error(t, run(logs.NewTestingLog(t), opt))
}
