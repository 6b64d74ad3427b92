package image

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"mlpaint/internal/label"
	"mlpaint/internal/stroke"
	"mlpaint/pkg/colorutil"
	"mlpaint/pkg/geometry"

	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, img image.Image) {
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestFitPixels(t *testing.T) {
	w, h, ok := FitPixels(100, 50, 0)
	require.False(t, ok)
	require.Equal(t, []int{100, 50}, []int{w, h})

	_, _, ok = FitPixels(100, 50, 5000)
	require.False(t, ok)

	w, h, ok = FitPixels(100, 50, 1250)
	require.True(t, ok)
	require.Equal(t, 50, w)
	require.Equal(t, 25, h)
	require.LessOrEqual(t, w*h, 1250)
}

func TestLoadDownsamples(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "base.png")
	src := image.NewNRGBA(image.Rect(0, 0, 80, 40))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	writePNG(t, path, src)

	l, err := Load(path, 0)
	require.NoError(t, err)
	require.Equal(t, 80, l.Width())
	require.Equal(t, 1.0, l.Scale)

	l, err = Load(path, 800)
	require.NoError(t, err)
	require.Equal(t, 40, l.Width())
	require.Equal(t, 20, l.Height())
	require.Equal(t, 0.5, l.Scale)
	require.Equal(t, 80, l.SourceWidth)

	_, err = Load(filepath.Join(dir, "missing.png"), 0)
	require.Error(t, err)
}

func TestLabelsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.png")
	l := label.NewLayer(6, 4)
	l.Set(0, 0, label.Negative)
	l.Set(1, 0, label.Positive)
	l.Set(5, 3, label.NoData)
	l.Set(2, 2, label.Code(7))
	require.NoError(t, SaveLabels(path, l))

	got, err := LoadLabels(path, 6, 4)
	require.NoError(t, err)
	require.True(t, l.Equal(got))

	// Loading at double resolution replicates each code into a 2x2 block.
	big, err := LoadLabels(path, 12, 8)
	require.NoError(t, err)
	require.Equal(t, label.NoData, big.At(11, 7))
	require.Equal(t, label.NoData, big.At(10, 6))
	require.Equal(t, label.Code(7), big.At(5, 5))
	require.Equal(t, 4*4, big.Count(label.Negative)+big.Count(label.Positive)+big.Count(label.NoData)+big.Count(label.Code(7)))
}

func TestLoadLabelsFromGray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gray.png")
	g := image.NewGray(image.Rect(0, 0, 3, 3))
	g.SetGray(1, 1, color.Gray{Y: 2})
	writePNG(t, path, g)

	l, err := LoadLabels(path, 3, 3)
	require.NoError(t, err)
	require.Equal(t, label.Positive, l.At(1, 1))
	require.Equal(t, 8, l.Count(label.Unlabeled))

	g.SetGray(0, 0, color.Gray{Y: 200})
	writePNG(t, path, g)
	_, err = LoadLabels(path, 3, 3)
	require.Error(t, err)
}

func TestLoadBandResizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dem.png")
	g := image.NewGray(image.Rect(0, 0, 2, 2))
	g.SetGray(1, 1, color.Gray{Y: 255})
	writePNG(t, path, g)

	b, err := LoadBand(path, 4, 4)
	require.NoError(t, err)
	w, h := b.Size()
	require.Equal(t, 4, w)
	require.Equal(t, 4, h)
	require.Greater(t, b.Sample(3, 3), b.Sample(0, 0))
}

type fixedSuggestion struct {
	inside   geometry.RectInt
	frontier []geometry.PointInt
}

func (f fixedSuggestion) Enclosed(x, y int) bool        { return f.inside.Contains(x, y) }
func (f fixedSuggestion) Bounds() geometry.RectInt      { return f.inside.Expand(2) }
func (f fixedSuggestion) Frontier() []geometry.PointInt { return f.frontier }

func TestCompositeLayers(t *testing.T) {
	base := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := 0; i < len(base.Pix); i += 4 {
		base.Pix[i], base.Pix[i+1], base.Pix[i+2], base.Pix[i+3] = 100, 100, 100, 255
	}
	labels := label.NewLayer(16, 16)
	labels.Set(0, 0, label.Positive)
	mask := stroke.NewMask(16, 16)
	mask.Paint(stroke.Event{Center: geometry.Point2D{X: 15.5, Y: 0.5}, Radius: 0.5, Brush: stroke.BrushNegative})

	c := NewComposite(base)
	c.Labels = labels
	c.Strokes = mask
	c.Step = 2
	c.Suggested = fixedSuggestion{
		inside:   geometry.RectInt{X: 6, Y: 6, Width: 4, Height: 4},
		frontier: []geometry.PointInt{{X: 10, Y: 6}},
	}
	out := c.Render()

	require.Equal(t, color.RGBA{100, 100, 100, 255}, out.RGBAAt(3, 12))
	require.NotEqual(t, out.RGBAAt(3, 12), out.RGBAAt(0, 0))
	require.Greater(t, out.RGBAAt(0, 0).G, uint8(100))
	require.Less(t, out.RGBAAt(0, 0).R, uint8(100))
	require.Greater(t, out.RGBAAt(15, 0).R, uint8(100))
	require.Equal(t, colorutil.Yellow, out.RGBAAt(11, 7))
	inside := out.RGBAAt(7, 7)
	require.Greater(t, inside.R, uint8(100))
	require.Less(t, inside.B, uint8(100))
}

func TestCompositeRenderView(t *testing.T) {
	base := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	base.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 255})
	c := NewComposite(base)

	// Zoom 2x and shift right by 2 output pixels.
	view := geometry.Translation(2, 0).Compose(geometry.Scale(2, 2))
	out := c.RenderView(12, 8, view)
	require.Equal(t, c.BackColor, out.RGBAAt(0, 0))
	require.Equal(t, color.RGBA{255, 0, 0, 255}, out.RGBAAt(4, 2))
	require.Equal(t, color.RGBA{255, 0, 0, 255}, out.RGBAAt(5, 3))
	require.Equal(t, color.RGBA{0, 0, 0, 255}, out.RGBAAt(6, 2))
	require.Equal(t, c.BackColor, out.RGBAAt(11, 0))
}

func TestBlendModes(t *testing.T) {
	d := color.RGBA{200, 100, 0, 255}
	s := color.RGBA{128, 128, 128, 255}
	require.Equal(t, s, blend(d, s, BlendNormal, 1))
	require.Equal(t, d, blend(d, s, BlendNormal, 0))
	m := blend(d, s, BlendMultiply, 1)
	require.Equal(t, uint8(0), m.B)
	require.Less(t, m.R, d.R)
	require.Equal(t, "Multiply", BlendMultiply.String())
}
