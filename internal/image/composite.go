package image

import (
	"image"
	"image/color"
	"math"

	"mlpaint/internal/label"
	"mlpaint/internal/stroke"
	"mlpaint/pkg/colorutil"
	"mlpaint/pkg/geometry"
)

// BlendMode specifies how an overlay is composited.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDifference
)

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "Normal"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	case BlendOverlay:
		return "Overlay"
	case BlendDifference:
		return "Difference"
	default:
		return "Unknown"
	}
}

// Suggestion is the part of a growth result the compositor draws.
type Suggestion interface {
	Enclosed(x, y int) bool
	Bounds() geometry.RectInt
	Frontier() []geometry.PointInt
}

// Composite renders the base image with labels, fresh strokes, the current suggestion and an
// optional probability map on top.
type Composite struct {
	Base      *image.NRGBA
	Labels    *label.Layer
	Strokes   stroke.Reader
	Suggested Suggestion
	// Step is the block size, used to draw frontier blocks.
	Step int

	ProbMap     *image.Gray
	ProbMode    BlendMode
	ProbOpacity float64

	LabelOpacity      float64
	StrokeOpacity     float64
	SuggestionOpacity float64
	BackColor         color.RGBA
}

// NewComposite creates a compositor for base with the default opacities.
func NewComposite(base *image.NRGBA) *Composite {
	return &Composite{
		Base:              base,
		Step:              1,
		ProbMode:          BlendMultiply,
		ProbOpacity:       0.8,
		LabelOpacity:      1,
		StrokeOpacity:     0.5,
		SuggestionOpacity: 0.35,
		BackColor:         color.RGBA{40, 40, 40, 255}, // Dark gray background
	}
}

// Render produces the composite at image resolution.
func (c *Composite) Render() *image.RGBA {
	b := c.Base.Bounds()
	return c.RenderView(b.Dx(), b.Dy(), geometry.Identity())
}

// RenderView produces a w x h view where view maps image coordinates to output pixels.
// Output pixels that fall outside the image keep the background color.
func (c *Composite) RenderView(w, h int, view geometry.AffineTransform) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	inv, ok := view.Inverse()
	if !ok {
		return out
	}
	iw, ih := c.Base.Bounds().Dx(), c.Base.Bounds().Dy()

	var sugBounds geometry.RectInt
	frontier := map[geometry.PointInt]bool{}
	if c.Suggested != nil {
		sugBounds = c.Suggested.Bounds()
		for _, p := range c.Suggested.Frontier() {
			frontier[p] = true
		}
	}
	step := max(c.Step, 1)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := inv.Apply(geometry.Point2D{X: float64(x) + 0.5, Y: float64(y) + 0.5})
			ix, iy := int(math.Floor(p.X)), int(math.Floor(p.Y))
			if ix < 0 || iy < 0 || ix >= iw || iy >= ih {
				out.SetRGBA(x, y, c.BackColor)
				continue
			}
			px := c.pixel(ix, iy, step, sugBounds, frontier)
			out.SetRGBA(x, y, px)
		}
	}
	return out
}

func (c *Composite) pixel(x, y, step int, sugBounds geometry.RectInt, frontier map[geometry.PointInt]bool) color.RGBA {
	n := c.Base.NRGBAAt(x, y)
	px := color.RGBA{n.R, n.G, n.B, 255}

	if c.ProbMap != nil {
		g := c.ProbMap.GrayAt(x, y).Y
		px = blend(px, color.RGBA{g, g, g, 255}, c.ProbMode, c.ProbOpacity)
	}
	if c.Labels != nil {
		if code := c.Labels.At(x, y); code != label.Unlabeled {
			lc := colorutil.LabelPalette[code]
			px = blend(px, color.RGBA{lc.R, lc.G, lc.B, lc.A}, BlendNormal, c.LabelOpacity)
		}
	}
	if c.Strokes != nil {
		switch c.Strokes.At(x, y) {
		case stroke.Positive:
			px = blend(px, colorutil.Cyan, BlendNormal, c.StrokeOpacity)
		case stroke.Negative:
			px = blend(px, colorutil.Magenta, BlendNormal, c.StrokeOpacity)
		}
	}
	if c.Suggested != nil && sugBounds.Contains(x, y) {
		if frontier[geometry.PointInt{X: x, Y: y}.Snap(step)] {
			return colorutil.Yellow
		}
		if c.Suggested.Enclosed(x, y) {
			px = blend(px, colorutil.Yellow, BlendNormal, c.SuggestionOpacity)
		}
	}
	return px
}

// blend performs the blend operation between two colors.
func blend(dst, src color.RGBA, mode BlendMode, opacity float64) color.RGBA {
	sf := [4]float64{float64(src.R) / 255, float64(src.G) / 255, float64(src.B) / 255, float64(src.A) / 255}
	df := [4]float64{float64(dst.R) / 255, float64(dst.G) / 255, float64(dst.B) / 255, float64(dst.A) / 255}

	var rf [3]float64
	for i := 0; i < 3; i++ {
		switch mode {
		case BlendMultiply:
			rf[i] = sf[i] * df[i]
		case BlendScreen:
			rf[i] = 1 - (1-sf[i])*(1-df[i])
		case BlendOverlay:
			if df[i] < 0.5 {
				rf[i] = 2 * sf[i] * df[i]
			} else {
				rf[i] = 1 - 2*(1-sf[i])*(1-df[i])
			}
		case BlendDifference:
			rf[i] = math.Abs(sf[i] - df[i])
		default:
			rf[i] = sf[i]
		}
	}

	alpha := sf[3] * opacity
	return color.RGBA{
		R: uint8(clamp(rf[0]*alpha+df[0]*(1-alpha), 0, 1)*255 + 0.5),
		G: uint8(clamp(rf[1]*alpha+df[1]*(1-alpha), 0, 1)*255 + 0.5),
		B: uint8(clamp(rf[2]*alpha+df[2]*(1-alpha), 0, 1)*255 + 0.5),
		A: uint8(clamp(alpha+df[3]*(1-alpha), 0, 1)*255 + 0.5),
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
