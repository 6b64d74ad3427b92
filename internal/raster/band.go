package raster

import (
	"image"
	"image/color"
)

// Band is a single-channel, same-extent auxiliary layer read by the feature extractor.
type Band interface {
	Size() (width, height int)
	// Sample returns the raw value at (x, y), or 0 outside the band.
	Sample(x, y int) float64
}

// GrayBand adapts the luma of an image as a Band. 16-bit gray images keep full precision.
type GrayBand struct {
	img image.Image
}

// NewGrayBand wraps img.
func NewGrayBand(img image.Image) *GrayBand {
	return &GrayBand{img: img}
}

func (b *GrayBand) Size() (int, int) {
	r := b.img.Bounds()
	return r.Dx(), r.Dy()
}

func (b *GrayBand) Sample(x, y int) float64 {
	r := b.img.Bounds()
	px, py := r.Min.X+x, r.Min.Y+y
	if x < 0 || y < 0 || px >= r.Max.X || py >= r.Max.Y {
		return 0
	}
	switch m := b.img.(type) {
	case *image.Gray:
		return float64(m.GrayAt(px, py).Y)
	case *image.Gray16:
		return float64(m.Gray16At(px, py).Y)
	}
	return float64(color.GrayModel.Convert(b.img.At(px, py)).(color.Gray).Y)
}

// FloatBand is an in-memory Band backed by a float32 grid.
type FloatBand struct {
	*Grid[float32]
}

// NewFloatBand allocates a zeroed band.
func NewFloatBand(width, height int) FloatBand {
	return FloatBand{NewGrid[float32](width, height)}
}

func (b FloatBand) Size() (int, int) {
	return b.Width, b.Height
}

func (b FloatBand) Sample(x, y int) float64 {
	if !b.InBounds(x, y) {
		return 0
	}
	return float64(b.At(x, y))
}
