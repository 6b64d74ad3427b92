// Package features turns a pixel coordinate into the feature vector the classifier consumes.
package features

import (
	"fmt"
	"image"

	"mlpaint/internal/raster"
	"mlpaint/pkg/colorutil"
	"mlpaint/pkg/geometry"

	"github.com/disintegration/imaging"
)

// BaseFeatures is the number of features derived from the base image: R, G, B, hue,
// saturation and brightness.
const BaseFeatures = 6

// Extractor computes per-pixel feature vectors. It is read-only after construction and safe
// for concurrent use.
type Extractor struct {
	base   *image.NRGBA
	bands  []raster.Band
	width  int
	height int
}

// NewExtractor normalizes base to NRGBA and checks every auxiliary band has the same extent.
func NewExtractor(base image.Image, bands ...raster.Band) (*Extractor, error) {
	nrgba, ok := base.(*image.NRGBA)
	if !ok || nrgba.Bounds().Min != (image.Point{}) {
		nrgba = imaging.Clone(base)
	}
	w, h := nrgba.Bounds().Dx(), nrgba.Bounds().Dy()
	for i, b := range bands {
		bw, bh := b.Size()
		if bw != w || bh != h {
			return nil, fmt.Errorf("%w: auxiliary layer %d is %dx%d, image is %dx%d", raster.ErrSizeMismatch, i, bw, bh, w, h)
		}
	}
	return &Extractor{base: nrgba, bands: bands, width: w, height: h}, nil
}

// Len is the feature vector length.
func (e *Extractor) Len() int {
	return BaseFeatures + len(e.bands)
}

func (e *Extractor) Width() int  { return e.width }
func (e *Extractor) Height() int { return e.height }

// Base returns the normalized base image.
func (e *Extractor) Base() *image.NRGBA {
	return e.base
}

// Features writes the feature vector for (x, y) into dst (grown if needed) and returns it.
// Base-image features are zero outside the image.
func (e *Extractor) Features(x, y int, dst []float64) []float64 {
	n := e.Len()
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]

	if x >= 0 && y >= 0 && x < e.width && y < e.height {
		i := e.base.PixOffset(x, y)
		r := float64(e.base.Pix[i]) / 255
		g := float64(e.base.Pix[i+1]) / 255
		b := float64(e.base.Pix[i+2]) / 255
		h, s, v := colorutil.RGBToHSB(r, g, b)
		dst[0], dst[1], dst[2] = r, g, b
		dst[3], dst[4], dst[5] = h, s, v
	} else {
		for i := 0; i < BaseFeatures; i++ {
			dst[i] = 0
		}
	}

	for i, band := range e.bands {
		dst[BaseFeatures+i] = band.Sample(x, y)
	}
	return dst
}

// Vectors builds one feature vector per point.
func (e *Extractor) Vectors(pts []geometry.PointInt) [][]float64 {
	out := make([][]float64, len(pts))
	for i, p := range pts {
		out[i] = e.Features(p.X, p.Y, nil)
	}
	return out
}
