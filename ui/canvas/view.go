package canvas

import (
	"mlpaint/pkg/geometry"
)

const (
	minZoom  = 0.05
	maxZoom  = 32.0
	zoomStep = 1.25
)

// view maps image coordinates to canvas coordinates (fyne units).
type view struct {
	t geometry.AffineTransform
}

func newView() view {
	return view{t: geometry.Identity()}
}

// zoom returns the current isotropic scale.
func (v view) zoom() float64 {
	sx, _ := v.t.AxisScales()
	return sx
}

// zoomAt scales by factor around canvas point p, keeping the result within [minZoom, maxZoom].
func (v *view) zoomAt(p geometry.Point2D, factor float64) {
	z := v.zoom()
	target := min(max(z*factor, minZoom), maxZoom)
	if z == 0 || target == z {
		return
	}
	v.t = v.t.ZoomAt(p, target/z)
}

// pan moves the image by (dx, dy) canvas units.
func (v *view) pan(dx, dy float64) {
	v.t = geometry.Translation(dx, dy).Compose(v.t)
}

// fit centers an imgW x imgH image in a w x h canvas at the largest zoom that shows all of it.
func (v *view) fit(imgW, imgH, w, h float64) {
	if imgW <= 0 || imgH <= 0 || w <= 0 || h <= 0 {
		return
	}
	z := min(max(min(w/imgW, h/imgH), minZoom), maxZoom)
	v.t = geometry.Translation((w-imgW*z)/2, (h-imgH*z)/2).Compose(geometry.Scale(z, z))
}

// toImage maps a canvas point into image coordinates.
func (v view) toImage(p geometry.Point2D) geometry.Point2D {
	inv, ok := v.t.Inverse()
	if !ok {
		return p
	}
	return inv.Apply(p)
}
