// Package colorutil provides color-space conversion and the label display palette.
package colorutil

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Common overlay colors used by the viewer.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// RGBToHSB converts normalized RGB (0-1) to hue, saturation and brightness, all in [0,1].
// Hue wraps so that pure red is 0.
func RGBToHSB(r, g, b float64) (h, s, v float64) {
	h, s, v = colorful.Color{R: r, G: g, B: b}.Hsv()
	h /= 360
	if h >= 1 {
		h -= 1
	}
	return h, s, v
}

// LabelPalette maps label codes 0..15 to overlay colors. Index 0 (unlabeled) is transparent.
// Codes beyond the named ones get evenly spaced hues.
var LabelPalette = buildPalette()

func buildPalette() [16]color.NRGBA {
	var p [16]color.NRGBA
	p[1] = color.NRGBA{R: 220, G: 40, B: 40, A: 110}   // negative
	p[2] = color.NRGBA{R: 40, G: 200, B: 60, A: 110}   // positive
	p[15] = color.NRGBA{R: 60, G: 60, B: 60, A: 160}   // no data
	for i := 3; i <= 14; i++ {
		c := colorful.Hsv(float64(i-3)*30, 0.8, 0.95)
		r, g, b := c.RGB255()
		p[i] = color.NRGBA{R: r, G: g, B: b, A: 110}
	}
	return p
}
