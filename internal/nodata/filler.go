// Package nodata marks uniform image regions (scan borders, masked-out areas) in a label layer
// using OpenCV connected components.
package nodata

import (
	"fmt"
	"image"

	"mlpaint/internal/label"

	"gocv.io/x/gocv"
)

// Filler implements engine.RegionFiller.
type Filler struct{}

// FillMatching labels every 8-connected component of pixels whose red channel equals value
// and whose area is at least minArea.
func (Filler) FillMatching(img *image.NRGBA, value uint8, labels *label.Layer, code label.Code, minArea int) (int, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if err := labels.CheckSize(w, h); err != nil {
		return 0, err
	}

	mask := make([]byte, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			if row[4*x] == value {
				mask[y*w+x] = 255
			}
		}
	}
	src, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, mask)
	if err != nil {
		return 0, fmt.Errorf("mask to mat: %w", err)
	}
	defer src.Close()

	comps := gocv.NewMat()
	defer comps.Close()
	n := gocv.ConnectedComponents(src, &comps)
	if n <= 1 {
		return 0, nil
	}

	// Component 0 is the background.
	ids := make([]int32, w*h)
	area := make([]int, n)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			id := comps.GetIntAt(y, x)
			ids[y*w+x] = id
			area[id]++
		}
	}

	filled := 0
	for i, id := range ids {
		if id > 0 && area[id] >= minArea {
			labels.Pix[i] = code
			filled++
		}
	}
	return filled, nil
}
