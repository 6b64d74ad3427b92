package image

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"mlpaint/internal/label"
	"mlpaint/pkg/colorutil"

	"github.com/disintegration/imaging"
)

// LoadLabels reads a saved label layer. Paletted images use the palette index as the label
// code; anything else uses its luma. The layer is resized with nearest neighbor to w x h when
// the file was saved at a different resolution.
func LoadLabels(path string, w, h int) (*label.Layer, error) {
	img, err := decode(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()

	codes := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			var v uint8
			if p, ok := img.(*image.Paletted); ok {
				v = p.ColorIndexAt(b.Min.X+x, b.Min.Y+y)
			} else {
				v = color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y
			}
			if !label.Code(v).Valid() {
				return nil, fmt.Errorf("label file %s: invalid code %d at (%d,%d)", path, v, x, y)
			}
			codes.Pix[y*codes.Stride+x] = v
		}
	}

	l := label.NewLayer(w, h)
	if b.Dx() == w && b.Dy() == h {
		for i := range l.Pix {
			l.Pix[i] = label.Code(codes.Pix[i])
		}
		return l, nil
	}
	resized := imaging.Resize(codes, w, h, imaging.NearestNeighbor)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			l.Set(x, y, label.Code(resized.Pix[y*resized.Stride+4*x]))
		}
	}
	return l, nil
}

// SaveLabels writes the layer as a paletted PNG: the pixel index is the label code and the
// palette is the display palette, so the file is both lossless and viewable.
func SaveLabels(path string, l *label.Layer) error {
	pal := make(color.Palette, len(colorutil.LabelPalette))
	for i, c := range colorutil.LabelPalette {
		pal[i] = c
	}
	img := image.NewPaletted(image.Rect(0, 0, l.Width, l.Height), pal)
	for i, c := range l.Pix {
		img.Pix[i] = uint8(c)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create label file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode labels: %w", err)
	}
	return f.Close()
}
