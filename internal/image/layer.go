// Package image loads and saves the rasters a labeling session works on, and composites them
// for display.
package image

import (
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"mlpaint/internal/raster"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"
)

// Layer is a loaded base image.
type Layer struct {
	Path  string      // Original file path
	Image image.Image // Possibly down-sampled image data
	DPI   float64     // From TIFF metadata, 0 if unknown
	// Scale is the factor applied on load: 1 for full resolution, below 1 when down-sampled.
	Scale float64
	// SourceWidth and SourceHeight are the dimensions on disk.
	SourceWidth  int
	SourceHeight int
}

// Width returns the image width in pixels.
func (l *Layer) Width() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (l *Layer) Height() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dy()
}

// Load reads an image and down-samples it with a Lanczos filter if it has more than
// maxPixels pixels. maxPixels <= 0 disables down-sampling.
func Load(path string, maxPixels int) (*Layer, error) {
	img, err := decode(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	layer := &Layer{
		Path:         path,
		Image:        img,
		Scale:        1,
		SourceWidth:  b.Dx(),
		SourceHeight: b.Dy(),
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tiff" || ext == ".tif" {
		if dpi, err := extractTIFFDPI(path); err == nil {
			layer.DPI = dpi
		}
	}

	if w, h, ok := FitPixels(b.Dx(), b.Dy(), maxPixels); ok {
		layer.Image = imaging.Resize(img, w, h, imaging.Lanczos)
		layer.Scale = float64(w) / float64(b.Dx())
		layer.DPI *= layer.Scale
	}
	return layer, nil
}

// FitPixels returns the largest dimensions with the aspect ratio of w x h and at most
// maxPixels pixels, and whether they differ from w x h.
func FitPixels(w, h, maxPixels int) (int, int, bool) {
	if maxPixels <= 0 || w*h <= maxPixels {
		return w, h, false
	}
	f := math.Sqrt(float64(maxPixels) / float64(w*h))
	nw := max(int(float64(w)*f), 1)
	nh := max(int(float64(h)*f), 1)
	return nw, nh, true
}

// LoadBand reads an auxiliary single-band layer (elevation, infrared and similar), resized
// with nearest neighbor to w x h if needed.
func LoadBand(path string, w, h int) (*raster.GrayBand, error) {
	img, err := decode(path)
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		img = imaging.Resize(img, w, h, imaging.NearestNeighbor)
	}
	return raster.NewGrayBand(img), nil
}

// SaveGray writes a single-channel image (for example a probability map) in the format
// implied by the extension.
func SaveGray(path string, img *image.Gray) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func decode(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// extractTIFFDPI reads the X (or Y) resolution tag from the first IFD.
func extractTIFFDPI(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	header := make([]byte, 8)
	if _, err := file.Read(header); err != nil {
		return 0, err
	}

	var order binary.ByteOrder
	switch string(header[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	if _, err := file.Seek(int64(order.Uint32(header[4:8])), 0); err != nil {
		return 0, err
	}
	var entries uint16
	if err := binary.Read(file, order, &entries); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	var unit uint16 = 2 // inches
	entry := make([]byte, 12)
	for i := uint16(0); i < entries; i++ {
		if _, err := file.Read(entry); err != nil {
			return 0, err
		}
		tag := order.Uint16(entry[0:2])
		typ := order.Uint16(entry[2:4])
		val := order.Uint32(entry[8:12])
		switch {
		case tag == 282 && typ == 5:
			xRes = readTIFFRational(file, int64(val), order)
		case tag == 283 && typ == 5:
			yRes = readTIFFRational(file, int64(val), order)
		case tag == 296 && typ == 3:
			unit = uint16(val)
		}
	}

	dpi := xRes
	if dpi == 0 {
		dpi = yRes
	}
	if unit == 3 {
		dpi *= 2.54
	}
	if dpi == 0 {
		return 0, fmt.Errorf("no resolution tags found")
	}
	return dpi, nil
}

// readTIFFRational reads a RATIONAL at offset and restores the file position.
func readTIFFRational(file *os.File, offset int64, order binary.ByteOrder) float64 {
	pos, _ := file.Seek(0, 1)
	defer file.Seek(pos, 0)

	file.Seek(offset, 0)
	var num, denom uint32
	binary.Read(file, order, &num)
	binary.Read(file, order, &denom)
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

// SupportedFormats returns the list of supported image extensions.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
