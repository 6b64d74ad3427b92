// Package app holds the open document (image, label file and labeling session), label
// autosave and the viewer theme.
package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"mlpaint/internal/config"
	"mlpaint/internal/engine"
	mlimage "mlpaint/internal/image"
	"mlpaint/internal/label"
	"mlpaint/internal/raster"

	"github.com/cyclopcam/logs"
)

// OpenOptions names the files that make up a document.
type OpenOptions struct {
	Image string
	// Labels is the label PNG. It need not exist yet; empty means DefaultLabelPath(Image).
	Labels string
	// Bands are auxiliary single-band layers (elevation, infrared) used as extra features.
	Bands []string
}

// Document is an image opened for labeling.
type Document struct {
	ImagePath string
	LabelPath string
	Layer     *mlimage.Layer
	Session   *engine.Session

	log      logs.Log
	modified atomic.Bool
}

// DefaultLabelPath returns the label file that sits next to an image: scene.tif becomes
// scene_labels.png.
func DefaultLabelPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + "_labels.png"
}

// Open loads the image, its labels and any auxiliary bands and starts a session over them.
// Labels and bands are resized to the (possibly down-sampled) image.
func Open(log logs.Log, cfg config.Config, opt OpenOptions) (*Document, error) {
	layer, err := mlimage.Load(opt.Image, cfg.Image.MaxPixels)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}
	w, h := layer.Width(), layer.Height()
	if layer.Scale != 1 {
		log.Infof("Down-sampled %s from %dx%d to %dx%d", filepath.Base(opt.Image), layer.SourceWidth, layer.SourceHeight, w, h)
	}

	labelPath := opt.Labels
	if labelPath == "" {
		labelPath = DefaultLabelPath(opt.Image)
	}
	labels, err := mlimage.LoadLabels(labelPath, w, h)
	if errors.Is(err, fs.ErrNotExist) {
		log.Infof("No label file at %s, starting empty", labelPath)
		labels, err = label.NewLayer(w, h), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}

	var bands []raster.Band
	for _, p := range opt.Bands {
		b, err := mlimage.LoadBand(p, w, h)
		if err != nil {
			return nil, fmt.Errorf("load band %s: %w", p, err)
		}
		bands = append(bands, b)
	}

	s, err := engine.New(log, cfg, layer.Image, labels, bands...)
	if err != nil {
		return nil, err
	}
	d := &Document{
		ImagePath: opt.Image,
		LabelPath: labelPath,
		Layer:     layer,
		Session:   s,
		log:       log,
	}
	s.On(engine.EventLabelsChanged, func(interface{}) {
		d.modified.Store(true)
	})
	return d, nil
}

// Modified reports whether the labels changed since they were last saved.
func (d *Document) Modified() bool {
	return d.modified.Load()
}

// Save writes the labels to LabelPath.
func (d *Document) Save() error {
	return d.SaveAs(d.LabelPath)
}

// SaveAs writes the labels to path, which becomes the document's label path. The file is
// written next to its destination and renamed into place, so an interrupted save never
// truncates the previous labels.
func (d *Document) SaveAs(path string) error {
	tmp := path + ".tmp.png"
	if err := mlimage.SaveLabels(tmp, d.Session.Labels()); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	d.LabelPath = path
	d.modified.Store(false)
	d.log.Infof("Saved labels to %s", path)
	return nil
}

// SaveIfModified saves when there are unsaved label changes, and reports whether it did.
func (d *Document) SaveIfModified() (bool, error) {
	if !d.Modified() {
		return false, nil
	}
	return true, d.Save()
}
