package engine

import (
	"fmt"
	"image"

	"mlpaint/internal/label"
	"mlpaint/internal/sampler"
	"mlpaint/internal/stroke"
)

// noDataSamples is how many positive-stroke pixels are checked for a uniform value.
const noDataSamples = 50

// RegionFiller marks every connected region of img whose first channel equals value, with at
// least minArea pixels, as code in labels. It returns the number of pixels written.
type RegionFiller interface {
	FillMatching(img *image.NRGBA, value uint8, labels *label.Layer, code label.Code, minArea int) (int, error)
}

// FillNoData marks the image areas under the positive strokes as NO_DATA, provided every
// sampled stroke pixel has the same first-channel value. The fill is undoable. It returns 0
// without touching labels when the strokes do not sit on a uniform value.
func (s *Session) FillNoData(f RegionFiller) (int, error) {
	base := s.feat.Base()
	smp := sampler.New(s.Width(), s.Height(), s.cfg.Training.Oversample)
	res := smp.Sample(s.mask.Bounds(stroke.Positive), noDataSamples, func(x, y int) bool {
		return s.mask.At(x, y) == stroke.Positive
	})
	if len(res.Points) == 0 {
		s.log.Debugf("NO_DATA fill needs a positive stroke")
		return 0, nil
	}

	value := base.NRGBAAt(res.Points[0].X, res.Points[0].Y).R
	for _, p := range res.Points[1:] {
		if v := base.NRGBAAt(p.X, p.Y).R; v != value {
			s.log.Debugf("NO_DATA fill: stroke covers values %d and %d, not filling", value, v)
			return 0, nil
		}
	}

	s.committer.Snapshot()
	n, err := f.FillMatching(base, value, s.Labels(), label.NoData, s.cfg.Labels.NoDataMinArea)
	if err != nil {
		s.committer.Undo()
		return 0, fmt.Errorf("fill NO_DATA: %w", err)
	}
	s.invalidate()
	s.log.Infof("Marked %d pixels of value %d as NO_DATA", n, value)
	s.Emit(EventLabelsChanged, n)
	return n, nil
}
