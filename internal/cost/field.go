// Package cost combines label state, stroke state and the classifier into a per-pixel
// traversal cost for the growth search.
package cost

import (
	"math"

	"mlpaint/internal/classifier"
	"mlpaint/internal/features"
	"mlpaint/internal/label"
	"mlpaint/internal/stroke"
)

// DefaultPositiveStrokeCost is the near-zero cost of pixels under positive paint.
const DefaultPositiveStrokeCost = 1e-5

// Field evaluates edge costs. It is not safe for concurrent use because it reuses a feature
// buffer; create one per goroutine.
type Field struct {
	Labels     *label.Layer
	Mask       stroke.Reader
	Classifier classifier.Classifier
	Features   *features.Extractor
	Lock       bool
	ScorePower float64
	// PositiveCost is the cost of a positive-stroke pixel.
	PositiveCost float64

	buf []float64
}

// Barrier reports whether (x, y) can never be entered: locked labels, NO_DATA, or negative
// paint.
func (f *Field) Barrier(x, y int) bool {
	l := f.Labels.At(x, y)
	if l != label.Unlabeled && f.Lock {
		return true
	}
	if l == label.NoData {
		return true
	}
	return f.Mask.At(x, y) == stroke.Negative
}

// EdgeCost returns the cost of entering (x, y), in (0, +Inf]. It panics if a classifier is
// needed and none is set.
func (f *Field) EdgeCost(x, y int) float64 {
	l := f.Labels.At(x, y)
	if l != label.Unlabeled && f.Lock {
		return math.Inf(1)
	}
	if l == label.NoData {
		return math.Inf(1)
	}
	switch f.Mask.At(x, y) {
	case stroke.Positive:
		return f.PositiveCost
	case stroke.Negative:
		return math.Inf(1)
	}
	if f.Classifier == nil {
		panic("cost: edge cost requested without a trained classifier")
	}
	f.buf = f.Features.Features(x, y, f.buf)
	return math.Pow(classifier.ProbNegative(f.Classifier, f.buf), f.ScorePower)
}
