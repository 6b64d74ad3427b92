// Package classifier trains the positive/unlabeled random forest that scores pixels for the
// growth search.
package classifier

import (
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"mlpaint/internal/config"
	"mlpaint/internal/features"
	"mlpaint/internal/forest"
	"mlpaint/internal/label"
	"mlpaint/internal/raster"
	"mlpaint/internal/sampler"
	"mlpaint/internal/stroke"
	"mlpaint/pkg/geometry"

	"github.com/cyclopcam/logs"
	"gonum.org/v1/gonum/stat"
)

// Classifier estimates the probability that a feature vector is positive.
type Classifier interface {
	ProbPositive(fv []float64) float64
}

// ProbNegative is 1 - ProbPositive.
func ProbNegative(c Classifier, fv []float64) float64 {
	return 1 - c.ProbPositive(fv)
}

// Result describes one successful training run.
type Result struct {
	Classifier Classifier
	Positives  int
	Negatives  int
	// KeptNegatives is how many negatives survived the PU filter.
	KeptNegatives int
	// PositiveEstimate extrapolates the number of qualifying positive pixels.
	PositiveEstimate int
	// PosMeanProbPos is the phase-one mean P(positive) over the positives.
	PosMeanProbPos float64
	Elapsed        time.Duration
}

// GrowthSnapshot is the read-only state TrainForGrowth samples from.
type GrowthSnapshot struct {
	Mask      stroke.Reader
	Labels    *label.Layer
	Distances *raster.Grid[float32]
	Threshold float32
	Bounds    geometry.RectInt
	Lock      bool
}

// Trainer runs the two-phase PU training. It is safe for concurrent use.
type Trainer struct {
	log     logs.Log
	cfg     config.Training
	feat    *features.Extractor
	sampler *sampler.Sampler
	runs    atomic.Int64
}

// NewTrainer creates a trainer over the given extractor.
func NewTrainer(log logs.Log, cfg config.Training, feat *features.Extractor) *Trainer {
	return &Trainer{
		log:     log,
		cfg:     cfg,
		feat:    feat,
		sampler: sampler.New(feat.Width(), feat.Height(), cfg.Oversample),
	}
}

func (t *Trainer) rng() *rand.Rand {
	return rand.New(rand.NewSource(t.cfg.Seed + t.runs.Add(1)))
}

// Train trains on the fresh strokes. It returns a nil Result when there are fewer than
// MinPositives positive samples; the caller keeps its current classifier.
func (t *Trainer) Train(mask stroke.Reader, labels *label.Layer, lock bool) (*Result, error) {
	start := time.Now()
	rng := t.rng()

	posRes := t.sampler.Sample(mask.Bounds(stroke.Positive), t.cfg.MaxPositives, func(x, y int) bool {
		return mask.At(x, y) == stroke.Positive
	})
	if len(posRes.Points) < t.cfg.MinPositives {
		t.log.Debugf("Not training: %d positives, need %d", len(posRes.Points), t.cfg.MinPositives)
		return nil, nil
	}

	neg := t.strokeNegatives(mask)
	neg = t.padNegatives(neg, len(posRes.Points), rng, func(x, y int) bool {
		if mask.At(x, y) != stroke.Unpainted {
			return false
		}
		return !lock || labels.At(x, y) == label.Unlabeled
	})

	res, err := t.fit(posRes.Points, neg, rng)
	if err != nil {
		return nil, err
	}
	res.PositiveEstimate = posRes.Estimate()
	res.Elapsed = time.Since(start)
	t.log.Infof("Trained on %d positives, %d/%d negatives (posMeanProbPos %.3f) in %v",
		res.Positives, res.KeptNegatives, res.Negatives, res.PosMeanProbPos, res.Elapsed)
	return res, nil
}

// TrainForGrowth trains with positives drawn from the pixels the search already encloses.
// It returns a nil Result when there are fewer than MinGrowthPositives such pixels.
func (t *Trainer) TrainForGrowth(s GrowthSnapshot) (*Result, error) {
	start := time.Now()
	rng := t.rng()
	d := s.Distances
	inside := func(x, y int) bool {
		v := d.At(x, y)
		return v > 0 && v < s.Threshold && !math.IsInf(float64(v), 1)
	}

	posRes := t.sampler.Sample(s.Bounds, t.cfg.MaxPositives, inside)
	if len(posRes.Points) < t.cfg.MinGrowthPositives {
		t.log.Debugf("Not training for growth: %d positives, need %d", len(posRes.Points), t.cfg.MinGrowthPositives)
		return nil, nil
	}

	neg := t.strokeNegatives(s.Mask)
	neg = t.padNegatives(neg, len(posRes.Points), rng, func(x, y int) bool {
		if s.Mask.At(x, y) != stroke.Unpainted {
			return false
		}
		if s.Lock && s.Labels.At(x, y) != label.Unlabeled {
			return false
		}
		v := d.At(x, y)
		return v == 0 || v > s.Threshold
	})

	res, err := t.fit(posRes.Points, neg, rng)
	if err != nil {
		return nil, err
	}
	res.PositiveEstimate = posRes.Estimate()
	res.Elapsed = time.Since(start)
	t.log.Debugf("Growth training on %d positives, %d/%d negatives in %v",
		res.Positives, res.KeptNegatives, res.Negatives, res.Elapsed)
	return res, nil
}

func (t *Trainer) strokeNegatives(mask stroke.Reader) []geometry.PointInt {
	res := t.sampler.Sample(mask.Bounds(stroke.Negative), t.cfg.MaxNegatives/2, func(x, y int) bool {
		return mask.At(x, y) == stroke.Negative
	})
	return res.Points
}

// padNegatives adds uniformly random qualifying pixels until there are min(2*npos,
// MaxNegatives) negatives. Draws are capped so a fully excluded image terminates.
func (t *Trainer) padNegatives(neg []geometry.PointInt, npos int, rng *rand.Rand, ok func(x, y int) bool) []geometry.PointInt {
	want := min(2*npos, t.cfg.MaxNegatives)
	w, h := t.feat.Width(), t.feat.Height()
	for tries := 0; len(neg) < want && tries < 50*want; tries++ {
		x, y := rng.Intn(w), rng.Intn(h)
		if ok(x, y) {
			neg = append(neg, geometry.PointInt{X: x, Y: y})
		}
	}
	return neg
}

// fit runs phase one, the PU filter, and phase two.
func (t *Trainer) fit(pos, neg []geometry.PointInt, rng *rand.Rand) (*Result, error) {
	fcfg := forest.Config{Trees: t.cfg.Trees, MaxDepth: t.cfg.MaxDepth, MinLeaf: t.cfg.MinLeaf}
	posFV := t.feat.Vectors(pos)
	negFV := t.feat.Vectors(neg)

	f1, err := forest.Train(stack(posFV, negFV), targets(len(posFV), len(negFV)), fcfg, rng)
	if err != nil {
		return nil, fmt.Errorf("phase 1: %w", err)
	}

	probs := make([]float64, len(posFV))
	for i, fv := range posFV {
		probs[i] = f1.ProbPositive(fv)
	}
	mean, std := stat.MeanStdDev(probs, nil)

	var kept [][]float64
	for _, fv := range negFV {
		if f1.ProbPositive(fv) < mean {
			kept = append(kept, fv)
		}
	}
	res := &Result{
		Positives:      len(posFV),
		Negatives:      len(negFV),
		KeptNegatives:  len(kept),
		PosMeanProbPos: mean,
	}
	t.log.Debugf("Phase 1 P(pos) over positives: mean %.3f, stddev %.3f", mean, std)
	if len(kept) == 0 {
		res.Classifier = f1
		return res, nil
	}

	f2, err := forest.Train(stack(posFV, kept), targets(len(posFV), len(kept)), fcfg, rng)
	if err != nil {
		return nil, fmt.Errorf("phase 2: %w", err)
	}
	res.Classifier = f2
	return res, nil
}

func stack(a, b [][]float64) [][]float64 {
	out := make([][]float64, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func targets(npos, nneg int) []bool {
	y := make([]bool, npos+nneg)
	for i := 0; i < npos; i++ {
		y[i] = true
	}
	return y
}
