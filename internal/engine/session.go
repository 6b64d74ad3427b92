// Package engine ties strokes, training, the cost field, growth and label commits into one
// interactive labeling session.
package engine

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"mlpaint/internal/classifier"
	"mlpaint/internal/config"
	"mlpaint/internal/cost"
	"mlpaint/internal/features"
	"mlpaint/internal/growth"
	"mlpaint/internal/label"
	"mlpaint/internal/raster"
	"mlpaint/internal/speculate"
	"mlpaint/internal/stroke"
	"mlpaint/pkg/geometry"

	"github.com/chewxy/math32"
	"github.com/cyclopcam/logs"
)

var (
	// ErrSizeMismatch is returned when the base image, labels and auxiliary layers differ in
	// extent.
	ErrSizeMismatch = raster.ErrSizeMismatch
	// ErrNoClassifier is returned by operations that need a trained classifier.
	ErrNoClassifier = errors.New("no classifier trained yet")
)

// Session is one labeling session over a single image. It is not safe for concurrent
// mutation; the viewer drives it from its event goroutine. Listener registration is
// goroutine safe.
type Session struct {
	mu sync.RWMutex

	log       logs.Log
	cfg       config.Config
	feat      *features.Extractor
	trainer   *classifier.Trainer
	mask      *stroke.Mask
	committer *label.Committer
	growth    *growth.Engine
	spec      *speculate.Speculator

	classifier classifier.Classifier
	estimate   int
	lock       bool
	scorePower float64
	generation uint64

	listeners map[EventType][]EventListener
}

// New creates a session. labels may be nil for a fresh, all-unlabeled layer; otherwise it
// must match the base image extent and is owned by the session from then on.
func New(log logs.Log, cfg config.Config, base image.Image, labels *label.Layer, bands ...raster.Band) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	feat, err := features.NewExtractor(base, bands...)
	if err != nil {
		return nil, err
	}
	w, h := feat.Width(), feat.Height()
	if labels == nil {
		labels = label.NewLayer(w, h)
	} else if err := labels.CheckSize(w, h); err != nil {
		return nil, fmt.Errorf("label layer: %w", err)
	}

	trainer := classifier.NewTrainer(log, cfg.Training, feat)
	s := &Session{
		log:        log,
		cfg:        cfg,
		feat:       feat,
		trainer:    trainer,
		mask:       stroke.NewMask(w, h),
		committer:  label.NewCommitter(log, labels, cfg.Labels.UndoDepth),
		growth:     growth.New(w, h, cfg.Growth, cfg.Cost.PositiveStrokeCost),
		lock:       cfg.Labels.Lock,
		scorePower: cfg.Cost.ScorePower,
		listeners:  make(map[EventType][]EventListener),
	}
	if cfg.Speculation.Enabled {
		s.spec = speculate.New(log, trainer)
	}
	log.Infof("Session on %dx%d image, %d features, block size %d", w, h, feat.Len(), cfg.Growth.BlockSize)
	return s, nil
}

func (s *Session) Width() int  { return s.feat.Width() }
func (s *Session) Height() int { return s.feat.Height() }

// Config returns the configuration the session was created with.
func (s *Session) Config() config.Config { return s.cfg }

// Base returns the normalized base image.
func (s *Session) Base() *image.NRGBA { return s.feat.Base() }

// Labels returns the live label layer. Callers must not modify it.
func (s *Session) Labels() *label.Layer { return s.committer.Labels() }

// Mask returns the fresh-paint layer. Callers must not modify it.
func (s *Session) Mask() *stroke.Mask { return s.mask }

// Distances returns the live distance field. Callers must not modify it.
func (s *Session) Distances() *raster.Grid[float32] { return s.growth.Distances() }

// Trained reports whether a classifier is available.
func (s *Session) Trained() bool { return s.classifier != nil }

// Classifier returns the current classifier, or nil. Trained classifiers are immutable.
func (s *Session) Classifier() classifier.Classifier { return s.classifier }

// Lock reports whether existing labels are protected from growth.
func (s *Session) Lock() bool { return s.lock }

// ScorePower is the exponent applied to P(negative) in the cost field.
func (s *Session) ScorePower() float64 { return s.scorePower }

// Generation increases on every state change that invalidates background work.
func (s *Session) Generation() uint64 { return s.generation }

// UndoLen is the number of label snapshots available to Undo.
func (s *Session) UndoLen() int { return s.committer.UndoLen() }

// Threshold is the current ring's threshold, or +Inf with no suggestion.
func (s *Session) Threshold() float32 { return s.growth.Threshold() }

// HasSuggestion reports whether there is a finite suggestion to show or commit.
func (s *Session) HasSuggestion() bool {
	return s.growth.RingCount() > 0 && !math32.IsInf(s.growth.Threshold(), 1)
}

func (s *Session) RingIndex() int                      { return s.growth.Index() }
func (s *Session) RingCount() int                      { return s.growth.RingCount() }
func (s *Session) Bounds() geometry.RectInt            { return s.growth.Bounds() }
func (s *Session) Frontier() []geometry.PointInt       { return s.growth.Frontier() }
func (s *Session) Enclosed(x, y int) bool              { return s.growth.Enclosed(x, y) }
func (s *Session) EnclosedPixels() []geometry.PointInt { return s.growth.EnclosedPixels() }
func (s *Session) EnclosedCount() int                  { return s.growth.EnclosedCount() }

// costField builds a fresh cost field over the current state. Each goroutine needs its own.
func (s *Session) costField() *cost.Field {
	return &cost.Field{
		Labels:       s.committer.Labels(),
		Mask:         s.mask,
		Classifier:   s.classifier,
		Features:     s.feat,
		Lock:         s.lock,
		ScorePower:   s.scorePower,
		PositiveCost: s.cfg.Cost.PositiveStrokeCost,
	}
}

// invalidate bumps the generation and drops any speculative job.
func (s *Session) invalidate() {
	s.generation++
	if s.spec != nil {
		s.spec.Discard()
	}
}
