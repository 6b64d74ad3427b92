package engine

import (
	"context"
	"fmt"
	"time"

	"mlpaint/internal/classifier"
	"mlpaint/internal/growth"
	"mlpaint/internal/label"
	"mlpaint/internal/speculate"
	"mlpaint/internal/stroke"
)

// Paint applies one brush dab to the stroke mask and returns the number of changed pixels.
func (s *Session) Paint(ev stroke.Event) int {
	n := s.mask.Paint(ev)
	s.invalidate()
	s.Emit(EventStrokesChanged, n)
	return n
}

// Release is called when a stroke ends. It retrains on the fresh strokes and restarts the
// suggestion. With too few positives the previous classifier is kept; with no classifier at
// all nothing happens.
func (s *Session) Release() error {
	res, err := s.trainer.Train(s.mask, s.Labels(), s.lock)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	if res != nil {
		s.classifier = res.Classifier
		s.estimate = res.PositiveEstimate
		s.Emit(EventClassifierTrained, res)
	}
	if s.classifier == nil {
		s.log.Debugf("No classifier yet, not suggesting")
		return nil
	}
	s.initialize()
	return nil
}

// initialize reseeds the growth engine from the positive strokes with the current classifier.
func (s *Session) initialize() {
	s.invalidate()
	start := time.Now()
	c := s.costField()
	seeds := s.growth.SnapSeeds(s.mask.Seeds(), func(x, y int) bool {
		return !c.Barrier(x, y) && s.mask.At(x, y) == stroke.Positive
	})
	s.growth.Initialize(seeds, c, s.estimate)
	if len(seeds) == 0 {
		s.log.Debugf("No usable seeds among %d stroke centers", len(s.mask.Seeds()))
	} else {
		s.log.Infof("Suggestion from %d seeds: %d rings, %d pixels in %v",
			len(seeds), s.growth.RingCount(), s.growth.EnclosedCount(), time.Since(start))
	}
	s.dispatch()
	s.Emit(EventSuggestionChanged, nil)
}

// dispatch starts speculative training for the next growth step from the newest ring.
func (s *Session) dispatch() {
	if s.spec == nil || s.growth.RingCount() == 0 || !s.growth.AtLatest() {
		return
	}
	snap := s.growth.Snapshot()
	s.spec.Dispatch(classifier.GrowthSnapshot{
		Mask:      s.mask.Clone(),
		Labels:    s.Labels().Clone(),
		Distances: snap.Distances,
		Threshold: snap.Threshold,
		Bounds:    snap.Bounds,
		Lock:      s.lock,
	}, speculate.Tag{RingIndex: snap.RingIndex, Generation: s.generation})
}

// Grow advances the suggestion by one ring. Growing past the history first swaps in the
// speculative classifier when it was trained for exactly this state. It returns false when
// the suggestion cannot grow any further.
func (s *Session) Grow() (bool, error) {
	if s.growth.RingCount() == 0 {
		return false, growth.ErrNoSeed
	}
	extend := s.growth.AtLatest() && !s.growth.Saturated()
	if extend && s.spec != nil {
		if c := s.spec.Take(speculate.Tag{RingIndex: s.growth.Index(), Generation: s.generation}); c != nil {
			s.log.Debugf("Using speculative classifier for ring %d", s.growth.Index()+1)
			s.classifier = c
		}
	}
	ok, err := s.growth.Grow(s.costField())
	if err != nil || !ok {
		return ok, err
	}
	if extend {
		s.dispatch()
	}
	s.Emit(EventSuggestionChanged, nil)
	return true, nil
}

// Shrink moves the suggestion back one ring.
func (s *Session) Shrink() bool {
	if !s.growth.Shrink() {
		return false
	}
	s.Emit(EventSuggestionChanged, nil)
	return true
}

// Commit writes the current suggestion into the labels as code and clears it. The strokes
// stay visible until the next paint.
func (s *Session) Commit(code label.Code) (int, error) {
	n, err := s.committer.Commit(code, s.growth, s.mask)
	if err != nil {
		return 0, err
	}
	s.invalidate()
	s.growth.Reset()
	s.Emit(EventLabelsChanged, n)
	s.Emit(EventSuggestionChanged, nil)
	return n, nil
}

// Undo restores the labels from before the last commit or NO_DATA fill. Strokes kept for a
// commit are returned to the user for further painting.
func (s *Session) Undo() bool {
	if !s.committer.Undo() {
		return false
	}
	s.mask.CancelPendingReset()
	s.invalidate()
	s.Emit(EventLabelsChanged, nil)
	return true
}

// ClearSuggestion drops the strokes and the suggestion. The classifier is kept.
func (s *Session) ClearSuggestion() {
	s.mask.Reset()
	s.growth.Reset()
	s.invalidate()
	s.Emit(EventStrokesChanged, 0)
	s.Emit(EventSuggestionChanged, nil)
}

// SetLock switches lock mode and, if there are strokes, retrains and resuggests under the
// new policy.
func (s *Session) SetLock(on bool) error {
	if s.lock == on {
		return nil
	}
	s.lock = on
	s.invalidate()
	s.log.Infof("Label lock %v", on)
	if s.mask.Count(stroke.Positive) == 0 {
		return nil
	}
	return s.Release()
}

// SetScorePower changes the cost exponent and reinitializes the suggestion with the current
// classifier, without retraining.
func (s *Session) SetScorePower(p float64) error {
	if p <= 0 {
		return fmt.Errorf("score power must be positive, got %g", p)
	}
	s.scorePower = p
	s.invalidate()
	s.log.Infof("Score power %.2f", p)
	if s.classifier != nil && s.growth.RingCount() > 0 {
		s.initialize()
	}
	return nil
}

// AdjustScorePower adds delta to the cost exponent.
func (s *Session) AdjustScorePower(delta float64) error {
	return s.SetScorePower(s.scorePower + delta)
}

// Wait blocks until background training has finished.
func (s *Session) Wait(ctx context.Context) error {
	if s.spec == nil {
		return nil
	}
	return s.spec.Wait(ctx)
}
