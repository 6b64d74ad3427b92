// Package speculate retrains a classifier in the background, anticipating the next growth
// step, and hands it back only if the session has not moved on in the meantime.
package speculate

import (
	"context"
	"sync"

	"mlpaint/internal/classifier"

	"github.com/cyclopcam/logs"
)

// Trainer is the part of classifier.Trainer the speculator needs.
type Trainer interface {
	TrainForGrowth(s classifier.GrowthSnapshot) (*classifier.Result, error)
}

// Tag identifies the session state a job was dispatched for.
type Tag struct {
	RingIndex  int
	Generation uint64
}

type job struct {
	tag    Tag
	done   chan struct{}
	result *classifier.Result
	err    error
}

// Speculator runs at most one job per dispatch. Jobs are never cancelled; a superseded job
// runs to completion and its result is dropped.
type Speculator struct {
	log     logs.Log
	trainer Trainer

	mu      sync.Mutex
	latest  *job
	running int
	idle    chan struct{} // closed when running drops to zero
}

// New creates a speculator.
func New(log logs.Log, trainer Trainer) *Speculator {
	return &Speculator{log: log, trainer: trainer}
}

// Dispatch starts training on snap, which must be a private copy. It supersedes any earlier
// job.
func (s *Speculator) Dispatch(snap classifier.GrowthSnapshot, tag Tag) {
	j := &job{tag: tag, done: make(chan struct{})}
	s.mu.Lock()
	s.latest = j
	if s.running == 0 {
		s.idle = make(chan struct{})
	}
	s.running++
	s.mu.Unlock()

	go func() {
		defer s.finished()
		defer close(j.done)
		j.result, j.err = s.trainer.TrainForGrowth(snap)
		if j.err != nil {
			s.log.Warnf("Speculative training for ring %d failed: %v", tag.RingIndex, j.err)
		}
	}()
}

func (s *Speculator) finished() {
	s.mu.Lock()
	s.running--
	if s.running == 0 {
		close(s.idle)
	}
	s.mu.Unlock()
}

// Take returns the finished classifier for tag, or nil if the latest job is still running,
// produced nothing, or was dispatched for a different tag. A job whose tag does not match is
// discarded.
func (s *Speculator) Take(tag Tag) classifier.Classifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := s.latest
	if j == nil {
		return nil
	}
	select {
	case <-j.done:
	default:
		return nil
	}
	s.latest = nil
	if j.tag != tag {
		s.log.Debugf("Discarding stale speculation for ring %d gen %d (now ring %d gen %d)",
			j.tag.RingIndex, j.tag.Generation, tag.RingIndex, tag.Generation)
		return nil
	}
	if j.err != nil || j.result == nil {
		return nil
	}
	return j.result.Classifier
}

// Discard drops any pending or finished job. A running job keeps running until it finishes.
func (s *Speculator) Discard() {
	s.mu.Lock()
	s.latest = nil
	s.mu.Unlock()
}

// Wait blocks until every dispatched job has finished, including superseded and discarded
// ones, or ctx is done.
func (s *Speculator) Wait(ctx context.Context) error {
	s.mu.Lock()
	if s.running == 0 {
		s.mu.Unlock()
		return nil
	}
	idle := s.idle
	s.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
