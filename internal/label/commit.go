package label

import (
	"errors"
	"fmt"
	"time"

	"github.com/cyclopcam/logs"
)

// ErrNoSuggestion is returned by Commit when no growth has been performed.
var ErrNoSuggestion = errors.New("no suggestion to commit")

// Suggestion is the region a commit writes: the growth engine's current ring.
type Suggestion interface {
	RingCount() int
	ForEachEnclosed(fn func(x, y int))
}

// PendingResetter is notified after a commit so the stroke mask clears on the next paint.
type PendingResetter interface {
	MarkPendingReset()
}

// Committer writes suggestions into a label layer and keeps the undo history.
type Committer struct {
	log     logs.Log
	labels  *Layer
	undo    *UndoStack
	undoing bool
}

// NewCommitter creates a committer that owns mutation of labels.
func NewCommitter(log logs.Log, labels *Layer, undoDepth int) *Committer {
	return &Committer{
		log:    log,
		labels: labels,
		undo:   NewUndoStack(undoDepth),
	}
}

// Labels returns the live label layer.
func (c *Committer) Labels() *Layer {
	return c.labels
}

// UndoLen returns the number of snapshots available to Undo.
func (c *Committer) UndoLen() int {
	return c.undo.Len()
}

// Snapshot pushes the current labels onto the undo stack. Callers that modify labels outside
// Commit (the NO_DATA fill) use this to stay undoable.
func (c *Committer) Snapshot() {
	c.undo.Push(c.labels)
}

// Commit sets every enclosed pixel of s to code and returns how many pixels were written.
func (c *Committer) Commit(code Code, s Suggestion, strokes PendingResetter) (int, error) {
	if !code.Valid() {
		return 0, fmt.Errorf("commit: invalid label code %d", uint8(code))
	}
	if s == nil || s.RingCount() == 0 {
		return 0, ErrNoSuggestion
	}
	start := time.Now()
	c.Snapshot()

	n := 0
	s.ForEachEnclosed(func(x, y int) {
		c.labels.Set(x, y, code)
		n++
	})
	if strokes != nil {
		strokes.MarkPendingReset()
	}
	c.log.Infof("Committed %d pixels as %v in %v", n, code, time.Since(start))
	return n, nil
}

// Undo restores the most recent snapshot. It returns false when there is nothing to undo or
// an undo is already running.
func (c *Committer) Undo() bool {
	if c.undoing {
		return false
	}
	c.undoing = true
	defer func() { c.undoing = false }()

	prev := c.undo.Pop()
	if prev == nil {
		return false
	}
	copy(c.labels.Pix, prev.Pix)
	return true
}
