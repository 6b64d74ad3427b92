package speculate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"mlpaint/internal/classifier"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

type constClassifier float64

func (c constClassifier) ProbPositive([]float64) float64 { return float64(c) }

// fakeTrainer returns a fixed classifier after an optional gate opens.
type fakeTrainer struct {
	gate  chan struct{}
	calls atomic.Int32
	err   error
	empty bool
}

func (f *fakeTrainer) TrainForGrowth(classifier.GrowthSnapshot) (*classifier.Result, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.empty {
		return nil, nil
	}
	return &classifier.Result{Classifier: constClassifier(0.7)}, nil
}

func waitDone(t *testing.T, s *Speculator) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestTakeMatchingTag(t *testing.T) {
	s := New(logs.NewTestingLog(t), &fakeTrainer{})
	tag := Tag{RingIndex: 40, Generation: 3}
	s.Dispatch(classifier.GrowthSnapshot{}, tag)
	waitDone(t, s)

	c := s.Take(tag)
	require.NotNil(t, c)
	require.Equal(t, 0.7, c.ProbPositive(nil))

	// A result is handed out once.
	require.Nil(t, s.Take(tag))
}

func TestTakeStaleTagDiscards(t *testing.T) {
	s := New(logs.NewTestingLog(t), &fakeTrainer{})
	s.Dispatch(classifier.GrowthSnapshot{}, Tag{RingIndex: 40, Generation: 3})
	waitDone(t, s)

	require.Nil(t, s.Take(Tag{RingIndex: 40, Generation: 4}))
	require.Nil(t, s.Take(Tag{RingIndex: 40, Generation: 3}))
}

func TestTakeBeforeDone(t *testing.T) {
	ft := &fakeTrainer{gate: make(chan struct{})}
	s := New(logs.NewTestingLog(t), ft)
	tag := Tag{RingIndex: 1, Generation: 1}
	s.Dispatch(classifier.GrowthSnapshot{}, tag)

	require.Nil(t, s.Take(tag))
	close(ft.gate)
	waitDone(t, s)
	require.NotNil(t, s.Take(tag))
}

func TestDispatchSupersedes(t *testing.T) {
	ft := &fakeTrainer{gate: make(chan struct{})}
	s := New(logs.NewTestingLog(t), ft)
	s.Dispatch(classifier.GrowthSnapshot{}, Tag{RingIndex: 1})
	s.Dispatch(classifier.GrowthSnapshot{}, Tag{RingIndex: 2})
	close(ft.gate)
	waitDone(t, s)

	require.Nil(t, s.Take(Tag{RingIndex: 1}))
	s.Dispatch(classifier.GrowthSnapshot{}, Tag{RingIndex: 3})
	waitDone(t, s)
	require.NotNil(t, s.Take(Tag{RingIndex: 3}))
}

func TestFailedOrEmptyJobs(t *testing.T) {
	s := New(logs.NewTestingLog(t), &fakeTrainer{err: errors.New("boom")})
	s.Dispatch(classifier.GrowthSnapshot{}, Tag{})
	waitDone(t, s)
	require.Nil(t, s.Take(Tag{}))

	s = New(logs.NewTestingLog(t), &fakeTrainer{empty: true})
	s.Dispatch(classifier.GrowthSnapshot{}, Tag{})
	waitDone(t, s)
	require.Nil(t, s.Take(Tag{}))
}

func TestWaitHonorsContext(t *testing.T) {
	ft := &fakeTrainer{gate: make(chan struct{})}
	defer close(ft.gate)
	s := New(logs.NewTestingLog(t), ft)
	s.Dispatch(classifier.GrowthSnapshot{}, Tag{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)
}

// firstBlocksTrainer holds only its first job until gate opens.
type firstBlocksTrainer struct {
	gate  chan struct{}
	calls atomic.Int32
}

func (f *firstBlocksTrainer) TrainForGrowth(classifier.GrowthSnapshot) (*classifier.Result, error) {
	if f.calls.Add(1) == 1 {
		<-f.gate
	}
	return &classifier.Result{Classifier: constClassifier(0.4)}, nil
}

func requireStillWaiting(t *testing.T, s *Speculator) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)
}

func TestWaitCoversDiscardedJob(t *testing.T) {
	ft := &fakeTrainer{gate: make(chan struct{})}
	s := New(logs.NewTestingLog(t), ft)
	s.Dispatch(classifier.GrowthSnapshot{}, Tag{RingIndex: 1})
	s.Discard()

	requireStillWaiting(t, s)
	close(ft.gate)
	waitDone(t, s)
	require.Nil(t, s.Take(Tag{RingIndex: 1}))
}

func TestWaitCoversSupersededJob(t *testing.T) {
	ft := &firstBlocksTrainer{gate: make(chan struct{})}
	s := New(logs.NewTestingLog(t), ft)
	s.Dispatch(classifier.GrowthSnapshot{}, Tag{RingIndex: 1})
	s.Dispatch(classifier.GrowthSnapshot{}, Tag{RingIndex: 2})

	// The second job finishes on its own; the first still holds Wait.
	require.Eventually(t, func() bool { return s.Take(Tag{RingIndex: 2}) != nil }, 5*time.Second, time.Millisecond)
	requireStillWaiting(t, s)

	close(ft.gate)
	waitDone(t, s)

	// The idle signal is rearmed for later jobs.
	s.Dispatch(classifier.GrowthSnapshot{}, Tag{RingIndex: 3})
	waitDone(t, s)
	require.NotNil(t, s.Take(Tag{RingIndex: 3}))
	require.EqualValues(t, 3, ft.calls.Load())
}
