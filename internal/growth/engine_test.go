package growth

import (
	"math"
	"testing"

	"mlpaint/internal/config"
	"mlpaint/pkg/geometry"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/require"
)

// gridCosts is a cost field backed by a plain slice. Barriers have +Inf cost.
type gridCosts struct {
	w     int
	costs []float64
}

func uniformCosts(w, h int, c float64) *gridCosts {
	g := &gridCosts{w: w, costs: make([]float64, w*h)}
	for i := range g.costs {
		g.costs[i] = c
	}
	return g
}

func (g *gridCosts) set(x, y int, c float64)  { g.costs[y*g.w+x] = c }
func (g *gridCosts) EdgeCost(x, y int) float64 { return g.costs[y*g.w+x] }
func (g *gridCosts) Barrier(x, y int) bool     { return math.IsInf(g.costs[y*g.w+x], 1) }

func (g *gridCosts) wall(x, h int) {
	for y := 0; y < h; y++ {
		g.set(x, y, math.Inf(1))
	}
}

func testConfig(step, depth, interior int) config.Growth {
	return config.Growth{BlockSize: step, DefaultDepth: depth, InteriorSteps: interior, PeripheralScale: 1}
}

func enclosedSet(e *Engine) map[geometry.PointInt]bool {
	out := map[geometry.PointInt]bool{}
	for _, p := range e.EnclosedPixels() {
		out[p] = true
	}
	return out
}

func TestQueueIsPersistent(t *testing.T) {
	var q *queue
	for i, c := range []float32{5, 3, 9, 1, 7} {
		q = q.push(entry{cost: c, x: int32(i)})
	}
	require.Equal(t, 5, q.Len())

	old := q
	var got []float32
	for q != nil {
		got = append(got, q.e.cost)
		q = q.pop()
	}
	require.Equal(t, []float32{1, 3, 5, 7, 9}, got)

	// The original root is untouched by the pops.
	require.Equal(t, 5, old.Len())
	require.Equal(t, float32(1), old.e.cost)
	n := 0
	old.each(func(entry) { n++ })
	require.Equal(t, 5, n)
}

func TestPolicyIsMonotone(t *testing.T) {
	p := NewPolicy(testConfig(4, 40, 20))
	require.Equal(t, 1, p.Batch(100, 0))
	require.Equal(t, 10, p.Batch(3200, 0))
	prev := 0
	for i := 0; i < 80; i++ {
		b := p.Batch(3200, i)
		require.GreaterOrEqual(t, b, prev)
		prev = b
	}
	require.Equal(t, 20, p.Batch(3200, 40))
}

func TestGrowBeforeSeed(t *testing.T) {
	e := New(8, 8, testConfig(1, 4, 2), 1e-5)
	_, err := e.Grow(uniformCosts(8, 8, 1))
	require.ErrorIs(t, err, ErrNoSeed)
	require.False(t, e.Shrink())
	require.Empty(t, e.EnclosedPixels())
	require.True(t, math32.IsInf(e.Threshold(), 1))
}

func TestInitializePreGrows(t *testing.T) {
	c := uniformCosts(32, 32, 1)
	e := New(32, 32, testConfig(1, 6, 3), 1e-5)
	e.Initialize([]geometry.PointInt{{X: 10, Y: 10}}, c, 30)

	require.Equal(t, 7, e.RingCount())
	require.Equal(t, 6, e.Index())
	require.Equal(t, float32(1e-5), e.Distances().At(10, 10))
	require.True(t, e.Enclosed(10, 10))
	require.False(t, e.Enclosed(31, 31))

	// Ring 0 holds only the seed at the threshold cost.
	e.SetIndex(0)
	require.Equal(t, float32(1e-5), e.Threshold())
	require.Empty(t, e.EnclosedPixels())
	require.Equal(t, []geometry.PointInt{{X: 10, Y: 10}}, e.Frontier())
}

func TestRingsAreMonotone(t *testing.T) {
	c := uniformCosts(40, 40, 1)
	for x := 0; x < 40; x++ {
		c.set(x, 5, 0.2)
	}
	e := New(40, 40, testConfig(1, 12, 4), 1e-5)
	e.Initialize([]geometry.PointInt{{X: 20, Y: 20}}, c, 40)

	var prevThr float32
	var prev map[geometry.PointInt]bool
	for i := 0; i < e.RingCount(); i++ {
		e.SetIndex(i)
		cur := enclosedSet(e)
		for p := range prev {
			require.True(t, cur[p], "ring %d lost %v", i, p)
		}
		require.GreaterOrEqual(t, e.Threshold(), prevThr)
		prev, prevThr = cur, e.Threshold()
	}
}

func TestGrowThenShrinkRestores(t *testing.T) {
	c := uniformCosts(32, 32, 1)
	e := New(32, 32, testConfig(2, 6, 3), 1e-5)
	e.Initialize([]geometry.PointInt{{X: 16, Y: 16}}, c, 40)

	idx := e.Index()
	thr := e.Threshold()
	before := e.EnclosedPixels()
	rings := e.RingCount()

	ok, err := e.Grow(c)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rings+1, e.RingCount())
	require.True(t, e.Shrink())

	require.Equal(t, idx, e.Index())
	require.Equal(t, thr, e.Threshold())
	require.Equal(t, before, e.EnclosedPixels())

	// Growing again reuses the existing ring instead of searching.
	ok, err = e.Grow(c)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rings+1, e.RingCount())
}

func TestFiveGrowsAdvanceFive(t *testing.T) {
	c := uniformCosts(64, 64, 1)
	e := New(64, 64, testConfig(1, 4, 2), 1e-5)
	e.Initialize([]geometry.PointInt{{X: 32, Y: 32}}, c, 20)

	start := e.Index()
	area := e.EnclosedCount()
	for i := 0; i < 5; i++ {
		ok, err := e.Grow(c)
		require.NoError(t, err)
		require.True(t, ok)
		n := e.EnclosedCount()
		require.GreaterOrEqual(t, n, area)
		area = n
	}
	require.Equal(t, start+5, e.Index())
}

func TestBarriersAreNeverEnclosed(t *testing.T) {
	c := uniformCosts(24, 24, 1)
	c.wall(12, 24)
	e := New(24, 24, testConfig(1, 10, 2), 1e-5)
	e.Initialize([]geometry.PointInt{{X: 4, Y: 12}}, c, 200)

	for i := 0; i < 200; i++ {
		if ok, err := e.Grow(c); err != nil || !ok {
			break
		}
	}
	require.True(t, e.Saturated())
	for y := 0; y < 24; y++ {
		require.False(t, e.Enclosed(12, y))
		for x := 13; x < 24; x++ {
			require.False(t, e.Enclosed(x, y))
			require.Equal(t, float32(0), e.Distances().At(x, y))
		}
	}
	require.Equal(t, 12*24, e.EnclosedCount())

	// Growing a saturated history is a no-op.
	idx := e.Index()
	ok, err := e.Grow(c)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, idx, e.Index())
}

func TestBarrierPixelsInsideBlock(t *testing.T) {
	c := uniformCosts(16, 16, 1)
	c.set(9, 9, math.Inf(1))
	e := New(16, 16, testConfig(4, 8, 2), 1e-5)
	e.Initialize([]geometry.PointInt{{X: 4, Y: 4}}, c, 64)

	for i := 0; i < 20; i++ {
		e.Grow(c)
	}
	// The block at (8,8) is reachable, but its barrier pixel is not enclosed.
	require.True(t, e.Enclosed(8, 8))
	require.False(t, e.Enclosed(9, 9))
	require.True(t, math32.IsInf(e.Distances().At(9, 9), 1))
}

func TestSnapSeeds(t *testing.T) {
	e := New(20, 20, testConfig(4, 1, 1), 1e-5)
	seeds := e.SnapSeeds([]geometry.Point2D{
		{X: 5.5, Y: 6.2}, {X: 7, Y: 7}, {X: 13, Y: 2}, {X: -3, Y: 1}, {X: 25, Y: 3},
	}, func(x, y int) bool { return x != 12 })
	require.Equal(t, []geometry.PointInt{{X: 4, Y: 4}}, seeds)
}

func TestSnapshotIsDeep(t *testing.T) {
	c := uniformCosts(16, 16, 1)
	e := New(16, 16, testConfig(1, 4, 2), 1e-5)
	e.Initialize([]geometry.PointInt{{X: 8, Y: 8}}, c, 10)

	s := e.Snapshot()
	require.Equal(t, e.Index(), s.RingIndex)
	require.Equal(t, e.Threshold(), s.Threshold)
	e.Reset()
	require.NotZero(t, s.Distances.At(8, 8))
}
