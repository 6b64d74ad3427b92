// Package growth runs the multi-source incremental search that turns seeds and a cost field
// into a history of growing frontiers ("rings") over a coarse block grid.
package growth

import (
	"errors"

	"mlpaint/internal/config"
	"mlpaint/internal/raster"
	"mlpaint/pkg/geometry"

	"github.com/chewxy/math32"
)

// ErrNoSeed is returned by Grow before any seed has been placed.
var ErrNoSeed = errors.New("growth: insufficient seed, paint a positive stroke first")

// Costs is the cost field the search reads.
type Costs interface {
	// EdgeCost returns the cost of entering (x, y); +Inf for barriers.
	EdgeCost(x, y int) float64
	// Barrier reports pixels that can never be entered.
	Barrier(x, y int) bool
}

// ring is one frontier snapshot.
type ring struct {
	queue *queue
	// visited is the bounding box of every block reached so far.
	visited geometry.RectInt
	popped  int
}

// Engine owns the distance field and the ring history. It is not safe for concurrent use;
// background readers get copies through Snapshot.
type Engine struct {
	width    int
	height   int
	step     int
	seedCost float32
	policy   Policy
	depth    int

	dist     *raster.Grid[float32]
	rings    []ring
	index    int
	estimate int
}

// New creates an engine for a width x height image.
func New(width, height int, cfg config.Growth, seedCost float64) *Engine {
	return &Engine{
		width:    width,
		height:   height,
		step:     max(cfg.BlockSize, 1),
		seedCost: float32(seedCost),
		policy:   NewPolicy(cfg),
		depth:    cfg.DefaultDepth,
		dist:     raster.NewGrid[float32](width, height),
	}
}

// Step returns the coarse grid step.
func (e *Engine) Step() int { return e.step }

// Distances returns the live distance field. Callers must not modify it.
func (e *Engine) Distances() *raster.Grid[float32] { return e.dist }

// RingCount returns the number of rings in the history.
func (e *Engine) RingCount() int { return len(e.rings) }

// Index returns the current ring index.
func (e *Engine) Index() int { return e.index }

// LastBatch returns how many entries were popped to produce the newest ring.
func (e *Engine) LastBatch() int {
	if len(e.rings) == 0 {
		return 0
	}
	return e.rings[len(e.rings)-1].popped
}

// Estimate returns the positive-area estimate the batches are sized from.
func (e *Engine) Estimate() int { return e.estimate }

// Reset drops all rings and clears the distance field.
func (e *Engine) Reset() {
	e.dist.Fill(0)
	e.rings = nil
	e.index = 0
}

// SnapSeeds snaps raw seed points down to the block grid and keeps those inside the image
// that accept allows, without duplicates.
func (e *Engine) SnapSeeds(raw []geometry.Point2D, accept func(x, y int) bool) []geometry.PointInt {
	seen := make(map[geometry.PointInt]bool)
	var out []geometry.PointInt
	for _, p := range raw {
		s := p.Floor().Snap(e.step)
		if s.X < 0 || s.Y < 0 || s.X >= e.width || s.Y >= e.height || seen[s] {
			continue
		}
		seen[s] = true
		if accept != nil && !accept(s.X, s.Y) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Initialize restarts the search from seeds (already snapped) and pre-grows to the default
// depth: InteriorSteps steps of the base batch, then peripheral steps. The current index ends
// on the last ring. With no seeds the engine is left empty.
func (e *Engine) Initialize(seeds []geometry.PointInt, c Costs, estimate int) {
	e.Reset()
	e.estimate = estimate
	if len(seeds) == 0 {
		return
	}

	var q *queue
	var visited geometry.RectInt
	for _, s := range seeds {
		if e.dist.At(s.X, s.Y) != 0 {
			continue
		}
		e.fillBlock(s.X, s.Y, e.seedCost, c)
		q = q.push(entry{cost: e.seedCost, x: int32(s.X), y: int32(s.Y)})
		visited = visited.Union(e.block(s.X, s.Y))
	}
	e.rings = append(e.rings, ring{queue: q, visited: visited})

	for i := 0; i < e.depth; i++ {
		e.GrowStep(e.policy.Batch(estimate, i), c)
	}
	e.index = len(e.rings) - 1
}

// GrowStep derives a new ring from the latest one by popping up to batch entries and
// pushing their unvisited neighbors. A minimum of +Inf ends the batch early. It does not
// move the current index.
func (e *Engine) GrowStep(batch int, c Costs) {
	last := e.rings[len(e.rings)-1]
	q, visited := last.queue, last.visited
	popped := 0
	for popped < batch && q != nil {
		top := q.e
		if math32.IsInf(top.cost, 1) {
			break
		}
		q = q.pop()
		popped++

		x, y := int(top.x), int(top.y)
		for _, d := range [4][2]int{{e.step, 0}, {-e.step, 0}, {0, e.step}, {0, -e.step}} {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || ny < 0 || nx >= e.width || ny >= e.height {
				continue
			}
			if e.dist.At(nx, ny) != 0 {
				continue
			}
			cost := float32(c.EdgeCost(nx, ny)) + top.cost
			e.fillBlock(nx, ny, cost, c)
			q = q.push(entry{cost: cost, x: int32(nx), y: int32(ny)})
			visited = visited.Union(e.block(nx, ny))
		}
	}
	e.rings = append(e.rings, ring{queue: q, visited: visited, popped: popped})
}

func (e *Engine) block(x, y int) geometry.RectInt {
	return geometry.RectInt{X: x, Y: y, Width: e.step, Height: e.step}.Clip(e.width, e.height)
}

// fillBlock marks the block at (x, y) visited at cost. Barrier pixels inside the block get
// +Inf so they are never enclosed.
func (e *Engine) fillBlock(x, y int, cost float32, c Costs) {
	r := e.block(x, y)
	for py := r.Y; py < r.MaxY(); py++ {
		for px := r.X; px < r.MaxX(); px++ {
			if c.Barrier(px, py) {
				e.dist.Set(px, py, math32.Inf(1))
			} else {
				e.dist.Set(px, py, cost)
			}
		}
	}
}

// AtLatest reports whether the current index is the newest ring.
func (e *Engine) AtLatest() bool {
	return len(e.rings) > 0 && e.index == len(e.rings)-1
}

// Saturated reports whether the newest ring has no finite entries left to pop.
func (e *Engine) Saturated() bool {
	if len(e.rings) == 0 {
		return true
	}
	q := e.rings[len(e.rings)-1].queue
	return q == nil || math32.IsInf(q.e.cost, 1)
}

// Grow advances the current index by one. Past the end of the history it grows a new ring
// with the policy batch; on a saturated history it does nothing and returns false.
func (e *Engine) Grow(c Costs) (bool, error) {
	if len(e.rings) == 0 {
		return false, ErrNoSeed
	}
	if e.index < len(e.rings)-1 {
		e.index++
		return true, nil
	}
	if e.Saturated() {
		return false, nil
	}
	e.GrowStep(e.policy.Batch(e.estimate, len(e.rings)-1), c)
	e.index++
	return true, nil
}

// Shrink moves the current index back by one, stopping at 0.
func (e *Engine) Shrink() bool {
	if e.index == 0 {
		return false
	}
	e.index--
	return true
}

// SetIndex moves to ring i, clamped to the history.
func (e *Engine) SetIndex(i int) {
	e.index = min(max(i, 0), max(len(e.rings)-1, 0))
}

// Threshold is the minimum pending cost of the current ring: the boundary between inside and
// not yet reached. It is +Inf when the ring is empty or there are no rings.
func (e *Engine) Threshold() float32 {
	if len(e.rings) == 0 {
		return math32.Inf(1)
	}
	q := e.rings[e.index].queue
	if q == nil {
		return math32.Inf(1)
	}
	return q.e.cost
}

// Bounds returns the current ring's bounding box expanded by one block and clipped.
func (e *Engine) Bounds() geometry.RectInt {
	if len(e.rings) == 0 {
		return geometry.RectInt{}
	}
	return e.rings[e.index].visited.Expand(e.step).Clip(e.width, e.height)
}

// Enclosed reports whether (x, y) is inside the current suggestion.
func (e *Engine) Enclosed(x, y int) bool {
	if len(e.rings) == 0 || !e.Bounds().Contains(x, y) {
		return false
	}
	return e.inside(e.dist.At(x, y), e.Threshold())
}

func (e *Engine) inside(d, thr float32) bool {
	return d > 0 && d < thr && !math32.IsInf(d, 1)
}

// ForEachEnclosed calls fn for every enclosed pixel in raster order.
func (e *Engine) ForEachEnclosed(fn func(x, y int)) {
	if len(e.rings) == 0 {
		return
	}
	thr := e.Threshold()
	r := e.Bounds()
	for y := r.Y; y < r.MaxY(); y++ {
		for x := r.X; x < r.MaxX(); x++ {
			if e.inside(e.dist.At(x, y), thr) {
				fn(x, y)
			}
		}
	}
}

// EnclosedPixels lists the enclosed pixels in raster order.
func (e *Engine) EnclosedPixels() []geometry.PointInt {
	var out []geometry.PointInt
	e.ForEachEnclosed(func(x, y int) {
		out = append(out, geometry.PointInt{X: x, Y: y})
	})
	return out
}

// EnclosedCount returns the number of enclosed pixels.
func (e *Engine) EnclosedCount() int {
	n := 0
	e.ForEachEnclosed(func(int, int) { n++ })
	return n
}

// Frontier returns the finite-cost queued blocks of the current ring, for outline rendering.
func (e *Engine) Frontier() []geometry.PointInt {
	if len(e.rings) == 0 {
		return nil
	}
	var out []geometry.PointInt
	e.rings[e.index].queue.each(func(en entry) {
		if !math32.IsInf(en.cost, 1) {
			out = append(out, geometry.PointInt{X: int(en.x), Y: int(en.y)})
		}
	})
	return out
}

// Snapshot is a deep copy of the state a background trainer needs.
type Snapshot struct {
	Distances *raster.Grid[float32]
	Threshold float32
	Bounds    geometry.RectInt
	RingIndex int
}

// Snapshot copies the distance field together with the current threshold and bounds.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Distances: e.dist.Clone(),
		Threshold: e.Threshold(),
		Bounds:    e.Bounds(),
		RingIndex: e.index,
	}
}
