// Package sampler draws spatially well-spread pixel samples from a rectangle without
// enumerating it.
package sampler

import (
	"mlpaint/pkg/geometry"
)

// DefaultOversample is the number of candidate pixels budgeted per accepted sample.
const DefaultOversample = 50

// Predicate decides whether a pixel qualifies.
type Predicate func(x, y int) bool

// Result holds the accepted points and the counts needed to extrapolate a total.
type Result struct {
	Points  []geometry.PointInt
	Visited int
	Area    int
}

// Estimate extrapolates the number of qualifying pixels in the sampled rectangle from the
// observed hit rate.
func (r Result) Estimate() int {
	if r.Visited == 0 {
		return 0
	}
	return int(float64(r.Area) * float64(len(r.Points)) / float64(r.Visited))
}

// Sampler visits a rectangle on a power-of-two cell grid, one intra-cell offset at a time, so
// that stopping early still covers the whole rectangle.
type Sampler struct {
	Width      int
	Height     int
	Oversample int
}

// New creates a sampler for a width x height grid.
func New(width, height, oversample int) *Sampler {
	if oversample <= 0 {
		oversample = DefaultOversample
	}
	return &Sampler{Width: width, Height: height, Oversample: oversample}
}

// CellSize returns the smallest power of two L with area/L² no larger than target/oversample.
func (s *Sampler) CellSize(area, target int) int {
	threshold := float64(target) / float64(s.Oversample)
	l := 1
	for float64(area)/float64(l*l) > threshold && l*l < area {
		l *= 2
	}
	return l
}

// Offsets returns the L² intra-cell offsets of an L x L cell ordered by recursive halving.
// Any prefix of length 4^k is a regular lattice of spacing L/2^k.
func Offsets(l int) []geometry.PointInt {
	out := make([]geometry.PointInt, 1, l*l)
	for k := 0; ; k++ {
		j := 1 << (2 * k)
		if j >= l*l {
			break
		}
		sep := l >> (k + 1)
		for _, d := range [3]geometry.PointInt{{X: sep, Y: sep}, {X: sep, Y: 0}, {X: 0, Y: sep}} {
			for i := 0; i < j; i++ {
				out = append(out, geometry.PointInt{X: out[i].X + d.X, Y: out[i].Y + d.Y})
			}
		}
	}
	return out
}

// Sample returns up to target points inside rect (clipped to the grid) that satisfy pred.
func (s *Sampler) Sample(rect geometry.RectInt, target int, pred Predicate) Result {
	rect = rect.Clip(s.Width, s.Height)
	res := Result{Area: rect.Area()}
	if res.Area == 0 || target <= 0 {
		return res
	}

	l := s.CellSize(res.Area, target)
	for _, off := range Offsets(l) {
		for y := rect.Y + off.Y; y < rect.MaxY(); y += l {
			for x := rect.X + off.X; x < rect.MaxX(); x += l {
				res.Visited++
				if !pred(x, y) {
					continue
				}
				res.Points = append(res.Points, geometry.PointInt{X: x, Y: y})
				if len(res.Points) >= target {
					return res
				}
			}
		}
	}
	return res
}
