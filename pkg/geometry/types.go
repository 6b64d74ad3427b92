// Package geometry provides the small set of geometric types shared by the engine and the viewer.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Floor truncates toward negative infinity.
func (p Point2D) Floor() PointInt {
	return PointInt{X: int(math.Floor(p.X)), Y: int(math.Floor(p.Y))}
}

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ToFloat converts to Point2D.
func (p PointInt) ToFloat() Point2D {
	return Point2D{X: float64(p.X), Y: float64(p.Y)}
}

// Snap rounds the point down to a multiple of step on both axes.
func (p PointInt) Snap(step int) PointInt {
	if step <= 1 {
		return p
	}
	return PointInt{X: p.X - mod(p.X, step), Y: p.Y - mod(p.Y, step)}
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// RectInt is a half-open integer rectangle: [X, X+Width) x [Y, Y+Height).
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RectFromCorners builds the rectangle spanning the inclusive corners (x0,y0) and (x1,y1).
func RectFromCorners(x0, y0, x1, y1 int) RectInt {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return RectInt{X: x0, Y: y0, Width: x1 - x0 + 1, Height: y1 - y0 + 1}
}

// Empty reports whether the rectangle covers no pixels.
func (r RectInt) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Area returns the pixel count, or 0 for an empty rectangle.
func (r RectInt) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// MaxX returns the exclusive right edge.
func (r RectInt) MaxX() int { return r.X + r.Width }

// MaxY returns the exclusive bottom edge.
func (r RectInt) MaxY() int { return r.Y + r.Height }

// Contains returns true if (x, y) lies inside the rectangle.
func (r RectInt) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Union returns the smallest rectangle containing both. Empty operands are ignored.
func (r RectInt) Union(other RectInt) RectInt {
	if r.Empty() {
		return other
	}
	if other.Empty() {
		return r
	}
	x0 := min(r.X, other.X)
	y0 := min(r.Y, other.Y)
	x1 := max(r.MaxX(), other.MaxX())
	y1 := max(r.MaxY(), other.MaxY())
	return RectInt{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Intersect returns the overlap of two rectangles, empty if they do not overlap.
func (r RectInt) Intersect(other RectInt) RectInt {
	x0 := max(r.X, other.X)
	y0 := max(r.Y, other.Y)
	x1 := min(r.MaxX(), other.MaxX())
	y1 := min(r.MaxY(), other.MaxY())
	if x1 <= x0 || y1 <= y0 {
		return RectInt{}
	}
	return RectInt{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Expand grows the rectangle by n pixels on every side.
func (r RectInt) Expand(n int) RectInt {
	if r.Empty() {
		return r
	}
	return RectInt{X: r.X - n, Y: r.Y - n, Width: r.Width + 2*n, Height: r.Height + 2*n}
}

// Clip restricts the rectangle to [0,width) x [0,height).
func (r RectInt) Clip(width, height int) RectInt {
	return r.Intersect(RectInt{Width: width, Height: height})
}

// Center returns the center point of the rectangle.
func (r RectInt) Center() Point2D {
	return Point2D{X: float64(r.X) + float64(r.Width)/2, Y: float64(r.Y) + float64(r.Height)/2}
}

// AffineTransform represents a 2x3 affine transformation matrix.
// [a b tx]
// [c d ty]
type AffineTransform struct {
	A, B, TX float64
	C, D, TY float64
}

// Identity returns the identity transform.
func Identity() AffineTransform {
	return AffineTransform{A: 1, D: 1}
}

// Translation returns a translation transform.
func Translation(tx, ty float64) AffineTransform {
	return AffineTransform{A: 1, D: 1, TX: tx, TY: ty}
}

// Scale returns a scaling transform.
func Scale(sx, sy float64) AffineTransform {
	return AffineTransform{A: sx, D: sy}
}

// Apply applies the transform to a point.
func (t AffineTransform) Apply(p Point2D) Point2D {
	return Point2D{
		X: t.A*p.X + t.B*p.Y + t.TX,
		Y: t.C*p.X + t.D*p.Y + t.TY,
	}
}

// Compose returns this transform composed with another (this * other).
func (t AffineTransform) Compose(other AffineTransform) AffineTransform {
	return AffineTransform{
		A:  t.A*other.A + t.B*other.C,
		B:  t.A*other.B + t.B*other.D,
		TX: t.A*other.TX + t.B*other.TY + t.TX,
		C:  t.C*other.A + t.D*other.C,
		D:  t.C*other.B + t.D*other.D,
		TY: t.C*other.TX + t.D*other.TY + t.TY,
	}
}

// Inverse returns the inverse transform, if it exists.
func (t AffineTransform) Inverse() (AffineTransform, bool) {
	det := t.A*t.D - t.B*t.C
	if math.Abs(det) < 1e-10 {
		return AffineTransform{}, false
	}

	invDet := 1.0 / det
	return AffineTransform{
		A:  t.D * invDet,
		B:  -t.B * invDet,
		TX: (t.B*t.TY - t.D*t.TX) * invDet,
		C:  -t.C * invDet,
		D:  t.A * invDet,
		TY: (t.C*t.TX - t.A*t.TY) * invDet,
	}, true
}

// AxisScales returns the length of the transformed unit vectors along x and y.
func (t AffineTransform) AxisScales() (sx, sy float64) {
	return math.Hypot(t.A, t.C), math.Hypot(t.B, t.D)
}

// ZoomAt returns t with an additional uniform zoom about the screen point p.
func (t AffineTransform) ZoomAt(p Point2D, factor float64) AffineTransform {
	z := Translation(p.X, p.Y).Compose(Scale(factor, factor)).Compose(Translation(-p.X, -p.Y))
	return z.Compose(t)
}

// Centroid computes the centroid (average position) of a set of points.
func Centroid(points []PointInt) Point2D {
	if len(points) == 0 {
		return Point2D{}
	}
	var sumX, sumY float64
	for _, p := range points {
		sumX += float64(p.X)
		sumY += float64(p.Y)
	}
	n := float64(len(points))
	return Point2D{X: sumX / n, Y: sumY / n}
}
