package geometry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnap(t *testing.T) {
	require.Equal(t, PointInt{X: 4, Y: 8}, PointInt{X: 5, Y: 11}.Snap(4))
	require.Equal(t, PointInt{X: -4, Y: 0}, PointInt{X: -1, Y: 3}.Snap(4))
	require.Equal(t, PointInt{X: 5, Y: 11}, PointInt{X: 5, Y: 11}.Snap(1))
}

func TestRect(t *testing.T) {
	r := RectFromCorners(2, 3, 5, 4)
	require.Equal(t, RectInt{X: 2, Y: 3, Width: 4, Height: 2}, r)
	require.True(t, r.Contains(2, 3))
	require.False(t, r.Contains(6, 3))
	require.Equal(t, 8, r.Area())

	u := r.Union(RectInt{X: 0, Y: 0, Width: 1, Height: 1})
	require.Equal(t, RectInt{X: 0, Y: 0, Width: 6, Height: 5}, u)
	require.True(t, r.Intersect(RectInt{X: 10, Y: 10, Width: 2, Height: 2}).Empty())
	require.Equal(t, RectInt{X: 0, Y: 1, Width: 8, Height: 6}, r.Expand(2))
	require.Equal(t, RectInt{X: 0, Y: 1, Width: 7, Height: 6}, r.Expand(2).Clip(7, 10))
}

func TestTransformInverse(t *testing.T) {
	tr := Translation(10, -4).Compose(Scale(2, 3))
	p := Point2D{X: 1.5, Y: -2}
	q := tr.Apply(p)
	require.InDelta(t, 13, q.X, 1e-12)
	require.InDelta(t, -10, q.Y, 1e-12)

	inv, ok := tr.Inverse()
	require.True(t, ok)
	back := inv.Apply(q)
	require.InDelta(t, p.X, back.X, 1e-12)
	require.InDelta(t, p.Y, back.Y, 1e-12)

	_, ok = Scale(0, 1).Inverse()
	require.False(t, ok)
}

func TestZoomAtKeepsPoint(t *testing.T) {
	tr := Translation(5, 5).Compose(Scale(2, 2))
	anchor := Point2D{X: 40, Y: 20}
	z := tr.ZoomAt(anchor, 1.5)
	sx, sy := z.AxisScales()
	require.InDelta(t, 3, sx, 1e-12)
	require.InDelta(t, 3, sy, 1e-12)

	// The image point under the anchor is unchanged.
	i1, _ := tr.Inverse()
	i2, _ := z.Inverse()
	a, b := i1.Apply(anchor), i2.Apply(anchor)
	require.InDelta(t, a.X, b.X, 1e-12)
	require.InDelta(t, a.Y, b.Y, 1e-12)
}

func TestCentroid(t *testing.T) {
	require.Equal(t, Point2D{}, Centroid(nil))
	c := Centroid([]PointInt{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 2}, {X: 0, Y: 2}})
	require.Equal(t, Point2D{X: 2, Y: 1}, c)
}
