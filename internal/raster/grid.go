// Package raster provides typed row-major per-pixel grids shared by every engine layer.
package raster

import (
	"errors"
	"fmt"

	"mlpaint/pkg/geometry"
)

// ErrSizeMismatch is returned when two layers that must share an extent do not.
var ErrSizeMismatch = errors.New("layer size mismatch")

// Grid is a width x height array of T stored row-major.
type Grid[T comparable] struct {
	Width  int
	Height int
	Pix    []T
}

// NewGrid allocates a zeroed grid.
func NewGrid[T comparable](width, height int) *Grid[T] {
	return &Grid[T]{
		Width:  width,
		Height: height,
		Pix:    make([]T, width*height),
	}
}

// InBounds reports whether (x, y) addresses a cell.
func (g *Grid[T]) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// At returns the value at (x, y). The caller must check bounds.
func (g *Grid[T]) At(x, y int) T {
	return g.Pix[y*g.Width+x]
}

// Set stores v at (x, y). The caller must check bounds.
func (g *Grid[T]) Set(x, y int, v T) {
	g.Pix[y*g.Width+x] = v
}

// Fill sets every cell to v.
func (g *Grid[T]) Fill(v T) {
	for i := range g.Pix {
		g.Pix[i] = v
	}
}

// FillRect sets every cell of r (clipped to the grid) to v.
func (g *Grid[T]) FillRect(r geometry.RectInt, v T) {
	r = r.Clip(g.Width, g.Height)
	for y := r.Y; y < r.MaxY(); y++ {
		row := g.Pix[y*g.Width+r.X : y*g.Width+r.MaxX()]
		for i := range row {
			row[i] = v
		}
	}
}

// Clone returns a deep copy.
func (g *Grid[T]) Clone() *Grid[T] {
	c := &Grid[T]{Width: g.Width, Height: g.Height, Pix: make([]T, len(g.Pix))}
	copy(c.Pix, g.Pix)
	return c
}

// CopyFrom overwrites g with the contents of src, which must have the same extent.
func (g *Grid[T]) CopyFrom(src *Grid[T]) error {
	if err := g.CheckSize(src.Width, src.Height); err != nil {
		return err
	}
	copy(g.Pix, src.Pix)
	return nil
}

// Equal reports whether both grids have the same extent and contents.
func (g *Grid[T]) Equal(other *Grid[T]) bool {
	if g.Width != other.Width || g.Height != other.Height {
		return false
	}
	for i := range g.Pix {
		if g.Pix[i] != other.Pix[i] {
			return false
		}
	}
	return true
}

// Count returns the number of cells equal to v.
func (g *Grid[T]) Count(v T) int {
	n := 0
	for _, p := range g.Pix {
		if p == v {
			n++
		}
	}
	return n
}

// Bounds returns the full-grid rectangle.
func (g *Grid[T]) Bounds() geometry.RectInt {
	return geometry.RectInt{Width: g.Width, Height: g.Height}
}

// CheckSize returns ErrSizeMismatch if the grid is not width x height.
func (g *Grid[T]) CheckSize(width, height int) error {
	if g.Width != width || g.Height != height {
		return fmt.Errorf("%w: have %dx%d, want %dx%d", ErrSizeMismatch, g.Width, g.Height, width, height)
	}
	return nil
}
