// Package stroke records the user's fresh brush strokes: a tri-state per-pixel mask, the
// bounding regions of positive and negative paint, and the seed candidates for growth.
package stroke

import (
	"fmt"
	"math"

	"mlpaint/internal/raster"
	"mlpaint/pkg/geometry"
)

// Kind is the per-pixel stroke state.
type Kind uint8

const (
	Unpainted Kind = iota
	Positive
	Negative
)

// Brush selects what a dab paints.
type Brush uint8

const (
	BrushPositive Brush = iota
	BrushNegative
	BrushErase
)

func (b Brush) String() string {
	switch b {
	case BrushPositive:
		return "positive"
	case BrushNegative:
		return "negative"
	case BrushErase:
		return "erase"
	}
	return "unknown"
}

func (b Brush) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Brush) UnmarshalText(text []byte) error {
	switch string(text) {
	case "positive", "pos", "+":
		*b = BrushPositive
	case "negative", "neg", "-":
		*b = BrushNegative
	case "erase":
		*b = BrushErase
	default:
		return fmt.Errorf("unknown brush %q", text)
	}
	return nil
}

// Event is one brush dab in image-world coordinates.
type Event struct {
	Center geometry.Point2D `yaml:"center"`
	Radius float64          `yaml:"radius"`
	// RadiusY is the vertical radius for elliptical dabs; 0 means a disk.
	RadiusY float64 `yaml:"radius_y,omitempty"`
	Brush   Brush   `yaml:"brush"`
}

// Reader is the read-only view of a mask used by training and cost evaluation.
type Reader interface {
	At(x, y int) Kind
	Bounds(k Kind) geometry.RectInt
	Count(k Kind) int
}

// Mask is the fresh-paint layer.
type Mask struct {
	cells        *raster.Grid[Kind]
	regions      [3]*region // indexed by Kind; [Unpainted] is unused
	seeds        []geometry.Point2D
	version      uint64
	pendingReset bool
}

// NewMask allocates an unpainted mask.
func NewMask(width, height int) *Mask {
	return &Mask{
		cells:   raster.NewGrid[Kind](width, height),
		regions: [3]*region{nil, newRegion(width, height), newRegion(width, height)},
	}
}

func (m *Mask) Width() int  { return m.cells.Width }
func (m *Mask) Height() int { return m.cells.Height }

// At returns the stroke state at (x, y); Unpainted outside the mask.
func (m *Mask) At(x, y int) Kind {
	if !m.cells.InBounds(x, y) {
		return Unpainted
	}
	return m.cells.At(x, y)
}

// Bounds returns the exact bounding rectangle of all pixels of kind k.
func (m *Mask) Bounds(k Kind) geometry.RectInt {
	if k == Unpainted {
		return m.cells.Bounds()
	}
	return m.regions[k].bounds()
}

// Count returns the number of pixels of kind k.
func (m *Mask) Count(k Kind) int {
	if k == Unpainted {
		return m.cells.Width*m.cells.Height - m.regions[Positive].total - m.regions[Negative].total
	}
	return m.regions[k].total
}

// Seeds returns the raw centers of positive dabs in paint order.
func (m *Mask) Seeds() []geometry.Point2D {
	return m.seeds
}

// Version increases on every mutation.
func (m *Mask) Version() uint64 {
	return m.version
}

// PendingReset reports whether the next Paint will clear the mask first.
func (m *Mask) PendingReset() bool {
	return m.pendingReset
}

// MarkPendingReset defers a Reset until the next Paint, so the committed strokes stay
// visible until the user starts a new one.
func (m *Mask) MarkPendingReset() {
	m.pendingReset = true
}

// CancelPendingReset keeps the current strokes for further painting.
func (m *Mask) CancelPendingReset() {
	m.pendingReset = false
}

// Reset clears all paint, regions and seeds.
func (m *Mask) Reset() {
	m.cells.Fill(Unpainted)
	m.regions[Positive].clear()
	m.regions[Negative].clear()
	m.seeds = m.seeds[:0]
	m.pendingReset = false
	m.version++
}

// Paint applies one dab and returns the number of pixels whose state changed.
func (m *Mask) Paint(ev Event) int {
	if m.pendingReset {
		m.Reset()
	}
	rx, ry := ev.Radius, ev.RadiusY
	if ry <= 0 {
		ry = rx
	}
	if rx <= 0 {
		return 0
	}

	var to Kind
	switch ev.Brush {
	case BrushPositive:
		to = Positive
		m.seeds = append(m.seeds, ev.Center)
	case BrushNegative:
		to = Negative
	default:
		to = Unpainted
	}

	cx, cy := ev.Center.X, ev.Center.Y
	r := geometry.RectInt{
		X:      int(math.Floor(cx - rx)),
		Y:      int(math.Floor(cy - ry)),
		Width:  int(math.Ceil(2*rx)) + 2,
		Height: int(math.Ceil(2*ry)) + 2,
	}.Clip(m.cells.Width, m.cells.Height)

	changed := 0
	for y := r.Y; y < r.MaxY(); y++ {
		dy := (float64(y) + 0.5 - cy) / ry
		for x := r.X; x < r.MaxX(); x++ {
			dx := (float64(x) + 0.5 - cx) / rx
			if dx*dx+dy*dy > 1 {
				continue
			}
			from := m.cells.At(x, y)
			if from == to {
				continue
			}
			if from != Unpainted {
				m.regions[from].remove(x, y)
			}
			if to != Unpainted {
				m.regions[to].add(x, y)
			}
			m.cells.Set(x, y, to)
			changed++
		}
	}
	m.version++
	return changed
}

// Clone returns a deep copy, used for snapshots handed to background work.
func (m *Mask) Clone() *Mask {
	c := &Mask{
		cells:        m.cells.Clone(),
		regions:      [3]*region{nil, m.regions[Positive].clone(), m.regions[Negative].clone()},
		seeds:        append([]geometry.Point2D(nil), m.seeds...),
		version:      m.version,
		pendingReset: m.pendingReset,
	}
	return c
}

// Cells exposes the raw grid for rendering.
func (m *Mask) Cells() *raster.Grid[Kind] {
	return m.cells
}
