package stroke

import "mlpaint/pkg/geometry"

// region tracks per-row and per-column pixel counts for one stroke kind, which keeps the
// exact bounds available after both union and subtraction.
type region struct {
	rows  []int
	cols  []int
	total int
}

func newRegion(width, height int) *region {
	return &region{rows: make([]int, height), cols: make([]int, width)}
}

func (r *region) add(x, y int) {
	r.rows[y]++
	r.cols[x]++
	r.total++
}

func (r *region) remove(x, y int) {
	r.rows[y]--
	r.cols[x]--
	r.total--
}

func (r *region) clear() {
	clear(r.rows)
	clear(r.cols)
	r.total = 0
}

func (r *region) clone() *region {
	return &region{
		rows:  append([]int(nil), r.rows...),
		cols:  append([]int(nil), r.cols...),
		total: r.total,
	}
}

func (r *region) bounds() geometry.RectInt {
	if r.total == 0 {
		return geometry.RectInt{}
	}
	y0, y1 := span(r.rows)
	x0, x1 := span(r.cols)
	return geometry.RectFromCorners(x0, y0, x1, y1)
}

// span returns the first and last index with a nonzero count.
func span(counts []int) (int, int) {
	lo, hi := 0, len(counts)-1
	for lo < hi && counts[lo] == 0 {
		lo++
	}
	for hi > lo && counts[hi] == 0 {
		hi--
	}
	return lo, hi
}
