package engine

import "math"

// BrushRadius returns the preset radius for digit key d (0..9): int(1.25^d + 0.1)·(d+1).
func BrushRadius(d int) int {
	d = min(max(d, 0), 9)
	return int(math.Pow(1.25, float64(d))+0.1) * (d + 1)
}

// ScaleBrush multiplies radius r by factor, clamped to [step/2+1, BrushRadius(9)].
func ScaleBrush(r int, factor float64, step int) int {
	n := int(math.Round(float64(r) * factor))
	if n == r && factor > 1 {
		n++
	} else if n == r && factor < 1 {
		n--
	}
	return min(max(n, step/2+1), BrushRadius(9))
}
