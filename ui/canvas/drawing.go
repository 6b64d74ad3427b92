package canvas

import (
	"image"
	"image/color"
)

// digitPatterns contains 3x5 pixel patterns for digits 0-9.
// Each digit is represented as 5 rows of 3 bits.
var digitPatterns = [10][5]uint8{
	{0b111, 0b101, 0b101, 0b101, 0b111}, // 0
	{0b010, 0b110, 0b010, 0b010, 0b111}, // 1
	{0b111, 0b001, 0b111, 0b100, 0b111}, // 2
	{0b111, 0b001, 0b111, 0b001, 0b111}, // 3
	{0b101, 0b101, 0b111, 0b001, 0b001}, // 4
	{0b111, 0b100, 0b111, 0b001, 0b111}, // 5
	{0b111, 0b100, 0b111, 0b101, 0b111}, // 6
	{0b111, 0b001, 0b001, 0b001, 0b001}, // 7
	{0b111, 0b101, 0b111, 0b101, 0b111}, // 8
	{0b111, 0b101, 0b111, 0b001, 0b111}, // 9
}

// letterPatterns contains 3x5 pixel patterns for the letters and symbols the status line
// uses.
var letterPatterns = map[rune][5]uint8{
	'A': {0b010, 0b101, 0b111, 0b101, 0b101},
	'B': {0b110, 0b101, 0b110, 0b101, 0b110},
	'C': {0b011, 0b100, 0b100, 0b100, 0b011},
	'D': {0b110, 0b101, 0b101, 0b101, 0b110},
	'E': {0b111, 0b100, 0b110, 0b100, 0b111},
	'F': {0b111, 0b100, 0b110, 0b100, 0b100},
	'G': {0b011, 0b100, 0b101, 0b101, 0b011},
	'H': {0b101, 0b101, 0b111, 0b101, 0b101},
	'I': {0b111, 0b010, 0b010, 0b010, 0b111},
	'K': {0b101, 0b101, 0b110, 0b101, 0b101},
	'L': {0b100, 0b100, 0b100, 0b100, 0b111},
	'N': {0b101, 0b111, 0b111, 0b101, 0b101},
	'O': {0b010, 0b101, 0b101, 0b101, 0b010},
	'P': {0b110, 0b101, 0b110, 0b100, 0b100},
	'R': {0b110, 0b101, 0b110, 0b101, 0b101},
	'S': {0b011, 0b100, 0b010, 0b001, 0b110},
	'T': {0b111, 0b010, 0b010, 0b010, 0b010},
	'U': {0b101, 0b101, 0b101, 0b101, 0b111},
	'W': {0b101, 0b101, 0b101, 0b111, 0b101},
	'.': {0b000, 0b000, 0b000, 0b000, 0b010},
	'/': {0b001, 0b001, 0b010, 0b100, 0b100},
	':': {0b000, 0b010, 0b000, 0b010, 0b000},
	'-': {0b000, 0b000, 0b111, 0b000, 0b000},
	' ': {0b000, 0b000, 0b000, 0b000, 0b000},
}

// getCharPattern returns the 3x5 pixel pattern for a character.
// Returns a zero pattern for unsupported characters.
func getCharPattern(ch rune) [5]uint8 {
	if ch >= '0' && ch <= '9' {
		return digitPatterns[ch-'0']
	}
	if ch >= 'a' && ch <= 'z' {
		ch = ch - 'a' + 'A'
	}
	return letterPatterns[ch]
}

// drawText draws text with its top-left corner at (x, y), each font pixel scale pixels wide,
// on a dark backing box.
func drawText(output *image.RGBA, text string, x, y int, col color.RGBA, scale int) {
	runes := []rune(text)
	w := len(runes)*4*scale + scale
	h := 7 * scale
	fillRect(output, x-scale, y-scale, x+w, y+h-scale, color.RGBA{0, 0, 0, 255})

	for i, ch := range runes {
		pattern := getCharPattern(ch)
		cx := x + i*4*scale
		for row := 0; row < 5; row++ {
			for bit := 0; bit < 3; bit++ {
				if pattern[row]&(0b100>>bit) == 0 {
					continue
				}
				px, py := cx+bit*scale, y+row*scale
				fillRect(output, px, py, px+scale, py+scale, col)
			}
		}
	}
}

// fillRect fills the half-open rectangle [x1,x2) x [y1,y2), clipped to the output.
func fillRect(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA) {
	r := image.Rect(x1, y1, x2, y2).Intersect(output.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			output.SetRGBA(x, y, col)
		}
	}
}

// drawEllipse draws a 1.5 pixel ellipse outline centered at (cx, cy).
func drawEllipse(output *image.RGBA, cx, cy, rx, ry float64, col color.RGBA) {
	if rx <= 0 || ry <= 0 {
		return
	}
	bounds := output.Bounds()
	minX, maxX := int(cx-rx-2), int(cx+rx+2)
	minY, maxY := int(cy-ry-2), int(cy+ry+2)

	for y := max(minY, bounds.Min.Y); y <= min(maxY, bounds.Max.Y-1); y++ {
		for x := max(minX, bounds.Min.X); x <= min(maxX, bounds.Max.X-1); x++ {
			dx := (float64(x) + 0.5 - cx) / rx
			dy := (float64(y) + 0.5 - cy) / ry
			// Normalized distance from the outline, in pixels along the smaller axis.
			d := (dx*dx + dy*dy - 1) * min(rx, ry) / 2
			if d >= -0.75 && d <= 0.75 {
				output.SetRGBA(x, y, col)
			}
		}
	}
}
