// Package label holds the persistent label layer, its bounded undo history, and the committer
// that writes accepted suggestions into it.
package label

import (
	"fmt"
	"strconv"
	"strings"

	"mlpaint/internal/raster"
)

// Code is a per-pixel label value.
type Code uint8

const (
	Unlabeled Code = 0
	Negative  Code = 1
	Positive  Code = 2
	Class3    Code = 3
	Class14   Code = 14
	NoData    Code = 15
)

func (c Code) String() string {
	switch {
	case c == Unlabeled:
		return "unlabeled"
	case c == Negative:
		return "negative"
	case c == Positive:
		return "positive"
	case c == NoData:
		return "no-data"
	case c >= Class3 && c <= Class14:
		return fmt.Sprintf("class-%d", c)
	}
	return fmt.Sprintf("invalid(%d)", uint8(c))
}

// Valid reports whether c is one of the defined codes.
func (c Code) Valid() bool {
	return c <= NoData
}

// ParseCode parses the names produced by String, or a bare number.
func ParseCode(s string) (Code, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "unlabeled":
		return Unlabeled, nil
	case "negative":
		return Negative, nil
	case "positive":
		return Positive, nil
	case "no-data", "nodata":
		return NoData, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "class-"))
	if err != nil || n < 0 || n > int(NoData) {
		return 0, fmt.Errorf("invalid label code %q", s)
	}
	return Code(n), nil
}

// Layer is the persistent label grid.
type Layer = raster.Grid[Code]

// NewLayer allocates an all-Unlabeled layer.
func NewLayer(width, height int) *Layer {
	return raster.NewGrid[Code](width, height)
}
