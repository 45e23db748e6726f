package game

import (
	"strconv"
	"strings"
)

// Marks renders the frame in scoresheet notation.
//
//	X  strike
//	/  spare
//	G  gutter on the first ball of a frame
//	-  miss on a later ball
//
// Frames 1-9 render as "X", "7 /" or "G -". Frame 10 renders every ball,
// e.g. "XXX", "X 5 /", "X - /", "7 /X".
func (f Frame) Marks() string {
	r := f.Rolls
	if len(r) == 0 {
		return ""
	}
	first := mark(r[0], true)
	if !f.tenth() {
		switch {
		case f.IsStrike:
			return "X"
		case f.IsSpare:
			return first + " /"
		case len(r) == 1:
			return first + " "
		}
		return first + " " + mark(r[1], false)
	}

	var b strings.Builder
	b.WriteString(first)
	if len(r) >= 2 {
		switch {
		case f.IsStrike && r[1] == Pins:
			b.WriteString("X")
		case f.IsSpare:
			b.WriteString(" /")
		default:
			b.WriteString(" " + mark(r[1], false))
		}
	}
	if len(r) == 3 {
		switch {
		case r[0] == Pins && r[1] < Pins && r[1]+r[2] == Pins:
			b.WriteString(" /")
		case r[2] == Pins:
			b.WriteString("X")
		default:
			b.WriteString(" " + mark(r[2], false))
		}
	}
	return b.String()
}

func mark(pins int, first bool) string {
	switch {
	case pins == Pins:
		return "X"
	case pins == 0 && first:
		return "G"
	case pins == 0:
		return "-"
	}
	return strconv.Itoa(pins)
}
