package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarks(t *testing.T) {
	tests := []struct {
		name string
		pins []int
		n    int
		want string
	}{
		{name: "empty", pins: nil, n: 1, want: ""},
		{name: "strike", pins: []int{10}, n: 1, want: "X"},
		{name: "spare", pins: []int{7, 3}, n: 1, want: "7 /"},
		{name: "gutter and miss", pins: []int{0, 0}, n: 1, want: "G -"},
		{name: "open", pins: []int{7, 2}, n: 1, want: "7 2"},
		{name: "first ball only", pins: []int{7}, n: 1, want: "7 "},
		{name: "gutter spare", pins: []int{0, 10}, n: 1, want: "G /"},
		{name: "tenth turkey", pins: append(repeat(0, 18), 10, 10, 10), n: 10, want: "XXX"},
		{name: "tenth strike then spare", pins: append(repeat(0, 18), 10, 5, 5), n: 10, want: "X 5 /"},
		{name: "tenth strike then open", pins: append(repeat(0, 18), 10, 5, 0), n: 10, want: "X 5 -"},
		{name: "tenth strike then gutter spare", pins: append(repeat(0, 18), 10, 0, 10), n: 10, want: "X - /"},
		{name: "tenth spare then strike", pins: append(repeat(0, 18), 7, 3, 10), n: 10, want: "7 /X"},
		{name: "tenth open", pins: append(repeat(0, 18), 0, 4), n: 10, want: "G 4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustReplay(t, tt.pins...)
			f, err := g.Frame(tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Marks())
		})
	}
}
