package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeat(pins, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = pins
	}
	return out
}

func mustReplay(t *testing.T, pins ...int) Game {
	t.Helper()
	g, err := Replay("user-1", pins...)
	require.NoError(t, err)
	return g
}

func TestNew(t *testing.T) {
	g := New("user-1")
	require.Len(t, g.Frames, FrameCount)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, "user-1", g.UserID)
	assert.Equal(t, StatusInProgress, g.Status)
	assert.Nil(t, g.TotalScore)
	for i, f := range g.Frames {
		assert.Equal(t, i+1, f.Number)
		assert.Empty(t, f.Rolls)
		assert.False(t, f.IsCompleted)
	}
	frame, roll, ok := g.Cursor()
	require.True(t, ok)
	assert.Equal(t, 1, frame)
	assert.Equal(t, 1, roll)
}

func TestRollCursorTransitions(t *testing.T) {
	tests := []struct {
		name      string
		pins      []int
		wantFrame int
		wantRoll  int
		wantOpen  bool
	}{
		{name: "first roll non-strike stays in frame", pins: []int{4}, wantFrame: 1, wantRoll: 2, wantOpen: true},
		{name: "strike advances frame", pins: []int{10}, wantFrame: 2, wantRoll: 1, wantOpen: true},
		{name: "second roll closes frame", pins: []int{4, 3}, wantFrame: 2, wantRoll: 1, wantOpen: true},
		{name: "frame 9 advances to 10", pins: repeat(0, 18), wantFrame: 10, wantRoll: 1, wantOpen: true},
		{name: "tenth strike keeps frame open", pins: append(repeat(0, 18), 10), wantFrame: 10, wantRoll: 2, wantOpen: true},
		{name: "tenth strike grants third roll", pins: append(repeat(0, 18), 10, 4), wantFrame: 10, wantRoll: 3, wantOpen: true},
		{name: "tenth spare grants third roll", pins: append(repeat(0, 18), 6, 4), wantFrame: 10, wantRoll: 3, wantOpen: true},
		{name: "tenth open frame ends game", pins: append(repeat(0, 18), 6, 3)},
		{name: "third roll ends game", pins: append(repeat(0, 18), 6, 4, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustReplay(t, tt.pins...)
			frame, roll, ok := g.Cursor()
			require.Equal(t, tt.wantOpen, ok)
			assert.Equal(t, tt.wantFrame, frame)
			assert.Equal(t, tt.wantRoll, roll)
			assert.Equal(t, !tt.wantOpen, g.Finishable())
		})
	}
}

func TestMaxPins(t *testing.T) {
	tests := []struct {
		name string
		pins []int
		want int
	}{
		{name: "first roll", want: 10},
		{name: "second roll after 3", pins: []int{3}, want: 7},
		{name: "tenth second roll after strike", pins: append(repeat(0, 18), 10), want: 10},
		{name: "tenth second roll after 7", pins: append(repeat(0, 18), 7), want: 3},
		{name: "tenth third roll after two strikes", pins: append(repeat(0, 18), 10, 10), want: 10},
		{name: "tenth third roll after strike and 4", pins: append(repeat(0, 18), 10, 4), want: 6},
		{name: "tenth third roll after spare", pins: append(repeat(0, 18), 7, 3), want: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustReplay(t, tt.pins...)
			got, err := g.MaxPins()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRollRejectsTooManyPins(t *testing.T) {
	g := mustReplay(t, 5)

	next, err := g.Roll(6)
	var invalid *InvalidRollError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.Frame)
	assert.Equal(t, 2, invalid.Roll)
	assert.Equal(t, 6, invalid.Pins)
	assert.Equal(t, 5, invalid.Max)

	assert.Equal(t, []int{5}, next.Frames[0].Rolls)
	assert.Equal(t, []int{5}, g.Frames[0].Rolls)
	_, roll, _ := g.Cursor()
	assert.Equal(t, 2, roll)
}

func TestRollRejectsOutOfRange(t *testing.T) {
	g := New("user-1")
	for _, pins := range []int{-1, 11} {
		_, err := g.Roll(pins)
		var invalid *InvalidRollError
		require.ErrorAs(t, err, &invalid, "pins=%d", pins)
	}
	assert.Empty(t, g.Frames[0].Rolls)
}

func TestRollAfterLastFrame(t *testing.T) {
	g := mustReplay(t, repeat(0, 20)...)
	_, err := g.Roll(0)
	var invalid *InvalidRollError
	require.ErrorAs(t, err, &invalid)
	assert.NotEmpty(t, invalid.Reason)
}

func TestRollIntoCompletedGame(t *testing.T) {
	g := mustReplay(t, repeat(0, 20)...)
	done, err := g.Finish()
	require.NoError(t, err)

	_, err = done.Roll(0)
	var invalid *InvalidRollError
	require.ErrorAs(t, err, &invalid)
	assert.True(t, errors.Is(err, ErrGameCompleted))
}

func TestRollReturnsSnapshot(t *testing.T) {
	g := New("user-1")
	g1, err := g.Roll(10)
	require.NoError(t, err)
	g2, err := g1.Roll(10)
	require.NoError(t, err)

	assert.Empty(t, g.Frames[0].Rolls)
	assert.False(t, g.Frames[0].IsStrike)
	assert.Empty(t, g1.Frames[1].Rolls)
	assert.Equal(t, []int{10}, g2.Frames[1].Rolls)

	g2.Frames[0].Rolls[0] = 3
	assert.Equal(t, 10, g1.Frames[0].Rolls[0])
}

func TestFrameFlags(t *testing.T) {
	g := mustReplay(t, 10, 7, 3, 4, 2)
	assert.True(t, g.Frames[0].IsStrike)
	assert.True(t, g.Frames[0].IsCompleted)
	assert.True(t, g.Frames[1].IsSpare)
	assert.False(t, g.Frames[1].IsStrike)
	assert.False(t, g.Frames[2].IsSpare)
	assert.True(t, g.Frames[2].IsCompleted)
}

func TestTenthFrameFlags(t *testing.T) {
	g := mustReplay(t, append(repeat(0, 18), 10, 5, 5)...)
	tenth := g.Frames[9]
	assert.True(t, tenth.IsStrike)
	assert.False(t, tenth.IsSpare)
	assert.True(t, tenth.IsCompleted)

	g = mustReplay(t, append(repeat(0, 18), 0, 10, 10)...)
	tenth = g.Frames[9]
	assert.False(t, tenth.IsStrike)
	assert.True(t, tenth.IsSpare)
	assert.True(t, tenth.IsCompleted)
}

func TestFinish(t *testing.T) {
	t.Run("pending frames", func(t *testing.T) {
		g := mustReplay(t, repeat(1, 9)...) // frame 5 holds one roll
		assert.False(t, g.Finishable())

		_, err := g.Finish()
		var nf *GameNotFinishableError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, []int{5, 6, 7, 8, 9, 10}, nf.Pending)
		assert.Equal(t, StatusInProgress, g.Status)
	})

	t.Run("complete game", func(t *testing.T) {
		g := mustReplay(t, repeat(10, 12)...)
		require.True(t, g.Finishable())

		done, err := g.Finish()
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, done.Status)
		assert.Equal(t, StatusInProgress, g.Status)
		require.NotNil(t, done.TotalScore)
		assert.Equal(t, 300, *done.TotalScore)

		_, err = done.Finish()
		assert.ErrorIs(t, err, ErrGameCompleted)
	})
}

func TestReviewNavigation(t *testing.T) {
	g := mustReplay(t, 10, 4, 5, 3)

	f, err := g.Frame(2)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, f.Rolls)
	f.Rolls[0] = 9
	assert.Equal(t, 4, g.Frames[1].Rolls[0])

	_, err = g.Frame(11)
	assert.Error(t, err)

	assert.True(t, g.CanAdvance(1))  // strike
	assert.True(t, g.CanAdvance(2))  // two rolls
	assert.False(t, g.CanAdvance(3)) // one roll
	assert.False(t, g.CanAdvance(4))
	assert.False(t, g.CanAdvance(10))
	assert.False(t, g.CanAdvance(0))
}
