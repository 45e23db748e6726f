// internal/game/recorder.go
//
// Roll recording state machine for a single bowling game.
// Responsibilities:
//   - Create new games with ten empty frames.
//   - Validate each pin count against the pins left standing in the current slot.
//   - Advance the (frame, roll) cursor, including the tenth-frame branching.
//   - Recompute scores after every accepted roll.
//
// Notes:
//   - Game values are snapshots. Every method takes a value receiver and
//     returns a fresh Game; the input is never mutated.
//   - The cursor is derived from the recorded rolls (first frame that is not
//     completed), so games loaded from storage resume exactly where they stopped.
package game

import (
	"time"

	"github.com/google/uuid"
)

// New constructs a fresh game owned by userID with frame 1 ready for roll 1.
func New(userID string) Game {
	frames := make([]Frame, FrameCount)
	for i := range frames {
		frames[i] = Frame{Number: i + 1, Rolls: []int{}}
	}
	return Game{
		ID:       uuid.NewString(),
		UserID:   userID,
		PlayedAt: time.Now().UTC(),
		Status:   StatusInProgress,
		Frames:   frames,
	}
}

// Replay builds a game by recording pins in order.
func Replay(userID string, pins ...int) (Game, error) {
	g := New(userID)
	for _, p := range pins {
		next, err := g.Roll(p)
		if err != nil {
			return g, err
		}
		g = next
	}
	return g, nil
}

// Cursor reports the frame and roll slot the next roll will be recorded in.
// ok is false once frame 10 is complete.
func (g Game) Cursor() (frame, roll int, ok bool) {
	for _, f := range g.Frames {
		if !f.IsCompleted {
			return f.Number, len(f.Rolls) + 1, true
		}
	}
	return 0, 0, false
}

// MaxPins returns the highest pin count the current slot accepts.
func (g Game) MaxPins() (int, error) {
	if g.Status == StatusCompleted {
		return 0, &InvalidRollError{Frame: FrameCount, Reason: ErrGameCompleted.Error(), err: ErrGameCompleted}
	}
	n, roll, ok := g.Cursor()
	if !ok {
		return 0, &InvalidRollError{Frame: FrameCount, Reason: "no rolls remaining in this game"}
	}
	return maxPins(g.Frames[n-1], roll), nil
}

// maxPins assumes roll is the slot right after f's recorded rolls.
func maxPins(f Frame, roll int) int {
	switch roll {
	case 1:
		return Pins
	case 2:
		if f.tenth() && f.Rolls[0] == Pins {
			return Pins // rack reset after a strike
		}
		return Pins - f.Rolls[0]
	case 3:
		// Only reachable in frame 10 after a strike or spare.
		if f.Rolls[0] == Pins && f.Rolls[1] < Pins {
			return Pins - f.Rolls[1]
		}
		return Pins
	}
	return 0
}

// Roll validates and records pins in the current slot and returns the
// updated game with scores recomputed.
//
// Validation rules:
//   - Game must not be completed.
//   - A slot must be open (frame 10 not yet complete).
//   - 0 <= pins <= MaxPins().
//
// On error the returned game is g itself.
func (g Game) Roll(pins int) (Game, error) {
	max, err := g.MaxPins()
	if err != nil {
		return g, err
	}
	n, roll, _ := g.Cursor()
	if pins < 0 || pins > max {
		return g, &InvalidRollError{Frame: n, Roll: roll, Pins: pins, Max: max}
	}

	out := g.clone()
	f := &out.Frames[n-1]
	f.Rolls = append(f.Rolls, pins)
	advance(f)

	frames, err := Recompute(out.Frames)
	if err != nil {
		return g, err
	}
	out.Frames = frames
	out.TotalScore = Total(frames)
	return out, nil
}

// advance updates the strike/spare/completed flags after a roll was appended.
//
// Frames 1-9 close on a strike or after the second roll. Frame 10 never
// closes after one roll, grants a third roll on strike or spare, and always
// closes after the third.
func advance(f *Frame) {
	r := f.Rolls
	if !f.tenth() {
		switch len(r) {
		case 1:
			if r[0] == Pins {
				f.IsStrike, f.IsCompleted = true, true
			}
		case 2:
			f.IsSpare = r[0]+r[1] == Pins
			f.IsCompleted = true
		}
		return
	}
	switch len(r) {
	case 1:
		f.IsStrike = r[0] == Pins
	case 2:
		f.IsSpare = !f.IsStrike && r[0]+r[1] == Pins
		f.IsCompleted = !f.IsStrike && !f.IsSpare
	case 3:
		f.IsCompleted = true
	}
}

// Frame returns a copy of frame n (1..10) for review.
func (g Game) Frame(n int) (Frame, error) {
	if n < 1 || n > len(g.Frames) {
		return Frame{}, violation(0, "frame %d out of range", n)
	}
	return g.Frames[n-1].clone(), nil
}

// CanAdvance reports whether review navigation may step past frame n.
// Only frames 1-9 can be stepped past, and only once they hold two rolls or
// a strike.
func (g Game) CanAdvance(n int) bool {
	if n < 1 || n >= FrameCount || n > len(g.Frames) {
		return false
	}
	f := g.Frames[n-1]
	return len(f.Rolls) == 2 || f.IsStrike
}

// Finishable reports whether every frame is completed.
func (g Game) Finishable() bool {
	return len(g.Frames) == FrameCount && len(g.Pending()) == 0
}

// Pending lists the numbers of frames that still accept rolls.
func (g Game) Pending() []int {
	var out []int
	for _, f := range g.Frames {
		if !f.IsCompleted {
			out = append(out, f.Number)
		}
	}
	return out
}

// Finish marks the game completed. It fails with *GameNotFinishableError
// while frames are pending and with ErrGameCompleted on a second call.
func (g Game) Finish() (Game, error) {
	if g.Status == StatusCompleted {
		return g, ErrGameCompleted
	}
	if !g.Finishable() {
		return g, &GameNotFinishableError{Pending: g.Pending()}
	}
	out := g.clone()
	out.Status = StatusCompleted
	return out, nil
}
