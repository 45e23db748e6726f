// internal/game/types.go
//
// Core type definitions for the bowling game engine.
// Defines:
//   - Status: lifecycle of a game (in_progress → completed).
//   - Frame: one of the ten scoring units, with its rolls and derived flags.
//   - Game: the aggregate handed to callers as an immutable snapshot.

package game

import "time"

// Status is the lifecycle state of a game.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

const (
	// FrameCount is the number of frames in a game.
	FrameCount = 10
	// Pins is the size of a full rack.
	Pins = 10
)

// Frame holds the rolls recorded for one frame.
//
// Score is the cumulative game score through this frame. A nil Score means
// the frame is not yet determinable: some roll it depends on has not been
// recorded.
type Frame struct {
	Number      int   `json:"frameNumber"` // 1..10
	Rolls       []int `json:"rolls"`       // pin counts in delivery order
	Score       *int  `json:"frameScore"`  // cumulative; nil while pending
	IsStrike    bool  `json:"isStrike"`
	IsSpare     bool  `json:"isSpare"`
	IsCompleted bool  `json:"isCompleted"` // no further rolls permitted
}

// Game holds the state of a single bowling game.
type Game struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId,omitempty"` // opaque identity, never interpreted
	PlayedAt   time.Time `json:"gameDate"`
	Status     Status    `json:"status"`
	Frames     []Frame   `json:"frames"`     // always FrameCount entries
	TotalScore *int      `json:"totalScore"` // frame 10's score once determinable
}

// Roll returns the i-th roll (0-based) of the frame and whether it exists.
func (f Frame) Roll(i int) (int, bool) {
	if i < 0 || i >= len(f.Rolls) {
		return 0, false
	}
	return f.Rolls[i], true
}

func (f Frame) tenth() bool { return f.Number == FrameCount }

func (f Frame) clone() Frame {
	out := f
	if f.Rolls != nil {
		out.Rolls = append(make([]int, 0, len(f.Rolls)), f.Rolls...)
	}
	if f.Score != nil {
		out.Score = intPtr(*f.Score)
	}
	return out
}

// clone returns a deep copy so snapshots never share frame memory.
func (g Game) clone() Game {
	out := g
	out.Frames = cloneFrames(g.Frames)
	if g.TotalScore != nil {
		out.TotalScore = intPtr(*g.TotalScore)
	}
	return out
}

func cloneFrames(in []Frame) []Frame {
	if in == nil {
		return nil
	}
	out := make([]Frame, len(in))
	for i, f := range in {
		out[i] = f.clone()
	}
	return out
}

func intPtr(v int) *int { return &v }
