package httpserver

import (
	"time"

	"github.com/robalobadob/bowlards/internal/game"
)

// wireFrame is the client-facing frame shape: rolls are named slots rather
// than a list.
type wireFrame struct {
	FrameNumber int    `json:"frameNumber"`
	FirstRoll   *int   `json:"firstRoll"`
	SecondRoll  *int   `json:"secondRoll"`
	ThirdRoll   *int   `json:"thirdRoll,omitempty"`
	FrameScore  *int   `json:"frameScore"`
	IsStrike    bool   `json:"isStrike"`
	IsSpare     bool   `json:"isSpare"`
	IsCompleted bool   `json:"isCompleted"`
	Marks       string `json:"marks,omitempty"`
}

// gameView is the client-facing game shape.
type gameView struct {
	ID         string      `json:"id"`
	GameDate   time.Time   `json:"gameDate"`
	Status     game.Status `json:"status"`
	TotalScore *int        `json:"totalScore"`
	Frames     []wireFrame `json:"frames"`

	// Recording cursor; omitted once frame 10 is complete.
	CurrentFrame int  `json:"currentFrame,omitempty"`
	CurrentRoll  int  `json:"currentRoll,omitempty"`
	MaxPins      *int `json:"maxPins,omitempty"`
	Finishable   bool `json:"finishable"`
}

func toWire(f game.Frame) wireFrame {
	w := wireFrame{
		FrameNumber: f.Number,
		FrameScore:  f.Score,
		IsStrike:    f.IsStrike,
		IsSpare:     f.IsSpare,
		IsCompleted: f.IsCompleted,
		Marks:       f.Marks(),
	}
	slots := []**int{&w.FirstRoll, &w.SecondRoll, &w.ThirdRoll}
	for i := range slots {
		if v, ok := f.Roll(i); ok {
			*slots[i] = &v
		}
	}
	return w
}

// fromWire rebuilds a frame's rolls. Flags and scores are taken as sent and
// checked later by game.Validate; a gap between slots is reported here.
func fromWire(w wireFrame) (game.Frame, error) {
	f := game.Frame{
		Number:      w.FrameNumber,
		Rolls:       []int{},
		IsStrike:    w.IsStrike,
		IsSpare:     w.IsSpare,
		IsCompleted: w.IsCompleted,
	}
	gap := false
	for _, p := range []*int{w.FirstRoll, w.SecondRoll, w.ThirdRoll} {
		if p == nil {
			gap = true
			continue
		}
		if gap {
			return game.Frame{}, &game.InvariantViolation{Frame: w.FrameNumber, Detail: "roll recorded after an empty slot"}
		}
		f.Rolls = append(f.Rolls, *p)
	}
	return f, nil
}

func viewOf(g game.Game) gameView {
	v := gameView{
		ID:         g.ID,
		GameDate:   g.PlayedAt,
		Status:     g.Status,
		TotalScore: g.TotalScore,
		Frames:     make([]wireFrame, len(g.Frames)),
		Finishable: g.Status == game.StatusInProgress && g.Finishable(),
	}
	for i, f := range g.Frames {
		v.Frames[i] = toWire(f)
	}
	if g.Status == game.StatusInProgress {
		if n, roll, ok := g.Cursor(); ok {
			v.CurrentFrame, v.CurrentRoll = n, roll
			if m, err := g.MaxPins(); err == nil {
				v.MaxPins = &m
			}
		}
	}
	return v
}

func viewsOf(games []game.Game) []gameView {
	out := make([]gameView, len(games))
	for i, g := range games {
		out[i] = viewOf(g)
	}
	return out
}
