// internal/game/score.go
//
// Scoring for a sequence of frames.
//
// All recorded rolls are flattened in frame order. Each frame is classified
// into a bonus category and its cumulative score is resolved once every roll
// the category needs exists; until then the score stays nil, and so does the
// score of every frame after it.
//
//	Open          r1 + r2
//	Spare         10 + next roll
//	SingleStrike  10 + next two rolls
//	Double        20 + roll after the second strike
//	Turkey        30
//
// Frame 10 is terminal: it scores the sum of its own rolls once complete.
package game

// Bonus is the scoring category of a frame.
type Bonus int

const (
	BonusPending Bonus = iota // not enough rolls to classify
	BonusOpen
	BonusSpare
	BonusSingleStrike
	BonusDouble
	BonusTurkey
	BonusTerminal // frame 10
)

func (b Bonus) String() string {
	switch b {
	case BonusOpen:
		return "open"
	case BonusSpare:
		return "spare"
	case BonusSingleStrike:
		return "strike"
	case BonusDouble:
		return "double"
	case BonusTurkey:
		return "turkey"
	case BonusTerminal:
		return "tenth"
	}
	return "pending"
}

// Recompute returns a copy of frames with every Score re-derived from the
// rolls. Rolls and flags are never changed. Malformed input is refused with
// *InvariantViolation.
func Recompute(frames []Frame) ([]Frame, error) {
	if err := Validate(frames); err != nil {
		return nil, err
	}
	out := cloneFrames(frames)
	flat, starts := flatten(out)

	total, pending := 0, false
	for i := range out {
		out[i].Score = nil
		if pending {
			continue
		}
		v, ok := frameValue(out[i], flat, starts[i])
		if !ok {
			pending = true
			continue
		}
		total += v
		out[i].Score = intPtr(total)
	}
	return out, nil
}

// Total returns frame 10's score, or nil while it is pending.
func Total(frames []Frame) *int {
	if len(frames) != FrameCount || frames[FrameCount-1].Score == nil {
		return nil
	}
	return intPtr(*frames[FrameCount-1].Score)
}

// Classify reports the bonus category of frames[i]. Frames must satisfy
// Validate. An index outside frames is BonusPending.
func Classify(frames []Frame, i int) Bonus {
	if i < 0 || i >= len(frames) {
		return BonusPending
	}
	flat, starts := flatten(frames)
	b, _, _ := classify(frames[i], flat, starts[i])
	return b
}

func frameValue(f Frame, flat []int, start int) (int, bool) {
	_, v, ok := classify(f, flat, start)
	return v, ok
}

// classify returns the category of f, its own (non-cumulative) value and
// whether that value is determinable from flat.
func classify(f Frame, flat []int, start int) (Bonus, int, bool) {
	at := func(i int) (int, bool) {
		if i < len(flat) {
			return flat[i], true
		}
		return 0, false
	}

	if f.tenth() {
		if !f.IsCompleted {
			return BonusPending, 0, false
		}
		return BonusTerminal, sum(f.Rolls), true
	}

	switch {
	case f.IsStrike:
		b1, ok1 := at(start + 1)
		b2, ok2 := at(start + 2)
		cat := BonusSingleStrike
		if ok1 && b1 == Pins {
			cat = BonusDouble
			if ok2 && b2 == Pins {
				cat = BonusTurkey
			}
		}
		return cat, Pins + b1 + b2, ok1 && ok2
	case f.IsSpare:
		b1, ok := at(start + 2)
		return BonusSpare, Pins + b1, ok
	case f.IsCompleted:
		return BonusOpen, sum(f.Rolls), true
	}
	return BonusPending, 0, false
}

// flatten concatenates rolls in frame order and records where each frame's
// first roll sits in the result.
func flatten(frames []Frame) (flat []int, starts []int) {
	starts = make([]int, len(frames))
	for i, f := range frames {
		starts[i] = len(flat)
		flat = append(flat, f.Rolls...)
	}
	return flat, starts
}

func sum(rolls []int) int {
	n := 0
	for _, r := range rolls {
		n += r
	}
	return n
}
