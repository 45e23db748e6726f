package game

// Validate checks that frames could have been produced by recording rolls
// one at a time. It returns *InvariantViolation on the first problem found.
func Validate(frames []Frame) error {
	if len(frames) != FrameCount {
		return violation(0, "want %d frames, got %d", FrameCount, len(frames))
	}
	open := 0
	for i, f := range frames {
		if f.Number != i+1 {
			return violation(i+1, "frame number %d at position %d", f.Number, i+1)
		}
		for _, r := range f.Rolls {
			if r < 0 || r > Pins {
				return violation(f.Number, "roll %d out of range", r)
			}
		}
		if open != 0 && len(f.Rolls) > 0 {
			return violation(f.Number, "rolls recorded while frame %d is open", open)
		}
		var err error
		if f.tenth() {
			err = validateTenth(f)
		} else {
			err = validateFrame(f)
		}
		if err != nil {
			return err
		}
		if !f.IsCompleted && open == 0 {
			open = f.Number
		}
	}
	return nil
}

func validateFrame(f Frame) error {
	r := f.Rolls
	if len(r) > 2 {
		return violation(f.Number, "%d rolls", len(r))
	}
	strike := len(r) >= 1 && r[0] == Pins
	if strike && len(r) != 1 {
		return violation(f.Number, "roll recorded after a strike")
	}
	if len(r) == 2 && r[0]+r[1] > Pins {
		return violation(f.Number, "%d+%d exceeds %d pins", r[0], r[1], Pins)
	}
	spare := len(r) == 2 && r[0]+r[1] == Pins
	return checkFlags(f, strike, spare, strike || len(r) == 2)
}

func validateTenth(f Frame) error {
	r := f.Rolls
	if len(r) > 3 {
		return violation(f.Number, "%d rolls", len(r))
	}
	strike := len(r) >= 1 && r[0] == Pins
	if len(r) >= 2 && !strike && r[0]+r[1] > Pins {
		return violation(f.Number, "%d+%d exceeds %d pins", r[0], r[1], Pins)
	}
	spare := len(r) >= 2 && !strike && r[0]+r[1] == Pins
	if len(r) == 3 {
		if !strike && !spare {
			return violation(f.Number, "third roll without strike or spare")
		}
		if strike && r[1] < Pins && r[1]+r[2] > Pins {
			return violation(f.Number, "%d+%d exceeds %d pins", r[1], r[2], Pins)
		}
	}
	done := len(r) == 3 || (len(r) == 2 && !strike && !spare)
	return checkFlags(f, strike, spare, done)
}

func checkFlags(f Frame, strike, spare, done bool) error {
	switch {
	case f.IsStrike != strike:
		return violation(f.Number, "isStrike=%t, rolls say %t", f.IsStrike, strike)
	case f.IsSpare != spare:
		return violation(f.Number, "isSpare=%t, rolls say %t", f.IsSpare, spare)
	case f.IsCompleted != done:
		return violation(f.Number, "isCompleted=%t, rolls say %t", f.IsCompleted, done)
	}
	return nil
}

// Restore validates a game supplied by persistence or a client and
// re-derives its scores. Stored scores are ignored.
func Restore(g Game) (Game, error) {
	switch g.Status {
	case StatusInProgress, StatusCompleted:
	default:
		return Game{}, violation(0, "unknown status %q", g.Status)
	}
	frames, err := Recompute(g.Frames)
	if err != nil {
		return Game{}, err
	}
	out := g.clone()
	out.Frames = frames
	out.TotalScore = Total(frames)
	if out.Status == StatusCompleted && !out.Finishable() {
		return Game{}, violation(0, "completed game has pending frames %v", out.Pending())
	}
	return out, nil
}
