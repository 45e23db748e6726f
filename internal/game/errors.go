package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrGameCompleted is returned when a game that was already finished is
// rolled into or finished again.
var ErrGameCompleted = errors.New("game already completed")

// InvalidRollError reports a pin count outside the legal range for the
// current roll slot. The game is left unchanged; callers should re-prompt.
type InvalidRollError struct {
	Frame  int    // frame the roll was aimed at
	Roll   int    // roll slot (1..3), 0 when no slot is open
	Pins   int    // requested pin count
	Max    int    // highest legal pin count for the slot
	Reason string // set when the roll was refused for a reason other than range
	err    error
}

func (e *InvalidRollError) Error() string {
	if e.Reason != "" {
		return "invalid roll: " + e.Reason
	}
	return fmt.Sprintf("invalid roll: %d pins in frame %d roll %d (allowed 0-%d)", e.Pins, e.Frame, e.Roll, e.Max)
}

func (e *InvalidRollError) Unwrap() error { return e.err }

// GameNotFinishableError is returned by Finish while frames are still open.
type GameNotFinishableError struct {
	Pending []int // frame numbers that are not completed
}

func (e *GameNotFinishableError) Error() string {
	nums := make([]string, len(e.Pending))
	for i, n := range e.Pending {
		nums[i] = strconv.Itoa(n)
	}
	return "game not finishable: frames pending " + strings.Join(nums, ",")
}

// InvariantViolation reports frame data that could not have been produced
// by recording rolls. Scores are never computed for such data.
type InvariantViolation struct {
	Frame  int // offending frame number, 0 for the sequence as a whole
	Detail string
}

func (e *InvariantViolation) Error() string {
	if e.Frame == 0 {
		return "invariant violation: " + e.Detail
	}
	return fmt.Sprintf("invariant violation in frame %d: %s", e.Frame, e.Detail)
}

func violation(frame int, format string, args ...any) error {
	return &InvariantViolation{Frame: frame, Detail: fmt.Sprintf(format, args...)}
}
