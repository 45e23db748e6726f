package game

import "math"

// PerfectScore is the score of twelve consecutive strikes.
const PerfectScore = 300

// Statistics aggregates a player's completed games.
type Statistics struct {
	TotalGames     int     `json:"totalGames"`
	CompletedGames int     `json:"completedGames"`
	AverageScore   float64 `json:"averageScore"` // rounded to one decimal
	HighestScore   int     `json:"highestScore"`
	LowestScore    int     `json:"lowestScore"`
	StrikeCount    int     `json:"strikeCount"`
	SpareCount     int     `json:"spareCount"`
	PerfectGames   int     `json:"perfectGames"`
	TurkeyCount    int     `json:"turkeyCount"`
}

// Summarize computes Statistics over the completed games in games.
// In-progress games are skipped.
//
// Strikes and spares are counted per frame. Every strike frame that is the
// third or later in an unbroken run of strike frames counts as a turkey.
func Summarize(games []Game) Statistics {
	var st Statistics
	total := 0
	for _, g := range games {
		if g.Status != StatusCompleted || g.TotalScore == nil {
			continue
		}
		score := *g.TotalScore
		if st.CompletedGames == 0 || score > st.HighestScore {
			st.HighestScore = score
		}
		if st.CompletedGames == 0 || score < st.LowestScore {
			st.LowestScore = score
		}
		st.CompletedGames++
		total += score
		if score == PerfectScore {
			st.PerfectGames++
		}

		run := 0
		for _, f := range g.Frames {
			if f.IsSpare {
				st.SpareCount++
			}
			if !f.IsStrike {
				run = 0
				continue
			}
			st.StrikeCount++
			run++
			if run >= 3 {
				st.TurkeyCount++
			}
		}
	}
	st.TotalGames = st.CompletedGames
	if st.CompletedGames > 0 {
		st.AverageScore = math.Round(float64(total)/float64(st.CompletedGames)*10) / 10
	}
	return st
}
