package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scores returns frame scores with -1 standing in for pending.
func scores(g Game) []int {
	out := make([]int, len(g.Frames))
	for i, f := range g.Frames {
		out[i] = -1
		if f.Score != nil {
			out[i] = *f.Score
		}
	}
	return out
}

func TestScoreGames(t *testing.T) {
	tests := []struct {
		name  string
		pins  []int
		want  []int
		total int
	}{
		{
			name:  "perfect game",
			pins:  repeat(10, 12),
			want:  []int{30, 60, 90, 120, 150, 180, 210, 240, 270, 300},
			total: 300,
		},
		{
			name:  "all gutters",
			pins:  repeat(0, 20),
			want:  []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			total: 0,
		},
		{
			name:  "all spares with trailing five",
			pins:  repeat(5, 21),
			want:  []int{15, 30, 45, 60, 75, 90, 105, 120, 135, 150},
			total: 150,
		},
		{
			name:  "all ones",
			pins:  repeat(1, 20),
			want:  []int{2, 4, 6, 8, 10, 12, 14, 16, 18, 20},
			total: 20,
		},
		{
			name:  "mixed game",
			pins:  []int{10, 7, 3, 9, 0, 10, 0, 8, 8, 2, 0, 6, 10, 10, 10, 8, 1},
			want:  []int{20, 39, 48, 66, 74, 84, 90, 120, 148, 167},
			total: 167,
		},
		{
			name:  "strike then spare in tenth",
			pins:  append(repeat(0, 16), 10, 10, 3, 7),
			want:  []int{0, 0, 0, 0, 0, 0, 0, 0, 23, 43},
			total: 43,
		},
		{
			name:  "spare then strike in tenth",
			pins:  append(repeat(0, 18), 6, 4, 10),
			want:  []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 20},
			total: 20,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustReplay(t, tt.pins...)
			if diff := cmp.Diff(tt.want, scores(g)); diff != "" {
				t.Fatalf("frame scores mismatch (-want +got):\n%s", diff)
			}
			require.NotNil(t, g.TotalScore)
			assert.Equal(t, tt.total, *g.TotalScore)
			assert.True(t, g.Finishable())
		})
	}
}

func TestScoreIncremental(t *testing.T) {
	steps := []struct {
		pins int
		want []int
	}{
		{10, []int{-1, -1, -1, -1, -1, -1, -1, -1, -1, -1}},
		{10, []int{-1, -1, -1, -1, -1, -1, -1, -1, -1, -1}},
		{10, []int{30, -1, -1, -1, -1, -1, -1, -1, -1, -1}},
		{3, []int{30, 53, -1, -1, -1, -1, -1, -1, -1, -1}},
		{4, []int{30, 53, 70, 77, -1, -1, -1, -1, -1, -1}},
		{6, []int{30, 53, 70, 77, -1, -1, -1, -1, -1, -1}},
		{4, []int{30, 53, 70, 77, -1, -1, -1, -1, -1, -1}},
		{2, []int{30, 53, 70, 77, 89, -1, -1, -1, -1, -1}},
	}
	g := New("user-1")
	for i, s := range steps {
		var err error
		g, err = g.Roll(s.pins)
		require.NoError(t, err)
		if diff := cmp.Diff(s.want, scores(g)); diff != "" {
			t.Fatalf("step %d (-want +got):\n%s", i, diff)
		}
	}
	assert.Nil(t, g.TotalScore)
}

// Frame 9's strike needs only frame 10's first two rolls.
func TestNinthStrikeResolvesBeforeThirdRoll(t *testing.T) {
	g := mustReplay(t, append(repeat(0, 16), 10, 10, 3)...)
	want := []int{0, 0, 0, 0, 0, 0, 0, 0, 23, -1}
	if diff := cmp.Diff(want, scores(g)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	max, err := g.MaxPins()
	require.NoError(t, err)
	assert.Equal(t, 7, max)
}

func TestScoresNeverChangeOnceSet(t *testing.T) {
	pins := []int{10, 10, 9, 1, 0, 0, 10, 5, 5, 10, 10, 10, 3, 7, 10}
	g := New("user-1")
	seen := map[int]int{}
	for _, p := range pins {
		var err error
		g, err = g.Roll(p)
		require.NoError(t, err)
		for i, s := range scores(g) {
			prev, ok := seen[i]
			if ok {
				require.Equal(t, prev, s, "frame %d changed after roll", i+1)
			}
			if s >= 0 {
				seen[i] = s
			}
		}
	}
	require.Len(t, seen, FrameCount)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	g := mustReplay(t, 10, 7, 3, 9, 0, 10, 0, 8)
	once, err := Recompute(g.Frames)
	require.NoError(t, err)
	twice, err := Recompute(once)
	require.NoError(t, err)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("(-once +twice):\n%s", diff)
	}
	if diff := cmp.Diff(g.Frames, once); diff != "" {
		t.Fatalf("(-recorded +recomputed):\n%s", diff)
	}
}

func TestRecomputeDoesNotMutateInput(t *testing.T) {
	g := mustReplay(t, 10, 10, 10)
	in := cloneFrames(g.Frames)
	in[0].Score = nil
	_, err := Recompute(in)
	require.NoError(t, err)
	assert.Nil(t, in[0].Score)
}

func TestClassify(t *testing.T) {
	g := mustReplay(t, 10, 10, 10, 10, 10, 4, 6, 10, 3, 2, 10, 7, 1)
	want := []Bonus{
		BonusTurkey, BonusTurkey, BonusTurkey, BonusDouble, BonusSingleStrike,
		BonusSpare, BonusSingleStrike, BonusOpen, BonusSingleStrike, BonusTerminal,
	}
	for i, w := range want {
		assert.Equal(t, w, Classify(g.Frames, i), "frame %d", i+1)
	}
	assert.Equal(t, "turkey", BonusTurkey.String())
}

func TestClassifyOutOfRange(t *testing.T) {
	g := mustReplay(t, 10, 10)
	assert.Equal(t, BonusPending, Classify(g.Frames, -1))
	assert.Equal(t, BonusPending, Classify(g.Frames, FrameCount))
	assert.Equal(t, BonusPending, Classify(nil, 0))
}

func TestRecomputeRefusesMalformedFrames(t *testing.T) {
	g := mustReplay(t, 3)
	g.Frames[0].IsCompleted = true
	_, err := Recompute(g.Frames)
	var iv *InvariantViolation
	require.ErrorAs(t, err, &iv)
	assert.Equal(t, 1, iv.Frame)
}
