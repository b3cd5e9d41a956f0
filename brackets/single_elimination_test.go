package brackets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teamNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("team-%d", i)
	}
	return out
}

func TestBracketSize(t *testing.T) {
	tests := []struct {
		n, size, rounds int
	}{
		{1, 1, 0},
		{2, 2, 1},
		{3, 4, 2},
		{4, 4, 2},
		{5, 8, 3},
		{8, 8, 3},
		{9, 16, 4},
		{17, 32, 5},
	}
	for _, tt := range tests {
		size, rounds := BracketSize(tt.n)
		assert.Equal(t, tt.size, size, "size for n=%d", tt.n)
		assert.Equal(t, tt.rounds, rounds, "rounds for n=%d", tt.n)
	}
}

func TestGenerateInitialRoundCoversEveryTeamOnce(t *testing.T) {
	for n := 2; n <= 33; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			teams := teamNames(n)
			round, err := GenerateInitialRound(teams)
			require.NoError(t, err)

			assert.Equal(t, n, len(round.Byes)+2*len(round.Pairings))
			assert.Equal(t, round.Size-n, len(round.Byes))

			seen := make(map[string]int, n)
			for i, p := range round.Pairings {
				assert.Equal(t, i, p.BracketSide)
				seen[p.Team1ID]++
				seen[p.Team2ID]++
			}
			for _, b := range round.Byes {
				seen[b]++
			}
			require.Len(t, seen, n)
			for team, count := range seen {
				assert.Equal(t, 1, count, "team %s", team)
			}

			// Round 2 always holds a power of two entrants.
			size2, _ := BracketSize(len(round.Pairings) + len(round.Byes))
			assert.Equal(t, len(round.Pairings)+len(round.Byes), size2)
		})
	}
}

func TestGenerateInitialRoundSeedPairing(t *testing.T) {
	tests := []struct {
		name     string
		teams    []string
		pairings []Pairing
		byes     []string
	}{
		{
			name:     "two teams",
			teams:    []string{"A", "B"},
			pairings: []Pairing{{0, "A", "B"}},
			byes:     []string{},
		},
		{
			name:     "three teams gives middle seed the bye",
			teams:    []string{"A", "B", "C"},
			pairings: []Pairing{{0, "A", "C"}},
			byes:     []string{"B"},
		},
		{
			name:     "four teams best versus worst",
			teams:    []string{"A", "B", "C", "D"},
			pairings: []Pairing{{0, "A", "D"}, {1, "B", "C"}},
			byes:     []string{},
		},
		{
			name:     "six teams",
			teams:    []string{"A", "B", "C", "D", "E", "F"},
			pairings: []Pairing{{0, "A", "F"}, {1, "B", "E"}},
			byes:     []string{"C", "D"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			round, err := GenerateInitialRound(tt.teams)
			require.NoError(t, err)
			assert.Equal(t, tt.pairings, round.Pairings)
			assert.Equal(t, tt.byes, round.Byes)
		})
	}
}

func TestGenerateInitialRoundRejectsSmallRoster(t *testing.T) {
	for _, teams := range [][]string{nil, {"A"}} {
		_, err := GenerateInitialRound(teams)
		assert.ErrorIs(t, err, ErrNotEnoughParticipants)
	}
}

func TestPairSequential(t *testing.T) {
	pairs, carry := PairSequential([]string{"A", "B", "C", "D"})
	assert.Equal(t, []Pairing{{0, "A", "B"}, {1, "C", "D"}}, pairs)
	assert.Nil(t, carry)

	pairs, carry = PairSequential([]string{"A", "B", "C"})
	assert.Equal(t, []Pairing{{0, "A", "B"}}, pairs)
	require.NotNil(t, carry)
	assert.Equal(t, "C", *carry)

	pairs, carry = PairSequential([]string{"A"})
	assert.Empty(t, pairs)
	require.NotNil(t, carry)
	assert.Equal(t, "A", *carry)
}
