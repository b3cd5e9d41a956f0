// Package brackets holds the pure seeding and pairing math of a
// single-elimination bracket. It knows nothing about storage.
package brackets

import (
	"errors"
	"math"
)

var ErrNotEnoughParticipants = errors.New("not enough participants to generate a single elimination bracket (minimum 2)")

// Pairing is one match slot of a round.
type Pairing struct {
	BracketSide int
	Team1ID     string
	Team2ID     string
}

// InitialRound is the round-1 layout of a bracket.
type InitialRound struct {
	Size      int // smallest power of two >= participant count
	NumRounds int
	Pairings  []Pairing
	// Byes advance straight into round 2, in seed order.
	Byes []string
}

// BracketSize returns the smallest power of two >= n and the number of rounds
// needed to play it out.
func BracketSize(n int) (size, numRounds int) {
	if n <= 1 {
		return 1, 0
	}
	numRounds = int(math.Ceil(math.Log2(float64(n))))
	return 1 << uint(numRounds), numRounds
}

// GenerateInitialRound seeds teams (ordered best first) into round 1. Seed i
// meets seed n-1-i for the first k = (n-byes)/2 seeds; the middle seeds that
// are left over receive the byes.
func GenerateInitialRound(teams []string) (*InitialRound, error) {
	n := len(teams)
	if n < 2 {
		return nil, ErrNotEnoughParticipants
	}

	size, numRounds := BracketSize(n)
	numByes := size - n
	k := (n - numByes) / 2

	round := &InitialRound{
		Size:      size,
		NumRounds: numRounds,
		Pairings:  make([]Pairing, 0, k),
		Byes:      make([]string, 0, numByes),
	}
	for i := 0; i < k; i++ {
		round.Pairings = append(round.Pairings, Pairing{
			BracketSide: i,
			Team1ID:     teams[i],
			Team2ID:     teams[n-1-i],
		})
	}
	round.Byes = append(round.Byes, teams[k:n-k]...)

	return round, nil
}

// PairSequential pairs pool[0] with pool[1], pool[2] with pool[3] and so on.
// An odd leftover is returned as carry and sits the round out.
func PairSequential(pool []string) (pairings []Pairing, carry *string) {
	pairings = make([]Pairing, 0, len(pool)/2)
	for i := 0; i+1 < len(pool); i += 2 {
		pairings = append(pairings, Pairing{
			BracketSide: i / 2,
			Team1ID:     pool[i],
			Team2ID:     pool[i+1],
		})
	}
	if len(pool)%2 == 1 {
		last := pool[len(pool)-1]
		carry = &last
	}
	return pairings, carry
}
