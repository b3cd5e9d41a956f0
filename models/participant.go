package models

import (
	"time"

	"github.com/google/uuid"
)

type ParticipantStatus string

const (
	ParticipantStatusActive       ParticipantStatus = "Active"
	ParticipantStatusDisqualified ParticipantStatus = "Disqualified"
	ParticipantStatusEliminated   ParticipantStatus = "Eliminated"
	ParticipantStatusChampion     ParticipantStatus = "Champion"
)

// Participant is a team registered for a tournament. Seed is the registration
// sequence and orders the roster for pairing.
type Participant struct {
	TournamentID uuid.UUID         `json:"tournamentId" db:"tournament_id"`
	TeamID       string            `json:"teamId" db:"team_id"`
	Round        int               `json:"round" db:"round"`
	BracketSide  int               `json:"bracketSide" db:"bracket_side"`
	Status       ParticipantStatus `json:"status" db:"status"`
	Byes         int               `json:"byes" db:"byes"`
	NextMatchID  *uuid.UUID        `json:"nextMatchId,omitempty" db:"next_match_id"`
	Seed         int64             `json:"seed" db:"seed"`
	CreatedAt    time.Time         `json:"createdAt" db:"created_at"`
}

func (p *Participant) IsActive() bool {
	return p.Status == ParticipantStatusActive
}
