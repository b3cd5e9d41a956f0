package models

import (
	"time"

	"github.com/google/uuid"
)

// Facilitator grants a user management rights over one tournament.
type Facilitator struct {
	TournamentID uuid.UUID `json:"tournamentId" db:"tournament_id"`
	UserID       string    `json:"userId" db:"user_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
