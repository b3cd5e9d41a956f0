package models

import (
	"time"

	"github.com/google/uuid"
)

// TournamentStatus представляет статусы турнира, соответствующие CHECK в БД.
type TournamentStatus string

const (
	TournamentStatusUpcoming  TournamentStatus = "Upcoming"
	TournamentStatusActive    TournamentStatus = "Active"
	TournamentStatusCompleted TournamentStatus = "Completed"
	TournamentStatusCancelled TournamentStatus = "Cancelled"
)

// Tournament представляет турнир.
type Tournament struct {
	ID           uuid.UUID        `json:"tournamentId" db:"id"`
	Name         string           `json:"tournamentName" db:"name"`
	StartDate    time.Time        `json:"startDate" db:"start_date"`
	EndDate      *time.Time       `json:"endDate,omitempty" db:"end_date"`
	Location     string           `json:"location" db:"location"`
	Status       TournamentStatus `json:"status" db:"status"`
	CreatedBy    string           `json:"createdBy" db:"created_by"`
	WinnerTeamID *string          `json:"winnerTeamId,omitempty" db:"winner_team_id"`
	LogoKey      *string          `json:"-" db:"logo_key"`
	LogoURL      *string          `json:"logoUrl,omitempty" db:"-"`
	CreatedAt    time.Time        `json:"createdAt" db:"created_at"`
}

// IsFinished reports whether the tournament reached a terminal status.
func (t *Tournament) IsFinished() bool {
	return t.Status == TournamentStatusCompleted || t.Status == TournamentStatusCancelled
}
