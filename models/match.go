package models

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "Scheduled"
	MatchStatusCompleted MatchStatus = "Completed"
	MatchStatusWalkover  MatchStatus = "Walkover"
)

// Match is one pairing inside a bracket round. A nil Team2ID denotes a bye.
type Match struct {
	ID           uuid.UUID   `json:"matchId" db:"id"`
	TournamentID uuid.UUID   `json:"tournamentId" db:"tournament_id"`
	Round        int         `json:"round" db:"round"`
	BracketSide  int         `json:"bracketSide" db:"bracket_side"`
	Team1ID      *string     `json:"team1Id" db:"team1_id"`
	Team2ID      *string     `json:"team2Id" db:"team2_id"`
	Score1       *int        `json:"score1" db:"score1"`
	Score2       *int        `json:"score2" db:"score2"`
	WinnerID     *string     `json:"winnerId" db:"winner_id"`
	MatchTime    time.Time   `json:"matchTime" db:"match_time"`
	Location     string      `json:"location" db:"location"`
	Status       MatchStatus `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`
}

// IsResolved reports whether the match no longer blocks round completion.
func (m *Match) IsResolved() bool {
	return m.Status == MatchStatusCompleted || m.Status == MatchStatusWalkover
}

// HasTeam reports whether teamID plays in the match.
func (m *Match) HasTeam(teamID string) bool {
	return (m.Team1ID != nil && *m.Team1ID == teamID) || (m.Team2ID != nil && *m.Team2ID == teamID)
}

// Opponent returns the other side of the match, or nil for a bye.
func (m *Match) Opponent(teamID string) *string {
	switch {
	case m.Team1ID != nil && *m.Team1ID == teamID:
		return m.Team2ID
	case m.Team2ID != nil && *m.Team2ID == teamID:
		return m.Team1ID
	}
	return nil
}
