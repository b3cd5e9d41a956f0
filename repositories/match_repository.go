package repositories

import (
	"context"
	"fmt"

	"github.com/Dosada05/esports-registration/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const matchColumns = `
	id, tournament_id, round, bracket_side, team1_id, team2_id, score1, score2,
	winner_id, match_time, location, status, created_at, updated_at`

type postgresMatchRepository struct {
	exec SQLExecutor
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, matches []*models.Match) error {
	query := `
		INSERT INTO matches (
			id, tournament_id, round, bracket_side, team1_id, team2_id,
			score1, score2, winner_id, match_time, location, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	for _, m := range matches {
		err := r.exec.QueryRowxContext(ctx, query,
			m.ID, m.TournamentID, m.Round, m.BracketSide, m.Team1ID, m.Team2ID,
			m.Score1, m.Score2, m.WinnerID, m.MatchTime, m.Location, m.Status,
		).Scan(&m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert match round %d side %d: %w",
				m.Round, m.BracketSide, handlePQError(ctx, err, ErrMatchConflict))
		}
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	m := &models.Match{}
	err := sqlx.GetContext(ctx, r.exec, m, `SELECT`+matchColumns+` FROM matches WHERE id = $1`, id)
	if err != nil {
		return nil, handleNoRows(ctx, err, ErrMatchNotFound)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY round, bracket_side`
	return r.selectMatches(ctx, query, tournamentID)
}

func (r *postgresMatchRepository) ListByRound(ctx context.Context, tournamentID uuid.UUID, round int) ([]*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE tournament_id = $1 AND round = $2 ORDER BY bracket_side`
	return r.selectMatches(ctx, query, tournamentID, round)
}

func (r *postgresMatchRepository) List(ctx context.Context) ([]*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches ORDER BY created_at, round, bracket_side`
	return r.selectMatches(ctx, query)
}

func (r *postgresMatchRepository) selectMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	matches := make([]*models.Match, 0)
	if err := sqlx.SelectContext(ctx, r.exec, &matches, query, args...); err != nil {
		return nil, handlePQError(ctx, err, nil)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, m *models.Match) error {
	query := `
		UPDATE matches SET
			score1 = $1, score2 = $2, winner_id = $3, status = $4,
			match_time = $5, location = $6, updated_at = now()
		WHERE id = $7
		RETURNING updated_at`

	err := r.exec.QueryRowxContext(ctx, query,
		m.Score1, m.Score2, m.WinnerID, m.Status, m.MatchTime, m.Location, m.ID,
	).Scan(&m.UpdatedAt)
	if err != nil {
		return handleNoRows(ctx, err, ErrMatchNotFound)
	}
	return nil
}
