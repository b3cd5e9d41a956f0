package repositories

import (
	"context"

	"github.com/Dosada05/esports-registration/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const participantColumns = `
	tournament_id, team_id, round, bracket_side, status, byes,
	next_match_id, seed, created_at`

type postgresParticipantRepository struct {
	exec SQLExecutor
}

func (r *postgresParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (tournament_id, team_id, round, bracket_side, status, byes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seed, created_at`

	err := r.exec.QueryRowxContext(ctx, query,
		p.TournamentID, p.TeamID, p.Round, p.BracketSide, p.Status, p.Byes,
	).Scan(&p.Seed, &p.CreatedAt)

	return handlePQError(ctx, err, ErrParticipantConflict)
}

func (r *postgresParticipantRepository) Get(ctx context.Context, tournamentID uuid.UUID, teamID string) (*models.Participant, error) {
	query := `SELECT` + participantColumns + ` FROM participants WHERE tournament_id = $1 AND team_id = $2`

	p := &models.Participant{}
	if err := sqlx.GetContext(ctx, r.exec, p, query, tournamentID, teamID); err != nil {
		return nil, handleNoRows(ctx, err, ErrParticipantNotFound)
	}
	return p, nil
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Participant, error) {
	query := `SELECT` + participantColumns + ` FROM participants WHERE tournament_id = $1 ORDER BY seed`

	participants := make([]*models.Participant, 0)
	if err := sqlx.SelectContext(ctx, r.exec, &participants, query, tournamentID); err != nil {
		return nil, handlePQError(ctx, err, nil)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) List(ctx context.Context) ([]*models.Participant, error) {
	query := `SELECT` + participantColumns + ` FROM participants ORDER BY seed`

	participants := make([]*models.Participant, 0)
	if err := sqlx.SelectContext(ctx, r.exec, &participants, query); err != nil {
		return nil, handlePQError(ctx, err, nil)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) Update(ctx context.Context, p *models.Participant) error {
	query := `
		UPDATE participants SET
			round = $1, bracket_side = $2, status = $3, byes = $4, next_match_id = $5
		WHERE tournament_id = $6 AND team_id = $7`

	result, err := r.exec.ExecContext(ctx, query,
		p.Round, p.BracketSide, p.Status, p.Byes, p.NextMatchID, p.TournamentID, p.TeamID,
	)
	if err != nil {
		return handlePQError(ctx, err, nil)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, tournamentID uuid.UUID, teamID string) error {
	result, err := r.exec.ExecContext(ctx,
		`DELETE FROM participants WHERE tournament_id = $1 AND team_id = $2`, tournamentID, teamID)
	if err != nil {
		return handlePQError(ctx, err, nil)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}
