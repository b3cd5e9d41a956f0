package repositories

import (
	"context"

	"github.com/Dosada05/esports-registration/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type postgresFacilitatorRepository struct {
	exec SQLExecutor
}

func (r *postgresFacilitatorRepository) Create(ctx context.Context, f *models.Facilitator) error {
	query := `
		INSERT INTO facilitators (tournament_id, user_id)
		VALUES ($1, $2)
		RETURNING created_at`

	err := r.exec.QueryRowxContext(ctx, query, f.TournamentID, f.UserID).Scan(&f.CreatedAt)
	return handlePQError(ctx, err, ErrFacilitatorConflict)
}

func (r *postgresFacilitatorRepository) Exists(ctx context.Context, tournamentID uuid.UUID, userID string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, r.exec, &exists,
		`SELECT EXISTS (SELECT 1 FROM facilitators WHERE tournament_id = $1 AND user_id = $2)`,
		tournamentID, userID)
	if err != nil {
		return false, handlePQError(ctx, err, nil)
	}
	return exists, nil
}

func (r *postgresFacilitatorRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Facilitator, error) {
	facilitators := make([]*models.Facilitator, 0)
	err := sqlx.SelectContext(ctx, r.exec, &facilitators,
		`SELECT tournament_id, user_id, created_at FROM facilitators WHERE tournament_id = $1 ORDER BY created_at`,
		tournamentID)
	if err != nil {
		return nil, handlePQError(ctx, err, nil)
	}
	return facilitators, nil
}

func (r *postgresFacilitatorRepository) List(ctx context.Context) ([]*models.Facilitator, error) {
	facilitators := make([]*models.Facilitator, 0)
	err := sqlx.SelectContext(ctx, r.exec, &facilitators,
		`SELECT tournament_id, user_id, created_at FROM facilitators ORDER BY created_at`)
	if err != nil {
		return nil, handlePQError(ctx, err, nil)
	}
	return facilitators, nil
}

func (r *postgresFacilitatorRepository) Delete(ctx context.Context, tournamentID uuid.UUID, userID string) error {
	result, err := r.exec.ExecContext(ctx,
		`DELETE FROM facilitators WHERE tournament_id = $1 AND user_id = $2`, tournamentID, userID)
	if err != nil {
		return handlePQError(ctx, err, nil)
	}
	return checkAffectedRows(result, ErrFacilitatorNotFound)
}
