package repositories

import (
	"context"
	"fmt"

	"github.com/Dosada05/esports-registration/models"
	"github.com/google/uuid"
)

const tournamentColumns = `
	id, name, start_date, end_date, location, status,
	created_by, winner_team_id, logo_key, created_at`

type postgresTournamentRepository struct {
	exec SQLExecutor
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			id, name, start_date, end_date, location, status, created_by, logo_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.exec.QueryRowxContext(ctx, query,
		t.ID, t.Name, t.StartDate, t.EndDate, t.Location, t.Status, t.CreatedBy, t.LogoKey,
	).Scan(&t.CreatedAt)

	return handlePQError(ctx, err, nil)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	return r.get(ctx, `SELECT`+tournamentColumns+` FROM tournaments WHERE id = $1`, id)
}

func (r *postgresTournamentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	return r.get(ctx, `SELECT`+tournamentColumns+` FROM tournaments WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresTournamentRepository) get(ctx context.Context, query string, id uuid.UUID) (*models.Tournament, error) {
	t := &models.Tournament{}
	if err := r.exec.QueryRowxContext(ctx, query, id).StructScan(t); err != nil {
		return nil, handleNoRows(ctx, err, ErrTournamentNotFound)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments ORDER BY created_at, id`

	rows, err := r.exec.QueryxContext(ctx, query)
	if err != nil {
		return nil, handlePQError(ctx, err, nil)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t := &models.Tournament{}
		if err := rows.StructScan(t); err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePQError(ctx, err, nil)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1, start_date = $2, end_date = $3, location = $4, status = $5,
			winner_team_id = $6, logo_key = $7
		WHERE id = $8`

	result, err := r.exec.ExecContext(ctx, query,
		t.Name, t.StartDate, t.EndDate, t.Location, t.Status,
		t.WinnerTeamID, t.LogoKey, t.ID,
	)
	if err != nil {
		return handlePQError(ctx, err, nil)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// participants, facilitators и matches удаляются каскадно (ON DELETE CASCADE)
	result, err := r.exec.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return handlePQError(ctx, err, nil)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
