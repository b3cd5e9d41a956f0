package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SQLExecutor is satisfied by both *sqlx.DB and *sqlx.Tx.
type SQLExecutor interface {
	sqlx.ExtContext
}

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqReadOnlyTransaction = "25006"
)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError // Возвращаем переданную ошибку "не найдено"
	}
	return nil
}

// handlePQError переводит ошибки драйвера в ошибки репозитория.
func handlePQError(ctx context.Context, err error, conflictErr error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			if conflictErr != nil {
				return conflictErr
			}
		case pqForeignKeyViolation:
			return ErrTournamentNotFound
		case pqReadOnlyTransaction:
			return ErrReadOnlyTx
		}
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

func handleNoRows(ctx context.Context, err error, notFoundErr error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}
	return handlePQError(ctx, err, nil)
}
