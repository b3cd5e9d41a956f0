package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type PostgresStore struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPostgresStore wraps db. Every transaction is bounded by timeout.
func NewPostgresStore(db *sqlx.DB, timeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, timeout: timeout}
}

func (s *PostgresStore) Tournaments() TournamentRepository {
	return &postgresTournamentRepository{exec: s.db}
}

func (s *PostgresStore) Participants() ParticipantRepository {
	return &postgresParticipantRepository{exec: s.db}
}

func (s *PostgresStore) Matches() MatchRepository {
	return &postgresMatchRepository{exec: s.db}
}

func (s *PostgresStore) Facilitators() FacilitatorRepository {
	return &postgresFacilitatorRepository{exec: s.db}
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return handlePQError(ctx, fmt.Errorf("failed to begin transaction: %w", err), nil)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&postgresTx{tx: tx}); err != nil {
		if ctx.Err() != nil && !errors.Is(err, ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return handlePQError(ctx, fmt.Errorf("failed to commit transaction: %w", err), nil)
	}
	return nil
}

// WithinReadTx runs fn in a READ ONLY REPEATABLE READ transaction, so every
// query sees the snapshot taken by the first one. sqlx.Tx is bound to a
// single connection: fn must not query through tx from several goroutines.
func (s *PostgresStore) WithinReadTx(ctx context.Context, fn func(tx Tx) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return handlePQError(ctx, fmt.Errorf("failed to begin read transaction: %w", err), nil)
	}
	defer func() { _ = tx.Rollback() }() // после Commit вернет sql.ErrTxDone

	if err := fn(&postgresTx{tx: tx}); err != nil {
		if ctx.Err() != nil && !errors.Is(err, ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return handlePQError(ctx, fmt.Errorf("failed to commit read transaction: %w", err), nil)
	}
	return nil
}

type postgresTx struct {
	tx *sqlx.Tx
}

func (t *postgresTx) Tournaments() TournamentRepository {
	return &postgresTournamentRepository{exec: t.tx}
}

func (t *postgresTx) Participants() ParticipantRepository {
	return &postgresParticipantRepository{exec: t.tx}
}

func (t *postgresTx) Matches() MatchRepository {
	return &postgresMatchRepository{exec: t.tx}
}

func (t *postgresTx) Facilitators() FacilitatorRepository {
	return &postgresFacilitatorRepository{exec: t.tx}
}
