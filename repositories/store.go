package repositories

import (
	"context"
	"errors"

	"github.com/Dosada05/esports-registration/models"
	"github.com/google/uuid"
)

var (
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantConflict = errors.New("team is already registered for this tournament")
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchConflict       = errors.New("match slot already taken for this round")
	ErrFacilitatorNotFound = errors.New("facilitator not found")
	ErrFacilitatorConflict = errors.New("facilitator already exists for this tournament")
	ErrReadOnlyTx          = errors.New("write attempted in a read-only transaction")

	// ErrStoreUnavailable covers timeouts and lost connections. The
	// surrounding transaction is always rolled back.
	ErrStoreUnavailable = errors.New("store unavailable")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	// GetForUpdate reads the tournament and locks its row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	// Delete removes the tournament together with its participants,
	// facilitators and matches.
	Delete(ctx context.Context, id uuid.UUID) error
}

type ParticipantRepository interface {
	// Create assigns Seed and CreatedAt.
	Create(ctx context.Context, participant *models.Participant) error
	Get(ctx context.Context, tournamentID uuid.UUID, teamID string) (*models.Participant, error)
	// ListByTournament returns the roster in seed order.
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Participant, error)
	List(ctx context.Context) ([]*models.Participant, error)
	Update(ctx context.Context, participant *models.Participant) error
	Delete(ctx context.Context, tournamentID uuid.UUID, teamID string) error
}

type MatchRepository interface {
	CreateBatch(ctx context.Context, matches []*models.Match) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	// ListByTournament orders by round, then bracket side.
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error)
	ListByRound(ctx context.Context, tournamentID uuid.UUID, round int) ([]*models.Match, error)
	List(ctx context.Context) ([]*models.Match, error)
	Update(ctx context.Context, match *models.Match) error
}

type FacilitatorRepository interface {
	Create(ctx context.Context, facilitator *models.Facilitator) error
	Exists(ctx context.Context, tournamentID uuid.UUID, userID string) (bool, error)
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Facilitator, error)
	List(ctx context.Context) ([]*models.Facilitator, error)
	Delete(ctx context.Context, tournamentID uuid.UUID, userID string) error
}

// Tx exposes the repositories bound to one unit of work.
type Tx interface {
	Tournaments() TournamentRepository
	Participants() ParticipantRepository
	Matches() MatchRepository
	Facilitators() FacilitatorRepository
}

// Store is the transactional persistence collaborator. Its own repositories
// run outside any transaction and see committed data only.
type Store interface {
	Tx
	// WithinTx runs fn in a transaction that commits when fn returns nil and
	// rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	// WithinReadTx runs fn against one consistent snapshot of committed data.
	// Writes through tx fail.
	WithinReadTx(ctx context.Context, fn func(tx Tx) error) error
}
