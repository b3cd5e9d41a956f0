package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/esports-registration/models"
	"github.com/google/uuid"
)

// MemoryStore keeps everything in process memory. Transactions are fully
// serialized and work on a copy of the committed state, so a failed
// transaction leaves nothing behind. Committed data is never modified in
// place: every write swaps in a new memoryData. Used for local runs and tests.
type MemoryStore struct {
	txMu    sync.Mutex   // один писатель за раз
	mu      sync.RWMutex // защищает data
	data    *memoryData
	seq     int64
	timeout time.Duration
	now     func() time.Time
}

type memoryData struct {
	tournaments  []*models.Tournament
	participants []*models.Participant
	matches      []*models.Match
	facilitators []*models.Facilitator
}

func (d *memoryData) clone() *memoryData {
	return &memoryData{
		tournaments:  append([]*models.Tournament(nil), d.tournaments...),
		participants: append([]*models.Participant(nil), d.participants...),
		matches:      append([]*models.Match(nil), d.matches...),
		facilitators: append([]*models.Facilitator(nil), d.facilitators...),
	}
}

func NewMemoryStore(timeout time.Duration) *MemoryStore {
	return &MemoryStore{
		data:    &memoryData{},
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Tournaments() TournamentRepository {
	return &memoryTournamentRepository{memoryAccess{store: s}}
}

func (s *MemoryStore) Participants() ParticipantRepository {
	return &memoryParticipantRepository{memoryAccess{store: s}}
}

func (s *MemoryStore) Matches() MatchRepository {
	return &memoryMatchRepository{memoryAccess{store: s}}
}

func (s *MemoryStore) Facilitators() FacilitatorRepository {
	return &memoryFacilitatorRepository{memoryAccess{store: s}}
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.mu.RLock()
	working := s.data.clone()
	seq := s.seq
	s.mu.RUnlock()

	tx := &memoryTx{access: memoryAccess{store: s, tx: working, seq: &seq}}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	s.data = working
	s.seq = seq
	s.mu.Unlock()
	return nil
}

// WithinReadTx hands fn the memoryData committed at call time.
func (s *MemoryStore) WithinReadTx(ctx context.Context, fn func(tx Tx) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.mu.RLock()
	snapshot := s.data
	s.mu.RUnlock()

	return fn(&memoryTx{access: memoryAccess{store: s, tx: snapshot, readOnly: true}})
}

type memoryTx struct {
	access memoryAccess
}

func (t *memoryTx) Tournaments() TournamentRepository {
	return &memoryTournamentRepository{t.access}
}

func (t *memoryTx) Participants() ParticipantRepository {
	return &memoryParticipantRepository{t.access}
}

func (t *memoryTx) Matches() MatchRepository {
	return &memoryMatchRepository{t.access}
}

func (t *memoryTx) Facilitators() FacilitatorRepository {
	return &memoryFacilitatorRepository{t.access}
}

// memoryAccess routes repository calls either to a transaction's working
// copy or, outside a transaction, to the committed state.
type memoryAccess struct {
	store    *MemoryStore
	tx       *memoryData
	seq      *int64
	readOnly bool
}

func (a memoryAccess) read(ctx context.Context, fn func(d *memoryData) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if a.tx != nil {
		return fn(a.tx)
	}
	a.store.mu.RLock()
	defer a.store.mu.RUnlock()
	return fn(a.store.data)
}

func (a memoryAccess) write(ctx context.Context, fn func(d *memoryData, nextSeq func() int64) error) error {
	if a.readOnly {
		return ErrReadOnlyTx
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if a.tx != nil {
		return fn(a.tx, func() int64 { *a.seq++; return *a.seq })
	}
	a.store.txMu.Lock()
	defer a.store.txMu.Unlock()

	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	working := a.store.data.clone()
	if err := fn(working, func() int64 { a.store.seq++; return a.store.seq }); err != nil {
		return err
	}
	a.store.data = working
	return nil
}

func (a memoryAccess) now() time.Time {
	return a.store.now()
}

type memoryTournamentRepository struct {
	memoryAccess
}

func (r *memoryTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	return r.write(ctx, func(d *memoryData, _ func() int64) error {
		t.CreatedAt = r.now()
		cp := *t
		d.tournaments = append(d.tournaments, &cp)
		return nil
	})
}

func (r *memoryTournamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	var out *models.Tournament
	err := r.read(ctx, func(d *memoryData) error {
		for _, t := range d.tournaments {
			if t.ID == id {
				cp := *t
				out = &cp
				return nil
			}
		}
		return ErrTournamentNotFound
	})
	return out, err
}

// GetForUpdate needs no extra locking: transactions are already serialized.
func (r *memoryTournamentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryTournamentRepository) List(ctx context.Context) ([]*models.Tournament, error) {
	out := make([]*models.Tournament, 0)
	err := r.read(ctx, func(d *memoryData) error {
		for _, t := range d.tournaments {
			cp := *t
			out = append(out, &cp)
		}
		return nil
	})
	return out, err
}

func (r *memoryTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	return r.write(ctx, func(d *memoryData, _ func() int64) error {
		for i, existing := range d.tournaments {
			if existing.ID == t.ID {
				cp := *t
				d.tournaments[i] = &cp
				return nil
			}
		}
		return ErrTournamentNotFound
	})
}

func (r *memoryTournamentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.write(ctx, func(d *memoryData, _ func() int64) error {
		idx := -1
		for i, t := range d.tournaments {
			if t.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrTournamentNotFound
		}
		d.tournaments = append(d.tournaments[:idx:idx], d.tournaments[idx+1:]...)
		d.participants = filterOut(d.participants, func(p *models.Participant) bool { return p.TournamentID == id })
		d.matches = filterOut(d.matches, func(m *models.Match) bool { return m.TournamentID == id })
		d.facilitators = filterOut(d.facilitators, func(f *models.Facilitator) bool { return f.TournamentID == id })
		return nil
	})
}

func filterOut[T any](items []T, drop func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if !drop(it) {
			out = append(out, it)
		}
	}
	return out
}

func hasTournament(d *memoryData, id uuid.UUID) bool {
	for _, t := range d.tournaments {
		if t.ID == id {
			return true
		}
	}
	return false
}

type memoryParticipantRepository struct {
	memoryAccess
}

func (r *memoryParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	return r.write(ctx, func(d *memoryData, nextSeq func() int64) error {
		if !hasTournament(d, p.TournamentID) {
			return ErrTournamentNotFound
		}
		for _, existing := range d.participants {
			if existing.TournamentID == p.TournamentID && existing.TeamID == p.TeamID {
				return ErrParticipantConflict
			}
		}
		p.Seed = nextSeq()
		p.CreatedAt = r.now()
		cp := *p
		d.participants = append(d.participants, &cp)
		return nil
	})
}

func (r *memoryParticipantRepository) Get(ctx context.Context, tournamentID uuid.UUID, teamID string) (*models.Participant, error) {
	var out *models.Participant
	err := r.read(ctx, func(d *memoryData) error {
		for _, p := range d.participants {
			if p.TournamentID == tournamentID && p.TeamID == teamID {
				cp := *p
				out = &cp
				return nil
			}
		}
		return ErrParticipantNotFound
	})
	return out, err
}

func (r *memoryParticipantRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Participant, error) {
	return r.list(ctx, func(p *models.Participant) bool { return p.TournamentID == tournamentID })
}

func (r *memoryParticipantRepository) List(ctx context.Context) ([]*models.Participant, error) {
	return r.list(ctx, func(*models.Participant) bool { return true })
}

func (r *memoryParticipantRepository) list(ctx context.Context, keep func(*models.Participant) bool) ([]*models.Participant, error) {
	out := make([]*models.Participant, 0)
	err := r.read(ctx, func(d *memoryData) error {
		for _, p := range d.participants {
			if keep(p) {
				cp := *p
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seed < out[j].Seed })
	return out, err
}

func (r *memoryParticipantRepository) Update(ctx context.Context, p *models.Participant) error {
	return r.write(ctx, func(d *memoryData, _ func() int64) error {
		for i, existing := range d.participants {
			if existing.TournamentID == p.TournamentID && existing.TeamID == p.TeamID {
				cp := *p
				d.participants[i] = &cp
				return nil
			}
		}
		return ErrParticipantNotFound
	})
}

func (r *memoryParticipantRepository) Delete(ctx context.Context, tournamentID uuid.UUID, teamID string) error {
	return r.write(ctx, func(d *memoryData, _ func() int64) error {
		before := len(d.participants)
		d.participants = filterOut(d.participants, func(p *models.Participant) bool {
			return p.TournamentID == tournamentID && p.TeamID == teamID
		})
		if len(d.participants) == before {
			return ErrParticipantNotFound
		}
		return nil
	})
}

type memoryMatchRepository struct {
	memoryAccess
}

func (r *memoryMatchRepository) CreateBatch(ctx context.Context, matches []*models.Match) error {
	return r.write(ctx, func(d *memoryData, _ func() int64) error {
		for _, m := range matches {
			if !hasTournament(d, m.TournamentID) {
				return ErrTournamentNotFound
			}
			for _, existing := range d.matches {
				if existing.TournamentID == m.TournamentID && existing.Round == m.Round && existing.BracketSide == m.BracketSide {
					return fmt.Errorf("failed to insert match round %d side %d: %w", m.Round, m.BracketSide, ErrMatchConflict)
				}
			}
			now := r.now()
			m.CreatedAt, m.UpdatedAt = now, now
			cp := *m
			d.matches = append(d.matches, &cp)
		}
		return nil
	})
}

func (r *memoryMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	var out *models.Match
	err := r.read(ctx, func(d *memoryData) error {
		for _, m := range d.matches {
			if m.ID == id {
				cp := *m
				out = &cp
				return nil
			}
		}
		return ErrMatchNotFound
	})
	return out, err
}

func (r *memoryMatchRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Match, error) {
	out, err := r.list(ctx, func(m *models.Match) bool { return m.TournamentID == tournamentID })
	sortMatches(out)
	return out, err
}

func (r *memoryMatchRepository) ListByRound(ctx context.Context, tournamentID uuid.UUID, round int) ([]*models.Match, error) {
	out, err := r.list(ctx, func(m *models.Match) bool { return m.TournamentID == tournamentID && m.Round == round })
	sortMatches(out)
	return out, err
}

func (r *memoryMatchRepository) List(ctx context.Context) ([]*models.Match, error) {
	return r.list(ctx, func(*models.Match) bool { return true })
}

func (r *memoryMatchRepository) list(ctx context.Context, keep func(*models.Match) bool) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	err := r.read(ctx, func(d *memoryData) error {
		for _, m := range d.matches {
			if keep(m) {
				cp := *m
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}

func sortMatches(matches []*models.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Round != matches[j].Round {
			return matches[i].Round < matches[j].Round
		}
		return matches[i].BracketSide < matches[j].BracketSide
	})
}

func (r *memoryMatchRepository) Update(ctx context.Context, m *models.Match) error {
	return r.write(ctx, func(d *memoryData, _ func() int64) error {
		for i, existing := range d.matches {
			if existing.ID == m.ID {
				m.UpdatedAt = r.now()
				cp := *m
				d.matches[i] = &cp
				return nil
			}
		}
		return ErrMatchNotFound
	})
}

type memoryFacilitatorRepository struct {
	memoryAccess
}

func (r *memoryFacilitatorRepository) Create(ctx context.Context, f *models.Facilitator) error {
	return r.write(ctx, func(d *memoryData, _ func() int64) error {
		if !hasTournament(d, f.TournamentID) {
			return ErrTournamentNotFound
		}
		for _, existing := range d.facilitators {
			if existing.TournamentID == f.TournamentID && existing.UserID == f.UserID {
				return ErrFacilitatorConflict
			}
		}
		f.CreatedAt = r.now()
		cp := *f
		d.facilitators = append(d.facilitators, &cp)
		return nil
	})
}

func (r *memoryFacilitatorRepository) Exists(ctx context.Context, tournamentID uuid.UUID, userID string) (bool, error) {
	found := false
	err := r.read(ctx, func(d *memoryData) error {
		for _, f := range d.facilitators {
			if f.TournamentID == tournamentID && f.UserID == userID {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *memoryFacilitatorRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]*models.Facilitator, error) {
	return r.list(ctx, func(f *models.Facilitator) bool { return f.TournamentID == tournamentID })
}

func (r *memoryFacilitatorRepository) List(ctx context.Context) ([]*models.Facilitator, error) {
	return r.list(ctx, func(*models.Facilitator) bool { return true })
}

func (r *memoryFacilitatorRepository) list(ctx context.Context, keep func(*models.Facilitator) bool) ([]*models.Facilitator, error) {
	out := make([]*models.Facilitator, 0)
	err := r.read(ctx, func(d *memoryData) error {
		for _, f := range d.facilitators {
			if keep(f) {
				cp := *f
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}

func (r *memoryFacilitatorRepository) Delete(ctx context.Context, tournamentID uuid.UUID, userID string) error {
	return r.write(ctx, func(d *memoryData, _ func() int64) error {
		before := len(d.facilitators)
		d.facilitators = filterOut(d.facilitators, func(f *models.Facilitator) bool {
			return f.TournamentID == tournamentID && f.UserID == userID
		})
		if len(d.facilitators) == before {
			return ErrFacilitatorNotFound
		}
		return nil
	})
}
