package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/esports-registration/brackets"
	"github.com/Dosada05/esports-registration/metrics"
	"github.com/Dosada05/esports-registration/models"
	"github.com/Dosada05/esports-registration/repositories"
	"github.com/google/uuid"
)

// BracketService builds and advances single-elimination brackets. The
// unexported methods expect the caller to hold the tournament lock and an
// open transaction.
type BracketService interface {
	// AdvanceRound closes out round and creates round+1 when every match of
	// round is resolved. Calling it again for the same round is a no-op.
	AdvanceRound(ctx context.Context, tournamentID uuid.UUID, round int) error

	generateInitialRound(ctx context.Context, tx repositories.Tx, tournament *models.Tournament, events *afterCommit) error
	advanceRoundTx(ctx context.Context, tx repositories.Tx, tournament *models.Tournament, round int, events *afterCommit) error
	advanceIfRoundComplete(ctx context.Context, tx repositories.Tx, tournament *models.Tournament, round int, events *afterCommit) error
}

type bracketService struct {
	tournamentGuard
	logger *slog.Logger
	now    func() time.Time
}

func NewBracketService(store repositories.Store, locker *TournamentLocker, logger *slog.Logger) BracketService {
	return &bracketService{
		tournamentGuard: tournamentGuard{store: store, locker: locker},
		logger:          logger,
		now:             time.Now,
	}
}

func (s *bracketService) AdvanceRound(ctx context.Context, tournamentID uuid.UUID, round int) error {
	var events afterCommit
	err := s.withTournament(ctx, tournamentID, func(tx repositories.Tx, t *models.Tournament) error {
		return s.advanceIfRoundComplete(ctx, tx, t, round, &events)
	})
	if err != nil {
		return err
	}
	events.run()
	return nil
}

func (s *bracketService) generateInitialRound(ctx context.Context, tx repositories.Tx, t *models.Tournament, events *afterCommit) error {
	roster, err := tx.Participants().ListByTournament(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("failed to list participants for tournament %s: %w", t.ID, err)
	}

	active := make([]*models.Participant, 0, len(roster))
	bySeedOrder := make([]string, 0, len(roster))
	for _, p := range roster {
		if p.IsActive() {
			active = append(active, p)
			bySeedOrder = append(bySeedOrder, p.TeamID)
		}
	}

	round, err := brackets.GenerateInitialRound(bySeedOrder)
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughParticipants) {
			return fmt.Errorf("%w: tournament %s has %d", ErrNotEnoughForBracket, t.ID, len(active))
		}
		return err
	}

	participants := make(map[string]*models.Participant, len(active))
	for _, p := range active {
		participants[p.TeamID] = p
	}

	matches := s.buildMatches(t, 1, round.Pairings)
	if err := tx.Matches().CreateBatch(ctx, matches); err != nil {
		return fmt.Errorf("failed to save round 1 for tournament %s: %w", t.ID, err)
	}

	for _, m := range matches {
		for _, teamID := range []string{*m.Team1ID, *m.Team2ID} {
			p := participants[teamID]
			p.Round = 1
			p.BracketSide = m.BracketSide
			p.NextMatchID = &m.ID
			if err := tx.Participants().Update(ctx, p); err != nil {
				return fmt.Errorf("failed to place team %s: %w", teamID, err)
			}
		}
	}

	for i, teamID := range round.Byes {
		p := participants[teamID]
		p.Round = 2
		p.BracketSide = i
		p.Byes++
		p.NextMatchID = nil
		if err := tx.Participants().Update(ctx, p); err != nil {
			return fmt.Errorf("failed to give team %s a bye: %w", teamID, err)
		}
	}

	tournamentID := t.ID
	events.add(func() {
		metrics.RoundsGenerated.Inc()
		s.logger.Info("initial round generated",
			slog.String("tournament_id", tournamentID.String()),
			slog.Int("participants", len(active)),
			slog.Int("bracket_size", round.Size),
			slog.Int("matches", len(matches)),
			slog.Int("byes", len(round.Byes)),
		)
	})
	return nil
}

// advanceIfRoundComplete advances only when round has matches and none of
// them is still Scheduled.
func (s *bracketService) advanceIfRoundComplete(ctx context.Context, tx repositories.Tx, t *models.Tournament, round int, events *afterCommit) error {
	matches, err := tx.Matches().ListByRound(ctx, t.ID, round)
	if err != nil {
		return fmt.Errorf("failed to list round %d matches: %w", round, err)
	}
	if len(matches) == 0 {
		return nil
	}
	for _, m := range matches {
		if !m.IsResolved() {
			return nil
		}
	}
	return s.advanceRoundTx(ctx, tx, t, round, events)
}

func (s *bracketService) advanceRoundTx(ctx context.Context, tx repositories.Tx, t *models.Tournament, round int, events *afterCommit) error {
	if t.Status != models.TournamentStatusActive {
		return nil
	}

	next, err := tx.Matches().ListByRound(ctx, t.ID, round+1)
	if err != nil {
		return fmt.Errorf("failed to check round %d matches: %w", round+1, err)
	}
	if len(next) > 0 {
		return nil
	}

	current, err := tx.Matches().ListByRound(ctx, t.ID, round)
	if err != nil {
		return fmt.Errorf("failed to list round %d matches: %w", round, err)
	}
	roster, err := tx.Participants().ListByTournament(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("failed to list participants for tournament %s: %w", t.ID, err)
	}

	participants := make(map[string]*models.Participant, len(roster))
	for _, p := range roster {
		participants[p.TeamID] = p
	}

	// Победители раунда в порядке bracketSide, затем прошедшие по bye.
	pool := make([]*models.Participant, 0)
	inPool := make(map[string]bool)
	for _, m := range current {
		if m.WinnerID == nil {
			continue
		}
		p, ok := participants[*m.WinnerID]
		if ok && p.IsActive() && !inPool[p.TeamID] {
			pool = append(pool, p)
			inPool[p.TeamID] = true
		}
	}
	for _, p := range roster {
		if p.IsActive() && p.Round == round+1 && p.NextMatchID == nil && !inPool[p.TeamID] {
			pool = append(pool, p)
			inPool[p.TeamID] = true
		}
	}

	switch len(pool) {
	case 0:
		tournamentID := t.ID
		events.add(func() {
			s.logger.Warn("round closed with no eligible teams, completing tournament without champion",
				slog.String("tournament_id", tournamentID.String()),
				slog.Int("round", round),
			)
		})
		return s.completeTournament(ctx, tx, t, nil, events)
	case 1:
		return s.completeTournament(ctx, tx, t, pool[0], events)
	}

	teamIDs := make([]string, len(pool))
	for i, p := range pool {
		teamIDs[i] = p.TeamID
	}
	pairings, carry := brackets.PairSequential(teamIDs)

	matches := s.buildMatches(t, round+1, pairings)
	if err := tx.Matches().CreateBatch(ctx, matches); err != nil {
		return fmt.Errorf("failed to save round %d for tournament %s: %w", round+1, t.ID, err)
	}

	for _, m := range matches {
		for _, teamID := range []string{*m.Team1ID, *m.Team2ID} {
			p := participants[teamID]
			p.Round = round + 1
			p.BracketSide = m.BracketSide
			p.NextMatchID = &m.ID
			if err := tx.Participants().Update(ctx, p); err != nil {
				return fmt.Errorf("failed to place team %s: %w", teamID, err)
			}
		}
	}

	if carry != nil {
		p := participants[*carry]
		p.Round = round + 2
		p.BracketSide = len(matches)
		p.Byes++
		p.NextMatchID = nil
		if err := tx.Participants().Update(ctx, p); err != nil {
			return fmt.Errorf("failed to carry team %s: %w", p.TeamID, err)
		}
	}

	tournamentID := t.ID
	events.add(func() {
		metrics.RoundsGenerated.Inc()
		s.logger.Info("round advanced",
			slog.String("tournament_id", tournamentID.String()),
			slog.Int("round", round+1),
			slog.Int("matches", len(matches)),
			slog.Bool("carried_bye", carry != nil),
		)
	})
	return nil
}

func (s *bracketService) completeTournament(ctx context.Context, tx repositories.Tx, t *models.Tournament, champion *models.Participant, events *afterCommit) error {
	if champion != nil {
		champion.Status = models.ParticipantStatusChampion
		champion.NextMatchID = nil
		if err := tx.Participants().Update(ctx, champion); err != nil {
			return fmt.Errorf("failed to crown team %s: %w", champion.TeamID, err)
		}
		t.WinnerTeamID = strPtr(champion.TeamID)
	}

	t.Status = models.TournamentStatusCompleted
	if err := tx.Tournaments().Update(ctx, t); err != nil {
		return fmt.Errorf("failed to complete tournament %s: %w", t.ID, err)
	}

	tournamentID, winner := t.ID, derefString(t.WinnerTeamID)
	events.add(func() {
		metrics.TournamentTransitions.WithLabelValues(string(models.TournamentStatusCompleted)).Inc()
		s.logger.Info("tournament completed",
			slog.String("tournament_id", tournamentID.String()),
			slog.String("champion", winner),
		)
	})
	return nil
}

func (s *bracketService) buildMatches(t *models.Tournament, round int, pairings []brackets.Pairing) []*models.Match {
	matchTime := defaultMatchTime(t, s.now())
	matches := make([]*models.Match, 0, len(pairings))
	for _, pr := range pairings {
		matches = append(matches, &models.Match{
			ID:           uuid.New(),
			TournamentID: t.ID,
			Round:        round,
			BracketSide:  pr.BracketSide,
			Team1ID:      strPtr(pr.Team1ID),
			Team2ID:      strPtr(pr.Team2ID),
			MatchTime:    matchTime,
			Location:     t.Location,
			Status:       models.MatchStatusScheduled,
		})
	}
	return matches
}
