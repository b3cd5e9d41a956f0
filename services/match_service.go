package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/esports-registration/metrics"
	"github.com/Dosada05/esports-registration/models"
	"github.com/Dosada05/esports-registration/repositories"
	"github.com/Dosada05/esports-registration/storage"
	"github.com/google/uuid"
)

// Round is one bracket round, matches ordered by bracket side.
type Round struct {
	Round   int             `json:"round"`
	Matches []*models.Match `json:"matches"`
}

// Bracket is a read-only snapshot of a tournament's bracket.
type Bracket struct {
	Tournament   *models.Tournament    `json:"tournament"`
	Participants []*models.Participant `json:"participants"`
	Rounds       []Round               `json:"bracket"`
}

type MatchService interface {
	UpdateMatchResult(ctx context.Context, matchID uuid.UUID, score1, score2 int, actorID string) (*models.Match, error)
	GetBracket(ctx context.Context, tournamentID uuid.UUID) (*Bracket, error)
	SearchMatches(ctx context.Context, params SearchParams) (*SearchResult[models.Match], error)

	recordWalkover(ctx context.Context, tx repositories.Tx, tournament *models.Tournament, match *models.Match, disqualifiedTeamID string, events *afterCommit) error
}

type matchService struct {
	tournamentGuard
	bracket  BracketService
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewMatchService(
	store repositories.Store,
	locker *TournamentLocker,
	bracket BracketService,
	uploader storage.FileUploader,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		tournamentGuard: tournamentGuard{store: store, locker: locker},
		bracket:         bracket,
		uploader:        uploader,
		logger:          logger,
	}
}

func (s *matchService) UpdateMatchResult(ctx context.Context, matchID uuid.UUID, score1, score2 int, actorID string) (*models.Match, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	if score1 < 0 || score2 < 0 {
		return nil, fmt.Errorf("%w: got %d-%d", ErrNegativeScore, score1, score2)
	}
	if score1 == score2 {
		return nil, fmt.Errorf("%w: got %d-%d for match %s", ErrTieNotAllowed, score1, score2, matchID)
	}

	// Матч читается до блокировки только чтобы узнать турнир.
	target, err := s.store.Matches().GetByID(ctx, matchID)
	if err != nil {
		return nil, translateStoreError(err)
	}

	var (
		result *models.Match
		events afterCommit
	)
	err = s.withTournament(ctx, target.TournamentID, func(tx repositories.Tx, t *models.Tournament) error {
		if err := authorizeOrganizer(ctx, tx, t, actorID); err != nil {
			return err
		}
		if t.Status != models.TournamentStatusActive {
			return fmt.Errorf("%w: tournament %s is %s", ErrTournamentNotActive, t.ID, t.Status)
		}

		m, err := tx.Matches().GetByID(ctx, matchID)
		if err != nil {
			return err
		}
		if m.Status != models.MatchStatusScheduled {
			return fmt.Errorf("%w: match %s is %s", ErrMatchNotScheduled, m.ID, m.Status)
		}
		if m.Team1ID == nil || m.Team2ID == nil {
			return fmt.Errorf("%w: match %s has an empty slot", ErrMatchNotScheduled, m.ID)
		}

		winner, loser := *m.Team1ID, *m.Team2ID
		if score2 > score1 {
			winner, loser = loser, winner
		}

		m.Score1, m.Score2 = &score1, &score2
		m.WinnerID = strPtr(winner)
		m.Status = models.MatchStatusCompleted
		if err := tx.Matches().Update(ctx, m); err != nil {
			return fmt.Errorf("failed to save result for match %s: %w", m.ID, err)
		}

		if err := s.settleParticipants(ctx, tx, t.ID, winner, loser, models.ParticipantStatusEliminated); err != nil {
			return err
		}

		if err := s.bracket.advanceIfRoundComplete(ctx, tx, t, m.Round, &events); err != nil {
			return err
		}

		result = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.MatchResults.WithLabelValues(string(models.MatchStatusCompleted)).Inc()
	s.logger.Info("match result recorded",
		slog.String("match_id", result.ID.String()),
		slog.String("tournament_id", result.TournamentID.String()),
		slog.Int("round", result.Round),
		slog.String("winner", derefString(result.WinnerID)),
	)
	events.run()
	return result, nil
}

// recordWalkover resolves match in favour of the side that was not
// disqualified. Scores stay empty.
func (s *matchService) recordWalkover(ctx context.Context, tx repositories.Tx, t *models.Tournament, m *models.Match, disqualifiedTeamID string, events *afterCommit) error {
	if m.Status != models.MatchStatusScheduled {
		return fmt.Errorf("%w: match %s is %s", ErrMatchNotScheduled, m.ID, m.Status)
	}

	opponent := m.Opponent(disqualifiedTeamID)
	m.Score1, m.Score2 = nil, nil
	m.WinnerID = nil
	if opponent != nil {
		m.WinnerID = strPtr(*opponent)
	}
	m.Status = models.MatchStatusWalkover
	if err := tx.Matches().Update(ctx, m); err != nil {
		return fmt.Errorf("failed to record walkover for match %s: %w", m.ID, err)
	}

	if opponent != nil {
		if err := s.settleParticipants(ctx, tx, t.ID, *opponent, disqualifiedTeamID, models.ParticipantStatusDisqualified); err != nil {
			return err
		}
	}

	matchID, tournamentID, winner := m.ID, t.ID, derefString(m.WinnerID)
	events.add(func() {
		metrics.MatchResults.WithLabelValues(string(models.MatchStatusWalkover)).Inc()
		s.logger.Info("walkover recorded",
			slog.String("match_id", matchID.String()),
			slog.String("tournament_id", tournamentID.String()),
			slog.String("disqualified", disqualifiedTeamID),
			slog.String("winner", winner),
		)
	})
	return nil
}

// settleParticipants clears the winner's pending match and takes the loser
// out of the bracket with loserStatus.
func (s *matchService) settleParticipants(ctx context.Context, tx repositories.Tx, tournamentID uuid.UUID, winnerID, loserID string, loserStatus models.ParticipantStatus) error {
	winner, err := tx.Participants().Get(ctx, tournamentID, winnerID)
	if err != nil {
		return fmt.Errorf("failed to load winner %s: %w", winnerID, err)
	}
	winner.NextMatchID = nil
	if err := tx.Participants().Update(ctx, winner); err != nil {
		return fmt.Errorf("failed to update winner %s: %w", winnerID, err)
	}

	loser, err := tx.Participants().Get(ctx, tournamentID, loserID)
	if err != nil {
		return fmt.Errorf("failed to load loser %s: %w", loserID, err)
	}
	loser.NextMatchID = nil
	if loser.Status == models.ParticipantStatusActive {
		loser.Status = loserStatus
	}
	if err := tx.Participants().Update(ctx, loser); err != nil {
		return fmt.Errorf("failed to update loser %s: %w", loserID, err)
	}
	return nil
}

func (s *matchService) GetBracket(ctx context.Context, tournamentID uuid.UUID) (*Bracket, error) {
	var (
		tournament   *models.Tournament
		matches      []*models.Match
		participants []*models.Participant
	)

	// Все три чтения из одного снимка, иначе можно увидеть чемпиона
	// в турнире, который еще Active.
	err := s.store.WithinReadTx(ctx, func(tx repositories.Tx) error {
		var err error
		if tournament, err = tx.Tournaments().GetByID(ctx, tournamentID); err != nil {
			return err
		}
		if matches, err = tx.Matches().ListByTournament(ctx, tournamentID); err != nil {
			return err
		}
		participants, err = tx.Participants().ListByTournament(ctx, tournamentID)
		return err
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	populateTournamentLogoURL(tournament, s.uploader)

	rounds := make([]Round, 0)
	for _, m := range matches {
		if len(rounds) == 0 || rounds[len(rounds)-1].Round != m.Round {
			rounds = append(rounds, Round{Round: m.Round})
		}
		last := &rounds[len(rounds)-1]
		last.Matches = append(last.Matches, m)
	}

	return &Bracket{
		Tournament:   tournament,
		Participants: participants,
		Rounds:       rounds,
	}, nil
}

func (s *matchService) SearchMatches(ctx context.Context, params SearchParams) (*SearchResult[models.Match], error) {
	var (
		matches []*models.Match
		err     error
	)
	if id, parseErr := uuid.Parse(params.Filters["tournamentId"]); parseErr == nil {
		matches, err = s.store.Matches().ListByTournament(ctx, id)
	} else {
		matches, err = s.store.Matches().List(ctx)
	}
	if err != nil {
		return nil, translateStoreError(err)
	}
	return search(matches, matchSchema, params, params.has("matchId"), ErrMatchNotFound)
}
