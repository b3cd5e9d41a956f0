package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/esports-registration/models"
	"github.com/Dosada05/esports-registration/repositories"
	"github.com/google/uuid"
)

// Informational messages for "nothing to change" outcomes. They are not errors.
const (
	MsgTeamNotFound        = "Team not found in this tournament."
	MsgFacilitatorNotFound = "Facilitator not found in this tournament."
)

// RosterResult reports the outcome of a roster change. Changed is false when
// the target was absent and nothing was modified; Message explains why.
type RosterResult struct {
	Changed     bool                  `json:"changed"`
	Message     string                `json:"message,omitempty"`
	Participant *models.Participant   `json:"participant,omitempty"`
	Facilitator *models.Facilitator   `json:"facilitator,omitempty"`
	Roster      []*models.Participant `json:"roster,omitempty"`
}

type ParticipantService interface {
	AddParticipant(ctx context.Context, tournamentID uuid.UUID, teamID, actorID string) (*RosterResult, error)
	RemoveParticipant(ctx context.Context, tournamentID uuid.UUID, teamID, actorID string) (*RosterResult, error)
	DisqualifyParticipant(ctx context.Context, tournamentID uuid.UUID, teamID, actorID string) (*RosterResult, error)
	AddFacilitator(ctx context.Context, tournamentID uuid.UUID, userID, actorID string) (*RosterResult, error)
	RemoveFacilitator(ctx context.Context, tournamentID uuid.UUID, userID, actorID string) (*RosterResult, error)
	SearchParticipants(ctx context.Context, params SearchParams) (*SearchResult[models.Participant], error)
	SearchFacilitators(ctx context.Context, params SearchParams) (*SearchResult[models.Facilitator], error)
}

type participantService struct {
	tournamentGuard
	matches MatchService
	bracket BracketService
	logger  *slog.Logger
}

func NewParticipantService(
	store repositories.Store,
	locker *TournamentLocker,
	matches MatchService,
	bracket BracketService,
	logger *slog.Logger,
) ParticipantService {
	return &participantService{
		tournamentGuard: tournamentGuard{store: store, locker: locker},
		matches:         matches,
		bracket:         bracket,
		logger:          logger,
	}
}

func (s *participantService) AddParticipant(ctx context.Context, tournamentID uuid.UUID, teamID, actorID string) (*RosterResult, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, ErrTeamIDRequired
	}

	result := &RosterResult{Changed: true}
	err := s.withTournament(ctx, tournamentID, func(tx repositories.Tx, t *models.Tournament) error {
		if t.Status != models.TournamentStatusUpcoming {
			return fmt.Errorf("%w: registration is closed, tournament %s is %s", ErrTournamentNotUpcoming, t.ID, t.Status)
		}

		_, err := tx.Participants().Get(ctx, tournamentID, teamID)
		switch {
		case err == nil:
			return ErrTeamAlreadyRegistered
		case !errors.Is(err, repositories.ErrParticipantNotFound):
			return err
		}

		p := &models.Participant{
			TournamentID: tournamentID,
			TeamID:       teamID,
			Round:        1,
			Status:       models.ParticipantStatusActive,
		}
		if err := tx.Participants().Create(ctx, p); err != nil {
			return err
		}
		result.Participant = p

		roster, err := tx.Participants().ListByTournament(ctx, tournamentID)
		if err != nil {
			return err
		}
		result.Roster = roster
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("team registered",
		slog.String("tournament_id", tournamentID.String()),
		slog.String("team_id", teamID),
		slog.Int64("seed", result.Participant.Seed),
	)
	return result, nil
}

func (s *participantService) RemoveParticipant(ctx context.Context, tournamentID uuid.UUID, teamID, actorID string) (*RosterResult, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}

	result := &RosterResult{}
	err := s.withTournament(ctx, tournamentID, func(tx repositories.Tx, t *models.Tournament) error {
		// После старта состав меняется только через дисквалификацию.
		if t.Status != models.TournamentStatusUpcoming {
			result.Message = MsgTeamNotFound
			return nil
		}

		err := tx.Participants().Delete(ctx, tournamentID, teamID)
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			result.Message = MsgTeamNotFound
			return nil
		}
		if err != nil {
			return err
		}

		result.Changed = true
		roster, err := tx.Participants().ListByTournament(ctx, tournamentID)
		if err != nil {
			return err
		}
		result.Roster = roster
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		s.logger.Info("team removed",
			slog.String("tournament_id", tournamentID.String()),
			slog.String("team_id", teamID),
		)
	}
	return result, nil
}

func (s *participantService) DisqualifyParticipant(ctx context.Context, tournamentID uuid.UUID, teamID, actorID string) (*RosterResult, error) {
	result := &RosterResult{}
	var events afterCommit
	err := s.withTournament(ctx, tournamentID, func(tx repositories.Tx, t *models.Tournament) error {
		if err := authorizeOrganizer(ctx, tx, t, actorID); err != nil {
			return err
		}
		if t.IsFinished() {
			return fmt.Errorf("%w: tournament %s is %s", ErrTournamentFinished, t.ID, t.Status)
		}

		p, err := tx.Participants().Get(ctx, tournamentID, teamID)
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			result.Message = MsgTeamNotFound
			return nil
		}
		if err != nil {
			return err
		}
		result.Participant = p
		if p.Status == models.ParticipantStatusDisqualified {
			return nil
		}

		pendingMatchID := p.NextMatchID
		p.Status = models.ParticipantStatusDisqualified
		p.NextMatchID = nil
		if err := tx.Participants().Update(ctx, p); err != nil {
			return fmt.Errorf("failed to disqualify team %s: %w", teamID, err)
		}
		result.Changed = true

		if t.Status != models.TournamentStatusActive {
			return nil
		}

		round := p.Round
		if pendingMatchID != nil {
			m, err := tx.Matches().GetByID(ctx, *pendingMatchID)
			if err != nil {
				return err
			}
			if m.Status == models.MatchStatusScheduled && m.HasTeam(teamID) {
				if err := s.matches.recordWalkover(ctx, tx, t, m, teamID, &events); err != nil {
					return err
				}
				round = m.Round
			}
		}

		// A bye holder leaving can also close a round that is otherwise done.
		return s.bracket.advanceIfRoundComplete(ctx, tx, t, round, &events)
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		s.logger.Info("team disqualified",
			slog.String("tournament_id", tournamentID.String()),
			slog.String("team_id", teamID),
		)
	}
	events.run()
	return result, nil
}

func (s *participantService) AddFacilitator(ctx context.Context, tournamentID uuid.UUID, userID, actorID string) (*RosterResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	result := &RosterResult{Changed: true}
	err := s.store.WithinTx(ctx, func(tx repositories.Tx) error {
		t, err := tx.Tournaments().GetByID(ctx, tournamentID)
		if err != nil {
			return err
		}
		if err := authorizeOrganizer(ctx, tx, t, actorID); err != nil {
			return err
		}

		f := &models.Facilitator{TournamentID: tournamentID, UserID: userID}
		if err := tx.Facilitators().Create(ctx, f); err != nil {
			return err
		}
		result.Facilitator = f
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}
	return result, nil
}

func (s *participantService) RemoveFacilitator(ctx context.Context, tournamentID uuid.UUID, userID, actorID string) (*RosterResult, error) {
	result := &RosterResult{}
	err := s.store.WithinTx(ctx, func(tx repositories.Tx) error {
		t, err := tx.Tournaments().GetByID(ctx, tournamentID)
		if err != nil {
			return err
		}
		if err := authorizeOrganizer(ctx, tx, t, actorID); err != nil {
			return err
		}

		err = tx.Facilitators().Delete(ctx, tournamentID, userID)
		if errors.Is(err, repositories.ErrFacilitatorNotFound) {
			result.Message = MsgFacilitatorNotFound
			return nil
		}
		if err != nil {
			return err
		}
		result.Changed = true
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}
	return result, nil
}

func (s *participantService) SearchParticipants(ctx context.Context, params SearchParams) (*SearchResult[models.Participant], error) {
	var (
		participants []*models.Participant
		err          error
	)
	if id, parseErr := uuid.Parse(params.Filters["tournamentId"]); parseErr == nil {
		participants, err = s.store.Participants().ListByTournament(ctx, id)
	} else {
		participants, err = s.store.Participants().List(ctx)
	}
	if err != nil {
		return nil, translateStoreError(err)
	}
	scoped := params.has("tournamentId") && params.has("teamId")
	return search(participants, participantSchema, params, scoped, ErrParticipantNotFound)
}

func (s *participantService) SearchFacilitators(ctx context.Context, params SearchParams) (*SearchResult[models.Facilitator], error) {
	var (
		facilitators []*models.Facilitator
		err          error
	)
	if id, parseErr := uuid.Parse(params.Filters["tournamentId"]); parseErr == nil {
		facilitators, err = s.store.Facilitators().ListByTournament(ctx, id)
	} else {
		facilitators, err = s.store.Facilitators().List(ctx)
	}
	if err != nil {
		return nil, translateStoreError(err)
	}
	scoped := params.has("tournamentId") && params.has("userId")
	return search(facilitators, facilitatorSchema, params, scoped, ErrFacilitatorNotFound)
}
