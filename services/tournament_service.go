package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/Dosada05/esports-registration/metrics"
	"github.com/Dosada05/esports-registration/models"
	"github.com/Dosada05/esports-registration/repositories"
	"github.com/Dosada05/esports-registration/storage"
	"github.com/google/uuid"
)

type CreateTournamentInput struct {
	Name      string     `json:"tournamentName"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Location  string     `json:"location"`
}

// UpdateTournamentInput is a patch: nil fields are left untouched.
type UpdateTournamentInput struct {
	Name      *string                  `json:"tournamentName"`
	StartDate *time.Time               `json:"startDate"`
	EndDate   *time.Time               `json:"endDate"`
	Location  *string                  `json:"location"`
	Status    *models.TournamentStatus `json:"status"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, actorID string, input CreateTournamentInput) (*models.Tournament, error)
	SearchTournaments(ctx context.Context, params SearchParams) (*SearchResult[models.Tournament], error)
	UpdateTournamentDetails(ctx context.Context, id uuid.UUID, actorID string, input UpdateTournamentInput) (*models.Tournament, error)
	CancelTournament(ctx context.Context, id uuid.UUID, actorID string) (*models.Tournament, error)
	StartTournament(ctx context.Context, id uuid.UUID, actorID string) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, id uuid.UUID, actorID string) error
	UploadTournamentLogo(ctx context.Context, id uuid.UUID, actorID string, file io.Reader, contentType string) (*models.Tournament, error)
}

type tournamentService struct {
	tournamentGuard
	bracket  BracketService
	uploader storage.FileUploader
	logger   *slog.Logger
}

// NewTournamentService wires the registry. uploader may be nil, in which
// case logo upload is disabled.
func NewTournamentService(
	store repositories.Store,
	locker *TournamentLocker,
	bracket BracketService,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentGuard: tournamentGuard{store: store, locker: locker},
		bracket:         bracket,
		uploader:        uploader,
		logger:          logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, actorID string, input CreateTournamentInput) (*models.Tournament, error) {
	if err := requireActor(actorID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	location := strings.TrimSpace(input.Location)
	switch {
	case name == "":
		return nil, ErrTournamentNameRequired
	case input.StartDate == nil:
		return nil, ErrTournamentStartRequired
	case location == "":
		return nil, ErrTournamentLocationRequired
	}
	if err := validateTournamentDates(*input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		ID:        uuid.New(),
		Name:      name,
		StartDate: input.StartDate.UTC(),
		Location:  location,
		Status:    models.TournamentStatusUpcoming,
		CreatedBy: actorID,
	}
	if input.EndDate != nil {
		end := input.EndDate.UTC()
		tournament.EndDate = &end
	}

	err := s.store.WithinTx(ctx, func(tx repositories.Tx) error {
		return tx.Tournaments().Create(ctx, tournament)
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	metrics.TournamentTransitions.WithLabelValues(string(models.TournamentStatusUpcoming)).Inc()
	s.logger.Info("tournament created",
		slog.String("tournament_id", tournament.ID.String()),
		slog.String("created_by", actorID),
	)
	return tournament, nil
}

func (s *tournamentService) SearchTournaments(ctx context.Context, params SearchParams) (*SearchResult[models.Tournament], error) {
	tournaments, err := s.store.Tournaments().List(ctx)
	if err != nil {
		return nil, translateStoreError(err)
	}
	for _, t := range tournaments {
		populateTournamentLogoURL(t, s.uploader)
	}
	return search(tournaments, tournamentSchema, params, params.has("tournamentId"), ErrTournamentNotFound)
}

func (s *tournamentService) UpdateTournamentDetails(ctx context.Context, id uuid.UUID, actorID string, input UpdateTournamentInput) (*models.Tournament, error) {
	if input.Status != nil && *input.Status != models.TournamentStatusCancelled {
		return nil, fmt.Errorf("%w: only %q can be set directly, got %q",
			ErrTournamentInvalidStatusTransition, models.TournamentStatusCancelled, *input.Status)
	}

	var updated *models.Tournament
	err := s.withTournament(ctx, id, func(tx repositories.Tx, t *models.Tournament) error {
		if err := authorizeOrganizer(ctx, tx, t, actorID); err != nil {
			return err
		}
		if t.IsFinished() {
			return fmt.Errorf("%w: tournament %s is %s", ErrTournamentFinished, t.ID, t.Status)
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return ErrTournamentNameRequired
			}
			t.Name = name
		}
		if input.Location != nil {
			location := strings.TrimSpace(*input.Location)
			if location == "" {
				return ErrTournamentLocationRequired
			}
			t.Location = location
		}
		if input.StartDate != nil {
			t.StartDate = input.StartDate.UTC()
		}
		if input.EndDate != nil {
			end := input.EndDate.UTC()
			t.EndDate = &end
		}
		if err := validateTournamentDates(t.StartDate, t.EndDate); err != nil {
			return err
		}

		if input.Status != nil {
			if !isValidStatusTransition(t.Status, *input.Status) {
				return fmt.Errorf("%w: from %s to %s", ErrTournamentInvalidStatusTransition, t.Status, *input.Status)
			}
			t.Status = *input.Status
		}

		if err := tx.Tournaments().Update(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if input.Status != nil {
		metrics.TournamentTransitions.WithLabelValues(string(updated.Status)).Inc()
	}
	populateTournamentLogoURL(updated, s.uploader)
	s.logger.Info("tournament updated",
		slog.String("tournament_id", updated.ID.String()),
		slog.String("status", string(updated.Status)),
	)
	return updated, nil
}

func (s *tournamentService) CancelTournament(ctx context.Context, id uuid.UUID, actorID string) (*models.Tournament, error) {
	cancelled := models.TournamentStatusCancelled
	return s.UpdateTournamentDetails(ctx, id, actorID, UpdateTournamentInput{Status: &cancelled})
}

func (s *tournamentService) StartTournament(ctx context.Context, id uuid.UUID, actorID string) (*models.Tournament, error) {
	var (
		started *models.Tournament
		events  afterCommit
	)
	err := s.withTournament(ctx, id, func(tx repositories.Tx, t *models.Tournament) error {
		if err := authorizeOrganizer(ctx, tx, t, actorID); err != nil {
			return err
		}
		if t.Status != models.TournamentStatusUpcoming {
			return fmt.Errorf("%w: tournament %s is %s", ErrTournamentNotUpcoming, t.ID, t.Status)
		}

		roster, err := tx.Participants().ListByTournament(ctx, t.ID)
		if err != nil {
			return err
		}
		active := 0
		for _, p := range roster {
			if p.IsActive() {
				active++
			}
		}
		if active < 2 {
			return fmt.Errorf("%w: tournament %s has %d", ErrNotEnoughParticipants, t.ID, active)
		}

		t.Status = models.TournamentStatusActive
		if err := tx.Tournaments().Update(ctx, t); err != nil {
			return err
		}
		if err := s.bracket.generateInitialRound(ctx, tx, t, &events); err != nil {
			return err
		}
		started = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TournamentTransitions.WithLabelValues(string(models.TournamentStatusActive)).Inc()
	populateTournamentLogoURL(started, s.uploader)
	s.logger.Info("tournament started", slog.String("tournament_id", started.ID.String()))
	events.run()
	return started, nil
}

func (s *tournamentService) DeleteTournament(ctx context.Context, id uuid.UUID, actorID string) error {
	var logoKey *string
	err := s.withTournament(ctx, id, func(tx repositories.Tx, t *models.Tournament) error {
		if err := authorizeOrganizer(ctx, tx, t, actorID); err != nil {
			return err
		}
		if t.Status != models.TournamentStatusUpcoming {
			return fmt.Errorf("%w: tournament %s is %s", ErrTournamentNotUpcoming, t.ID, t.Status)
		}
		logoKey = t.LogoKey
		return tx.Tournaments().Delete(ctx, t.ID)
	})
	if err != nil {
		return err
	}

	s.deleteLogo(ctx, id, logoKey)
	s.logger.Info("tournament deleted", slog.String("tournament_id", id.String()))
	return nil
}

var allowedLogoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

func (s *tournamentService) UploadTournamentLogo(ctx context.Context, id uuid.UUID, actorID string, file io.Reader, contentType string) (*models.Tournament, error) {
	if s.uploader == nil {
		return nil, ErrLogoUploadDisabled
	}
	ext, ok := allowedLogoTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidLogoType, contentType)
	}

	// Права проверяем до загрузки, чтобы не плодить объекты в бакете.
	if err := s.checkOrganizer(ctx, id, actorID); err != nil {
		return nil, err
	}

	key := path.Join("tournaments", id.String(), "logo-"+uuid.NewString()+ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload logo for tournament %s: %w", id, err)
	}

	var (
		updated *models.Tournament
		oldKey  *string
	)
	err := s.withTournament(ctx, id, func(tx repositories.Tx, t *models.Tournament) error {
		if err := authorizeOrganizer(ctx, tx, t, actorID); err != nil {
			return err
		}
		oldKey = t.LogoKey
		t.LogoKey = &key
		if err := tx.Tournaments().Update(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		s.deleteLogo(ctx, id, &key)
		return nil, err
	}

	s.deleteLogo(ctx, id, oldKey)
	populateTournamentLogoURL(updated, s.uploader)
	return updated, nil
}

func (s *tournamentService) checkOrganizer(ctx context.Context, id uuid.UUID, actorID string) error {
	t, err := s.store.Tournaments().GetByID(ctx, id)
	if err != nil {
		return translateStoreError(err)
	}
	return authorizeOrganizer(ctx, s.store, t, actorID)
}

// deleteLogo is best effort: a leftover object only costs storage.
func (s *tournamentService) deleteLogo(ctx context.Context, id uuid.UUID, key *string) {
	if s.uploader == nil || key == nil || *key == "" {
		return
	}
	if err := s.uploader.Delete(ctx, *key); err != nil {
		s.logger.Warn("failed to delete tournament logo",
			slog.String("tournament_id", id.String()),
			slog.String("key", *key),
			slog.Any("error", err),
		)
	}
}
