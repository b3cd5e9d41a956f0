package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/esports-registration/models"
	"github.com/Dosada05/esports-registration/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateTournamentValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	start := time.Date(2026, 11, 1, 10, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)

	tests := []struct {
		name    string
		actor   string
		input   CreateTournamentInput
		wantErr error
	}{
		{
			name:    "anonymous",
			input:   CreateTournamentInput{Name: "Cup", StartDate: &start, Location: "RIT"},
			wantErr: ErrUnauthorized,
		},
		{
			name:    "missing name",
			actor:   organizer,
			input:   CreateTournamentInput{Name: "  ", StartDate: &start, Location: "RIT"},
			wantErr: ErrTournamentNameRequired,
		},
		{
			name:    "missing start",
			actor:   organizer,
			input:   CreateTournamentInput{Name: "Cup", Location: "RIT"},
			wantErr: ErrTournamentStartRequired,
		},
		{
			name:    "missing location",
			actor:   organizer,
			input:   CreateTournamentInput{Name: "Cup", StartDate: &start},
			wantErr: ErrTournamentLocationRequired,
		},
		{
			name:    "end before start",
			actor:   organizer,
			input:   CreateTournamentInput{Name: "Cup", StartDate: &start, EndDate: &before, Location: "RIT"},
			wantErr: ErrTournamentInvalidDateRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.tournaments.CreateTournament(context.Background(), tt.actor, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateTournament(t *testing.T) {
	env := newTestEnv(t, nil)
	tour := env.createTournament(t)

	assert.NotEqual(t, uuid.Nil, tour.ID)
	assert.Equal(t, models.TournamentStatusUpcoming, tour.Status)
	assert.Equal(t, organizer, tour.CreatedBy)
	assert.False(t, tour.CreatedAt.IsZero())
	assert.Nil(t, tour.WinnerTeamID)
}

func TestUpdateTournamentDetails(t *testing.T) {
	env := newTestEnv(t, nil)
	tour := env.createTournament(t)
	ctx := context.Background()

	name := "Autumn Cup"
	updated, err := env.tournaments.UpdateTournamentDetails(ctx, tour.ID, organizer, UpdateTournamentInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Autumn Cup", updated.Name)
	assert.Equal(t, "RIT", updated.Location)

	end := tour.StartDate.Add(-time.Minute)
	_, err = env.tournaments.UpdateTournamentDetails(ctx, tour.ID, organizer, UpdateTournamentInput{EndDate: &end})
	assert.ErrorIs(t, err, ErrValidation)

	active := models.TournamentStatusActive
	_, err = env.tournaments.UpdateTournamentDetails(ctx, tour.ID, organizer, UpdateTournamentInput{Status: &active})
	assert.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)

	_, err = env.tournaments.UpdateTournamentDetails(ctx, tour.ID, "random", UpdateTournamentInput{Name: &name})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.tournaments.UpdateTournamentDetails(ctx, uuid.New(), organizer, UpdateTournamentInput{Name: &name})
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	assert.Equal(t, "Autumn Cup", env.tournament(t, tour.ID).Name)
}

func TestCancelTournament(t *testing.T) {
	env := newTestEnv(t, nil)
	tour := env.startWith(t, "A", "B")
	ctx := context.Background()

	cancelled, err := env.tournaments.CancelTournament(ctx, tour.ID, organizer)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStatusCancelled, cancelled.Status)

	_, err = env.tournaments.CancelTournament(ctx, tour.ID, organizer)
	assert.ErrorIs(t, err, ErrTournamentFinished)

	name := "Renamed"
	_, err = env.tournaments.UpdateTournamentDetails(ctx, tour.ID, organizer, UpdateTournamentInput{Name: &name})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestStartTournamentRules(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	lonely := env.createTournament(t)
	env.register(t, lonely.ID, "A")
	_, err := env.tournaments.StartTournament(ctx, lonely.ID, organizer)
	assert.ErrorIs(t, err, ErrNotEnoughParticipants)
	assert.Equal(t, models.TournamentStatusUpcoming, env.tournament(t, lonely.ID).Status)

	tour := env.createTournament(t)
	env.register(t, tour.ID, "A", "B")
	_, err = env.tournaments.StartTournament(ctx, tour.ID, "random")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.tournaments.StartTournament(ctx, tour.ID, organizer)
	require.NoError(t, err)

	_, err = env.tournaments.StartTournament(ctx, tour.ID, organizer)
	assert.ErrorIs(t, err, ErrTournamentNotUpcoming)
	assert.Len(t, env.roundMatches(t, tour.ID, 1), 1)
}

func TestStartTournamentInThePast(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	start := time.Now().Add(-48 * time.Hour)
	tour, err := env.tournaments.CreateTournament(ctx, organizer, CreateTournamentInput{
		Name: "Late Cup", StartDate: &start, Location: "Gym",
	})
	require.NoError(t, err)
	env.register(t, tour.ID, "A", "B")

	_, err = env.tournaments.StartTournament(ctx, tour.ID, organizer)
	require.NoError(t, err)

	m := env.roundMatches(t, tour.ID, 1)[0]
	assert.True(t, m.MatchTime.After(time.Now()), "match must not be scheduled in the past")
}

func TestDeleteTournament(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	tour := env.createTournament(t)
	env.register(t, tour.ID, "A")
	_, err := env.participants.AddFacilitator(ctx, tour.ID, "helper", organizer)
	require.NoError(t, err)

	require.NoError(t, env.tournaments.DeleteTournament(ctx, tour.ID, organizer))

	_, err = env.store.Tournaments().GetByID(ctx, tour.ID)
	assert.Error(t, err)
	roster, err := env.store.Participants().ListByTournament(ctx, tour.ID)
	require.NoError(t, err)
	assert.Empty(t, roster)

	active := env.startWith(t, "A", "B")
	err = env.tournaments.DeleteTournament(ctx, active.ID, organizer)
	assert.ErrorIs(t, err, ErrTournamentNotUpcoming)

	err = env.tournaments.DeleteTournament(ctx, uuid.New(), organizer)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchTournaments(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	first := env.createTournament(t)
	start := time.Now().Add(time.Hour)
	second, err := env.tournaments.CreateTournament(ctx, organizer, CreateTournamentInput{
		Name: "Winter Clash", StartDate: &start, Location: "Online",
	})
	require.NoError(t, err)

	res, err := env.tournaments.SearchTournaments(ctx, SearchParams{Filters: map[string]string{"tournamentName": "CLASH"}})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, second.ID, res.Items[0].ID)

	res, err = env.tournaments.SearchTournaments(ctx, SearchParams{SortBy: "startDate"})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, second.ID, res.Items[0].ID)
	assert.Equal(t, first.ID, res.Items[1].ID)

	res, err = env.tournaments.SearchTournaments(ctx, SearchParams{Filters: map[string]string{"tournamentId": first.ID.String()}})
	require.NoError(t, err)
	require.NotNil(t, res.Item)
	assert.Equal(t, "Spring Cup", res.Item.Name)

	_, err = env.tournaments.SearchTournaments(ctx, SearchParams{Filters: map[string]string{"tournamentId": uuid.NewString()}})
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	_, err = env.tournaments.SearchTournaments(ctx, SearchParams{Filters: map[string]string{"sport": "chess"}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUploadTournamentLogo(t *testing.T) {
	uploader := &mockUploader{}
	env := newTestEnv(t, uploader)
	tour := env.createTournament(t)
	ctx := context.Background()

	isLogoKey := mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "tournaments/"+tour.ID.String()+"/logo-") && strings.HasSuffix(key, ".png")
	})
	uploader.On("Upload", mock.Anything, isLogoKey, "image/png", mock.Anything).
		Return(&storage.UploadResult{}, nil).Twice()

	first, err := env.tournaments.UploadTournamentLogo(ctx, tour.ID, organizer, strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	require.NotNil(t, first.LogoKey)
	require.NotNil(t, first.LogoURL)
	assert.Equal(t, "https://cdn.example.com/"+*first.LogoKey, *first.LogoURL)

	// Старый логотип удаляется после замены.
	uploader.On("Delete", mock.Anything, *first.LogoKey).Return(nil).Once()
	second, err := env.tournaments.UploadTournamentLogo(ctx, tour.ID, organizer, strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	assert.NotEqual(t, *first.LogoKey, *second.LogoKey)

	res, err := env.tournaments.SearchTournaments(ctx, SearchParams{Filters: map[string]string{"tournamentId": tour.ID.String()}})
	require.NoError(t, err)
	require.NotNil(t, res.Item.LogoURL)
	assert.Equal(t, "https://cdn.example.com/"+*second.LogoKey, *res.Item.LogoURL)

	// Удаление турнира не падает, если хранилище недоступно.
	uploader.On("Delete", mock.Anything, *second.LogoKey).Return(errors.New("r2 down")).Once()
	require.NoError(t, env.tournaments.DeleteTournament(ctx, tour.ID, organizer))

	uploader.AssertExpectations(t)
}

func TestUploadTournamentLogoRejected(t *testing.T) {
	uploader := &mockUploader{}
	env := newTestEnv(t, uploader)
	tour := env.createTournament(t)
	ctx := context.Background()

	_, err := env.tournaments.UploadTournamentLogo(ctx, tour.ID, organizer, strings.NewReader("gif"), "image/gif")
	assert.ErrorIs(t, err, ErrInvalidLogoType)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.tournaments.UploadTournamentLogo(ctx, tour.ID, "random", strings.NewReader("png"), "image/png")
	assert.ErrorIs(t, err, ErrForbidden)

	uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	disabled := newTestEnv(t, nil)
	other := disabled.createTournament(t)
	_, err = disabled.tournaments.UploadTournamentLogo(ctx, other.ID, organizer, strings.NewReader("png"), "image/png")
	assert.ErrorIs(t, err, ErrUnavailable)
}
