package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Dosada05/esports-registration/models"
	"github.com/Dosada05/esports-registration/repositories"
	"github.com/Dosada05/esports-registration/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const organizer = "organizer-1"

type testEnv struct {
	store        *repositories.MemoryStore
	tournaments  TournamentService
	participants ParticipantService
	matches      MatchService
	bracket      BracketService
}

func newTestEnv(t *testing.T, uploader storage.FileUploader) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repositories.NewMemoryStore(time.Second)
	locker := NewTournamentLocker()

	bracket := NewBracketService(store, locker, logger)
	matches := NewMatchService(store, locker, bracket, uploader, logger)
	return &testEnv{
		store:        store,
		tournaments:  NewTournamentService(store, locker, bracket, uploader, logger),
		participants: NewParticipantService(store, locker, matches, bracket, logger),
		matches:      matches,
		bracket:      bracket,
	}
}

func (e *testEnv) createTournament(t *testing.T) *models.Tournament {
	t.Helper()
	start := time.Now().Add(24 * time.Hour)
	end := start.Add(72 * time.Hour)
	tour, err := e.tournaments.CreateTournament(context.Background(), organizer, CreateTournamentInput{
		Name:      "Spring Cup",
		StartDate: &start,
		EndDate:   &end,
		Location:  "RIT",
	})
	require.NoError(t, err)
	return tour
}

func (e *testEnv) register(t *testing.T, tournamentID uuid.UUID, teams ...string) {
	t.Helper()
	for _, team := range teams {
		_, err := e.participants.AddParticipant(context.Background(), tournamentID, team, organizer)
		require.NoError(t, err)
	}
}

// startWith creates a tournament, registers teams in order and starts it.
func (e *testEnv) startWith(t *testing.T, teams ...string) *models.Tournament {
	t.Helper()
	tour := e.createTournament(t)
	e.register(t, tour.ID, teams...)
	started, err := e.tournaments.StartTournament(context.Background(), tour.ID, organizer)
	require.NoError(t, err)
	return started
}

func (e *testEnv) roundMatches(t *testing.T, tournamentID uuid.UUID, round int) []*models.Match {
	t.Helper()
	matches, err := e.store.Matches().ListByRound(context.Background(), tournamentID, round)
	require.NoError(t, err)
	return matches
}

func (e *testEnv) participant(t *testing.T, tournamentID uuid.UUID, team string) *models.Participant {
	t.Helper()
	p, err := e.store.Participants().Get(context.Background(), tournamentID, team)
	require.NoError(t, err)
	return p
}

func (e *testEnv) tournament(t *testing.T, id uuid.UUID) *models.Tournament {
	t.Helper()
	tour, err := e.store.Tournaments().GetByID(context.Background(), id)
	require.NoError(t, err)
	return tour
}

// team1Wins reports a 2-1 result for the first slot of every scheduled match
// in round.
func (e *testEnv) team1Wins(t *testing.T, tournamentID uuid.UUID, round int) {
	t.Helper()
	for _, m := range e.roundMatches(t, tournamentID, round) {
		if m.Status != models.MatchStatusScheduled {
			continue
		}
		_, err := e.matches.UpdateMatchResult(context.Background(), m.ID, 2, 1, organizer)
		require.NoError(t, err)
	}
}

func teamNames(n int) []string {
	teams := make([]string, n)
	for i := range teams {
		teams[i] = fmt.Sprintf("team-%02d", i+1)
	}
	return teams
}

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	args := m.Called(ctx, key, contentType, reader)
	if res := args.Get(0); res != nil {
		return res.(*storage.UploadResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUploader) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}
