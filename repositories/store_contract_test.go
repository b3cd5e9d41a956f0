package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/esports-registration/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTournament(name string) *models.Tournament {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(72 * time.Hour)
	return &models.Tournament{
		ID:        uuid.New(),
		Name:      name,
		StartDate: start,
		EndDate:   &end,
		Location:  "RIT",
		Status:    models.TournamentStatusUpcoming,
		CreatedBy: "organizer-1",
	}
}

func newMatch(tournamentID uuid.UUID, round, side int, team1, team2 string) *models.Match {
	return &models.Match{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		Round:        round,
		BracketSide:  side,
		Team1ID:      strPtr(team1),
		Team2ID:      strPtr(team2),
		MatchTime:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Location:     "RIT",
		Status:       models.MatchStatusScheduled,
	}
}

// runStoreContract exercises behaviour every Store implementation must share.
func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("tournament crud", func(t *testing.T) {
		tour := newTournament("Spring Open")
		require.NoError(t, store.Tournaments().Create(ctx, tour))
		assert.False(t, tour.CreatedAt.IsZero())

		got, err := store.Tournaments().GetByID(ctx, tour.ID)
		require.NoError(t, err)
		assert.Equal(t, "Spring Open", got.Name)
		assert.Equal(t, models.TournamentStatusUpcoming, got.Status)

		got.Status = models.TournamentStatusActive
		got.WinnerTeamID = strPtr("team-a")
		require.NoError(t, store.Tournaments().Update(ctx, got))

		err = store.WithinTx(ctx, func(tx Tx) error {
			locked, err := tx.Tournaments().GetForUpdate(ctx, tour.ID)
			require.NoError(t, err)
			assert.Equal(t, models.TournamentStatusActive, locked.Status)
			require.NotNil(t, locked.WinnerTeamID)
			assert.Equal(t, "team-a", *locked.WinnerTeamID)
			return nil
		})
		require.NoError(t, err)

		_, err = store.Tournaments().GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrTournamentNotFound)

		all, err := store.Tournaments().List(ctx)
		require.NoError(t, err)
		ids := make([]uuid.UUID, 0, len(all))
		for _, tt := range all {
			ids = append(ids, tt.ID)
		}
		assert.Contains(t, ids, tour.ID)
	})

	t.Run("participants keep registration order and uniqueness", func(t *testing.T) {
		tour := newTournament("Roster Cup")
		require.NoError(t, store.Tournaments().Create(ctx, tour))

		for _, team := range []string{"team-c", "team-a", "team-b"} {
			p := &models.Participant{TournamentID: tour.ID, TeamID: team, Round: 1, Status: models.ParticipantStatusActive}
			require.NoError(t, store.Participants().Create(ctx, p))
			assert.NotZero(t, p.Seed)
		}

		dup := &models.Participant{TournamentID: tour.ID, TeamID: "team-a", Round: 1, Status: models.ParticipantStatusActive}
		assert.ErrorIs(t, store.Participants().Create(ctx, dup), ErrParticipantConflict)

		orphan := &models.Participant{TournamentID: uuid.New(), TeamID: "team-z", Round: 1, Status: models.ParticipantStatusActive}
		assert.ErrorIs(t, store.Participants().Create(ctx, orphan), ErrTournamentNotFound)

		roster, err := store.Participants().ListByTournament(ctx, tour.ID)
		require.NoError(t, err)
		require.Len(t, roster, 3)
		assert.Equal(t, "team-c", roster[0].TeamID)
		assert.Equal(t, "team-a", roster[1].TeamID)
		assert.Equal(t, "team-b", roster[2].TeamID)
		assert.Less(t, roster[0].Seed, roster[1].Seed)
		assert.Less(t, roster[1].Seed, roster[2].Seed)

		p := roster[1]
		p.Status = models.ParticipantStatusDisqualified
		p.Byes = 1
		require.NoError(t, store.Participants().Update(ctx, p))

		got, err := store.Participants().Get(ctx, tour.ID, "team-a")
		require.NoError(t, err)
		assert.Equal(t, models.ParticipantStatusDisqualified, got.Status)
		assert.Equal(t, 1, got.Byes)

		require.NoError(t, store.Participants().Delete(ctx, tour.ID, "team-a"))
		assert.ErrorIs(t, store.Participants().Delete(ctx, tour.ID, "team-a"), ErrParticipantNotFound)
		_, err = store.Participants().Get(ctx, tour.ID, "team-a")
		assert.ErrorIs(t, err, ErrParticipantNotFound)
	})

	t.Run("matches are indexed by round and side", func(t *testing.T) {
		tour := newTournament("Match Cup")
		require.NoError(t, store.Tournaments().Create(ctx, tour))

		m1 := newMatch(tour.ID, 1, 1, "b", "c")
		m0 := newMatch(tour.ID, 1, 0, "a", "d")
		m2 := newMatch(tour.ID, 2, 0, "x", "y")
		require.NoError(t, store.Matches().CreateBatch(ctx, []*models.Match{m1, m0, m2}))

		round1, err := store.Matches().ListByRound(ctx, tour.ID, 1)
		require.NoError(t, err)
		require.Len(t, round1, 2)
		assert.Equal(t, m0.ID, round1[0].ID)
		assert.Equal(t, m1.ID, round1[1].ID)

		all, err := store.Matches().ListByTournament(ctx, tour.ID)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, m2.ID, all[2].ID)

		err = store.Matches().CreateBatch(ctx, []*models.Match{newMatch(tour.ID, 1, 0, "e", "f")})
		assert.ErrorIs(t, err, ErrMatchConflict)

		score1, score2 := 3, 1
		m0.Score1, m0.Score2 = &score1, &score2
		m0.WinnerID = strPtr("a")
		m0.Status = models.MatchStatusCompleted
		require.NoError(t, store.Matches().Update(ctx, m0))

		got, err := store.Matches().GetByID(ctx, m0.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusCompleted, got.Status)
		require.NotNil(t, got.WinnerID)
		assert.Equal(t, "a", *got.WinnerID)
		require.NotNil(t, got.Score1)
		assert.Equal(t, 3, *got.Score1)

		_, err = store.Matches().GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("facilitators", func(t *testing.T) {
		tour := newTournament("Staff Cup")
		require.NoError(t, store.Tournaments().Create(ctx, tour))

		require.NoError(t, store.Facilitators().Create(ctx, &models.Facilitator{TournamentID: tour.ID, UserID: "u1"}))
		err := store.Facilitators().Create(ctx, &models.Facilitator{TournamentID: tour.ID, UserID: "u1"})
		assert.ErrorIs(t, err, ErrFacilitatorConflict)

		ok, err := store.Facilitators().Exists(ctx, tour.ID, "u1")
		require.NoError(t, err)
		assert.True(t, ok)

		list, err := store.Facilitators().ListByTournament(ctx, tour.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, store.Facilitators().Delete(ctx, tour.ID, "u1"))
		assert.ErrorIs(t, store.Facilitators().Delete(ctx, tour.ID, "u1"), ErrFacilitatorNotFound)
	})

	t.Run("failed transaction leaves no trace", func(t *testing.T) {
		tour := newTournament("Rollback Cup")
		require.NoError(t, store.Tournaments().Create(ctx, tour))

		boom := errors.New("boom")
		err := store.WithinTx(ctx, func(tx Tx) error {
			p := &models.Participant{TournamentID: tour.ID, TeamID: "ghost", Round: 1, Status: models.ParticipantStatusActive}
			if err := tx.Participants().Create(ctx, p); err != nil {
				return err
			}
			locked, err := tx.Tournaments().GetForUpdate(ctx, tour.ID)
			if err != nil {
				return err
			}
			locked.Status = models.TournamentStatusActive
			if err := tx.Tournaments().Update(ctx, locked); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = store.Participants().Get(ctx, tour.ID, "ghost")
		assert.ErrorIs(t, err, ErrParticipantNotFound)
		got, err := store.Tournaments().GetByID(ctx, tour.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TournamentStatusUpcoming, got.Status)
	})

	t.Run("read transaction sees one snapshot", func(t *testing.T) {
		tour := newTournament("Snapshot Cup")
		require.NoError(t, store.Tournaments().Create(ctx, tour))
		require.NoError(t, store.Participants().Create(ctx, &models.Participant{TournamentID: tour.ID, TeamID: "t1", Round: 1, Status: models.ParticipantStatusActive}))

		err := store.WithinReadTx(ctx, func(tx Tx) error {
			before, err := tx.Tournaments().GetByID(ctx, tour.ID)
			require.NoError(t, err)
			assert.Equal(t, models.TournamentStatusUpcoming, before.Status)

			// Коммит вне транзакции чтения.
			err = store.WithinTx(ctx, func(w Tx) error {
				locked, err := w.Tournaments().GetForUpdate(ctx, tour.ID)
				if err != nil {
					return err
				}
				locked.Status = models.TournamentStatusCompleted
				if err := w.Tournaments().Update(ctx, locked); err != nil {
					return err
				}
				p, err := w.Participants().Get(ctx, tour.ID, "t1")
				if err != nil {
					return err
				}
				p.Status = models.ParticipantStatusChampion
				return w.Participants().Update(ctx, p)
			})
			require.NoError(t, err)

			after, err := tx.Tournaments().GetByID(ctx, tour.ID)
			require.NoError(t, err)
			assert.Equal(t, models.TournamentStatusUpcoming, after.Status)
			roster, err := tx.Participants().ListByTournament(ctx, tour.ID)
			require.NoError(t, err)
			require.Len(t, roster, 1)
			assert.Equal(t, models.ParticipantStatusActive, roster[0].Status)
			return nil
		})
		require.NoError(t, err)

		got, err := store.Tournaments().GetByID(ctx, tour.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TournamentStatusCompleted, got.Status)
	})

	t.Run("read transaction rejects writes", func(t *testing.T) {
		tour := newTournament("Readonly Cup")
		require.NoError(t, store.Tournaments().Create(ctx, tour))

		err := store.WithinReadTx(ctx, func(tx Tx) error {
			got, err := tx.Tournaments().GetByID(ctx, tour.ID)
			if err != nil {
				return err
			}
			got.Status = models.TournamentStatusCancelled
			return tx.Tournaments().Update(ctx, got)
		})
		assert.ErrorIs(t, err, ErrReadOnlyTx)

		got, err := store.Tournaments().GetByID(ctx, tour.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TournamentStatusUpcoming, got.Status)
	})

	t.Run("delete cascades", func(t *testing.T) {
		tour := newTournament("Cascade Cup")
		require.NoError(t, store.Tournaments().Create(ctx, tour))
		require.NoError(t, store.Participants().Create(ctx, &models.Participant{TournamentID: tour.ID, TeamID: "t1", Round: 1, Status: models.ParticipantStatusActive}))
		require.NoError(t, store.Facilitators().Create(ctx, &models.Facilitator{TournamentID: tour.ID, UserID: "u1"}))

		require.NoError(t, store.Tournaments().Delete(ctx, tour.ID))
		assert.ErrorIs(t, store.Tournaments().Delete(ctx, tour.ID), ErrTournamentNotFound)

		roster, err := store.Participants().ListByTournament(ctx, tour.ID)
		require.NoError(t, err)
		assert.Empty(t, roster)
		staff, err := store.Facilitators().ListByTournament(ctx, tour.ID)
		require.NoError(t, err)
		assert.Empty(t, staff)
	})
}
