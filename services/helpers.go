package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/esports-registration/models"
	"github.com/Dosada05/esports-registration/query"
	"github.com/Dosada05/esports-registration/repositories"
	"github.com/Dosada05/esports-registration/storage"
	"github.com/google/uuid"
)

// --- Общие хелперы ---

func strPtr(s string) *string {
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func validateTournamentDates(start time.Time, end *time.Time) error {
	if start.IsZero() {
		return ErrTournamentStartRequired
	}
	if end != nil && end.Before(start) {
		return fmt.Errorf("%w: start date (%s), end date (%s)", ErrTournamentInvalidDateRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	allowedTransitions := map[models.TournamentStatus][]models.TournamentStatus{
		models.TournamentStatusUpcoming:  {models.TournamentStatusActive, models.TournamentStatusCancelled},
		models.TournamentStatusActive:    {models.TournamentStatusCompleted, models.TournamentStatusCancelled},
		models.TournamentStatusCompleted: {},
		models.TournamentStatusCancelled: {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

// defaultMatchTime: start of the tournament, or 15 minutes from now once the
// start is already behind us.
func defaultMatchTime(t *models.Tournament, now time.Time) time.Time {
	if now.After(t.StartDate) {
		return now.Add(15 * time.Minute)
	}
	return t.StartDate
}

func populateTournamentLogoURL(tournament *models.Tournament, uploader storage.FileUploader) {
	if tournament != nil && tournament.LogoKey != nil && *tournament.LogoKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*tournament.LogoKey)
		if url != "" {
			tournament.LogoURL = &url
		}
	}
}

func requireActor(actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return ErrAuthRequired
	}
	return nil
}

// authorizeOrganizer passes the tournament creator and its facilitators.
func authorizeOrganizer(ctx context.Context, tx repositories.Tx, t *models.Tournament, actorID string) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	if t.CreatedBy == actorID {
		return nil
	}
	ok, err := tx.Facilitators().Exists(ctx, t.ID, actorID)
	if err != nil {
		return fmt.Errorf("failed to check facilitator %s: %w", actorID, err)
	}
	if !ok {
		return fmt.Errorf("%w: user %s on tournament %s", ErrNotOrganizer, actorID, t.ID)
	}
	return nil
}

// afterCommit collects metric and log calls made inside a transaction. The
// caller runs them only once the transaction has committed.
type afterCommit struct {
	fns []func()
}

func (a *afterCommit) add(fn func()) {
	a.fns = append(a.fns, fn)
}

func (a *afterCommit) run() {
	for _, fn := range a.fns {
		fn()
	}
}

// tournamentGuard serializes every bracket-shaping write on one tournament:
// the in-process lock is taken first, then the tournament row is locked
// inside the store transaction.
type tournamentGuard struct {
	store  repositories.Store
	locker *TournamentLocker
}

func (g tournamentGuard) withTournament(ctx context.Context, id uuid.UUID, fn func(tx repositories.Tx, t *models.Tournament) error) error {
	unlock := g.locker.Lock(id)
	defer unlock()

	err := g.store.WithinTx(ctx, func(tx repositories.Tx) error {
		t, err := tx.Tournaments().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		return fn(tx, t)
	})
	return translateStoreError(err)
}

// --- Поиск ---

// SearchParams are raw search inputs. Filters maps field names to values;
// every field is matched in the mode its schema declares.
type SearchParams struct {
	Filters    map[string]string
	SortBy     string
	Descending bool
}

func (p SearchParams) has(field string) bool {
	return strings.TrimSpace(p.Filters[field]) != ""
}

// SearchResult holds Item for id-scoped searches and Items otherwise.
type SearchResult[T any] struct {
	Item  *T
	Items []*T
}

func search[T any](records []*T, schema query.Schema[*T], params SearchParams, scoped bool, notFound error) (*SearchResult[T], error) {
	filter, err := schema.Filter(params.Filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var order *query.Sort
	if params.SortBy != "" {
		order = &query.Sort{Field: params.SortBy, Descending: params.Descending}
	}

	items, err := query.Apply(records, schema, filter, order)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if scoped {
		if len(items) == 0 {
			return nil, notFound
		}
		return &SearchResult[T]{Item: items[0]}, nil
	}
	return &SearchResult[T]{Items: items}, nil
}

var tournamentSchema = query.Schema[*models.Tournament]{
	"tournamentId":   {Mode: query.Exact, Value: func(t *models.Tournament) any { return t.ID }},
	"tournamentName": {Mode: query.Partial, Value: func(t *models.Tournament) any { return t.Name }},
	"location":       {Mode: query.Partial, Value: func(t *models.Tournament) any { return t.Location }},
	"status":         {Mode: query.Exact, Value: func(t *models.Tournament) any { return t.Status }},
	"startDate":      {Mode: query.Partial, Value: func(t *models.Tournament) any { return t.StartDate }},
	"endDate":        {Mode: query.Partial, Value: func(t *models.Tournament) any { return t.EndDate }},
	"createdBy":      {Mode: query.Exact, Value: func(t *models.Tournament) any { return t.CreatedBy }},
	"winnerTeamId":   {Mode: query.Exact, Value: func(t *models.Tournament) any { return t.WinnerTeamID }},
	"createdAt":      {Mode: query.Partial, Value: func(t *models.Tournament) any { return t.CreatedAt }},
}

var participantSchema = query.Schema[*models.Participant]{
	"tournamentId": {Mode: query.Exact, Value: func(p *models.Participant) any { return p.TournamentID }},
	"teamId":       {Mode: query.Exact, Value: func(p *models.Participant) any { return p.TeamID }},
	"status":       {Mode: query.Exact, Value: func(p *models.Participant) any { return p.Status }},
	"round":        {Mode: query.Exact, Value: func(p *models.Participant) any { return p.Round }},
	"bracketSide":  {Mode: query.Exact, Value: func(p *models.Participant) any { return p.BracketSide }},
	"byes":         {Mode: query.Exact, Value: func(p *models.Participant) any { return p.Byes }},
	"nextMatchId":  {Mode: query.Exact, Value: func(p *models.Participant) any { return p.NextMatchID }},
	"seed":         {Mode: query.Exact, Value: func(p *models.Participant) any { return p.Seed }},
	"createdAt":    {Mode: query.Partial, Value: func(p *models.Participant) any { return p.CreatedAt }},
}

var facilitatorSchema = query.Schema[*models.Facilitator]{
	"tournamentId": {Mode: query.Exact, Value: func(f *models.Facilitator) any { return f.TournamentID }},
	"userId":       {Mode: query.Exact, Value: func(f *models.Facilitator) any { return f.UserID }},
	"createdAt":    {Mode: query.Partial, Value: func(f *models.Facilitator) any { return f.CreatedAt }},
}

var matchSchema = query.Schema[*models.Match]{
	"matchId":      {Mode: query.Exact, Value: func(m *models.Match) any { return m.ID }},
	"tournamentId": {Mode: query.Exact, Value: func(m *models.Match) any { return m.TournamentID }},
	"round":        {Mode: query.Exact, Value: func(m *models.Match) any { return m.Round }},
	"bracketSide":  {Mode: query.Exact, Value: func(m *models.Match) any { return m.BracketSide }},
	"team1Id":      {Mode: query.Exact, Value: func(m *models.Match) any { return m.Team1ID }},
	"team2Id":      {Mode: query.Exact, Value: func(m *models.Match) any { return m.Team2ID }},
	"winnerId":     {Mode: query.Exact, Value: func(m *models.Match) any { return m.WinnerID }},
	"status":       {Mode: query.Exact, Value: func(m *models.Match) any { return m.Status }},
	"location":     {Mode: query.Partial, Value: func(m *models.Match) any { return m.Location }},
	"matchTime":    {Mode: query.Partial, Value: func(m *models.Match) any { return m.MatchTime }},
	"score1":       {Mode: query.Exact, Value: func(m *models.Match) any { return m.Score1 }},
	"score2":       {Mode: query.Exact, Value: func(m *models.Match) any { return m.Score2 }},
}
