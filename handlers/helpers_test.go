package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/esports-registration/middleware"
	"github.com/Dosada05/esports-registration/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResponder() responder {
	return responder{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", services.ErrTieNotAllowed, http.StatusBadRequest, services.ErrTieNotAllowed.Error()},
		{"wrapped validation", fmt.Errorf("%w: got 1-1", services.ErrTieNotAllowed), http.StatusBadRequest, services.ErrTieNotAllowed.Error() + ": got 1-1"},
		{"not found", services.ErrTournamentNotFound, http.StatusNotFound, "tournament not found"},
		{"conflict", services.ErrTeamAlreadyRegistered, http.StatusConflict, "Team is already registered for this tournament."},
		{"unauthorized", services.ErrAuthRequired, http.StatusUnauthorized, "authentication required"},
		{"forbidden", services.ErrNotOrganizer, http.StatusForbidden, services.ErrNotOrganizer.Error()},
		{"transient", fmt.Errorf("%w: deadline", services.ErrTransientStore), http.StatusInternalServerError, "service temporarily unavailable, retry later"},
		{"unavailable", services.ErrLogoUploadDisabled, http.StatusServiceUnavailable, "logo storage is not configured"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "the server encountered a problem and could not process your request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			testResponder().mapServiceErrorToHTTP(rec, req, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, errorBody(t, rec))
		})
	}
}

func TestRosterResponse(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)

	rec := httptest.NewRecorder()
	testResponder().rosterResponse(rec, req, http.StatusCreated, &services.RosterResult{Message: services.MsgTeamNotFound})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Team not found in this tournament."}`, rec.Body.String())

	rec = httptest.NewRecorder()
	testResponder().rosterResponse(rec, req, http.StatusCreated, &services.RosterResult{Changed: true})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"changed":true}`, rec.Body.String())
}

func TestSearchParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?tournamentID=abc&teamId=%20A%20&sortBy=winnerID&sortAsDescending=true", nil)

	params, err := searchParams(req)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"tournamentId": "abc", "teamId": "A"}, params.Filters)
	assert.Equal(t, "winnerId", params.SortBy)
	assert.True(t, params.Descending)

	req = httptest.NewRequest(http.MethodGet, "/?sortAsDescending=yes", nil)
	_, err = searchParams(req)
	assert.Error(t, err)
}

func TestUUIDParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?matchID=0b6f8a4e-3c43-4b4e-9d0a-1f2c6f0e8d11", nil)
	id, err := uuidParam(req, "matchId")
	require.NoError(t, err)
	assert.Equal(t, "0b6f8a4e-3c43-4b4e-9d0a-1f2c6f0e8d11", id.String())

	_, err = uuidParam(httptest.NewRequest(http.MethodGet, "/", nil), "matchId")
	assert.EqualError(t, err, "matchId query parameter is required")

	_, err = uuidParam(httptest.NewRequest(http.MethodGet, "/?matchId=42", nil), "matchId")
	assert.Error(t, err)
}

func TestReadJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "body must not be empty"},
		{"malformed", `{"score1":`, "body contains badly-formed JSON"},
		{"wrong type", `{"score1":"one"}`, `body contains incorrect JSON type for field "score1"`},
		{"unknown key", `{"score3":1}`, `body contains unknown key "score3"`},
		{"two values", `{"score1":1}{"score2":2}`, "body must only contain a single JSON value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(tt.body))
			var dst matchResultInput
			err := readJSON(httptest.NewRecorder(), req, &dst)
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestCurrentUser(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := testResponder().currentUser(rec, req)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = req.WithContext(middleware.WithUserID(req.Context(), "user-7"))
	uid, ok := testResponder().currentUser(rec, req)
	assert.True(t, ok)
	assert.Equal(t, "user-7", uid)
}
