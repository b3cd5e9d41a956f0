package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/esports-registration/middleware"
	"github.com/Dosada05/esports-registration/services"
	"github.com/google/uuid"
)

type jsonResponse map[string]interface{}

// responder пишет ответы и логирует серверные ошибки.
type responder struct {
	logger *slog.Logger
}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // ошибка программиста: передан не указатель
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func (rs responder) respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if err := writeJSON(w, status, data, nil); err != nil {
		rs.logger.Error("failed to write response",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
}

func (rs responder) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	rs.respond(w, r, status, jsonResponse{"error": message})
}

func (rs responder) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	rs.logger.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	message := "the server encountered a problem and could not process your request"
	rs.errorResponse(w, r, http.StatusInternalServerError, message)
}

func (rs responder) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	rs.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (rs responder) unauthorizedResponse(w http.ResponseWriter, r *http.Request) {
	rs.errorResponse(w, r, http.StatusUnauthorized, "authentication required")
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы по их классу.
func (rs responder) mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		rs.errorResponse(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		rs.errorResponse(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		rs.errorResponse(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		rs.errorResponse(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbidden):
		rs.errorResponse(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrTransientStore):
		// Транзакция уже откатилась, клиент может повторить запрос.
		rs.logger.Warn("store unavailable", slog.String("path", r.URL.Path), slog.Any("error", err))
		rs.errorResponse(w, r, http.StatusInternalServerError, "service temporarily unavailable, retry later")
	case errors.Is(err, services.ErrUnavailable):
		rs.errorResponse(w, r, http.StatusServiceUnavailable, err.Error())
	default:
		rs.serverErrorResponse(w, r, err)
	}
}

// rosterResponse renders informational outcomes as 200 {"message": ...} and
// changes with successStatus.
func (rs responder) rosterResponse(w http.ResponseWriter, r *http.Request, successStatus int, result *services.RosterResult) {
	if !result.Changed && result.Message != "" {
		rs.respond(w, r, http.StatusOK, jsonResponse{"message": result.Message})
		return
	}
	rs.respond(w, r, successStatus, result)
}

// queryKeyAliases нормализует регистр ключей: tournamentID -> tournamentId.
var queryKeyAliases = map[string]string{
	"tournamentID": "tournamentId",
	"teamID":       "teamId",
	"userID":       "userId",
	"matchID":      "matchId",
	"team1ID":      "team1Id",
	"team2ID":      "team2Id",
	"winnerID":     "winnerId",
	"winnerTeamID": "winnerTeamId",
	"nextMatchID":  "nextMatchId",
}

func normalizeKey(key string) string {
	if alias, ok := queryKeyAliases[key]; ok {
		return alias
	}
	return key
}

// queryParam reads a query value by its canonical key or any alias of it.
func queryParam(r *http.Request, key string) string {
	for k, values := range r.URL.Query() {
		if normalizeKey(k) == key && len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
	}
	return ""
}

func uuidParam(r *http.Request, key string) (uuid.UUID, error) {
	raw := queryParam(r, key)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s query parameter is required", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s format: %q", key, raw)
	}
	return id, nil
}

// searchParams turns the query string into service search params. sortBy and
// sortAsDescending are reserved; every other key is a filter.
func searchParams(r *http.Request) (services.SearchParams, error) {
	params := services.SearchParams{Filters: make(map[string]string)}
	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		value := strings.TrimSpace(values[0])
		switch key {
		case "sortBy":
			params.SortBy = normalizeKey(value)
		case "sortAsDescending":
			if value == "" {
				continue
			}
			desc, err := strconv.ParseBool(value)
			if err != nil {
				return params, fmt.Errorf("invalid sortAsDescending value: %q", value)
			}
			params.Descending = desc
		default:
			params.Filters[normalizeKey(key)] = value
		}
	}
	return params, nil
}

// currentUser returns the authenticated uid or writes 401.
func (rs responder) currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		rs.unauthorizedResponse(w, r)
		return "", false
	}
	return userID, true
}
