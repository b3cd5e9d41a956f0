package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dosada05/esports-registration/services"
)

type MatchHandler struct {
	responder
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{
		responder:    responder{logger: logger},
		matchService: ms,
	}
}

type matchResultInput struct {
	Score1 *int `json:"score1"`
	Score2 *int `json:"score2"`
}

// SetMatchResult godoc
// @Summary Записать результат матча
// @Description Ничья и отрицательный счет запрещены. Завершение раунда создает следующий.
// @Tags matches
// @Accept json
// @Produce json
// @Param matchId query string true "Match ID"
// @Param input body matchResultInput true "Счет"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "Матч уже сыгран"
// @Security BearerAuth
// @Router /tournaments/setMatchResult [put]
func (h *MatchHandler) SetMatchResult(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	matchID, err := uuidParam(r, "matchId")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var input matchResultInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if input.Score1 == nil || input.Score2 == nil {
		h.badRequestResponse(w, r, errors.New("score1 and score2 are required"))
		return
	}

	match, err := h.matchService.UpdateMatchResult(r.Context(), matchID, *input.Score1, *input.Score2, userID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.respond(w, r, http.StatusCreated, jsonResponse{"match": match})
}

// SearchMatches godoc
// @Summary Поиск матчей
// @Description С matchId возвращается один матч.
// @Tags matches
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /tournaments/searchMatches [get]
func (h *MatchHandler) SearchMatches(w http.ResponseWriter, r *http.Request) {
	params, err := searchParams(r)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	result, err := h.matchService.SearchMatches(r.Context(), params)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if result.Item != nil {
		h.respond(w, r, http.StatusOK, jsonResponse{"match": result.Item})
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"matches": result.Items})
}
