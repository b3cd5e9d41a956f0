package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Dosada05/esports-registration/services"
	"github.com/google/uuid"
)

type ParticipantHandler struct {
	responder
	participantService services.ParticipantService
}

func NewParticipantHandler(ps services.ParticipantService, logger *slog.Logger) *ParticipantHandler {
	return &ParticipantHandler{
		responder:          responder{logger: logger},
		participantService: ps,
	}
}

// rosterAction совпадает с сигнатурой методов ParticipantService для команд и фасилитаторов.
type rosterAction func(ctx context.Context, tournamentID uuid.UUID, target, actorID string) (*services.RosterResult, error)

func (h *ParticipantHandler) handleRoster(w http.ResponseWriter, r *http.Request, targetKey string, action rosterAction) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "tournamentId")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	target := queryParam(r, targetKey)
	if target == "" {
		h.errorResponse(w, r, http.StatusBadRequest, targetKey+" query parameter is required")
		return
	}

	result, err := action(r.Context(), id, target, userID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.rosterResponse(w, r, http.StatusCreated, result)
}

// AddTeam godoc
// @Summary Зарегистрировать команду на турнир
// @Tags participants
// @Produce json
// @Param tournamentId query string true "Tournament ID"
// @Param teamId query string true "Team ID"
// @Success 201 {object} services.RosterResult
// @Failure 409 {object} map[string]string "Команда уже зарегистрирована"
// @Security BearerAuth
// @Router /tournaments/addTeam [post]
func (h *ParticipantHandler) AddTeam(w http.ResponseWriter, r *http.Request) {
	h.handleRoster(w, r, "teamId", h.participantService.AddParticipant)
}

// RemoveTeam godoc
// @Summary Удалить команду из турнира
// @Tags participants
// @Produce json
// @Param tournamentId query string true "Tournament ID"
// @Param teamId query string true "Team ID"
// @Success 201 {object} services.RosterResult
// @Success 200 {object} map[string]string "Команда не найдена"
// @Security BearerAuth
// @Router /tournaments/removeTeam [delete]
func (h *ParticipantHandler) RemoveTeam(w http.ResponseWriter, r *http.Request) {
	h.handleRoster(w, r, "teamId", h.participantService.RemoveParticipant)
}

// DisqualifyTeam godoc
// @Summary Дисквалифицировать команду
// @Tags participants
// @Produce json
// @Param tournamentId query string true "Tournament ID"
// @Param teamId query string true "Team ID"
// @Success 201 {object} services.RosterResult
// @Success 200 {object} map[string]string "Команда не найдена"
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments/disqualifyTeam [put]
func (h *ParticipantHandler) DisqualifyTeam(w http.ResponseWriter, r *http.Request) {
	h.handleRoster(w, r, "teamId", h.participantService.DisqualifyParticipant)
}

// AddFacilitator godoc
// @Summary Добавить фасилитатора
// @Tags facilitators
// @Produce json
// @Param tournamentId query string true "Tournament ID"
// @Param userId query string true "User ID"
// @Success 201 {object} services.RosterResult
// @Failure 409 {object} map[string]string "Фасилитатор уже существует"
// @Security BearerAuth
// @Router /tournaments/addFacilitator [post]
func (h *ParticipantHandler) AddFacilitator(w http.ResponseWriter, r *http.Request) {
	h.handleRoster(w, r, "userId", h.participantService.AddFacilitator)
}

// RemoveFacilitator godoc
// @Summary Удалить фасилитатора
// @Tags facilitators
// @Produce json
// @Param tournamentId query string true "Tournament ID"
// @Param userId query string true "User ID"
// @Success 201 {object} services.RosterResult
// @Success 200 {object} map[string]string "Фасилитатор не найден"
// @Security BearerAuth
// @Router /tournaments/removeFacilitator [post]
func (h *ParticipantHandler) RemoveFacilitator(w http.ResponseWriter, r *http.Request) {
	h.handleRoster(w, r, "userId", h.participantService.RemoveFacilitator)
}

// SearchParticipatingTeams godoc
// @Summary Поиск участников
// @Description С tournamentId и teamId возвращается один участник.
// @Tags participants
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /tournaments/searchParticipatingTeams [get]
func (h *ParticipantHandler) SearchParticipatingTeams(w http.ResponseWriter, r *http.Request) {
	params, err := searchParams(r)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	result, err := h.participantService.SearchParticipants(r.Context(), params)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if result.Item != nil {
		h.respond(w, r, http.StatusOK, jsonResponse{"participant": result.Item})
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"participants": result.Items})
}

// SearchFacilitators godoc
// @Summary Поиск фасилитаторов
// @Tags facilitators
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /tournaments/searchFacilitators [get]
func (h *ParticipantHandler) SearchFacilitators(w http.ResponseWriter, r *http.Request) {
	params, err := searchParams(r)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	result, err := h.participantService.SearchFacilitators(r.Context(), params)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if result.Item != nil {
		h.respond(w, r, http.StatusOK, jsonResponse{"facilitator": result.Item})
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"facilitators": result.Items})
}
