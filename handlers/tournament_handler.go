package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Dosada05/esports-registration/services"
)

const maxLogoUploadSize = 5 << 20

type TournamentHandler struct {
	responder
	tournamentService services.TournamentService
	matchService      services.MatchService
}

func NewTournamentHandler(ts services.TournamentService, ms services.MatchService, logger *slog.Logger) *TournamentHandler {
	return &TournamentHandler{
		responder:         responder{logger: logger},
		tournamentService: ts,
		matchService:      ms,
	}
}

// Create godoc
// @Summary Создать турнир
// @Tags tournaments
// @Accept json
// @Produce json
// @Param input body services.CreateTournamentInput true "Данные турнира"
// @Success 201 {object} map[string]interface{} "Турнир создан"
// @Failure 400 {object} map[string]string "Ошибка валидации"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Security BearerAuth
// @Router /tournaments/create [post]
func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), userID, input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.respond(w, r, http.StatusCreated, jsonResponse{"tournament": tournament})
}

// Search godoc
// @Summary Поиск турниров
// @Description Любое поле турнира используется как фильтр. С tournamentId возвращается один турнир.
// @Tags tournaments
// @Produce json
// @Param tournamentId query string false "Tournament ID"
// @Param sortBy query string false "Поле сортировки"
// @Param sortAsDescending query bool false "Сортировка по убыванию"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Турнир не найден"
// @Router /tournaments/search [get]
func (h *TournamentHandler) Search(w http.ResponseWriter, r *http.Request) {
	params, err := searchParams(r)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	result, err := h.tournamentService.SearchTournaments(r.Context(), params)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	if result.Item != nil {
		h.respond(w, r, http.StatusOK, jsonResponse{"tournament": result.Item})
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"tournaments": result.Items})
}

// UpdateDetails godoc
// @Summary Обновить данные турнира
// @Tags tournaments
// @Accept json
// @Produce json
// @Param tournamentId query string true "Tournament ID"
// @Param input body services.UpdateTournamentInput true "Изменяемые поля"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments/updateDetails [put]
func (h *TournamentHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "tournamentId")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.UpdateTournamentDetails(r.Context(), id, userID, input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

// Start godoc
// @Summary Запустить турнир и сгенерировать первый раунд
// @Tags tournaments
// @Produce json
// @Param tournamentId query string true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Турнир не в статусе Upcoming или мало команд"
// @Security BearerAuth
// @Router /tournaments/start [put]
func (h *TournamentHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "tournamentId")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.StartTournament(r.Context(), id, userID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

// GetBracket godoc
// @Summary Сетка турнира
// @Tags tournaments
// @Produce json
// @Param tournamentId query string true "Tournament ID"
// @Success 200 {object} services.Bracket
// @Failure 404 {object} map[string]string
// @Router /tournaments/getBracket [get]
func (h *TournamentHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "tournamentId")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.matchService.GetBracket(r.Context(), id)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, bracket)
}

// Cancel godoc
// @Summary Отменить турнир
// @Tags tournaments
// @Produce json
// @Param tournamentId query string true "Tournament ID"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments/cancel [put]
func (h *TournamentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "tournamentId")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CancelTournament(r.Context(), id, userID)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.respond(w, r, http.StatusCreated, jsonResponse{"tournament": tournament})
}

// Delete godoc
// @Summary Удалить турнир (только Upcoming)
// @Tags tournaments
// @Produce json
// @Param tournamentId query string true "Tournament ID"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /tournaments/delete [delete]
func (h *TournamentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "tournamentId")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.DeleteTournament(r.Context(), id, userID); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, jsonResponse{"message": "tournament deleted"})
}

// UploadLogo godoc
// @Summary Загрузить логотип турнира
// @Tags tournaments
// @Accept multipart/form-data
// @Produce json
// @Param tournamentId query string true "Tournament ID"
// @Param logo formData file true "JPEG, PNG или WebP"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Security BearerAuth
// @Router /tournaments/uploadLogo [put]
func (h *TournamentHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "tournamentId")
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxLogoUploadSize+1024)
	if err := r.ParseMultipartForm(maxLogoUploadSize); err != nil {
		h.badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		h.badRequestResponse(w, r, fmt.Errorf("failed to get logo file from form: %w", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		h.badRequestResponse(w, r, errors.New("content-type header is required for logo"))
		return
	}

	tournament, err := h.tournamentService.UploadTournamentLogo(r.Context(), id, userID, file, contentType)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}
