package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/association-tournaments/models"
	"github.com/Dosada05/association-tournaments/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts}
}

// CreateHandler godoc
// @Summary      Create a tournament
// @Description  Creates a tournament in DRAFT status.
// @Tags         tournaments
// @Accept       json
// @Produce      json
// @Param        input  body      services.CreateTournamentInput  true  "Tournament"
// @Success      201    {object}  map[string]services.TournamentView
// @Failure      400    {object}  map[string]string
// @Security     BearerAuth
// @Router       /tournaments [post]
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": services.NewTournamentView(tournament)}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler godoc
// @Summary      Get a tournament
// @Tags         tournaments
// @Produce      json
// @Param        tournamentID  path      string  true  "Tournament ID"
// @Success      200           {object}  map[string]services.TournamentView
// @Failure      404           {object}  map[string]string
// @Router       /tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": services.NewTournamentView(tournament)}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler godoc
// @Summary      List tournaments
// @Tags         tournaments
// @Produce      json
// @Param        status    query     string  false  "Status filter"
// @Param        featured  query     bool    false  "Featured filter"
// @Param        limit     query     int     false  "Page size"
// @Param        offset    query     int     false  "Offset"
// @Success      200       {object}  map[string][]models.Tournament
// @Router       /tournaments [get]
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var filter services.ListTournamentsFilter
	query := r.URL.Query()

	if statusStr := query.Get("status"); statusStr != "" {
		status := models.TournamentStatus(statusStr)
		filter.Status = &status
	}
	if featuredStr := query.Get("featured"); featuredStr != "" {
		featured, err := strconv.ParseBool(featuredStr)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid featured query parameter"))
			return
		}
		filter.Featured = &featured
	}
	limit, ok, err := parseIntQuery(r, "limit", 1)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if ok {
		filter.Limit = limit
	} else {
		filter.Limit = 20
	}
	if filter.Offset, _, err = parseIntQuery(r, "offset", 0); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournaments, err := h.tournamentService.ListTournaments(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateStatusHandler godoc
// @Summary      Change tournament status
// @Description  Moves the tournament to the given status. Moving to the current status is a no-op.
// @Tags         tournaments
// @Produce      json
// @Param        tournamentID  path      string  true  "Tournament ID"
// @Param        status        query     string  true  "Target status"
// @Success      200           {object}  map[string]services.TournamentView
// @Failure      400           {object}  map[string]string
// @Failure      404           {object}  map[string]string
// @Failure      409           {object}  map[string]string
// @Security     BearerAuth
// @Router       /tournaments/{tournamentID}/status [patch]
func (h *TournamentHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	statusStr := r.URL.Query().Get("status")
	if statusStr == "" {
		badRequestResponse(w, r, errors.New("missing status query parameter"))
		return
	}

	tournament, err := h.tournamentService.UpdateTournamentStatus(r.Context(), id, models.TournamentStatus(statusStr))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": services.NewTournamentView(tournament)}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
