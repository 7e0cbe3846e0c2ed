package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/association-tournaments/middleware"
	"github.com/Dosada05/association-tournaments/models"
	"github.com/Dosada05/association-tournaments/services"
	"github.com/google/uuid"
)

type RegistrationHandler struct {
	registrationService services.RegistrationService
}

func NewRegistrationHandler(rs services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: rs}
}

// RegisterHandler godoc
// @Summary      Register a player
// @Description  Admits a player to a tournament whose registration is open. Players may only register themselves.
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Param        tournamentID  path      string                      true  "Tournament ID"
// @Param        input         body      services.RegisterInput      true  "Registration"
// @Success      201           {object}  map[string]models.Registration
// @Failure      400           {object}  map[string]string
// @Failure      403           {object}  map[string]string
// @Failure      404           {object}  map[string]string
// @Failure      409           {object}  map[string]string
// @Security     BearerAuth
// @Router       /tournaments/{tournamentID}/registrations [post]
func (h *RegistrationHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to register")
		return
	}
	role, err := middleware.GetUserRoleFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.RegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.PlayerID == "" && !middleware.IsStaff(role) {
		input.PlayerID = userID
	}
	if _, err := uuid.Parse(input.PlayerID); err != nil {
		badRequestResponse(w, r, errors.New("player_id must be a valid UUID"))
		return
	}
	if !middleware.IsStaff(role) && input.PlayerID != userID {
		mapServiceErrorToHTTP(w, r, services.ErrForbidden)
		return
	}

	registration, err := h.registrationService.Register(r.Context(), tournamentID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": registration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler godoc
// @Summary      List registrations
// @Description  Includes payment details and notes, so it is limited to admins and operators.
// @Tags         registrations
// @Produce      json
// @Param        tournamentID  path      string  true   "Tournament ID"
// @Param        status        query     string  false  "Status filter"
// @Success      200           {object}  map[string][]models.Registration
// @Failure      401           {object}  map[string]string
// @Failure      403           {object}  map[string]string
// @Failure      404           {object}  map[string]string
// @Security     BearerAuth
// @Router       /tournaments/{tournamentID}/registrations [get]
func (h *RegistrationHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var status *models.RegistrationStatus
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		s := models.RegistrationStatus(statusStr)
		status = &s
	}

	registrations, err := h.registrationService.ListRegistrations(r.Context(), tournamentID, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": registrations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateStatusHandler godoc
// @Summary      Change registration status
// @Description  Reactivating a cancelled or withdrawn registration re-checks capacity and duplicates.
// @Tags         registrations
// @Produce      json
// @Param        tournamentID    path      string  true  "Tournament ID"
// @Param        registrationID  path      string  true  "Registration ID"
// @Param        status          query     string  true  "Target status"
// @Success      200             {object}  map[string]models.Registration
// @Failure      400             {object}  map[string]string
// @Failure      404             {object}  map[string]string
// @Security     BearerAuth
// @Router       /tournaments/{tournamentID}/registrations/{registrationID}/status [patch]
func (h *RegistrationHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	registrationID, err := getIDFromURL(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	statusStr := r.URL.Query().Get("status")
	if statusStr == "" {
		badRequestResponse(w, r, errors.New("missing status query parameter"))
		return
	}

	registration, err := h.registrationService.UpdateRegistrationStatus(r.Context(), tournamentID, registrationID, models.RegistrationStatus(statusStr))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": registration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
