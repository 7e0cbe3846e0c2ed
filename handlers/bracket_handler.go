package handlers

import (
	"net/http"

	"github.com/Dosada05/association-tournaments/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bs services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bs}
}

// GenerateHandler godoc
// @Summary      Generate a bracket
// @Description  Builds a fresh single elimination bracket from the confirmed registrations.
// @Tags         brackets
// @Produce      json
// @Param        tournamentID  path      string  true  "Tournament ID"
// @Success      200           {object}  map[string]services.GeneratedBracket
// @Failure      400           {object}  map[string]string
// @Failure      404           {object}  map[string]string
// @Security     BearerAuth
// @Router       /tournaments/{tournamentID}/bracket [post]
func (h *BracketHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.GenerateBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
