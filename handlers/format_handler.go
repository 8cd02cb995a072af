package handlers

import (
	"net/http"

	"github.com/Dosada05/duel-vault/services"
)

type FormatHandler struct {
	formatService services.FormatService
}

func NewFormatHandler(fs services.FormatService) *FormatHandler {
	return &FormatHandler{
		formatService: fs,
	}
}

type nameRequest struct {
	Name string `json:"name"`
}

// CreateFormat godoc
// @Summary Create a format
// @Tags formats
// @Accept json
// @Produce json
// @Param body body nameRequest true "Format name"
// @Success 201 {object} map[string]interface{} "Format created"
// @Failure 400 {object} map[string]string "Malformed body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Name already in use"
// @Failure 422 {object} map[string]string "Name is required"
// @Security BearerAuth
// @Router /formats [post]
func (h *FormatHandler) CreateFormat(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	format, err := h.formatService.CreateFormat(r.Context(), req.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"format": format}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListFormats godoc
// @Summary List formats
// @Tags formats
// @Produce json
// @Success 200 {object} map[string]interface{} "Formats"
// @Router /formats [get]
func (h *FormatHandler) ListFormats(w http.ResponseWriter, r *http.Request) {
	formats, err := h.formatService.ListFormats(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"formats": formats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateArchetype godoc
// @Summary Create an archetype
// @Tags archetypes
// @Accept json
// @Produce json
// @Param body body nameRequest true "Archetype name"
// @Success 201 {object} map[string]interface{} "Archetype created"
// @Failure 400 {object} map[string]string "Malformed body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Name already in use"
// @Failure 422 {object} map[string]string "Name is required"
// @Security BearerAuth
// @Router /archetypes [post]
func (h *FormatHandler) CreateArchetype(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	archetype, err := h.formatService.CreateArchetype(r.Context(), req.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"archetype": archetype}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListArchetypes godoc
// @Summary List archetypes
// @Tags archetypes
// @Produce json
// @Success 200 {object} map[string]interface{} "Archetypes"
// @Router /archetypes [get]
func (h *FormatHandler) ListArchetypes(w http.ResponseWriter, r *http.Request) {
	archetypes, err := h.formatService.ListArchetypes(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"archetypes": archetypes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
