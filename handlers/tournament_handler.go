package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Dosada05/duel-vault/models"
	"github.com/Dosada05/duel-vault/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
	}
}

type createTournamentRequest struct {
	Name      string     `json:"name"`
	FormatID  int        `json:"format_id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Notes     *string    `json:"notes"`
	Link      *string    `json:"link"`
}

type updateTournamentRequest struct {
	Name      *string    `json:"name"`
	FormatID  *int       `json:"format_id"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Notes     *string    `json:"notes"`
	Link      *string    `json:"link"`
}

type uploadStageRequest struct {
	Name     string           `json:"name"`
	Type     models.StageType `json:"type"`
	Document json.RawMessage  `json:"document"`
}

type finalRankRequest struct {
	FinalRank *int `json:"final_rank"`
}

// CreateHandler godoc
// @Summary Create a tournament
// @Tags tournaments
// @Description The status is derived from the start and end dates.
// @Accept json
// @Produce json
// @Param body body createTournamentRequest true "Tournament"
// @Success 201 {object} map[string]interface{} "Tournament created"
// @Failure 400 {object} map[string]string "Malformed body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 422 {object} map[string]string "Validation failed"
// @Security BearerAuth
// @Router /tournaments [post]
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req createTournamentRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), services.CreateTournamentInput{
		Name:      req.Name,
		FormatID:  req.FormatID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Notes:     req.Notes,
		Link:      req.Link,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler godoc
// @Summary Get a tournament
// @Tags tournaments
// @Description Returns the tournament with its format, matches, standings and stages.
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{} "Tournament"
// @Failure 400 {object} map[string]string "Invalid ID"
// @Failure 404 {object} map[string]string "Tournament not found"
// @Router /tournaments/{tournamentID} [get]
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

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler godoc
// @Summary List tournaments
// @Tags tournaments
// @Produce json
// @Success 200 {object} map[string]interface{} "Tournaments"
// @Router /tournaments [get]
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournamentService.ListTournaments(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateDetailsHandler godoc
// @Summary Update tournament details
// @Tags tournaments
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body updateTournamentRequest true "Fields to change"
// @Success 200 {object} map[string]interface{} "Tournament updated"
// @Failure 400 {object} map[string]string "Malformed body or ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Tournament not found"
// @Failure 422 {object} map[string]string "Validation failed"
// @Security BearerAuth
// @Router /tournaments/{tournamentID} [put]
func (h *TournamentHandler) UpdateDetailsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req updateTournamentRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if req.Name == nil && req.FormatID == nil && req.StartDate == nil && req.EndDate == nil && req.Notes == nil && req.Link == nil {
		badRequestResponse(w, r, errors.New("at least one field must be provided for update"))
		return
	}

	tournament, err := h.tournamentService.UpdateTournament(r.Context(), id, services.UpdateTournamentInput{
		Name:      req.Name,
		FormatID:  req.FormatID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Notes:     req.Notes,
		Link:      req.Link,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler godoc
// @Summary Delete a tournament
// @Tags tournaments
// @Description Its matches are kept as friendly matches; stage documents are removed.
// @Param tournamentID path int true "Tournament ID"
// @Success 204 "Tournament deleted"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Tournament not found"
// @Security BearerAuth
// @Router /tournaments/{tournamentID} [delete]
func (h *TournamentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.DeleteTournament(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BulkDeleteHandler godoc
// @Summary Delete several tournaments
// @Tags tournaments
// @Accept json
// @Produce json
// @Param body body object true "{\"ids\": [1, 2]} or [1, 2]"
// @Success 200 {object} map[string]interface{} "Deleted ids"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Some tournaments not found"
// @Security BearerAuth
// @Router /tournaments [delete]
func (h *TournamentHandler) BulkDeleteHandler(w http.ResponseWriter, r *http.Request) {
	ids, err := readIDList(w, r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.DeleteTournaments(r.Context(), ids); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ids": ids}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadStageHandler godoc
// @Summary Upload a bracket stage
// @Tags stages
// @Description Stores or replaces the bracket document of a stage. The document is validated before it is stored.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param stageOrder path int true "Stage order, starting at 1"
// @Param body body uploadStageRequest true "Stage"
// @Success 200 {object} map[string]interface{} "Stage stored"
// @Failure 400 {object} map[string]string "Malformed body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Tournament not found"
// @Failure 422 {object} map[string]string "Invalid stage or document"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/stages/{stageOrder} [put]
func (h *TournamentHandler) UploadStageHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	order, err := getIDFromURL(r, "stageOrder")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req uploadStageRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(req.Document) == 0 {
		badRequestResponse(w, r, errors.New("document is required"))
		return
	}

	stage, err := h.tournamentService.UploadStage(r.Context(), services.UploadStageInput{
		TournamentID: tournamentID,
		Order:        order,
		Name:         req.Name,
		Type:         req.Type,
		Document:     req.Document,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stage": stage}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetStageHandler godoc
// @Summary Get a bracket stage
// @Tags stages
// @Description Returns the stage document with participants resolved to decks for this request.
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param stageOrder path int true "Stage order, starting at 1"
// @Success 200 {object} map[string]interface{} "Stage view"
// @Failure 404 {object} map[string]string "Stage not found"
// @Router /tournaments/{tournamentID}/stages/{stageOrder} [get]
func (h *TournamentHandler) GetStageHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	order, err := getIDFromURL(r, "stageOrder")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.tournamentService.GetStage(r.Context(), tournamentID, order)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stage": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListStandingsHandler godoc
// @Summary Tournament standings
// @Tags standings
// @Description Standings sorted by wins, then losses, then the most recent match.
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{} "Standings"
// @Failure 404 {object} map[string]string "Tournament not found"
// @Router /tournaments/{tournamentID}/standings [get]
func (h *TournamentHandler) ListStandingsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.tournamentService.ListStandings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetFinalRankHandler godoc
// @Summary Set a deck's final rank
// @Tags standings
// @Description Only the rank can be set; win, loss and tie counts are derived from matches. A null rank clears it.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param deckID path int true "Deck ID"
// @Param body body finalRankRequest true "Rank"
// @Success 200 {object} map[string]interface{} "Standing updated"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Standing not found"
// @Failure 422 {object} map[string]string "Invalid rank"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/standings/{deckID} [put]
func (h *TournamentHandler) SetFinalRankHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	deckID, err := getIDFromURL(r, "deckID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req finalRankRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standing, err := h.tournamentService.SetFinalRank(r.Context(), tournamentID, deckID, req.FinalRank)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standing": standing}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
