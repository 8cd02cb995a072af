package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Dosada05/duel-vault/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

// matchRequest is the body of create and update. Counters and standings are
// never part of it.
type matchRequest struct {
	TournamentID *int                 `json:"tournament_id"`
	DeckAID      int                  `json:"deck_a_id"`
	DeckBID      int                  `json:"deck_b_id"`
	WinnerID     *int                 `json:"winner_id"`
	DeckAScore   int                  `json:"deck_a_score"`
	DeckBScore   int                  `json:"deck_b_score"`
	Notes        *string              `json:"notes"`
	Date         time.Time            `json:"date"`
	Bracket      *services.BracketRef `json:"bracket"`
}

func (req matchRequest) toInput(id *int) services.UpsertMatchInput {
	return services.UpsertMatchInput{
		ID:           id,
		TournamentID: req.TournamentID,
		DeckAID:      req.DeckAID,
		DeckBID:      req.DeckBID,
		WinnerID:     req.WinnerID,
		DeckAScore:   req.DeckAScore,
		DeckBScore:   req.DeckBScore,
		Notes:        req.Notes,
		Date:         req.Date,
		Bracket:      req.Bracket,
	}
}

// CreateMatch godoc
// @Summary Record a match
// @Tags matches
// @Description Records a match between two decks and updates deck counters and tournament standings in one transaction.
// @Description An optional bracket reference also advances the tournament bracket; a failed bracket update does not fail the request.
// @Accept json
// @Produce json
// @Param body body matchRequest true "Match"
// @Success 201 {object} map[string]interface{} "Match created"
// @Failure 400 {object} map[string]string "Malformed body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 422 {object} map[string]string "Validation failed"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /matches [post]
func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.UpsertMatch(r.Context(), req.toInput(nil))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateMatch godoc
// @Summary Update a match
// @Tags matches
// @Description Replaces a match. Counters and standings of every affected deck and tournament are adjusted by the difference.
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body matchRequest true "Match"
// @Success 200 {object} map[string]interface{} "Match updated"
// @Failure 400 {object} map[string]string "Malformed body or ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Match not found"
// @Failure 422 {object} map[string]string "Validation failed"
// @Failure 500 {object} map[string]string "Internal server error"
// @Security BearerAuth
// @Router /matches/{matchID} [put]
func (h *MatchHandler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req matchRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.UpsertMatch(r.Context(), req.toInput(&matchID))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMatch godoc
// @Summary Get a match
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{} "Match with decks and tournament"
// @Failure 400 {object} map[string]string "Invalid ID"
// @Failure 404 {object} map[string]string "Match not found"
// @Router /matches/{matchID} [get]
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMatches godoc
// @Summary List matches
// @Tags matches
// @Produce json
// @Success 200 {object} map[string]interface{} "Matches, newest first"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /matches [get]
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matchService.ListMatches(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// HeadToHead godoc
// @Summary Head-to-head record of two decks
// @Tags matches
// @Produce json
// @Param deck query int true "Deck ID"
// @Param opponent query int true "Opponent deck ID"
// @Success 200 {object} map[string]interface{} "Record and matches from the deck's point of view"
// @Failure 400 {object} map[string]string "Invalid query"
// @Failure 404 {object} map[string]string "Deck not found"
// @Router /matches/head-to-head [get]
func (h *MatchHandler) HeadToHead(w http.ResponseWriter, r *http.Request) {
	deckID, err := strconv.Atoi(r.URL.Query().Get("deck"))
	if err != nil || deckID <= 0 {
		badRequestResponse(w, r, errors.New("query parameter deck must be a positive integer"))
		return
	}
	opponentID, err := strconv.Atoi(r.URL.Query().Get("opponent"))
	if err != nil || opponentID <= 0 {
		badRequestResponse(w, r, errors.New("query parameter opponent must be a positive integer"))
		return
	}

	h2h, err := h.matchService.ListHeadToHead(r.Context(), deckID, opponentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"head_to_head": h2h}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteMatch godoc
// @Summary Delete a match
// @Tags matches
// @Description Deletes a match and reverses its contribution to deck counters and tournament standings.
// @Param matchID path int true "Match ID"
// @Success 204 "Match deleted"
// @Failure 400 {object} map[string]string "Invalid ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Match not found"
// @Security BearerAuth
// @Router /matches/{matchID} [delete]
func (h *MatchHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.DeleteMatch(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteMatches godoc
// @Summary Delete several matches
// @Tags matches
// @Description Deletes all listed matches in one transaction. If any id is unknown nothing is deleted.
// @Accept json
// @Produce json
// @Param body body object true "{\"ids\": [1, 2]} or [1, 2]"
// @Success 200 {object} map[string]interface{} "Deleted ids"
// @Failure 400 {object} map[string]string "Malformed body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Some matches not found"
// @Failure 422 {object} map[string]string "Empty id list"
// @Security BearerAuth
// @Router /matches [delete]
func (h *MatchHandler) DeleteMatches(w http.ResponseWriter, r *http.Request) {
	ids, err := readIDList(w, r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.DeleteMatches(r.Context(), ids); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ids": ids}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResyncBracket godoc
// @Summary Retry the bracket update of a match
// @Tags matches
// @Description Applies the stored result of a tournament match to its bracket stage again and returns the sync outcome.
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body services.BracketRef true "Bracket reference"
// @Success 200 {object} map[string]interface{} "Sync result"
// @Failure 400 {object} map[string]string "Malformed body or ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Match not found"
// @Failure 422 {object} map[string]string "Friendly matches have no bracket"
// @Security BearerAuth
// @Router /matches/{matchID}/bracket-sync [post]
func (h *MatchHandler) ResyncBracket(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var ref services.BracketRef
	if err := readJSON(w, r, &ref); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.matchService.ResyncBracket(r.Context(), matchID, ref)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"sync": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
