package handlers

import (
	"net/http"

	"github.com/Dosada05/duel-vault/services"
)

type DeckHandler struct {
	deckService services.DeckService
}

func NewDeckHandler(ds services.DeckService) *DeckHandler {
	return &DeckHandler{deckService: ds}
}

type createDeckRequest struct {
	Name        string  `json:"name"`
	FormatID    int     `json:"format_id"`
	ArchetypeID int     `json:"archetype_id"`
	Description *string `json:"description"`
}

type updateDeckRequest struct {
	Name        *string `json:"name"`
	FormatID    *int    `json:"format_id"`
	ArchetypeID *int    `json:"archetype_id"`
	Description *string `json:"description"`
}

// CreateDeck godoc
// @Summary Create a deck
// @Tags decks
// @Accept json
// @Produce json
// @Param body body createDeckRequest true "Deck details"
// @Success 201 {object} map[string]interface{} "Deck created"
// @Failure 400 {object} map[string]string "Malformed body"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Name already in use"
// @Failure 422 {object} map[string]string "Validation failed"
// @Security BearerAuth
// @Router /decks [post]
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	var req createDeckRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	deck, err := h.deckService.CreateDeck(r.Context(), services.CreateDeckInput{
		Name:        req.Name,
		FormatID:    req.FormatID,
		ArchetypeID: req.ArchetypeID,
		Description: req.Description,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"deck": deck}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetDeck godoc
// @Summary Get a deck
// @Tags decks
// @Description Returns the deck with its format, archetype, matches and per-tournament stats.
// @Produce json
// @Param deckID path int true "Deck ID"
// @Success 200 {object} map[string]interface{} "Deck"
// @Failure 400 {object} map[string]string "Invalid ID"
// @Failure 404 {object} map[string]string "Deck not found"
// @Router /decks/{deckID} [get]
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	deckID, err := getIDFromURL(r, "deckID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	deck, err := h.deckService.GetDeck(r.Context(), deckID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"deck": deck}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListDecks godoc
// @Summary List decks
// @Tags decks
// @Produce json
// @Success 200 {object} map[string]interface{} "Decks"
// @Router /decks [get]
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.deckService.ListDecks(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"decks": decks}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateDeck godoc
// @Summary Update deck details
// @Tags decks
// @Description Changes name, format, archetype or description. Win, loss and tie counters are derived from matches and cannot be set.
// @Accept json
// @Produce json
// @Param deckID path int true "Deck ID"
// @Param body body updateDeckRequest true "Fields to change"
// @Success 200 {object} map[string]interface{} "Deck updated"
// @Failure 400 {object} map[string]string "Malformed body or ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Deck not found"
// @Failure 409 {object} map[string]string "Name already in use"
// @Security BearerAuth
// @Router /decks/{deckID} [put]
func (h *DeckHandler) UpdateDeck(w http.ResponseWriter, r *http.Request) {
	deckID, err := getIDFromURL(r, "deckID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req updateDeckRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	deck, err := h.deckService.UpdateDeck(r.Context(), deckID, services.UpdateDeckInput{
		Name:        req.Name,
		FormatID:    req.FormatID,
		ArchetypeID: req.ArchetypeID,
		Description: req.Description,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"deck": deck}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteDeck godoc
// @Summary Delete a deck
// @Tags decks
// @Param deckID path int true "Deck ID"
// @Success 204 "Deck deleted"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Deck not found"
// @Failure 409 {object} map[string]string "Deck still has matches"
// @Security BearerAuth
// @Router /decks/{deckID} [delete]
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	deckID, err := getIDFromURL(r, "deckID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.deckService.DeleteDeck(r.Context(), deckID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteDecks godoc
// @Summary Delete several decks
// @Tags decks
// @Accept json
// @Produce json
// @Param body body object true "{\"ids\": [1, 2]} or [1, 2]"
// @Success 200 {object} map[string]interface{} "Deleted ids"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Some decks not found"
// @Failure 409 {object} map[string]string "A deck still has matches"
// @Security BearerAuth
// @Router /decks [delete]
func (h *DeckHandler) DeleteDecks(w http.ResponseWriter, r *http.Request) {
	ids, err := readIDList(w, r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.deckService.DeleteDecks(r.Context(), ids); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ids": ids}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecalculateCounters godoc
// @Summary Rebuild deck counters from its matches
// @Tags decks
// @Produce json
// @Param deckID path int true "Deck ID"
// @Success 200 {object} map[string]interface{} "Deck with rebuilt counters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Deck not found"
// @Security BearerAuth
// @Router /decks/{deckID}/recalculate [post]
func (h *DeckHandler) RecalculateCounters(w http.ResponseWriter, r *http.Request) {
	deckID, err := getIDFromURL(r, "deckID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	deck, err := h.deckService.RecalculateCounters(r.Context(), deckID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"deck": deck}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
