package models

import "time"

// Match is one game record between two decks. Outcome is derived from WinnerID.
type Match struct {
	ID           int       `json:"id" db:"id"`
	TournamentID *int      `json:"tournament_id,omitempty" db:"tournament_id"`
	DeckAID      int       `json:"deck_a_id" db:"deck_a_id"`
	DeckBID      int       `json:"deck_b_id" db:"deck_b_id"`
	WinnerID     *int      `json:"winner_id,omitempty" db:"winner_id"` // nil is a tie
	DeckAScore   int       `json:"deck_a_score" db:"deck_a_score"`
	DeckBScore   int       `json:"deck_b_score" db:"deck_b_score"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	Date         time.Time `json:"date" db:"date"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	// Populated by services when listing.
	DeckA      *Deck       `json:"deck_a,omitempty" db:"-"`
	DeckB      *Deck       `json:"deck_b,omitempty" db:"-"`
	Tournament *Tournament `json:"tournament,omitempty" db:"-"`
}

// Kind is "tournament" for matches played inside a tournament and
// "friendly" otherwise.
func (m *Match) Kind() string {
	if m.TournamentID != nil {
		return "tournament"
	}
	return "friendly"
}

// Involves reports whether the deck played in the match.
func (m *Match) Involves(deckID int) bool {
	return m.DeckAID == deckID || m.DeckBID == deckID
}
