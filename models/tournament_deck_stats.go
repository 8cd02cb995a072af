package models

import "time"

// TournamentDeckStats is the standings row of one deck inside one tournament.
// It is derived from the tournament's matches and never edited by hand,
// except for FinalRank.
type TournamentDeckStats struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	DeckID       int       `json:"deck_id" db:"deck_id"`
	Wins         int       `json:"wins" db:"wins"`
	Losses       int       `json:"losses" db:"losses"`
	Ties         int       `json:"ties" db:"ties"`
	FinalRank    *int      `json:"final_rank,omitempty" db:"final_rank"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	// Position is computed when standings are listed.
	Position   int         `json:"position,omitempty" db:"-"`
	Deck       *Deck       `json:"deck,omitempty" db:"-"`
	Tournament *Tournament `json:"tournament,omitempty" db:"-"`
}
