package models

import "time"

// Deck is a tracked card-game deck. Wins, Losses and Ties are maintained by the
// match service and are never written from client input.
type Deck struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	FormatID    int       `json:"format_id" db:"format_id"`
	ArchetypeID int       `json:"archetype_id" db:"archetype_id"`
	Description *string   `json:"description,omitempty" db:"description"`
	Wins        int       `json:"wins" db:"wins"`
	Losses      int       `json:"losses" db:"losses"`
	Ties        int       `json:"ties" db:"ties"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	Format          *Format               `json:"format,omitempty" db:"-"`
	Archetype       *Archetype            `json:"archetype,omitempty" db:"-"`
	Matches         []Match               `json:"matches,omitempty" db:"-"`
	TournamentStats []TournamentDeckStats `json:"tournament_stats,omitempty" db:"-"`
}

// WinRate is wins over all recorded results, 0 when the deck has none.
func (d *Deck) WinRate() float64 {
	total := d.Wins + d.Losses + d.Ties
	if total == 0 {
		return 0
	}
	return float64(d.Wins) / float64(total)
}
