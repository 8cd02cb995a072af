package models

// Format is the game format a deck is built for (e.g. "Speed Duel").
type Format struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Archetype is the strategy family of a deck.
type Archetype struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
