package models

import (
	"fmt"
	"time"
)

// TournamentStatus mirrors the tournament_status ENUM in the database.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusOngoing   TournamentStatus = "ongoing"
	StatusCompleted TournamentStatus = "completed"
)

// StageType is the bracket kind of a tournament stage.
type StageType string

const (
	StageSingleElimination StageType = "single_elimination"
	StageDoubleElimination StageType = "double_elimination"
	StageRoundRobin        StageType = "round_robin"
)

func (t StageType) Valid() bool {
	switch t {
	case StageSingleElimination, StageDoubleElimination, StageRoundRobin:
		return true
	}
	return false
}

// Tournament groups matches into a bracket.
type Tournament struct {
	ID        int              `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	FormatID  int              `json:"format_id" db:"format_id"`
	StartDate time.Time        `json:"start_date" db:"start_date"`
	EndDate   *time.Time       `json:"end_date,omitempty" db:"end_date"`
	Status    TournamentStatus `json:"status" db:"status"`
	Notes     *string          `json:"notes,omitempty" db:"notes"`
	Link      *string          `json:"link,omitempty" db:"link"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`

	// Related data, loaded on demand.
	Format    *Format               `json:"format,omitempty" db:"-"`
	Matches   []Match               `json:"matches,omitempty" db:"-"`
	DeckStats []TournamentDeckStats `json:"deck_stats,omitempty" db:"-"`
	Stages    []Stage               `json:"stages,omitempty" db:"-"`
}

// StatusAt returns the status the tournament should have at the given time
// according to its schedule.
func (t *Tournament) StatusAt(now time.Time) TournamentStatus {
	if now.Before(t.StartDate) {
		return StatusUpcoming
	}
	if t.EndDate != nil && !now.Before(*t.EndDate) {
		return StatusCompleted
	}
	return StatusOngoing
}

// Stage is one bracket phase of a tournament. Its bracket document lives in
// object storage under ObjectKey.
type Stage struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	Order        int       `json:"order" db:"stage_order"`
	Name         string    `json:"name" db:"name"`
	Type         StageType `json:"type" db:"stage_type"`
	ObjectKey    string    `json:"object_key" db:"object_key"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// StageObjectKey is the storage key of a stage's bracket document.
func StageObjectKey(tournamentID, order int) string {
	return fmt.Sprintf("tournament-%d-stage-%d.json", tournamentID, order)
}
