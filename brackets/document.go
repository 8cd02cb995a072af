package brackets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

var ErrInvalidDocument = errors.New("invalid bracket document")

// MatchStatus follows the numeric status codes used by bracket viewers.
type MatchStatus int

const (
	StatusLocked MatchStatus = iota
	StatusWaiting
	StatusReady
	StatusRunning
	StatusCompleted
	StatusArchived
)

// Result is a participant's result tag inside a bracket match.
type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultDraw Result = "draw"
)

type Opponent struct {
	ID       *int   `json:"id"`
	Position *int   `json:"position,omitempty"`
	Score    *int   `json:"score,omitempty"`
	Result   Result `json:"result,omitempty"`
	Forfeit  bool   `json:"forfeit,omitempty"`
}

type Participant struct {
	ID           int    `json:"id"`
	TournamentID int    `json:"tournament_id"`
	Name         string `json:"name"`
}

type Stage struct {
	ID           int             `json:"id"`
	TournamentID int             `json:"tournament_id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Number       int             `json:"number"`
	Settings     json.RawMessage `json:"settings,omitempty"`
}

type Match struct {
	ID         int         `json:"id"`
	StageID    int         `json:"stage_id"`
	GroupID    int         `json:"group_id"`
	RoundID    int         `json:"round_id"`
	Number     int         `json:"number"`
	ChildCount int         `json:"child_count"`
	Status     MatchStatus `json:"status"`
	Opponent1  *Opponent   `json:"opponent1"`
	Opponent2  *Opponent   `json:"opponent2"`
}

type MatchGame struct {
	ID        int         `json:"id"`
	StageID   int         `json:"stage_id"`
	ParentID  int         `json:"parent_id"`
	Number    int         `json:"number"`
	Status    MatchStatus `json:"status"`
	Opponent1 *Opponent   `json:"opponent1"`
	Opponent2 *Opponent   `json:"opponent2"`
}

// Document is the whole persisted state of one stage's bracket.
type Document struct {
	Stages       []Stage       `json:"stages"`
	Matches      []Match       `json:"matches"`
	MatchGames   []MatchGame   `json:"matchGames"`
	Participants []Participant `json:"participants"`
}

// Decode parses and validates a stored document. Unknown top-level keys are
// rejected so that a foreign blob never reaches the engine.
func Decode(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Encode serializes the document for storage.
func Encode(doc *Document) ([]byte, error) {
	if doc.MatchGames == nil {
		doc.MatchGames = []MatchGame{}
	}
	return json.Marshal(doc)
}

// Validate checks referential integrity between the four collections.
func (d *Document) Validate() error {
	if len(d.Stages) == 0 {
		return fmt.Errorf("%w: no stages", ErrInvalidDocument)
	}

	stages := make(map[int]struct{}, len(d.Stages))
	for _, s := range d.Stages {
		if _, dup := stages[s.ID]; dup {
			return fmt.Errorf("%w: duplicate stage id %d", ErrInvalidDocument, s.ID)
		}
		stages[s.ID] = struct{}{}
		if !validStageType(s.Type) {
			return fmt.Errorf("%w: stage %d has unsupported type %q", ErrInvalidDocument, s.ID, s.Type)
		}
	}

	participants := make(map[int]struct{}, len(d.Participants))
	for _, p := range d.Participants {
		if _, dup := participants[p.ID]; dup {
			return fmt.Errorf("%w: duplicate participant id %d", ErrInvalidDocument, p.ID)
		}
		participants[p.ID] = struct{}{}
	}

	checkOpponent := func(kind string, id int, o *Opponent) error {
		if o == nil {
			return nil
		}
		if o.ID != nil {
			if _, ok := participants[*o.ID]; !ok {
				return fmt.Errorf("%w: %s %d references unknown participant %d", ErrInvalidDocument, kind, id, *o.ID)
			}
		}
		if o.Score != nil && *o.Score < 0 {
			return fmt.Errorf("%w: %s %d has a negative score", ErrInvalidDocument, kind, id)
		}
		return nil
	}

	matches := make(map[int]struct{}, len(d.Matches))
	for _, m := range d.Matches {
		if _, dup := matches[m.ID]; dup {
			return fmt.Errorf("%w: duplicate match id %d", ErrInvalidDocument, m.ID)
		}
		matches[m.ID] = struct{}{}
		if _, ok := stages[m.StageID]; !ok {
			return fmt.Errorf("%w: match %d references unknown stage %d", ErrInvalidDocument, m.ID, m.StageID)
		}
		if m.Status < StatusLocked || m.Status > StatusArchived {
			return fmt.Errorf("%w: match %d has unknown status %d", ErrInvalidDocument, m.ID, m.Status)
		}
		if err := checkOpponent("match", m.ID, m.Opponent1); err != nil {
			return err
		}
		if err := checkOpponent("match", m.ID, m.Opponent2); err != nil {
			return err
		}
	}

	for _, g := range d.MatchGames {
		if _, ok := matches[g.ParentID]; !ok {
			return fmt.Errorf("%w: match game %d references unknown match %d", ErrInvalidDocument, g.ID, g.ParentID)
		}
		if err := checkOpponent("match game", g.ID, g.Opponent1); err != nil {
			return err
		}
		if err := checkOpponent("match game", g.ID, g.Opponent2); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) stage(id int) (Stage, bool) {
	for _, s := range d.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

func (d *Document) matchIndex(id int) int {
	for i := range d.Matches {
		if d.Matches[i].ID == id {
			return i
		}
	}
	return -1
}

// groupsOf returns the group ids of a stage in ascending order.
func (d *Document) groupsOf(stageID int) []int {
	var ids []int
	for _, m := range d.Matches {
		if m.StageID == stageID && !slices.Contains(ids, m.GroupID) {
			ids = append(ids, m.GroupID)
		}
	}
	slices.Sort(ids)
	return ids
}

// roundsOf returns the round ids of a group in ascending order.
func (d *Document) roundsOf(stageID, groupID int) []int {
	var ids []int
	for _, m := range d.Matches {
		if m.StageID == stageID && m.GroupID == groupID && !slices.Contains(ids, m.RoundID) {
			ids = append(ids, m.RoundID)
		}
	}
	slices.Sort(ids)
	return ids
}

// matchAt finds a match by its position: the round index inside the group
// and the match number inside the round.
func (d *Document) matchAt(stageID, groupID, roundIdx, number int) *Match {
	rounds := d.roundsOf(stageID, groupID)
	if roundIdx < 0 || roundIdx >= len(rounds) {
		return nil
	}
	for i := range d.Matches {
		m := &d.Matches[i]
		if m.StageID == stageID && m.GroupID == groupID && m.RoundID == rounds[roundIdx] && m.Number == number {
			return m
		}
	}
	return nil
}
