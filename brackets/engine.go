package brackets

import (
	"errors"
	"fmt"
	"slices"
)

// Stage types understood by the engine.
const (
	StageSingleElimination = "single_elimination"
	StageDoubleElimination = "double_elimination"
	StageRoundRobin        = "round_robin"
)

var (
	ErrMatchNotFound     = errors.New("bracket match not found")
	ErrOpponentMismatch  = errors.New("opponents do not match the bracket match")
	ErrMatchLocked       = errors.New("bracket match is locked")
	ErrDrawNotAllowed    = errors.New("draws are not allowed in elimination stages")
	ErrInconsistentTags  = errors.New("result tags are inconsistent")
	ErrUnknownStageOfDoc = errors.New("match belongs to an unknown stage")
	ErrUnsupportedStage  = errors.New("unsupported stage type")
)

func validStageType(t string) bool {
	switch t {
	case StageSingleElimination, StageDoubleElimination, StageRoundRobin:
		return true
	}
	return false
}

// OpponentResult is one side of a reported bracket match.
type OpponentResult struct {
	ID     int
	Score  int
	Result Result
}

// MatchUpdate reports the final result of a bracket match.
type MatchUpdate struct {
	MatchID   int
	Opponent1 OpponentResult
	Opponent2 OpponentResult
}

// Engine applies match results to a bracket document in place.
type Engine interface {
	UpdateMatch(doc *Document, upd MatchUpdate) error
}

// Classify derives the result tags of both opponents from their scores.
func Classify(score1, score2 int) (Result, Result) {
	switch {
	case score1 > score2:
		return ResultWin, ResultLoss
	case score1 < score2:
		return ResultLoss, ResultWin
	default:
		return ResultDraw, ResultDraw
	}
}

// Manager is the default Engine. It records results and, in elimination
// stages, moves the winner forward and drops the loser into the losers
// bracket or the consolation final when the stage has one.
//
// Groups and rounds are ordered by id inside a stage. A double elimination
// stage holds the winners bracket, the losers bracket and the grand final in
// that order; a single elimination stage may carry a consolation final as its
// second group.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) UpdateMatch(doc *Document, upd MatchUpdate) error {
	idx := doc.matchIndex(upd.MatchID)
	if idx < 0 {
		return fmt.Errorf("%w: id %d", ErrMatchNotFound, upd.MatchID)
	}
	match := &doc.Matches[idx]

	if match.Status == StatusLocked || match.Status == StatusArchived {
		return fmt.Errorf("%w: match %d has status %d", ErrMatchLocked, match.ID, match.Status)
	}
	if !sameParticipant(match.Opponent1, upd.Opponent1.ID) || !sameParticipant(match.Opponent2, upd.Opponent2.ID) {
		return fmt.Errorf("%w: match %d", ErrOpponentMismatch, match.ID)
	}
	if err := checkTags(upd.Opponent1.Result, upd.Opponent2.Result); err != nil {
		return err
	}

	stage, ok := doc.stage(match.StageID)
	if !ok {
		return fmt.Errorf("%w: stage %d", ErrUnknownStageOfDoc, match.StageID)
	}
	if !validStageType(stage.Type) {
		return fmt.Errorf("%w: %q", ErrUnsupportedStage, stage.Type)
	}

	if stage.Type != StageRoundRobin {
		if upd.Opponent1.Result == ResultDraw {
			return fmt.Errorf("%w: match %d", ErrDrawNotAllowed, match.ID)
		}
		winner, loser := upd.Opponent1.ID, upd.Opponent2.ID
		if upd.Opponent2.Result == ResultWin {
			winner, loser = loser, winner
		}
		var prevWinner, prevLoser *int
		if match.Status == StatusCompleted {
			prevWinner, prevLoser = winnerOf(match), loserOf(match)
		}

		moves := m.moves(doc, stage, *match, winner, loser, prevWinner, prevLoser)
		for _, mv := range moves {
			if err := mv.check(); err != nil {
				return err
			}
		}
		for _, mv := range moves {
			mv.apply()
		}
		if stage.Type == StageDoubleElimination {
			if err := m.grandFinalReset(doc, *match, winner); err != nil {
				return err
			}
		}
	}

	setResult(match.Opponent1, upd.Opponent1)
	setResult(match.Opponent2, upd.Opponent2)
	match.Status = StatusCompleted
	return nil
}

// placement puts one participant into a slot of a following match.
type placement struct {
	target   *Match
	first    bool
	id       int
	previous *int
}

func (p placement) slot() **Opponent {
	if p.first {
		return &p.target.Opponent1
	}
	return &p.target.Opponent2
}

// check refuses to touch a match that already started, unless the slot
// already holds the same participant.
func (p placement) check() error {
	if p.target.Status < StatusRunning {
		return nil
	}
	if slot := *p.slot(); hasParticipant(slot) && *slot.ID == p.id {
		return nil
	}
	return fmt.Errorf("%w: next match %d already started", ErrMatchLocked, p.target.ID)
}

func (p placement) apply() {
	if p.target.Status >= StatusRunning {
		return
	}
	slot := p.slot()
	if !hasParticipant(*slot) || p.previous == nil || *(*slot).ID == *p.previous {
		id := p.id
		*slot = &Opponent{ID: &id}
	}
	if hasParticipant(p.target.Opponent1) && hasParticipant(p.target.Opponent2) {
		p.target.Status = StatusReady
	} else {
		p.target.Status = StatusWaiting
	}
}

// moves lists where the winner and loser of an elimination match go next.
func (m *Manager) moves(doc *Document, stage Stage, from Match, winner, loser int, prevWinner, prevLoser *int) []placement {
	groups := doc.groupsOf(stage.ID)
	group := slices.Index(groups, from.GroupID)
	rounds := doc.roundsOf(stage.ID, from.GroupID)
	round := slices.Index(rounds, from.RoundID)
	half := (from.Number + 1) / 2
	odd := from.Number%2 == 1

	var out []placement
	add := func(groupIdx, roundIdx, number int, first bool, id int, previous *int) {
		if groupIdx >= len(groups) {
			return
		}
		if target := doc.matchAt(stage.ID, groups[groupIdx], roundIdx, number); target != nil {
			out = append(out, placement{target: target, first: first, id: id, previous: previous})
		}
	}
	lastRound := round == len(rounds)-1

	switch {
	case stage.Type == StageSingleElimination && group == 0:
		if !lastRound {
			add(0, round+1, half, odd, winner, prevWinner)
		}
		if round == len(rounds)-2 {
			add(1, 0, 1, odd, loser, prevLoser)
		}

	case stage.Type == StageDoubleElimination && group == 0:
		if !lastRound {
			add(0, round+1, half, odd, winner, prevWinner)
		} else {
			add(2, 0, 1, true, winner, prevWinner)
		}
		if round == 0 {
			add(1, 0, half, odd, loser, prevLoser)
		} else {
			add(1, 2*round-1, from.Number, true, loser, prevLoser)
		}

	case stage.Type == StageDoubleElimination && group == 1:
		switch {
		case lastRound:
			add(2, 0, 1, false, winner, prevWinner)
		case round%2 == 0:
			add(1, round+1, from.Number, false, winner, prevWinner)
		default:
			add(1, round+1, half, odd, winner, prevWinner)
		}
	}
	return out
}

// grandFinalReset opens the second grand final match when the losers bracket
// champion wins the first one, and archives it otherwise.
func (m *Manager) grandFinalReset(doc *Document, from Match, winner int) error {
	groups := doc.groupsOf(from.StageID)
	if len(groups) < 3 || from.GroupID != groups[2] {
		return nil
	}
	rounds := doc.roundsOf(from.StageID, from.GroupID)
	if len(rounds) < 2 || from.RoundID != rounds[0] {
		return nil
	}
	reset := doc.matchAt(from.StageID, from.GroupID, 1, 1)
	if reset == nil {
		return nil
	}
	if reset.Status >= StatusRunning && reset.Status != StatusArchived {
		return fmt.Errorf("%w: next match %d already started", ErrMatchLocked, reset.ID)
	}

	if sameParticipant(from.Opponent2, winner) {
		id1, id2 := *from.Opponent1.ID, *from.Opponent2.ID
		reset.Opponent1 = &Opponent{ID: &id1}
		reset.Opponent2 = &Opponent{ID: &id2}
		reset.Status = StatusReady
		return nil
	}
	reset.Opponent1 = &Opponent{}
	reset.Opponent2 = &Opponent{}
	reset.Status = StatusArchived
	return nil
}

func checkTags(r1, r2 Result) error {
	switch {
	case r1 == ResultWin && r2 == ResultLoss,
		r1 == ResultLoss && r2 == ResultWin,
		r1 == ResultDraw && r2 == ResultDraw:
		return nil
	}
	return fmt.Errorf("%w: %q vs %q", ErrInconsistentTags, r1, r2)
}

func sameParticipant(o *Opponent, id int) bool {
	return o != nil && o.ID != nil && *o.ID == id
}

func hasParticipant(o *Opponent) bool {
	return o != nil && o.ID != nil
}

func setResult(o *Opponent, r OpponentResult) {
	score := r.Score
	o.Score = &score
	o.Result = r.Result
}

func winnerOf(m *Match) *int {
	switch {
	case hasParticipant(m.Opponent1) && m.Opponent1.Result == ResultWin:
		return m.Opponent1.ID
	case hasParticipant(m.Opponent2) && m.Opponent2.Result == ResultWin:
		return m.Opponent2.ID
	}
	return nil
}

func loserOf(m *Match) *int {
	switch {
	case hasParticipant(m.Opponent1) && m.Opponent1.Result == ResultLoss:
		return m.Opponent1.ID
	case hasParticipant(m.Opponent2) && m.Opponent2.Result == ResultLoss:
		return m.Opponent2.ID
	}
	return nil
}
