// Package stats holds the pure win/loss/tie arithmetic used to keep deck
// counters in sync with the matches they played.
package stats

// Outcome is the result of a single match from one deck's point of view.
type Outcome string

const (
	// None means the deck has no recorded result for the match
	// (the match is new, deleted, or the deck is no longer part of it).
	None Outcome = ""
	Win  Outcome = "win"
	Loss Outcome = "loss"
	Tie  Outcome = "tie"
)

func (o Outcome) String() string {
	if o == None {
		return "none"
	}
	return string(o)
}

// OutcomeFor derives the deck's outcome from the match winner.
// A nil winner is a tie.
func OutcomeFor(winnerID *int, deckID int) Outcome {
	switch {
	case winnerID == nil:
		return Tie
	case *winnerID == deckID:
		return Win
	default:
		return Loss
	}
}

// SideOutcomes returns the outcomes of deck A and deck B for one match.
func SideOutcomes(winnerID *int, deckAID, deckBID int) (Outcome, Outcome) {
	return OutcomeFor(winnerID, deckAID), OutcomeFor(winnerID, deckBID)
}

// Tally sums outcomes into a Record. None entries are ignored.
func Tally(outcomes ...Outcome) Record {
	var r Record
	for _, o := range outcomes {
		switch o {
		case Win:
			r.Wins++
		case Loss:
			r.Losses++
		case Tie:
			r.Ties++
		}
	}
	return r
}
