package brackets

import (
	"fmt"
	"strings"

	"github.com/Dosada05/duel-vault/models"
)

// ParticipantLookup resolves bracket participants to decks for one request.
// It is built from the tournament's standings rows and is never shared.
type ParticipantLookup struct {
	byName        map[string]*models.Deck
	byParticipant map[int]*models.Deck
}

// NewParticipantLookup indexes the decks of the given standings rows. A
// participant matches a deck by its name or by the "Team <deck id>" label
// used when a stage is seeded from deck ids.
func NewParticipantLookup(doc *Document, rows []models.TournamentDeckStats, decks []models.Deck) *ParticipantLookup {
	l := &ParticipantLookup{
		byName:        make(map[string]*models.Deck),
		byParticipant: make(map[int]*models.Deck),
	}

	known := make(map[int]struct{}, len(rows))
	for _, r := range rows {
		known[r.DeckID] = struct{}{}
	}
	for i := range decks {
		d := &decks[i]
		if len(rows) > 0 {
			if _, ok := known[d.ID]; !ok {
				continue
			}
		}
		l.byName[normalize(d.Name)] = d
		l.byName[normalize(fmt.Sprintf("Team %d", d.ID))] = d
	}

	if doc != nil {
		for _, p := range doc.Participants {
			if d, ok := l.byName[normalize(p.Name)]; ok {
				l.byParticipant[p.ID] = d
			}
		}
	}
	return l
}

// Deck returns the deck behind a participant id.
func (l *ParticipantLookup) Deck(participantID int) (*models.Deck, bool) {
	d, ok := l.byParticipant[participantID]
	return d, ok
}

// ParticipantFor returns the participant id a deck plays under.
func (l *ParticipantLookup) ParticipantFor(deckID int) (int, bool) {
	for pid, d := range l.byParticipant {
		if d.ID == deckID {
			return pid, true
		}
	}
	return 0, false
}

// Annotate rewrites participant names to the current deck names.
func (l *ParticipantLookup) Annotate(doc *Document) {
	for i := range doc.Participants {
		if d, ok := l.byParticipant[doc.Participants[i].ID]; ok {
			doc.Participants[i].Name = d.Name
		}
	}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
