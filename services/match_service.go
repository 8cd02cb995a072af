package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Dosada05/duel-vault/brackets"
	"github.com/Dosada05/duel-vault/metrics"
	"github.com/Dosada05/duel-vault/models"
	"github.com/Dosada05/duel-vault/repositories"
	"github.com/Dosada05/duel-vault/stats"
)

// BracketRef points a match at its bracket-internal counterpart.
type BracketRef struct {
	MatchID   int  `json:"match_id"`
	Opponent1 int  `json:"opponent1"`
	Opponent2 int  `json:"opponent2"`
	Stage     *int `json:"stage,omitempty"`
}

// UpsertMatchInput creates a match when ID is nil and updates it otherwise.
type UpsertMatchInput struct {
	ID           *int
	TournamentID *int
	DeckAID      int
	DeckBID      int
	WinnerID     *int
	DeckAScore   int
	DeckBScore   int
	Notes        *string
	Date         time.Time
	Bracket      *BracketRef
}

// HeadToHead is the record of one deck against another.
type HeadToHead struct {
	DeckID     int            `json:"deck_id"`
	OpponentID int            `json:"opponent_id"`
	Record     stats.Record   `json:"record"`
	Matches    []models.Match `json:"matches"`
}

// Notifier pushes events to clients watching a tournament.
type Notifier interface {
	Publish(tournamentID int, eventType string, payload interface{})
}

// MatchService records match results and keeps deck counters and standings in step.
type MatchService interface {
	UpsertMatch(ctx context.Context, input UpsertMatchInput) (*models.Match, error)
	DeleteMatch(ctx context.Context, id int) error
	DeleteMatches(ctx context.Context, ids []int) error
	GetMatch(ctx context.Context, id int) (*models.Match, error)
	ListMatches(ctx context.Context) ([]models.Match, error)
	ListHeadToHead(ctx context.Context, deckID, opponentID int) (*HeadToHead, error)
	ResyncBracket(ctx context.Context, matchID int, ref BracketRef) (SyncResult, error)
}

type matchService struct {
	tx          repositories.TxManager
	matches     repositories.MatchRepository
	decks       repositories.DeckRepository
	tournaments repositories.TournamentRepository
	standings   *StandingsRecalculator
	syncer      BracketSynchronizer
	notifier    Notifier
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewMatchService(
	tx repositories.TxManager,
	matches repositories.MatchRepository,
	decks repositories.DeckRepository,
	tournaments repositories.TournamentRepository,
	standings *StandingsRecalculator,
	syncer BracketSynchronizer,
	notifier Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		tx:          tx,
		matches:     matches,
		decks:       decks,
		tournaments: tournaments,
		standings:   standings,
		syncer:      syncer,
		notifier:    notifier,
		metrics:     m,
		logger:      logger,
	}
}

func validateMatchInput(input UpsertMatchInput) error {
	if input.DeckAID == input.DeckBID {
		return validationError(ErrSameDeck)
	}
	if input.DeckAScore < 0 || input.DeckBScore < 0 {
		return validationError(ErrNegativeScore)
	}
	if input.WinnerID != nil && *input.WinnerID != input.DeckAID && *input.WinnerID != input.DeckBID {
		return validationError(ErrInvalidWinner)
	}
	if input.Date.IsZero() {
		return validationError(ErrDateRequired)
	}
	if input.Bracket != nil && input.TournamentID == nil {
		return validationError(ErrInvalidBracketRef)
	}
	return nil
}

func (s *matchService) UpsertMatch(ctx context.Context, input UpsertMatchInput) (*models.Match, error) {
	operation := "create"
	if input.ID != nil {
		operation = "update"
	}

	if err := validateMatchInput(input); err != nil {
		s.metrics.MatchOperation(operation, err)
		return nil, err
	}
	s.warnOnScoreMismatch(input)

	match := &models.Match{
		TournamentID: input.TournamentID,
		DeckAID:      input.DeckAID,
		DeckBID:      input.DeckBID,
		WinnerID:     input.WinnerID,
		DeckAScore:   input.DeckAScore,
		DeckBScore:   input.DeckBScore,
		Notes:        input.Notes,
		Date:         input.Date,
	}

	var prior *models.Match
	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		if input.ID != nil {
			p, err := s.matches.GetForUpdate(ctx, exec, *input.ID)
			if err != nil {
				if errors.Is(err, repositories.ErrMatchNotFound) {
					return notFoundError(ErrMatchNotFound)
				}
				return fmt.Errorf("failed to load match %d: %w", *input.ID, err)
			}
			prior = p
			match.ID = p.ID
			match.CreatedAt = p.CreatedAt
		}

		if input.TournamentID != nil {
			if _, err := s.tournaments.GetByID(ctx, exec, *input.TournamentID); err != nil {
				if errors.Is(err, repositories.ErrTournamentNotFound) {
					return validationError(ErrUnknownTournament)
				}
				return fmt.Errorf("failed to load tournament %d: %w", *input.TournamentID, err)
			}
		}

		deckIDs := []int{match.DeckAID, match.DeckBID}
		if prior != nil {
			deckIDs = append(deckIDs, prior.DeckAID, prior.DeckBID)
		}
		decks, err := s.decks.LockByIDs(ctx, exec, uniqueSorted(deckIDs))
		if err != nil {
			return err
		}
		if decks[match.DeckAID] == nil || decks[match.DeckBID] == nil {
			return validationError(ErrUnknownDeck)
		}

		if prior == nil {
			err = s.matches.Create(ctx, exec, match)
		} else {
			err = s.matches.Update(ctx, exec, match)
		}
		if err != nil {
			return translateMatchRepoError(err)
		}

		before := map[int]stats.Outcome{}
		if prior != nil {
			before[prior.DeckAID], before[prior.DeckBID] = stats.SideOutcomes(prior.WinnerID, prior.DeckAID, prior.DeckBID)
		}
		after := map[int]stats.Outcome{}
		after[match.DeckAID], after[match.DeckBID] = stats.SideOutcomes(match.WinnerID, match.DeckAID, match.DeckBID)

		for _, id := range uniqueSorted(deckIDs) {
			if decks[id] == nil {
				return fmt.Errorf("deck %d of match %d is missing", id, match.ID)
			}
			if err := s.applyDelta(ctx, exec, decks[id], stats.DeltaFor(before[id], after[id])); err != nil {
				return err
			}
		}

		touched := standingSet{}
		if prior != nil {
			touched.add(prior.TournamentID, prior.DeckAID, prior.DeckBID)
		}
		touched.add(match.TournamentID, match.DeckAID, match.DeckBID)
		return s.standings.RecomputeAll(ctx, exec, touched)
	})
	s.metrics.MatchOperation(operation, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("match saved", "operation", operation, "match_id", match.ID, "tournament_id", match.TournamentID)

	if input.Bracket != nil {
		res := s.syncer.Sync(ctx, syncRequestFor(match, *input.Bracket))
		if res.Status == SyncStatusSynced {
			s.publish(match.TournamentID, brackets.EventBracketUpdated, res)
		}
	}

	s.publish(match.TournamentID, brackets.EventMatchUpdated, match)
	if prior != nil && prior.TournamentID != nil && !sameID(prior.TournamentID, match.TournamentID) {
		s.publish(prior.TournamentID, brackets.EventMatchDeleted, map[string]int{"match_id": match.ID})
	}
	return match, nil
}

// applyDelta writes a deck's counters when the delta changes them.
func (s *matchService) applyDelta(ctx context.Context, exec repositories.SQLExecutor, deck *models.Deck, d stats.Delta) error {
	if d.IsZero() {
		return nil
	}
	current := stats.Record{Wins: deck.Wins, Losses: deck.Losses, Ties: deck.Ties}
	if current.Clamped(d) {
		s.metrics.CounterClamped()
		s.logger.Warn("deck counters already out of sync, clamping at zero",
			"deck_id", deck.ID, "wins", deck.Wins, "losses", deck.Losses, "ties", deck.Ties)
	}
	next := current.Apply(d)
	if err := s.decks.UpdateCounters(ctx, exec, deck.ID, next); err != nil {
		return fmt.Errorf("failed to update counters of deck %d: %w", deck.ID, err)
	}
	deck.Wins, deck.Losses, deck.Ties = next.Wins, next.Losses, next.Ties
	return nil
}

func (s *matchService) DeleteMatch(ctx context.Context, id int) error {
	touched, err := s.deleteMatches(ctx, []int{id})
	s.metrics.MatchOperation("delete", err)
	if err != nil {
		return err
	}
	s.logger.Info("match deleted", "match_id", id)
	s.notifyDeleted(touched, []int{id})
	return nil
}

func (s *matchService) DeleteMatches(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return validationError(ErrEmptyIDList)
	}
	touched, err := s.deleteMatches(ctx, ids)
	s.metrics.MatchOperation("bulk_delete", err)
	if err != nil {
		return err
	}
	s.logger.Info("matches deleted", "count", len(uniqueSorted(ids)))
	s.notifyDeleted(touched, ids)
	return nil
}

// deleteMatches removes every match in one transaction. Counters of a deck
// shared by several matches are carried forward under the row lock, so each
// decrement sees the previous one.
func (s *matchService) deleteMatches(ctx context.Context, ids []int) (standingSet, error) {
	ids = uniqueSorted(ids)
	touched := standingSet{}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		matches, err := s.matches.LockByIDs(ctx, exec, ids)
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		if len(matches) != len(ids) {
			return notFoundError(fmt.Errorf("%w: %v", ErrMatchNotFound, missingIDs(ids, matches)))
		}

		var deckIDs []int
		for _, m := range matches {
			deckIDs = append(deckIDs, m.DeckAID, m.DeckBID)
		}
		decks, err := s.decks.LockByIDs(ctx, exec, uniqueSorted(deckIDs))
		if err != nil {
			return err
		}

		for _, m := range matches {
			if err := s.matches.Delete(ctx, exec, m.ID); err != nil {
				return translateMatchRepoError(err)
			}
			for _, deckID := range []int{m.DeckAID, m.DeckBID} {
				deck := decks[deckID]
				if deck == nil {
					return fmt.Errorf("deck %d of match %d is missing", deckID, m.ID)
				}
				outcome := stats.OutcomeFor(m.WinnerID, deckID)
				if err := s.applyDelta(ctx, exec, deck, stats.DeltaFor(outcome, stats.None)); err != nil {
					return err
				}
			}
			touched.add(m.TournamentID, m.DeckAID, m.DeckBID)
		}

		return s.standings.RecomputeAll(ctx, exec, touched)
	})
	if err != nil {
		return nil, err
	}
	return touched, nil
}

func (s *matchService) notifyDeleted(touched standingSet, ids []int) {
	for _, tid := range touched.tournaments() {
		s.publish(&tid, brackets.EventMatchDeleted, map[string][]int{"match_ids": ids})
		s.publish(&tid, brackets.EventStandingsUpdated, map[string]int{"tournament_id": tid})
	}
}

func (s *matchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	m, err := s.matches.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateMatchRepoError(err)
	}
	decks, err := s.decks.ListByIDs(ctx, nil, []int{m.DeckAID, m.DeckBID})
	if err != nil {
		return nil, fmt.Errorf("failed to load decks of match %d: %w", id, err)
	}
	for i := range decks {
		switch decks[i].ID {
		case m.DeckAID:
			m.DeckA = &decks[i]
		case m.DeckBID:
			m.DeckB = &decks[i]
		}
	}
	if m.TournamentID != nil {
		t, err := s.tournaments.GetByID(ctx, nil, *m.TournamentID)
		switch {
		case err == nil:
			m.Tournament = t
		case !errors.Is(err, repositories.ErrTournamentNotFound):
			return nil, fmt.Errorf("failed to load tournament of match %d: %w", id, err)
		}
	}
	return m, nil
}

func (s *matchService) ListMatches(ctx context.Context) ([]models.Match, error) {
	matches, err := s.matches.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	decks, err := s.decks.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	attachDecks(matches, decks)
	return matches, nil
}

func (s *matchService) ListHeadToHead(ctx context.Context, deckID, opponentID int) (*HeadToHead, error) {
	if deckID == opponentID {
		return nil, validationError(ErrSameDeck)
	}
	for _, id := range []int{deckID, opponentID} {
		if _, err := s.decks.GetByID(ctx, nil, id); err != nil {
			if errors.Is(err, repositories.ErrDeckNotFound) {
				return nil, notFoundError(ErrDeckNotFound)
			}
			return nil, err
		}
	}

	matches, err := s.matches.ListHeadToHead(ctx, nil, deckID, opponentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list head-to-head matches: %w", err)
	}
	outcomes := make([]stats.Outcome, 0, len(matches))
	for i := range matches {
		outcomes = append(outcomes, stats.OutcomeFor(matches[i].WinnerID, deckID))
	}
	return &HeadToHead{
		DeckID:     deckID,
		OpponentID: opponentID,
		Record:     stats.Tally(outcomes...),
		Matches:    matches,
	}, nil
}

// ResyncBracket re-applies a stored match to its bracket document. It is the
// operator's retry for a failed or missed sync.
func (s *matchService) ResyncBracket(ctx context.Context, matchID int, ref BracketRef) (SyncResult, error) {
	m, err := s.matches.GetByID(ctx, nil, matchID)
	if err != nil {
		return SyncResult{}, translateMatchRepoError(err)
	}
	if m.TournamentID == nil {
		return SyncResult{}, validationError(ErrInvalidBracketRef)
	}
	res := s.syncer.Sync(ctx, syncRequestFor(m, ref))
	if res.Status == SyncStatusSynced {
		s.publish(m.TournamentID, brackets.EventBracketUpdated, res)
	}
	return res, nil
}

// warnOnScoreMismatch logs matches whose winner disagrees with the scores.
// The winner drives deck statistics and the scores drive the bracket.
func (s *matchService) warnOnScoreMismatch(input UpsertMatchInput) {
	r1, _ := brackets.Classify(input.DeckAScore, input.DeckBScore)
	var expected *int
	switch r1 {
	case brackets.ResultWin:
		expected = &input.DeckAID
	case brackets.ResultLoss:
		expected = &input.DeckBID
	}
	if sameID(expected, input.WinnerID) {
		return
	}
	s.logger.Warn("match winner disagrees with scores",
		"deck_a_id", input.DeckAID, "deck_b_id", input.DeckBID,
		"winner_id", input.WinnerID, "deck_a_score", input.DeckAScore, "deck_b_score", input.DeckBScore)
}

func (s *matchService) publish(tournamentID *int, eventType string, payload interface{}) {
	if s.notifier == nil || tournamentID == nil {
		return
	}
	s.notifier.Publish(*tournamentID, eventType, payload)
}

func syncRequestFor(m *models.Match, ref BracketRef) SyncRequest {
	return SyncRequest{
		TournamentID:   *m.TournamentID,
		StageOrder:     ref.Stage,
		BracketMatchID: ref.MatchID,
		Opponent1ID:    ref.Opponent1,
		Opponent2ID:    ref.Opponent2,
		DeckAScore:     m.DeckAScore,
		DeckBScore:     m.DeckBScore,
	}
}

func translateMatchRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrMatchNotFound):
		return notFoundError(ErrMatchNotFound)
	case errors.Is(err, repositories.ErrMatchInvalidDeck):
		return validationError(ErrUnknownDeck)
	case errors.Is(err, repositories.ErrMatchInvalidTournament):
		return validationError(ErrUnknownTournament)
	case errors.Is(err, repositories.ErrMatchConstraint):
		return validationError(err)
	}
	return err
}

func attachDecks(matches []models.Match, decks []models.Deck) {
	byID := make(map[int]*models.Deck, len(decks))
	for i := range decks {
		byID[decks[i].ID] = &decks[i]
	}
	for i := range matches {
		matches[i].DeckA = byID[matches[i].DeckAID]
		matches[i].DeckB = byID[matches[i].DeckBID]
	}
}

func sameID(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func uniqueSorted(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func missingIDs(ids []int, found []models.Match) []int {
	have := make(map[int]struct{}, len(found))
	for _, m := range found {
		have[m.ID] = struct{}{}
	}
	var missing []int
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
