package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/Dosada05/duel-vault/repositories"
	"github.com/Dosada05/duel-vault/stats"
)

// StandingsRecalculator rebuilds tournament standings rows from the matches
// of the tournament. It never applies increments.
type StandingsRecalculator struct {
	matches   repositories.MatchRepository
	standings repositories.StandingRepository
}

func NewStandingsRecalculator(matches repositories.MatchRepository, standings repositories.StandingRepository) *StandingsRecalculator {
	return &StandingsRecalculator{matches: matches, standings: standings}
}

// Recompute scans every match of the deck in the tournament and overwrites
// the standings row with the totals. An all-zero total removes the row.
func (r *StandingsRecalculator) Recompute(ctx context.Context, exec repositories.SQLExecutor, tournamentID, deckID int) (stats.Record, error) {
	matches, err := r.matches.ListByTournamentAndDeck(ctx, exec, tournamentID, deckID)
	if err != nil {
		return stats.Record{}, fmt.Errorf("failed to load matches of deck %d in tournament %d: %w", deckID, tournamentID, err)
	}

	outcomes := make([]stats.Outcome, 0, len(matches))
	for i := range matches {
		if !matches[i].Involves(deckID) {
			continue
		}
		outcomes = append(outcomes, stats.OutcomeFor(matches[i].WinnerID, deckID))
	}
	record := stats.Tally(outcomes...)

	if record.IsZero() {
		if err := r.standings.Delete(ctx, exec, tournamentID, deckID); err != nil {
			return record, fmt.Errorf("failed to delete standing of deck %d in tournament %d: %w", deckID, tournamentID, err)
		}
		return record, nil
	}
	if err := r.standings.Upsert(ctx, exec, tournamentID, deckID, record); err != nil {
		return record, fmt.Errorf("failed to upsert standing of deck %d in tournament %d: %w", deckID, tournamentID, err)
	}
	return record, nil
}

type standingKey struct {
	tournamentID int
	deckID       int
}

// standingSet collects the (tournament, deck) pairs touched by a write.
type standingSet map[standingKey]struct{}

func (s standingSet) add(tournamentID *int, deckIDs ...int) {
	if tournamentID == nil {
		return
	}
	for _, d := range deckIDs {
		s[standingKey{tournamentID: *tournamentID, deckID: d}] = struct{}{}
	}
}

func (s standingSet) sorted() []standingKey {
	keys := make([]standingKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].tournamentID != keys[j].tournamentID {
			return keys[i].tournamentID < keys[j].tournamentID
		}
		return keys[i].deckID < keys[j].deckID
	})
	return keys
}

func (s standingSet) tournaments() []int {
	seen := make(map[int]struct{})
	var ids []int
	for _, k := range s.sorted() {
		if _, ok := seen[k.tournamentID]; !ok {
			seen[k.tournamentID] = struct{}{}
			ids = append(ids, k.tournamentID)
		}
	}
	return ids
}

// RecomputeAll recomputes every pair in the set in a stable order.
func (r *StandingsRecalculator) RecomputeAll(ctx context.Context, exec repositories.SQLExecutor, set standingSet) error {
	for _, k := range set.sorted() {
		if _, err := r.Recompute(ctx, exec, k.tournamentID, k.deckID); err != nil {
			return err
		}
	}
	return nil
}
