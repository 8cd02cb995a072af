package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/duel-vault/models"
	"github.com/Dosada05/duel-vault/repositories"
	"github.com/Dosada05/duel-vault/stats"
	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"
)

type CreateDeckInput struct {
	Name        string
	FormatID    int
	ArchetypeID int
	Description *string
}

// UpdateDeckInput changes deck details only. Counters are owned by the match
// service.
type UpdateDeckInput struct {
	Name        *string
	FormatID    *int
	ArchetypeID *int
	Description *string
}

type DeckService interface {
	CreateDeck(ctx context.Context, input CreateDeckInput) (*models.Deck, error)
	GetDeck(ctx context.Context, id int) (*models.Deck, error)
	ListDecks(ctx context.Context) ([]models.Deck, error)
	UpdateDeck(ctx context.Context, id int, input UpdateDeckInput) (*models.Deck, error)
	DeleteDeck(ctx context.Context, id int) error
	DeleteDecks(ctx context.Context, ids []int) error
	RecalculateCounters(ctx context.Context, id int) (*models.Deck, error)
}

type deckService struct {
	tx         repositories.TxManager
	decks      repositories.DeckRepository
	matches    repositories.MatchRepository
	standings  repositories.StandingRepository
	formats    repositories.FormatRepository
	archetypes repositories.ArchetypeRepository
	logger     *slog.Logger
}

func NewDeckService(
	tx repositories.TxManager,
	decks repositories.DeckRepository,
	matches repositories.MatchRepository,
	standings repositories.StandingRepository,
	formats repositories.FormatRepository,
	archetypes repositories.ArchetypeRepository,
	logger *slog.Logger,
) DeckService {
	return &deckService{
		tx:         tx,
		decks:      decks,
		matches:    matches,
		standings:  standings,
		formats:    formats,
		archetypes: archetypes,
		logger:     logger,
	}
}

func (s *deckService) CreateDeck(ctx context.Context, input CreateDeckInput) (*models.Deck, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError(ErrNameRequired)
	}
	if err := s.checkReferences(ctx, input.FormatID, input.ArchetypeID); err != nil {
		return nil, err
	}

	deck := &models.Deck{
		Name:        name,
		Slug:        slug.Make(name),
		FormatID:    input.FormatID,
		ArchetypeID: input.ArchetypeID,
		Description: input.Description,
	}
	if err := s.decks.Create(ctx, nil, deck); err != nil {
		return nil, translateDeckRepoError(err)
	}
	s.logger.Info("deck created", "deck_id", deck.ID, "slug", deck.Slug)
	return deck, nil
}

func (s *deckService) checkReferences(ctx context.Context, formatID, archetypeID int) error {
	if _, err := s.formats.GetByID(ctx, formatID); err != nil {
		if errors.Is(err, repositories.ErrFormatNotFound) {
			return validationError(ErrUnknownFormat)
		}
		return err
	}
	if _, err := s.archetypes.GetByID(ctx, archetypeID); err != nil {
		if errors.Is(err, repositories.ErrArchetypeNotFound) {
			return validationError(ErrUnknownArchetype)
		}
		return err
	}
	return nil
}

// GetDeck loads the deck with its format, archetype, matches and per
// tournament standings.
func (s *deckService) GetDeck(ctx context.Context, id int) (*models.Deck, error) {
	deck, err := s.decks.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateDeckRepoError(err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := s.formats.GetByID(gCtx, deck.FormatID)
		if err != nil {
			return fmt.Errorf("failed to fetch format %d: %w", deck.FormatID, err)
		}
		deck.Format = f
		return nil
	})
	g.Go(func() error {
		a, err := s.archetypes.GetByID(gCtx, deck.ArchetypeID)
		if err != nil {
			return fmt.Errorf("failed to fetch archetype %d: %w", deck.ArchetypeID, err)
		}
		deck.Archetype = a
		return nil
	})
	g.Go(func() error {
		matches, err := s.matches.ListByDeck(gCtx, nil, id)
		if err != nil {
			return fmt.Errorf("failed to fetch matches of deck %d: %w", id, err)
		}
		deck.Matches = matches
		return nil
	})
	g.Go(func() error {
		rows, err := s.standings.ListByDeck(gCtx, nil, id)
		if err != nil {
			return fmt.Errorf("failed to fetch standings of deck %d: %w", id, err)
		}
		deck.TournamentStats = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return deck, nil
}

func (s *deckService) ListDecks(ctx context.Context) ([]models.Deck, error) {
	decks, err := s.decks.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	return decks, nil
}

func (s *deckService) UpdateDeck(ctx context.Context, id int, input UpdateDeckInput) (*models.Deck, error) {
	deck, err := s.decks.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateDeckRepoError(err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, validationError(ErrNameRequired)
		}
		deck.Name = name
		deck.Slug = slug.Make(name)
	}
	if input.FormatID != nil {
		deck.FormatID = *input.FormatID
	}
	if input.ArchetypeID != nil {
		deck.ArchetypeID = *input.ArchetypeID
	}
	if input.Description != nil {
		deck.Description = input.Description
	}
	if input.FormatID != nil || input.ArchetypeID != nil {
		if err := s.checkReferences(ctx, deck.FormatID, deck.ArchetypeID); err != nil {
			return nil, err
		}
	}

	if err := s.decks.UpdateDetails(ctx, nil, deck); err != nil {
		return nil, translateDeckRepoError(err)
	}
	return deck, nil
}

func (s *deckService) DeleteDeck(ctx context.Context, id int) error {
	return s.DeleteDecks(ctx, []int{id})
}

// DeleteDecks removes decks that have no matches. Decks with matches must
// have them deleted first so the opponents' counters stay correct.
func (s *deckService) DeleteDecks(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return validationError(ErrEmptyIDList)
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		for _, id := range uniqueSorted(ids) {
			n, err := s.matches.CountByDeck(ctx, exec, id)
			if err != nil {
				return fmt.Errorf("failed to count matches of deck %d: %w", id, err)
			}
			if n > 0 {
				return conflictError(fmt.Errorf("%w: deck %d has %d matches", ErrDeckInUse, id, n))
			}
			if err := s.decks.Delete(ctx, exec, id); err != nil {
				return translateDeckRepoError(err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("decks deleted", "ids", ids)
	return nil
}

// RecalculateCounters rebuilds a deck's counters from all of its matches.
// It repairs counters that were clamped after drifting.
func (s *deckService) RecalculateCounters(ctx context.Context, id int) (*models.Deck, error) {
	var deck *models.Deck
	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		locked, err := s.decks.LockByIDs(ctx, exec, []int{id})
		if err != nil {
			return err
		}
		deck = locked[id]
		if deck == nil {
			return notFoundError(ErrDeckNotFound)
		}

		matches, err := s.matches.ListByDeck(ctx, exec, id)
		if err != nil {
			return fmt.Errorf("failed to list matches of deck %d: %w", id, err)
		}
		outcomes := make([]stats.Outcome, 0, len(matches))
		for i := range matches {
			outcomes = append(outcomes, stats.OutcomeFor(matches[i].WinnerID, id))
		}
		record := stats.Tally(outcomes...)

		if record == (stats.Record{Wins: deck.Wins, Losses: deck.Losses, Ties: deck.Ties}) {
			return nil
		}
		s.logger.Warn("deck counters drifted, rebuilding",
			"deck_id", id, "stored_wins", deck.Wins, "stored_losses", deck.Losses, "stored_ties", deck.Ties,
			"wins", record.Wins, "losses", record.Losses, "ties", record.Ties)
		if err := s.decks.UpdateCounters(ctx, exec, id, record); err != nil {
			return err
		}
		deck.Wins, deck.Losses, deck.Ties = record.Wins, record.Losses, record.Ties
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deck, nil
}

func translateDeckRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrDeckNotFound):
		return notFoundError(ErrDeckNotFound)
	case errors.Is(err, repositories.ErrDeckNameConflict):
		return conflictError(ErrDeckNameConflict)
	case errors.Is(err, repositories.ErrDeckInUse):
		return conflictError(ErrDeckInUse)
	case errors.Is(err, repositories.ErrDeckInvalidFormat):
		return validationError(ErrUnknownFormat)
	case errors.Is(err, repositories.ErrDeckInvalidArchetype):
		return validationError(ErrUnknownArchetype)
	}
	return err
}
