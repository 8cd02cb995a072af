package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Dosada05/duel-vault/brackets"
	"github.com/Dosada05/duel-vault/metrics"
	"github.com/Dosada05/duel-vault/models"
	"github.com/Dosada05/duel-vault/repositories"
	"github.com/Dosada05/duel-vault/storage"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Name      string
	FormatID  int
	StartDate time.Time
	EndDate   *time.Time
	Notes     *string
	Link      *string
}

type UpdateTournamentInput struct {
	Name      *string
	FormatID  *int
	StartDate *time.Time
	EndDate   *time.Time
	Notes     *string
	Link      *string
}

type UploadStageInput struct {
	TournamentID int
	Order        int
	Name         string
	Type         models.StageType
	Document     []byte
}

// StageView is a stage with its bracket document. Participants carries the
// deck behind each bracket participant id.
type StageView struct {
	Stage        models.Stage         `json:"stage"`
	Document     *brackets.Document   `json:"document"`
	Participants map[int]*models.Deck `json:"participants"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context) ([]models.Tournament, error)
	UpdateTournament(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, id int) error
	DeleteTournaments(ctx context.Context, ids []int) error

	UploadStage(ctx context.Context, input UploadStageInput) (*models.Stage, error)
	GetStage(ctx context.Context, tournamentID, order int) (*StageView, error)

	ListStandings(ctx context.Context, tournamentID int) ([]models.TournamentDeckStats, error)
	SetFinalRank(ctx context.Context, tournamentID, deckID int, rank *int) (*models.TournamentDeckStats, error)

	AutoUpdateTournamentStatuses(ctx context.Context) (int, error)
}

type tournamentService struct {
	tx          repositories.TxManager
	tournaments repositories.TournamentRepository
	matches     repositories.MatchRepository
	decks       repositories.DeckRepository
	standings   repositories.StandingRepository
	stages      repositories.StageRepository
	formats     repositories.FormatRepository
	store       storage.ObjectStore
	notifier    Notifier
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

func NewTournamentService(
	tx repositories.TxManager,
	tournaments repositories.TournamentRepository,
	matches repositories.MatchRepository,
	decks repositories.DeckRepository,
	standings repositories.StandingRepository,
	stages repositories.StageRepository,
	formats repositories.FormatRepository,
	store storage.ObjectStore,
	notifier Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tx:          tx,
		tournaments: tournaments,
		matches:     matches,
		decks:       decks,
		standings:   standings,
		stages:      stages,
		formats:     formats,
		store:       store,
		notifier:    notifier,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

func validateTournamentDates(start time.Time, end *time.Time) error {
	if start.IsZero() {
		return validationError(ErrDateRequired)
	}
	if end != nil && end.Before(start) {
		return validationError(fmt.Errorf("%w: start %s, end %s", ErrInvalidDateRange,
			start.Format(time.RFC3339), end.Format(time.RFC3339)))
	}
	return nil
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError(ErrNameRequired)
	}
	if err := validateTournamentDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if err := s.checkFormat(ctx, input.FormatID); err != nil {
		return nil, err
	}

	t := &models.Tournament{
		Name:      name,
		FormatID:  input.FormatID,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Notes:     input.Notes,
		Link:      input.Link,
	}
	t.Status = t.StatusAt(s.now())

	if err := s.tournaments.Create(ctx, nil, t); err != nil {
		return nil, translateTournamentRepoError(err)
	}
	s.logger.Info("tournament created", "tournament_id", t.ID, "status", t.Status)
	return t, nil
}

func (s *tournamentService) checkFormat(ctx context.Context, formatID int) error {
	if _, err := s.formats.GetByID(ctx, formatID); err != nil {
		if errors.Is(err, repositories.ErrFormatNotFound) {
			return validationError(ErrUnknownFormat)
		}
		return err
	}
	return nil
}

// GetTournament loads the tournament with its format, matches, sorted
// standings and stages.
func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournaments.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateTournamentRepoError(err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := s.formats.GetByID(gCtx, t.FormatID)
		if err != nil {
			return fmt.Errorf("failed to fetch tournament format %d: %w", t.FormatID, err)
		}
		t.Format = f
		return nil
	})
	g.Go(func() error {
		matches, err := s.matches.ListByTournament(gCtx, nil, id)
		if err != nil {
			return fmt.Errorf("failed to fetch matches of tournament %d: %w", id, err)
		}
		t.Matches = matches
		return nil
	})
	g.Go(func() error {
		rows, err := s.ListStandings(gCtx, id)
		if err != nil {
			return err
		}
		t.DeckStats = rows
		return nil
	})
	g.Go(func() error {
		stages, err := s.stages.ListByTournament(gCtx, nil, id)
		if err != nil {
			return fmt.Errorf("failed to fetch stages of tournament %d: %w", id, err)
		}
		t.Stages = stages
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	decks, err := s.decks.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	attachDecks(t.Matches, decks)
	return t, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context) ([]models.Tournament, error) {
	ts, err := s.tournaments.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return ts, nil
}

func (s *tournamentService) UpdateTournament(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	t, err := s.tournaments.GetByID(ctx, nil, id)
	if err != nil {
		return nil, translateTournamentRepoError(err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, validationError(ErrNameRequired)
		}
		t.Name = name
	}
	if input.FormatID != nil {
		if err := s.checkFormat(ctx, *input.FormatID); err != nil {
			return nil, err
		}
		t.FormatID = *input.FormatID
	}
	if input.StartDate != nil {
		t.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		t.EndDate = input.EndDate
	}
	if input.Notes != nil {
		t.Notes = input.Notes
	}
	if input.Link != nil {
		t.Link = input.Link
	}
	if err := validateTournamentDates(t.StartDate, t.EndDate); err != nil {
		return nil, err
	}
	t.Status = t.StatusAt(s.now())

	if err := s.tournaments.Update(ctx, nil, t); err != nil {
		return nil, translateTournamentRepoError(err)
	}
	return t, nil
}

func (s *tournamentService) DeleteTournament(ctx context.Context, id int) error {
	return s.DeleteTournaments(ctx, []int{id})
}

// DeleteTournaments removes tournaments in one transaction. Their matches are
// kept as friendly matches, so deck counters do not change. Stage documents
// are removed from object storage after the commit on a best-effort basis.
func (s *tournamentService) DeleteTournaments(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return validationError(ErrEmptyIDList)
	}

	var keys []string
	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		for _, id := range uniqueSorted(ids) {
			stages, err := s.stages.ListByTournament(ctx, exec, id)
			if err != nil {
				return fmt.Errorf("failed to list stages of tournament %d: %w", id, err)
			}
			for _, st := range stages {
				keys = append(keys, st.ObjectKey)
			}
			if err := s.tournaments.Delete(ctx, exec, id); err != nil {
				return translateTournamentRepoError(err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := s.store.DeleteObject(ctx, key); err != nil {
			s.logger.Warn("failed to delete stage document", "object_key", key, "error", err)
		}
	}
	s.logger.Info("tournaments deleted", "ids", ids)
	return nil
}

// UploadStage validates a bracket document and stores it as the given stage.
func (s *tournamentService) UploadStage(ctx context.Context, input UploadStageInput) (*models.Stage, error) {
	if input.Order < 1 {
		return nil, validationError(ErrInvalidStageOrder)
	}
	if !input.Type.Valid() {
		return nil, validationError(ErrInvalidStageType)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = fmt.Sprintf("Stage %d", input.Order)
	}
	if _, err := s.tournaments.GetByID(ctx, nil, input.TournamentID); err != nil {
		return nil, translateTournamentRepoError(err)
	}

	doc, err := brackets.Decode(input.Document)
	if err != nil {
		return nil, validationError(fmt.Errorf("%w: %w", ErrInvalidBracketDoc, err))
	}
	for _, st := range doc.Stages {
		if st.Type != string(input.Type) {
			return nil, validationError(fmt.Errorf("%w: document stage %d is %q, not %q",
				ErrInvalidBracketDoc, st.ID, st.Type, input.Type))
		}
	}
	data, err := brackets.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bracket document: %w", err)
	}

	stage := &models.Stage{
		TournamentID: input.TournamentID,
		Order:        input.Order,
		Name:         name,
		Type:         input.Type,
		ObjectKey:    models.StageObjectKey(input.TournamentID, input.Order),
	}
	if err := s.store.PutObject(ctx, stage.ObjectKey, data, "application/json"); err != nil {
		return nil, fmt.Errorf("failed to store bracket document: %w", err)
	}
	if err := s.stages.Upsert(ctx, nil, stage); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, notFoundError(ErrTournamentNotFound)
		}
		return nil, fmt.Errorf("failed to save stage: %w", err)
	}

	s.publish(input.TournamentID, brackets.EventBracketUpdated, stage)
	return stage, nil
}

// GetStage returns a stage's document with participants resolved to decks
// through a lookup built for this request only.
func (s *tournamentService) GetStage(ctx context.Context, tournamentID, order int) (*StageView, error) {
	stage, err := s.stages.GetByOrder(ctx, nil, tournamentID, order)
	if err != nil {
		if errors.Is(err, repositories.ErrStageNotFound) {
			return nil, notFoundError(ErrStageNotFound)
		}
		return nil, err
	}

	data, err := s.store.GetObject(ctx, stage.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, notFoundError(ErrStageNotFound)
		}
		return nil, fmt.Errorf("failed to fetch bracket document: %w", err)
	}
	doc, err := brackets.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("stored bracket document is invalid: %w", err)
	}

	rows, err := s.standings.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings: %w", err)
	}
	decks, err := s.decks.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}

	lookup := brackets.NewParticipantLookup(doc, rows, decks)
	lookup.Annotate(doc)

	view := &StageView{Stage: *stage, Document: doc, Participants: make(map[int]*models.Deck)}
	for _, p := range doc.Participants {
		if d, ok := lookup.Deck(p.ID); ok {
			view.Participants[p.ID] = d
		}
	}
	return view, nil
}

// ListStandings returns the tournament's standings ordered by position:
// most wins first, then fewest losses, then the deck that played last.
func (s *tournamentService) ListStandings(ctx context.Context, tournamentID int) ([]models.TournamentDeckStats, error) {
	rows, err := s.standings.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings of tournament %d: %w", tournamentID, err)
	}
	lastPlayed, err := s.matches.LastPlayedByDeck(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load last matches of tournament %d: %w", tournamentID, err)
	}

	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.DeckID)
	}
	decks, err := s.decks.ListByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load standings decks: %w", err)
	}
	byID := make(map[int]*models.Deck, len(decks))
	for i := range decks {
		byID[decks[i].ID] = &decks[i]
	}

	sortByPosition(rows, lastPlayed)
	for i := range rows {
		rows[i].Position = i + 1
		rows[i].Deck = byID[rows[i].DeckID]
	}
	return rows, nil
}

func sortByPosition(rows []models.TournamentDeckStats, lastPlayed map[int]time.Time) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Losses != b.Losses {
			return a.Losses < b.Losses
		}
		la, lb := lastPlayed[a.DeckID], lastPlayed[b.DeckID]
		if !la.Equal(lb) {
			return la.After(lb)
		}
		return a.DeckID < b.DeckID
	})
}

// SetFinalRank records the final placing of a deck. Only decks with a
// standings row can be ranked; the counters stay derived.
func (s *tournamentService) SetFinalRank(ctx context.Context, tournamentID, deckID int, rank *int) (*models.TournamentDeckStats, error) {
	if rank != nil && *rank < 1 {
		return nil, validationError(ErrInvalidFinalRank)
	}
	if err := s.standings.SetFinalRank(ctx, nil, tournamentID, deckID, rank); err != nil {
		if errors.Is(err, repositories.ErrStandingNotFound) {
			return nil, notFoundError(ErrStandingNotFound)
		}
		return nil, err
	}
	row, err := s.standings.Get(ctx, nil, tournamentID, deckID)
	if err != nil {
		return nil, err
	}
	s.publish(tournamentID, brackets.EventStandingsUpdated, row)
	return row, nil
}

// AutoUpdateTournamentStatuses moves tournaments whose schedule has passed
// to ongoing or completed. It returns the number of tournaments changed.
func (s *tournamentService) AutoUpdateTournamentStatuses(ctx context.Context) (int, error) {
	now := s.now()
	candidates, err := s.tournaments.ListForAutoStatusUpdate(ctx, nil, now)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, t := range candidates {
		next := t.StatusAt(now)
		if next == t.Status {
			continue
		}
		if err := s.tournaments.UpdateStatus(ctx, nil, t.ID, next); err != nil {
			s.logger.Error("failed to update tournament status", "tournament_id", t.ID, "status", next, "error", err)
			continue
		}
		s.logger.Info("tournament status updated", "tournament_id", t.ID, "from", t.Status, "to", next)
		updated++
	}
	s.metrics.StatusUpdated(updated)
	return updated, nil
}

func (s *tournamentService) publish(tournamentID int, eventType string, payload interface{}) {
	if s.notifier != nil {
		s.notifier.Publish(tournamentID, eventType, payload)
	}
}

func translateTournamentRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return notFoundError(ErrTournamentNotFound)
	case errors.Is(err, repositories.ErrTournamentInvalidFormat):
		return validationError(ErrUnknownFormat)
	case errors.Is(err, repositories.ErrTournamentInvalidDates):
		return validationError(ErrInvalidDateRange)
	}
	return err
}
