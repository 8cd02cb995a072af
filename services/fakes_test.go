package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/duel-vault/metrics"
	"github.com/Dosada05/duel-vault/models"
	"github.com/Dosada05/duel-vault/repositories"
	"github.com/Dosada05/duel-vault/stats"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected failure")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memDB is an in-memory stand-in for the Postgres schema. Transactions are
// serialized and rolled back by restoring a snapshot.
type memDB struct {
	mu   sync.Mutex
	txMu sync.Mutex

	nextID      int
	decks       map[int]models.Deck
	matches     map[int]models.Match
	tournaments map[int]models.Tournament
	standings   map[standingKey]models.TournamentDeckStats
	stages      map[standingKey]models.Stage
	formats     map[int]models.Format
	archetypes  map[int]models.Archetype

	// fail makes the named operation return errInjected.
	fail map[string]bool
}

func newMemDB() *memDB {
	return &memDB{
		nextID:      100,
		decks:       map[int]models.Deck{},
		matches:     map[int]models.Match{},
		tournaments: map[int]models.Tournament{},
		standings:   map[standingKey]models.TournamentDeckStats{},
		stages:      map[standingKey]models.Stage{},
		formats:     map[int]models.Format{},
		archetypes:  map[int]models.Archetype{},
		fail:        map[string]bool{},
	}
}

func (db *memDB) id() int {
	db.nextID++
	return db.nextID
}

func (db *memDB) check(op string) error {
	if db.fail[op] {
		return errInjected
	}
	return nil
}

type memSnapshot struct {
	decks       map[int]models.Deck
	matches     map[int]models.Match
	tournaments map[int]models.Tournament
	standings   map[standingKey]models.TournamentDeckStats
	stages      map[standingKey]models.Stage
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	return memSnapshot{
		decks:       maps.Clone(db.decks),
		matches:     maps.Clone(db.matches),
		tournaments: maps.Clone(db.tournaments),
		standings:   maps.Clone(db.standings),
		stages:      maps.Clone(db.stages),
	}
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.decks, db.matches, db.tournaments, db.standings, db.stages = s.decks, s.matches, s.tournaments, s.standings, s.stages
}

type memTx struct{ db *memDB }

func (m memTx) WithinTx(ctx context.Context, fn func(ctx context.Context, exec repositories.SQLExecutor) error) error {
	m.db.txMu.Lock()
	defer m.db.txMu.Unlock()
	snap := m.db.snapshot()
	if err := fn(ctx, nil); err != nil {
		m.db.restore(snap)
		return err
	}
	return nil
}

// seed helpers

func (db *memDB) addFormat(name string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := db.id()
	db.formats[id] = models.Format{ID: id, Name: name}
	return id
}

func (db *memDB) addArchetype(name string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := db.id()
	db.archetypes[id] = models.Archetype{ID: id, Name: name}
	return id
}

func (db *memDB) addDeck(name string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := db.id()
	db.decks[id] = models.Deck{ID: id, Name: name, Slug: name}
	return id
}

func (db *memDB) addTournament(name string, status models.TournamentStatus, start time.Time, end *time.Time) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := db.id()
	db.tournaments[id] = models.Tournament{ID: id, Name: name, Status: status, StartDate: start, EndDate: end}
	return id
}

func (db *memDB) deck(id int) models.Deck {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.decks[id]
}

func (db *memDB) record(id int) stats.Record {
	d := db.deck(id)
	return stats.Record{Wins: d.Wins, Losses: d.Losses, Ties: d.Ties}
}

func (db *memDB) standing(tournamentID, deckID int) (models.TournamentDeckStats, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	st, ok := db.standings[standingKey{tournamentID, deckID}]
	return st, ok
}

func (db *memDB) matchCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.matches)
}

// decks

type memDeckRepo struct{ db *memDB }

func (r memDeckRepo) Create(_ context.Context, _ repositories.SQLExecutor, d *models.Deck) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.decks {
		if existing.Slug == d.Slug {
			return repositories.ErrDeckNameConflict
		}
	}
	if _, ok := r.db.formats[d.FormatID]; !ok {
		return repositories.ErrDeckInvalidFormat
	}
	d.ID = r.db.id()
	d.CreatedAt = time.Now()
	r.db.decks[d.ID] = *d
	return nil
}

func (r memDeckRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Deck, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d, ok := r.db.decks[id]
	if !ok {
		return nil, repositories.ErrDeckNotFound
	}
	return &d, nil
}

func (r memDeckRepo) LockByIDs(_ context.Context, _ repositories.SQLExecutor, ids []int) (map[int]*models.Deck, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[int]*models.Deck, len(ids))
	for _, id := range ids {
		if d, ok := r.db.decks[id]; ok {
			d := d
			out[id] = &d
		}
	}
	return out, nil
}

func (r memDeckRepo) List(_ context.Context, _ repositories.SQLExecutor) ([]models.Deck, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.Deck, 0, len(r.db.decks))
	for _, d := range r.db.decks {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memDeckRepo) ListByIDs(ctx context.Context, exec repositories.SQLExecutor, ids []int) ([]models.Deck, error) {
	locked, _ := r.LockByIDs(ctx, exec, ids)
	out := make([]models.Deck, 0, len(locked))
	for _, id := range uniqueSorted(ids) {
		if d := locked[id]; d != nil {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (r memDeckRepo) UpdateDetails(_ context.Context, _ repositories.SQLExecutor, d *models.Deck) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.decks[d.ID]
	if !ok {
		return repositories.ErrDeckNotFound
	}
	cur.Name, cur.Slug, cur.FormatID, cur.ArchetypeID, cur.Description = d.Name, d.Slug, d.FormatID, d.ArchetypeID, d.Description
	r.db.decks[d.ID] = cur
	return nil
}

func (r memDeckRepo) UpdateCounters(_ context.Context, _ repositories.SQLExecutor, id int, rec stats.Record) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("UpdateCounters"); err != nil {
		return err
	}
	cur, ok := r.db.decks[id]
	if !ok {
		return repositories.ErrDeckNotFound
	}
	if rec.Wins < 0 || rec.Losses < 0 || rec.Ties < 0 {
		return repositories.ErrDeckCountersInvalid
	}
	cur.Wins, cur.Losses, cur.Ties = rec.Wins, rec.Losses, rec.Ties
	r.db.decks[id] = cur
	return nil
}

func (r memDeckRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.decks[id]; !ok {
		return repositories.ErrDeckNotFound
	}
	delete(r.db.decks, id)
	return nil
}

func (r memDeckRepo) Count(_ context.Context, _ repositories.SQLExecutor) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.decks), nil
}

func (r memDeckRepo) SumWins(_ context.Context, _ repositories.SQLExecutor) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	total := 0
	for _, d := range r.db.decks {
		total += d.Wins
	}
	return total, nil
}

func (r memDeckRepo) TopByWinRate(ctx context.Context, exec repositories.SQLExecutor) (*models.Deck, error) {
	decks, _ := r.List(ctx, exec)
	var top *models.Deck
	for i := range decks {
		d := &decks[i]
		if d.Wins+d.Losses+d.Ties == 0 {
			continue
		}
		if top == nil || d.WinRate() > top.WinRate() {
			top = d
		}
	}
	return top, nil
}

// matches

type memMatchRepo struct{ db *memDB }

func (r memMatchRepo) validate(m *models.Match) error {
	if _, ok := r.db.decks[m.DeckAID]; !ok {
		return repositories.ErrMatchInvalidDeck
	}
	if _, ok := r.db.decks[m.DeckBID]; !ok {
		return repositories.ErrMatchInvalidDeck
	}
	if m.TournamentID != nil {
		if _, ok := r.db.tournaments[*m.TournamentID]; !ok {
			return repositories.ErrMatchInvalidTournament
		}
	}
	return nil
}

func (r memMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("CreateMatch"); err != nil {
		return err
	}
	if err := r.validate(m); err != nil {
		return err
	}
	m.ID = r.db.id()
	m.CreatedAt = time.Now()
	r.db.matches[m.ID] = *m
	return nil
}

func (r memMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Match, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return &m, nil
}

func (r memMatchRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	return r.GetByID(ctx, exec, id)
}

func (r memMatchRepo) LockByIDs(_ context.Context, _ repositories.SQLExecutor, ids []int) ([]models.Match, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Match
	for _, id := range uniqueSorted(ids) {
		if m, ok := r.db.matches[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r memMatchRepo) Update(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.matches[m.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	if err := r.validate(m); err != nil {
		return err
	}
	r.db.matches[m.ID] = *m
	return nil
}

func (r memMatchRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.db.matches, id)
	return nil
}

func (r memMatchRepo) filter(keep func(m models.Match) bool) []models.Match {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Match
	for _, m := range r.db.matches {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func inTournament(m models.Match, tournamentID int) bool {
	return m.TournamentID != nil && *m.TournamentID == tournamentID
}

func (r memMatchRepo) List(_ context.Context, _ repositories.SQLExecutor) ([]models.Match, error) {
	return r.filter(func(models.Match) bool { return true }), nil
}

func (r memMatchRepo) ListRecent(_ context.Context, _ repositories.SQLExecutor, limit int) ([]models.Match, error) {
	all := r.filter(func(models.Match) bool { return true })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r memMatchRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.Match, error) {
	return r.filter(func(m models.Match) bool { return inTournament(m, tournamentID) }), nil
}

func (r memMatchRepo) ListByTournamentAndDeck(_ context.Context, _ repositories.SQLExecutor, tournamentID, deckID int) ([]models.Match, error) {
	return r.filter(func(m models.Match) bool { return inTournament(m, tournamentID) && m.Involves(deckID) }), nil
}

func (r memMatchRepo) ListByDeck(_ context.Context, _ repositories.SQLExecutor, deckID int) ([]models.Match, error) {
	return r.filter(func(m models.Match) bool { return m.Involves(deckID) }), nil
}

func (r memMatchRepo) ListHeadToHead(_ context.Context, _ repositories.SQLExecutor, deckID, opponentID int) ([]models.Match, error) {
	return r.filter(func(m models.Match) bool { return m.Involves(deckID) && m.Involves(opponentID) }), nil
}

func (r memMatchRepo) Count(_ context.Context, _ repositories.SQLExecutor) (int, error) {
	return r.db.matchCount(), nil
}

func (r memMatchRepo) CountByDeck(_ context.Context, _ repositories.SQLExecutor, deckID int) (int, error) {
	return len(r.filter(func(m models.Match) bool { return m.Involves(deckID) })), nil
}

func (r memMatchRepo) LastPlayedByDeck(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (map[int]time.Time, error) {
	out := map[int]time.Time{}
	for _, m := range r.filter(func(m models.Match) bool { return inTournament(m, tournamentID) }) {
		for _, id := range []int{m.DeckAID, m.DeckBID} {
			if m.Date.After(out[id]) {
				out[id] = m.Date
			}
		}
	}
	return out, nil
}

// standings

type memStandingRepo struct{ db *memDB }

func (r memStandingRepo) Get(_ context.Context, _ repositories.SQLExecutor, tournamentID, deckID int) (*models.TournamentDeckStats, error) {
	st, ok := r.db.standing(tournamentID, deckID)
	if !ok {
		return nil, repositories.ErrStandingNotFound
	}
	return &st, nil
}

func (r memStandingRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, tournamentID, deckID int, rec stats.Record) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("UpsertStanding"); err != nil {
		return err
	}
	k := standingKey{tournamentID, deckID}
	st, ok := r.db.standings[k]
	if !ok {
		st = models.TournamentDeckStats{ID: r.db.id(), TournamentID: tournamentID, DeckID: deckID}
	}
	st.Wins, st.Losses, st.Ties = rec.Wins, rec.Losses, rec.Ties
	st.UpdatedAt = time.Now()
	r.db.standings[k] = st
	return nil
}

func (r memStandingRepo) Delete(_ context.Context, _ repositories.SQLExecutor, tournamentID, deckID int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.standings, standingKey{tournamentID, deckID})
	return nil
}

func (r memStandingRepo) list(keep func(models.TournamentDeckStats) bool) []models.TournamentDeckStats {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.TournamentDeckStats
	for _, st := range r.db.standings {
		if keep(st) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memStandingRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.TournamentDeckStats, error) {
	return r.list(func(st models.TournamentDeckStats) bool { return st.TournamentID == tournamentID }), nil
}

func (r memStandingRepo) ListByDeck(_ context.Context, _ repositories.SQLExecutor, deckID int) ([]models.TournamentDeckStats, error) {
	return r.list(func(st models.TournamentDeckStats) bool { return st.DeckID == deckID }), nil
}

func (r memStandingRepo) SetFinalRank(_ context.Context, _ repositories.SQLExecutor, tournamentID, deckID int, rank *int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	k := standingKey{tournamentID, deckID}
	st, ok := r.db.standings[k]
	if !ok {
		return repositories.ErrStandingNotFound
	}
	st.FinalRank = rank
	r.db.standings[k] = st
	return nil
}

// tournaments

type memTournamentRepo struct{ db *memDB }

func (r memTournamentRepo) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.formats[t.FormatID]; !ok {
		return repositories.ErrTournamentInvalidFormat
	}
	t.ID = r.db.id()
	r.db.tournaments[t.ID] = *t
	return nil
}

func (r memTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("GetTournament"); err != nil {
		return nil, err
	}
	t, ok := r.db.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return &t, nil
}

func (r memTournamentRepo) List(_ context.Context, _ repositories.SQLExecutor) ([]models.Tournament, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Tournament
	for _, t := range r.db.tournaments {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memTournamentRepo) Update(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	r.db.tournaments[t.ID] = *t
	return nil
}

func (r memTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	r.db.tournaments[id] = t
	return nil
}

// Delete detaches the tournament's matches and drops its standings and
// stages, like the foreign keys do.
func (r memTournamentRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.db.tournaments, id)
	for mid, m := range r.db.matches {
		if inTournament(m, id) {
			m.TournamentID = nil
			r.db.matches[mid] = m
		}
	}
	for k := range r.db.standings {
		if k.tournamentID == id {
			delete(r.db.standings, k)
		}
	}
	for k := range r.db.stages {
		if k.tournamentID == id {
			delete(r.db.stages, k)
		}
	}
	return nil
}

func (r memTournamentRepo) ListForAutoStatusUpdate(_ context.Context, _ repositories.SQLExecutor, now time.Time) ([]*models.Tournament, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*models.Tournament
	for _, t := range r.db.tournaments {
		t := t
		switch {
		case t.Status == models.StatusUpcoming && !t.StartDate.After(now):
			out = append(out, &t)
		case t.Status == models.StatusOngoing && t.EndDate != nil && !t.EndDate.After(now):
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memTournamentRepo) Count(_ context.Context, _ repositories.SQLExecutor) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.tournaments), nil
}

func (r memTournamentRepo) CountByStatus(_ context.Context, _ repositories.SQLExecutor, status models.TournamentStatus) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, t := range r.db.tournaments {
		if t.Status == status {
			n++
		}
	}
	return n, nil
}

// stages, keyed by (tournament, order)

type memStageRepo struct{ db *memDB }

func (r memStageRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, st *models.Stage) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tournaments[st.TournamentID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	k := standingKey{st.TournamentID, st.Order}
	if cur, ok := r.db.stages[k]; ok {
		st.ID = cur.ID
	} else {
		st.ID = r.db.id()
	}
	st.UpdatedAt = time.Now()
	r.db.stages[k] = *st
	return nil
}

func (r memStageRepo) GetByOrder(_ context.Context, _ repositories.SQLExecutor, tournamentID, order int) (*models.Stage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	st, ok := r.db.stages[standingKey{tournamentID, order}]
	if !ok {
		return nil, repositories.ErrStageNotFound
	}
	return &st, nil
}

func (r memStageRepo) GetLatest(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (*models.Stage, error) {
	stages, _ := r.ListByTournament(ctx, exec, tournamentID)
	if len(stages) == 0 {
		return nil, repositories.ErrStageNotFound
	}
	last := stages[len(stages)-1]
	return &last, nil
}

func (r memStageRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.Stage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Stage
	for k, st := range r.db.stages {
		if k.tournamentID == tournamentID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// formats and archetypes

type memFormatRepo struct{ db *memDB }

func (r memFormatRepo) Create(_ context.Context, f *models.Format) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.formats {
		if existing.Name == f.Name {
			return repositories.ErrFormatNameConflict
		}
	}
	f.ID = r.db.id()
	r.db.formats[f.ID] = *f
	return nil
}

func (r memFormatRepo) GetByID(_ context.Context, id int) (*models.Format, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	f, ok := r.db.formats[id]
	if !ok {
		return nil, repositories.ErrFormatNotFound
	}
	return &f, nil
}

func (r memFormatRepo) GetAll(_ context.Context) ([]models.Format, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Format
	for _, f := range r.db.formats {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memArchetypeRepo struct{ db *memDB }

func (r memArchetypeRepo) Create(_ context.Context, a *models.Archetype) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.archetypes {
		if existing.Name == a.Name {
			return repositories.ErrArchetypeNameConflict
		}
	}
	a.ID = r.db.id()
	r.db.archetypes[a.ID] = *a
	return nil
}

func (r memArchetypeRepo) GetByID(_ context.Context, id int) (*models.Archetype, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.archetypes[id]
	if !ok {
		return nil, repositories.ErrArchetypeNotFound
	}
	return &a, nil
}

func (r memArchetypeRepo) GetAll(_ context.Context) ([]models.Archetype, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Archetype
	for _, a := range r.db.archetypes {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// notifier

type publishedEvent struct {
	TournamentID int
	Type         string
	Payload      interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (n *recordingNotifier) Publish(tournamentID int, eventType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, publishedEvent{tournamentID, eventType, payload})
}

func (n *recordingNotifier) types(tournamentID int) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, e := range n.events {
		if e.TournamentID == tournamentID {
			out = append(out, e.Type)
		}
	}
	return out
}

// counterValue reads one counter series from the registry. Missing series
// read as zero.
func counterValue(t *testing.T, m *metrics.Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue series
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}
