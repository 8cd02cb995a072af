package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/duel-vault/models"
	"github.com/Dosada05/duel-vault/stats"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RepositoryTestSuite struct {
	suite.Suite
	db   *sql.DB
	mock sqlmock.Sqlmock
	ctx  context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	db, mock, err := sqlmock.New()
	require.NoError(s.T(), err)
	s.db = db
	s.mock = mock
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
	s.db.Close()
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

var (
	deckCols  = []string{"id", "name", "slug", "format_id", "archetype_id", "description", "wins", "losses", "ties", "created_at"}
	matchCols = []string{"id", "tournament_id", "deck_a_id", "deck_b_id", "winner_id", "deck_a_score", "deck_b_score", "notes", "date", "created_at"}
	created   = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
)

func (s *RepositoryTestSuite) TestDeckLockByIDsLocksInIDOrder() {
	repo := NewPostgresDeckRepository(s.db)
	s.mock.ExpectQuery(regexp.QuoteMeta(`FROM decks WHERE id = ANY($1) ORDER BY id FOR UPDATE`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(deckCols).
			AddRow(3, "Alpha", "alpha", 1, 1, nil, 2, 1, 0, created).
			AddRow(8, "Beta", "beta", 1, 2, "notes", 0, 0, 4, created))

	decks, err := repo.LockByIDs(s.ctx, nil, []int{3, 8, 11})
	s.Require().NoError(err)
	s.Len(decks, 2)
	s.Equal(2, decks[3].Wins)
	s.Equal(4, decks[8].Ties)
	s.Require().NotNil(decks[8].Description)
	s.Equal("notes", *decks[8].Description)
	s.Nil(decks[11])
}

func (s *RepositoryTestSuite) TestDeckUpdateCountersInsideTransaction() {
	repo := NewPostgresDeckRepository(s.db)
	txm := NewTxManager(s.db)

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE decks SET wins = $1, losses = $2, ties = $3 WHERE id = $4`)).
		WithArgs(1, 2, 3, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	err := txm.WithinTx(s.ctx, func(ctx context.Context, exec SQLExecutor) error {
		return repo.UpdateCounters(ctx, exec, 7, stats.Record{Wins: 1, Losses: 2, Ties: 3})
	})
	s.NoError(err)
}

func (s *RepositoryTestSuite) TestDeckUpdateCountersMissingDeck() {
	repo := NewPostgresDeckRepository(s.db)
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE decks SET wins`)).
		WithArgs(0, 0, 0, 99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateCounters(s.ctx, nil, 99, stats.Record{})
	s.ErrorIs(err, ErrDeckNotFound)
}

func (s *RepositoryTestSuite) TestDeckCreateMapsConstraintErrors() {
	repo := NewPostgresDeckRepository(s.db)
	cases := []struct {
		pqErr *pq.Error
		want  error
	}{
		{&pq.Error{Code: pqUniqueViolation, Constraint: "decks_slug_key"}, ErrDeckNameConflict},
		{&pq.Error{Code: pqForeignKeyViolation, Constraint: "decks_format_id_fkey"}, ErrDeckInvalidFormat},
		{&pq.Error{Code: pqForeignKeyViolation, Constraint: "decks_archetype_id_fkey"}, ErrDeckInvalidArchetype},
	}
	for _, tc := range cases {
		s.mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO decks`)).WillReturnError(tc.pqErr)
		err := repo.Create(s.ctx, nil, &models.Deck{Name: "Alpha", Slug: "alpha", FormatID: 1, ArchetypeID: 1})
		s.ErrorIs(err, tc.want)
	}
}

func (s *RepositoryTestSuite) TestDeckTopByWinRateWithoutPlayedDecks() {
	repo := NewPostgresDeckRepository(s.db)
	s.mock.ExpectQuery(regexp.QuoteMeta(`WHERE wins + losses + ties > 0`)).
		WillReturnRows(sqlmock.NewRows(deckCols))

	d, err := repo.TopByWinRate(s.ctx, nil)
	s.NoError(err)
	s.Nil(d)
}

func (s *RepositoryTestSuite) TestMatchLockByIDs() {
	repo := NewPostgresMatchRepository(s.db)
	s.mock.ExpectQuery(regexp.QuoteMeta(`FROM matches WHERE id = ANY($1) ORDER BY id FOR UPDATE`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(matchCols).
			AddRow(1, 4, 10, 11, 10, 2, 1, nil, created, created).
			AddRow(2, nil, 10, 12, nil, 1, 1, "draw", created, created))

	matches, err := repo.LockByIDs(s.ctx, nil, []int{1, 2})
	s.Require().NoError(err)
	s.Require().Len(matches, 2)
	s.Require().NotNil(matches[0].TournamentID)
	s.Equal(4, *matches[0].TournamentID)
	s.Equal(10, *matches[0].WinnerID)
	s.Nil(matches[1].TournamentID)
	s.Nil(matches[1].WinnerID)
	s.Equal("friendly", matches[1].Kind())
}

func (s *RepositoryTestSuite) TestMatchLockByIDsEmpty() {
	repo := NewPostgresMatchRepository(s.db)
	matches, err := repo.LockByIDs(s.ctx, nil, nil)
	s.NoError(err)
	s.Empty(matches)
}

func (s *RepositoryTestSuite) TestMatchUpdateMapsForeignKeys() {
	repo := NewPostgresMatchRepository(s.db)
	m := &models.Match{ID: 5, DeckAID: 1, DeckBID: 2, Date: created}

	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE matches SET`)).
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation, Constraint: "matches_tournament_id_fkey"})
	s.ErrorIs(repo.Update(s.ctx, nil, m), ErrMatchInvalidTournament)

	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE matches SET`)).
		WillReturnError(&pq.Error{Code: pqCheckViolation, Constraint: "matches_winner_side"})
	err := repo.Update(s.ctx, nil, m)
	s.ErrorIs(err, ErrMatchConstraint)
	s.Contains(err.Error(), "matches_winner_side")

	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE matches SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.ErrorIs(repo.Update(s.ctx, nil, m), ErrMatchNotFound)
}

func (s *RepositoryTestSuite) TestMatchLastPlayedByDeck() {
	repo := NewPostgresMatchRepository(s.db)
	later := created.Add(time.Hour)
	s.mock.ExpectQuery(regexp.QuoteMeta(`GROUP BY deck_id`)).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"deck_id", "max"}).
			AddRow(10, later).
			AddRow(11, created))

	last, err := repo.LastPlayedByDeck(s.ctx, nil, 4)
	s.Require().NoError(err)
	s.Equal(later, last[10])
	s.Equal(created, last[11])
}

func (s *RepositoryTestSuite) TestStandingUpsertKeepsFinalRank() {
	repo := NewPostgresStandingRepository(s.db)
	s.mock.ExpectExec(`ON CONFLICT \(tournament_id, deck_id\) DO UPDATE SET\s+wins = EXCLUDED.wins,\s+losses = EXCLUDED.losses,\s+ties = EXCLUDED.ties,\s+updated_at = NOW\(\)$`).
		WithArgs(4, 10, 2, 1, 0).
		WillReturnResult(sqlmock.NewResult(1, 1))

	s.NoError(repo.Upsert(s.ctx, nil, 4, 10, stats.Record{Wins: 2, Losses: 1}))
}

func (s *RepositoryTestSuite) TestStandingDeleteIsIdempotent() {
	repo := NewPostgresStandingRepository(s.db)
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tournament_deck_stats WHERE tournament_id = $1 AND deck_id = $2`)).
		WithArgs(4, 10).
		WillReturnResult(sqlmock.NewResult(0, 0))

	s.NoError(repo.Delete(s.ctx, nil, 4, 10))
}

func (s *RepositoryTestSuite) TestStandingSetFinalRankMissingRow() {
	repo := NewPostgresStandingRepository(s.db)
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE tournament_deck_stats SET final_rank = $1`)).
		WithArgs(1, 4, 10).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rank := 1
	s.ErrorIs(repo.SetFinalRank(s.ctx, nil, 4, 10, &rank), ErrStandingNotFound)
}

func (s *RepositoryTestSuite) TestStandingGetNotFound() {
	repo := NewPostgresStandingRepository(s.db)
	s.mock.ExpectQuery(regexp.QuoteMeta(`FROM tournament_deck_stats WHERE tournament_id = $1 AND deck_id = $2`)).
		WithArgs(4, 10).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(s.ctx, nil, 4, 10)
	s.ErrorIs(err, ErrStandingNotFound)
}

func (s *RepositoryTestSuite) TestTxManagerRollsBackOnError() {
	txm := NewTxManager(s.db)
	boom := errors.New("boom")

	s.mock.ExpectBegin()
	s.mock.ExpectRollback()

	err := txm.WithinTx(s.ctx, func(ctx context.Context, exec SQLExecutor) error {
		return boom
	})
	s.ErrorIs(err, boom)
}

func (s *RepositoryTestSuite) TestTxManagerRollsBackOnPanic() {
	txm := NewTxManager(s.db)

	s.mock.ExpectBegin()
	s.mock.ExpectRollback()

	s.Panics(func() {
		_ = txm.WithinTx(s.ctx, func(ctx context.Context, exec SQLExecutor) error {
			panic("engine exploded")
		})
	})
}

func (s *RepositoryTestSuite) TestTxManagerReportsCommitFailure() {
	txm := NewTxManager(s.db)

	s.mock.ExpectBegin()
	s.mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	err := txm.WithinTx(s.ctx, func(ctx context.Context, exec SQLExecutor) error { return nil })
	s.Require().Error(err)
	s.Contains(err.Error(), "failed to commit transaction")
}

func (s *RepositoryTestSuite) TestTournamentListForAutoStatusUpdate() {
	repo := NewPostgresTournamentRepository(s.db)
	now := created
	s.mock.ExpectQuery(`FROM tournaments`).
		WithArgs(models.StatusUpcoming, models.StatusOngoing, now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "format_id", "start_date", "end_date", "status", "notes", "link", "created_at"}).
			AddRow(1, "Cup", 2, now.Add(-time.Hour), nil, "upcoming", nil, nil, created))

	ts, err := repo.ListForAutoStatusUpdate(s.ctx, nil, now)
	s.Require().NoError(err)
	s.Require().Len(ts, 1)
	s.Equal(models.StatusUpcoming, ts[0].Status)
	s.Equal(models.StatusOngoing, ts[0].StatusAt(now))
}
