package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/duel-vault/brackets"
	"github.com/Dosada05/duel-vault/models"
	"github.com/Dosada05/duel-vault/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) setNow(t *testing.T, now time.Time) {
	t.Helper()
	svc, ok := f.tournaments.(*tournamentService)
	require.True(t, ok)
	svc.now = func() time.Time { return now }
}

func TestCreateTournamentDerivesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	format := f.db.addFormat("Speed Duel")
	f.setNow(t, matchDate)

	upcoming, err := f.tournaments.CreateTournament(ctx, CreateTournamentInput{
		Name: "  Spring Cup ", FormatID: format, StartDate: matchDate.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "Spring Cup", upcoming.Name)
	assert.Equal(t, models.StatusUpcoming, upcoming.Status)

	end := matchDate.Add(-time.Hour)
	done, err := f.tournaments.CreateTournament(ctx, CreateTournamentInput{
		Name: "Old Cup", FormatID: format, StartDate: matchDate.Add(-48 * time.Hour), EndDate: &end,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)
}

func TestCreateTournamentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	format := f.db.addFormat("Speed Duel")
	before := matchDate.Add(-time.Hour)

	_, err := f.tournaments.CreateTournament(ctx, CreateTournamentInput{Name: " ", FormatID: format, StartDate: matchDate})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = f.tournaments.CreateTournament(ctx, CreateTournamentInput{Name: "Cup", FormatID: format})
	assert.ErrorIs(t, err, ErrDateRequired)

	_, err = f.tournaments.CreateTournament(ctx, CreateTournamentInput{Name: "Cup", FormatID: format, StartDate: matchDate, EndDate: &before})
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = f.tournaments.CreateTournament(ctx, CreateTournamentInput{Name: "Cup", FormatID: 9999, StartDate: matchDate})
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestListStandingsOrdersByPosition(t *testing.T) {
	f := newFixture(t)
	a, b, c, d := f.db.addDeck("a"), f.db.addDeck("b"), f.db.addDeck("c"), f.db.addDeck("d")
	tid := f.db.addTournament("cup", models.StatusOngoing, matchDate, nil)

	f.upsert(t, UpsertMatchInput{TournamentID: &tid, DeckAID: a, DeckBID: b, WinnerID: &a, Date: matchDate})
	f.upsert(t, UpsertMatchInput{TournamentID: &tid, DeckAID: c, DeckBID: d, WinnerID: &c, Date: matchDate.Add(time.Hour)})

	rows, err := f.tournaments.ListStandings(context.Background(), tid)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	var order []int
	for i, r := range rows {
		order = append(order, r.DeckID)
		assert.Equal(t, i+1, r.Position)
		require.NotNil(t, r.Deck)
		assert.Equal(t, r.DeckID, r.Deck.ID)
	}
	assert.Equal(t, []int{c, a, d, b}, order)
}

func TestSetFinalRank(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	x, y := f.db.addDeck("x"), f.db.addDeck("y")
	tid := f.db.addTournament("cup", models.StatusOngoing, matchDate, nil)
	f.upsert(t, UpsertMatchInput{TournamentID: &tid, DeckAID: x, DeckBID: y, WinnerID: &x})

	_, err := f.tournaments.SetFinalRank(ctx, tid, x, ptr(0))
	assert.ErrorIs(t, err, ErrInvalidFinalRank)

	_, err = f.tournaments.SetFinalRank(ctx, tid, 9999, ptr(1))
	assert.ErrorIs(t, err, ErrNotFound)

	row, err := f.tournaments.SetFinalRank(ctx, tid, x, ptr(1))
	require.NoError(t, err)
	require.NotNil(t, row.FinalRank)
	assert.Equal(t, 1, *row.FinalRank)
	assert.Contains(t, f.notifier.types(tid), brackets.EventStandingsUpdated)

	// recomputing counters keeps the rank
	f.upsert(t, UpsertMatchInput{TournamentID: &tid, DeckAID: x, DeckBID: y, WinnerID: nil})
	st, ok := f.db.standing(tid, x)
	require.True(t, ok)
	require.NotNil(t, st.FinalRank)
	assert.Equal(t, 1, *st.FinalRank)
	assert.Equal(t, rec(1, 0, 1), rec(st.Wins, st.Losses, st.Ties))
}

func TestAutoUpdateTournamentStatuses(t *testing.T) {
	f := newFixture(t)
	now := matchDate
	past := now.Add(-time.Hour)
	f.setNow(t, now)

	starting := f.db.addTournament("starting", models.StatusUpcoming, past, nil)
	ending := f.db.addTournament("ending", models.StatusOngoing, now.Add(-48*time.Hour), &past)
	skipped := f.db.addTournament("skipped", models.StatusUpcoming, now.Add(-48*time.Hour), &past)
	future := f.db.addTournament("future", models.StatusUpcoming, now.Add(time.Hour), nil)
	running := f.db.addTournament("running", models.StatusOngoing, past, nil)

	n, err := f.tournaments.AutoUpdateTournamentStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	status := func(id int) models.TournamentStatus {
		f.db.mu.Lock()
		defer f.db.mu.Unlock()
		return f.db.tournaments[id].Status
	}
	assert.Equal(t, models.StatusOngoing, status(starting))
	assert.Equal(t, models.StatusCompleted, status(ending))
	assert.Equal(t, models.StatusCompleted, status(skipped))
	assert.Equal(t, models.StatusUpcoming, status(future))
	assert.Equal(t, models.StatusOngoing, status(running))
	assert.Equal(t, 3.0, counterValue(t, f.metrics, "duelvault_tournament_status_updates_total", nil))
}

func TestGetStageResolvesParticipants(t *testing.T) {
	f := newFixture(t)
	s := f.bracketTournament(t, true)
	a, d := s.decks[0], s.decks[3]
	f.upsert(t, UpsertMatchInput{TournamentID: &s.tournamentID, DeckAID: a, DeckBID: d, WinnerID: &a, DeckAScore: 2})

	view, err := f.tournaments.GetStage(context.Background(), s.tournamentID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StageSingleElimination, view.Stage.Type)

	// only decks with standings are resolved
	require.Len(t, view.Participants, 2)
	assert.Equal(t, a, view.Participants[0].ID)
	assert.Equal(t, d, view.Participants[3].ID)
	assert.Equal(t, "deck-0", view.Document.Participants[0].Name)
	assert.Equal(t, "deck-3", view.Document.Participants[3].Name)

	_, err = f.tournaments.GetStage(context.Background(), s.tournamentID, 5)
	assert.ErrorIs(t, err, ErrStageNotFound)
}

func TestUploadStageRejectsInvalidDocument(t *testing.T) {
	f := newFixture(t)
	tid := f.db.addTournament("cup", models.StatusOngoing, matchDate, nil)
	ctx := context.Background()

	_, err := f.tournaments.UploadStage(ctx, UploadStageInput{
		TournamentID: tid, Order: 1, Type: models.StageRoundRobin, Document: []byte(`{"rounds": []}`),
	})
	assert.ErrorIs(t, err, ErrInvalidBracketDoc)

	// the stage type must agree with the document it describes
	_, err = f.tournaments.UploadStage(ctx, UploadStageInput{
		TournamentID: tid, Order: 1, Type: models.StageRoundRobin, Document: eliminationDocument(t, tid, [4]int{1, 2, 3, 4}),
	})
	assert.ErrorIs(t, err, ErrInvalidBracketDoc)

	_, err = f.tournaments.UploadStage(ctx, UploadStageInput{TournamentID: tid, Order: 0, Type: models.StageRoundRobin})
	assert.ErrorIs(t, err, ErrInvalidStageOrder)

	_, err = f.tournaments.UploadStage(ctx, UploadStageInput{TournamentID: tid, Order: 1, Type: "swiss"})
	assert.ErrorIs(t, err, ErrInvalidStageType)

	_, err = f.tournaments.UploadStage(ctx, UploadStageInput{
		TournamentID: 9999, Order: 1, Type: models.StageRoundRobin, Document: eliminationDocument(t, 9999, [4]int{1, 2, 3, 4}),
	})
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestDeleteTournamentKeepsMatchesAsFriendly(t *testing.T) {
	f := newFixture(t)
	s := f.bracketTournament(t, true)
	a, d := s.decks[0], s.decks[3]
	m := f.upsert(t, UpsertMatchInput{TournamentID: &s.tournamentID, DeckAID: a, DeckBID: d, WinnerID: &a})

	require.NoError(t, f.tournaments.DeleteTournament(context.Background(), s.tournamentID))

	_, err := f.store.GetObject(context.Background(), models.StageObjectKey(s.tournamentID, 1))
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	_, ok := f.db.standing(s.tournamentID, a)
	assert.False(t, ok)

	got, err := f.matches.GetMatch(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TournamentID)
	assert.Equal(t, rec(1, 0, 0), f.db.record(a))

	err = f.tournaments.DeleteTournaments(context.Background(), []int{s.tournamentID})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetTournamentLoadsDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	format := f.db.addFormat("Advanced")
	tt, err := f.tournaments.CreateTournament(ctx, CreateTournamentInput{Name: "Cup", FormatID: format, StartDate: matchDate})
	require.NoError(t, err)
	x, y := f.db.addDeck("x"), f.db.addDeck("y")
	f.upsert(t, UpsertMatchInput{TournamentID: &tt.ID, DeckAID: x, DeckBID: y, WinnerID: &y})

	got, err := f.tournaments.GetTournament(ctx, tt.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Format)
	assert.Equal(t, "Advanced", got.Format.Name)
	require.Len(t, got.Matches, 1)
	require.NotNil(t, got.Matches[0].DeckA)
	require.Len(t, got.DeckStats, 2)
	assert.Equal(t, y, got.DeckStats[0].DeckID)

	_, err = f.tournaments.GetTournament(ctx, 9999)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}
