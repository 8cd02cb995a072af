package handlers

import (
	"context"

	"github.com/Dosada05/duel-vault/models"
	"github.com/Dosada05/duel-vault/services"
	"github.com/stretchr/testify/mock"
)

type mockMatchService struct{ mock.Mock }

func (m *mockMatchService) UpsertMatch(ctx context.Context, input services.UpsertMatchInput) (*models.Match, error) {
	args := m.Called(ctx, input)
	match, _ := args.Get(0).(*models.Match)
	return match, args.Error(1)
}

func (m *mockMatchService) DeleteMatch(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockMatchService) DeleteMatches(ctx context.Context, ids []int) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *mockMatchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	args := m.Called(ctx, id)
	match, _ := args.Get(0).(*models.Match)
	return match, args.Error(1)
}

func (m *mockMatchService) ListMatches(ctx context.Context) ([]models.Match, error) {
	args := m.Called(ctx)
	matches, _ := args.Get(0).([]models.Match)
	return matches, args.Error(1)
}

func (m *mockMatchService) ListHeadToHead(ctx context.Context, deckID, opponentID int) (*services.HeadToHead, error) {
	args := m.Called(ctx, deckID, opponentID)
	h2h, _ := args.Get(0).(*services.HeadToHead)
	return h2h, args.Error(1)
}

func (m *mockMatchService) ResyncBracket(ctx context.Context, matchID int, ref services.BracketRef) (services.SyncResult, error) {
	args := m.Called(ctx, matchID, ref)
	return args.Get(0).(services.SyncResult), args.Error(1)
}

type mockDeckService struct{ mock.Mock }

func (m *mockDeckService) CreateDeck(ctx context.Context, input services.CreateDeckInput) (*models.Deck, error) {
	args := m.Called(ctx, input)
	deck, _ := args.Get(0).(*models.Deck)
	return deck, args.Error(1)
}

func (m *mockDeckService) GetDeck(ctx context.Context, id int) (*models.Deck, error) {
	args := m.Called(ctx, id)
	deck, _ := args.Get(0).(*models.Deck)
	return deck, args.Error(1)
}

func (m *mockDeckService) ListDecks(ctx context.Context) ([]models.Deck, error) {
	args := m.Called(ctx)
	decks, _ := args.Get(0).([]models.Deck)
	return decks, args.Error(1)
}

func (m *mockDeckService) UpdateDeck(ctx context.Context, id int, input services.UpdateDeckInput) (*models.Deck, error) {
	args := m.Called(ctx, id, input)
	deck, _ := args.Get(0).(*models.Deck)
	return deck, args.Error(1)
}

func (m *mockDeckService) DeleteDeck(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockDeckService) DeleteDecks(ctx context.Context, ids []int) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *mockDeckService) RecalculateCounters(ctx context.Context, id int) (*models.Deck, error) {
	args := m.Called(ctx, id)
	deck, _ := args.Get(0).(*models.Deck)
	return deck, args.Error(1)
}

type mockTournamentService struct{ mock.Mock }

func (m *mockTournamentService) CreateTournament(ctx context.Context, input services.CreateTournamentInput) (*models.Tournament, error) {
	args := m.Called(ctx, input)
	t, _ := args.Get(0).(*models.Tournament)
	return t, args.Error(1)
}

func (m *mockTournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*models.Tournament)
	return t, args.Error(1)
}

func (m *mockTournamentService) ListTournaments(ctx context.Context) ([]models.Tournament, error) {
	args := m.Called(ctx)
	ts, _ := args.Get(0).([]models.Tournament)
	return ts, args.Error(1)
}

func (m *mockTournamentService) UpdateTournament(ctx context.Context, id int, input services.UpdateTournamentInput) (*models.Tournament, error) {
	args := m.Called(ctx, id, input)
	t, _ := args.Get(0).(*models.Tournament)
	return t, args.Error(1)
}

func (m *mockTournamentService) DeleteTournament(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTournamentService) DeleteTournaments(ctx context.Context, ids []int) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *mockTournamentService) UploadStage(ctx context.Context, input services.UploadStageInput) (*models.Stage, error) {
	args := m.Called(ctx, input)
	s, _ := args.Get(0).(*models.Stage)
	return s, args.Error(1)
}

func (m *mockTournamentService) GetStage(ctx context.Context, tournamentID, order int) (*services.StageView, error) {
	args := m.Called(ctx, tournamentID, order)
	v, _ := args.Get(0).(*services.StageView)
	return v, args.Error(1)
}

func (m *mockTournamentService) ListStandings(ctx context.Context, tournamentID int) ([]models.TournamentDeckStats, error) {
	args := m.Called(ctx, tournamentID)
	rows, _ := args.Get(0).([]models.TournamentDeckStats)
	return rows, args.Error(1)
}

func (m *mockTournamentService) SetFinalRank(ctx context.Context, tournamentID, deckID int, rank *int) (*models.TournamentDeckStats, error) {
	args := m.Called(ctx, tournamentID, deckID, rank)
	row, _ := args.Get(0).(*models.TournamentDeckStats)
	return row, args.Error(1)
}

func (m *mockTournamentService) AutoUpdateTournamentStatuses(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
