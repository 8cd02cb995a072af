package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/duel-vault/models"
	"github.com/Dosada05/duel-vault/repositories"
	"golang.org/x/sync/errgroup"
)

const recentMatchesLimit = 5

type DashboardService interface {
	GetStats(ctx context.Context) (models.DashboardStats, error)
}

type dashboardService struct {
	decks       repositories.DeckRepository
	matches     repositories.MatchRepository
	tournaments repositories.TournamentRepository
}

func NewDashboardService(
	decks repositories.DeckRepository,
	matches repositories.MatchRepository,
	tournaments repositories.TournamentRepository,
) DashboardService {
	return &dashboardService{
		decks:       decks,
		matches:     matches,
		tournaments: tournaments,
	}
}

func (s *dashboardService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	var st models.DashboardStats

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.DecksTotal, err = s.decks.Count(gCtx, nil)
		return err
	})
	g.Go(func() (err error) {
		st.MatchesTotal, err = s.matches.Count(gCtx, nil)
		return err
	})
	g.Go(func() (err error) {
		st.TournamentsTotal, err = s.tournaments.Count(gCtx, nil)
		return err
	})
	g.Go(func() (err error) {
		st.ActiveTournaments, err = s.tournaments.CountByStatus(gCtx, nil, models.StatusOngoing)
		return err
	})
	g.Go(func() (err error) {
		st.TotalWins, err = s.decks.SumWins(gCtx, nil)
		return err
	})
	g.Go(func() (err error) {
		st.TopDeck, err = s.decks.TopByWinRate(gCtx, nil)
		return err
	})
	g.Go(func() (err error) {
		st.RecentMatches, err = s.matches.ListRecent(gCtx, nil, recentMatchesLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, fmt.Errorf("failed to load dashboard stats: %w", err)
	}

	if len(st.RecentMatches) > 0 {
		decks, err := s.decks.List(ctx, nil)
		if err != nil {
			return models.DashboardStats{}, fmt.Errorf("failed to list decks: %w", err)
		}
		attachDecks(st.RecentMatches, decks)
	}
	if st.RecentMatches == nil {
		st.RecentMatches = []models.Match{}
	}
	return st, nil
}
