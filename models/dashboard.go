package models

type DashboardStats struct {
	DecksTotal        int     `json:"decks_total"`
	MatchesTotal      int     `json:"matches_total"`
	TournamentsTotal  int     `json:"tournaments_total"`
	ActiveTournaments int     `json:"active_tournaments"`
	TotalWins         int     `json:"total_wins"`
	TopDeck           *Deck   `json:"top_deck,omitempty"`
	RecentMatches     []Match `json:"recent_matches"`
}
