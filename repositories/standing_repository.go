package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/duel-vault/models"
	"github.com/Dosada05/duel-vault/stats"
)

var ErrStandingNotFound = errors.New("tournament standing not found")

// StandingRepository stores tournament_deck_stats rows, one per
// (tournament, deck) pair.
type StandingRepository interface {
	Get(ctx context.Context, exec SQLExecutor, tournamentID, deckID int) (*models.TournamentDeckStats, error)
	// Upsert overwrites the counters of the row, creating it when missing.
	// FinalRank of an existing row is kept.
	Upsert(ctx context.Context, exec SQLExecutor, tournamentID, deckID int, record stats.Record) error
	// Delete removes the row if present. A missing row is not an error.
	Delete(ctx context.Context, exec SQLExecutor, tournamentID, deckID int) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.TournamentDeckStats, error)
	ListByDeck(ctx context.Context, exec SQLExecutor, deckID int) ([]models.TournamentDeckStats, error)
	SetFinalRank(ctx context.Context, exec SQLExecutor, tournamentID, deckID int, rank *int) error
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	return pickExecutor(r.db, exec)
}

const standingColumns = `id, tournament_id, deck_id, wins, losses, ties, final_rank, updated_at`

func scanStanding(s rowScanner) (*models.TournamentDeckStats, error) {
	var st models.TournamentDeckStats
	err := s.Scan(&st.ID, &st.TournamentID, &st.DeckID, &st.Wins, &st.Losses, &st.Ties, &st.FinalRank, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (r *postgresStandingRepository) Get(ctx context.Context, exec SQLExecutor, tournamentID, deckID int) (*models.TournamentDeckStats, error) {
	query := `SELECT ` + standingColumns + ` FROM tournament_deck_stats WHERE tournament_id = $1 AND deck_id = $2`
	return scanStanding(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, deckID))
}

func (r *postgresStandingRepository) Upsert(ctx context.Context, exec SQLExecutor, tournamentID, deckID int, record stats.Record) error {
	query := `
		INSERT INTO tournament_deck_stats (tournament_id, deck_id, wins, losses, ties, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (tournament_id, deck_id) DO UPDATE SET
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			ties = EXCLUDED.ties,
			updated_at = NOW()`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, deckID, record.Wins, record.Losses, record.Ties)
	return err
}

func (r *postgresStandingRepository) Delete(ctx context.Context, exec SQLExecutor, tournamentID, deckID int) error {
	query := `DELETE FROM tournament_deck_stats WHERE tournament_id = $1 AND deck_id = $2`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, deckID)
	return err
}

func (r *postgresStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.TournamentDeckStats, error) {
	query := `
		SELECT ` + standingColumns + `
		FROM tournament_deck_stats
		WHERE tournament_id = $1
		ORDER BY wins DESC, losses ASC, deck_id ASC`
	return r.list(ctx, exec, query, tournamentID)
}

func (r *postgresStandingRepository) ListByDeck(ctx context.Context, exec SQLExecutor, deckID int) ([]models.TournamentDeckStats, error) {
	query := `
		SELECT ` + standingColumns + `
		FROM tournament_deck_stats
		WHERE deck_id = $1
		ORDER BY tournament_id DESC`
	return r.list(ctx, exec, query, deckID)
}

func (r *postgresStandingRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.TournamentDeckStats, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]models.TournamentDeckStats, 0)
	for rows.Next() {
		s, errScan := scanStanding(rows)
		if errScan != nil {
			return nil, errScan
		}
		standings = append(standings, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return standings, nil
}

func (r *postgresStandingRepository) SetFinalRank(ctx context.Context, exec SQLExecutor, tournamentID, deckID int, rank *int) error {
	query := `
		UPDATE tournament_deck_stats SET final_rank = $1, updated_at = NOW()
		WHERE tournament_id = $2 AND deck_id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, rank, tournamentID, deckID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}
