package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/duel-vault/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchInvalidDeck       = errors.New("match deck reference invalid")
	ErrMatchInvalidTournament = errors.New("match tournament reference invalid")
	ErrMatchConstraint        = errors.New("match violates a table constraint")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	LockByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	List(ctx context.Context, exec SQLExecutor) ([]models.Match, error)
	ListRecent(ctx context.Context, exec SQLExecutor, limit int) ([]models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Match, error)
	ListByTournamentAndDeck(ctx context.Context, exec SQLExecutor, tournamentID, deckID int) ([]models.Match, error)
	ListByDeck(ctx context.Context, exec SQLExecutor, deckID int) ([]models.Match, error)
	ListHeadToHead(ctx context.Context, exec SQLExecutor, deckID, opponentID int) ([]models.Match, error)
	Count(ctx context.Context, exec SQLExecutor) (int, error)
	CountByDeck(ctx context.Context, exec SQLExecutor, deckID int) (int, error)
	LastPlayedByDeck(ctx context.Context, exec SQLExecutor, tournamentID int) (map[int]time.Time, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	return pickExecutor(r.db, exec)
}

const matchColumns = `id, tournament_id, deck_a_id, deck_b_id, winner_id, deck_a_score, deck_b_score, notes, date, created_at`

func scanMatch(s rowScanner) (*models.Match, error) {
	var m models.Match
	err := s.Scan(&m.ID, &m.TournamentID, &m.DeckAID, &m.DeckBID, &m.WinnerID,
		&m.DeckAScore, &m.DeckBScore, &m.Notes, &m.Date, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, deck_a_id, deck_b_id, winner_id, deck_a_score, deck_b_score, notes, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		match.TournamentID, match.DeckAID, match.DeckBID, match.WinnerID,
		match.DeckAScore, match.DeckBScore, match.Notes, match.Date,
	).Scan(&match.ID, &match.CreatedAt)
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`
	return scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) LockByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]models.Match, error) {
	if len(ids) == 0 {
		return []models.Match{}, nil
	}
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	return r.list(ctx, exec, query, pq.Array(ids))
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches SET
			tournament_id = $1,
			deck_a_id = $2,
			deck_b_id = $3,
			winner_id = $4,
			deck_a_score = $5,
			deck_b_score = $6,
			notes = $7,
			date = $8
		WHERE id = $9`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		match.TournamentID, match.DeckAID, match.DeckBID, match.WinnerID,
		match.DeckAScore, match.DeckBScore, match.Notes, match.Date, match.ID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) List(ctx context.Context, exec SQLExecutor) ([]models.Match, error) {
	return r.list(ctx, exec, `SELECT `+matchColumns+` FROM matches ORDER BY date DESC, id DESC`)
}

func (r *postgresMatchRepository) ListRecent(ctx context.Context, exec SQLExecutor, limit int) ([]models.Match, error) {
	return r.list(ctx, exec, `SELECT `+matchColumns+` FROM matches ORDER BY date DESC, id DESC LIMIT $1`, limit)
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY date ASC, id ASC`
	return r.list(ctx, exec, query, tournamentID)
}

func (r *postgresMatchRepository) ListByTournamentAndDeck(ctx context.Context, exec SQLExecutor, tournamentID, deckID int) ([]models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1 AND (deck_a_id = $2 OR deck_b_id = $2)
		ORDER BY id ASC`
	return r.list(ctx, exec, query, tournamentID, deckID)
}

func (r *postgresMatchRepository) ListByDeck(ctx context.Context, exec SQLExecutor, deckID int) ([]models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE deck_a_id = $1 OR deck_b_id = $1
		ORDER BY date DESC, id DESC`
	return r.list(ctx, exec, query, deckID)
}

func (r *postgresMatchRepository) ListHeadToHead(ctx context.Context, exec SQLExecutor, deckID, opponentID int) ([]models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE (deck_a_id = $1 AND deck_b_id = $2) OR (deck_a_id = $2 AND deck_b_id = $1)
		ORDER BY date DESC, id DESC`
	return r.list(ctx, exec, query, deckID, opponentID)
}

func (r *postgresMatchRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Match, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) Count(ctx context.Context, exec SQLExecutor) (int, error) {
	return countRows(ctx, r.getExecutor(exec), `SELECT COUNT(*) FROM matches`)
}

func (r *postgresMatchRepository) CountByDeck(ctx context.Context, exec SQLExecutor, deckID int) (int, error) {
	return countRows(ctx, r.getExecutor(exec),
		`SELECT COUNT(*) FROM matches WHERE deck_a_id = $1 OR deck_b_id = $1`, deckID)
}

// LastPlayedByDeck returns, per deck, the date of its latest match in the
// tournament.
func (r *postgresMatchRepository) LastPlayedByDeck(ctx context.Context, exec SQLExecutor, tournamentID int) (map[int]time.Time, error) {
	query := `
		SELECT deck_id, MAX(date) FROM (
			SELECT deck_a_id AS deck_id, date FROM matches WHERE tournament_id = $1
			UNION ALL
			SELECT deck_b_id AS deck_id, date FROM matches WHERE tournament_id = $1
		) played
		GROUP BY deck_id`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	last := make(map[int]time.Time)
	for rows.Next() {
		var deckID int
		var at time.Time
		if err := rows.Scan(&deckID, &at); err != nil {
			return nil, err
		}
		last[deckID] = at
	}
	return last, rows.Err()
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case pqForeignKeyViolation:
			if pqErr.Constraint == "matches_tournament_id_fkey" {
				return ErrMatchInvalidTournament
			}
			return ErrMatchInvalidDeck
		case pqCheckViolation:
			return fmt.Errorf("%w: %s", ErrMatchConstraint, pqErr.Constraint)
		}
	}
	return err
}
