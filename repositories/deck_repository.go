package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/duel-vault/models"
	"github.com/Dosada05/duel-vault/stats"
	"github.com/lib/pq"
)

var (
	ErrDeckNotFound         = errors.New("deck not found")
	ErrDeckNameConflict     = errors.New("deck name conflict")
	ErrDeckInvalidFormat    = errors.New("invalid format reference")
	ErrDeckInvalidArchetype = errors.New("invalid archetype reference")
	ErrDeckInUse            = errors.New("deck is in use (matches exist)")
	ErrDeckCountersInvalid  = errors.New("deck counters must not be negative")
)

type DeckRepository interface {
	Create(ctx context.Context, exec SQLExecutor, deck *models.Deck) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Deck, error)
	// LockByIDs locks the decks with SELECT ... FOR UPDATE in ascending id
	// order. Missing ids are absent from the result.
	LockByIDs(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Deck, error)
	List(ctx context.Context, exec SQLExecutor) ([]models.Deck, error)
	ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]models.Deck, error)
	UpdateDetails(ctx context.Context, exec SQLExecutor, deck *models.Deck) error
	UpdateCounters(ctx context.Context, exec SQLExecutor, id int, record stats.Record) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	Count(ctx context.Context, exec SQLExecutor) (int, error)
	SumWins(ctx context.Context, exec SQLExecutor) (int, error)
	TopByWinRate(ctx context.Context, exec SQLExecutor) (*models.Deck, error)
}

type postgresDeckRepository struct {
	db *sql.DB
}

func NewPostgresDeckRepository(db *sql.DB) DeckRepository {
	return &postgresDeckRepository{db: db}
}

func (r *postgresDeckRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	return pickExecutor(r.db, exec)
}

const deckColumns = `id, name, slug, format_id, archetype_id, description, wins, losses, ties, created_at`

func scanDeck(s rowScanner) (*models.Deck, error) {
	var d models.Deck
	err := s.Scan(&d.ID, &d.Name, &d.Slug, &d.FormatID, &d.ArchetypeID, &d.Description,
		&d.Wins, &d.Losses, &d.Ties, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeckNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *postgresDeckRepository) Create(ctx context.Context, exec SQLExecutor, deck *models.Deck) error {
	query := `
		INSERT INTO decks (name, slug, format_id, archetype_id, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, wins, losses, ties, created_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		deck.Name, deck.Slug, deck.FormatID, deck.ArchetypeID, deck.Description,
	).Scan(&deck.ID, &deck.Wins, &deck.Losses, &deck.Ties, &deck.CreatedAt)
	return r.handleDeckError(err)
}

func (r *postgresDeckRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Deck, error) {
	query := `SELECT ` + deckColumns + ` FROM decks WHERE id = $1`
	return scanDeck(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresDeckRepository) LockByIDs(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Deck, error) {
	query := `SELECT ` + deckColumns + ` FROM decks WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to lock decks: %w", err)
	}
	defer rows.Close()

	decks := make(map[int]*models.Deck, len(ids))
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		decks[d.ID] = d
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return decks, nil
}

func (r *postgresDeckRepository) List(ctx context.Context, exec SQLExecutor) ([]models.Deck, error) {
	return r.list(ctx, exec, `SELECT `+deckColumns+` FROM decks ORDER BY name ASC`)
}

func (r *postgresDeckRepository) ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]models.Deck, error) {
	if len(ids) == 0 {
		return []models.Deck{}, nil
	}
	return r.list(ctx, exec, `SELECT `+deckColumns+` FROM decks WHERE id = ANY($1) ORDER BY id`, pq.Array(ids))
}

func (r *postgresDeckRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Deck, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	decks := make([]models.Deck, 0)
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		decks = append(decks, *d)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return decks, nil
}

func (r *postgresDeckRepository) UpdateDetails(ctx context.Context, exec SQLExecutor, deck *models.Deck) error {
	query := `
		UPDATE decks SET
			name = $1,
			slug = $2,
			format_id = $3,
			archetype_id = $4,
			description = $5
		WHERE id = $6`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		deck.Name, deck.Slug, deck.FormatID, deck.ArchetypeID, deck.Description, deck.ID)
	if err != nil {
		return r.handleDeckError(err)
	}
	return checkAffectedRows(result, ErrDeckNotFound)
}

func (r *postgresDeckRepository) UpdateCounters(ctx context.Context, exec SQLExecutor, id int, record stats.Record) error {
	query := `UPDATE decks SET wins = $1, losses = $2, ties = $3 WHERE id = $4`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, record.Wins, record.Losses, record.Ties, id)
	if err != nil {
		return r.handleDeckError(err)
	}
	return checkAffectedRows(result, ErrDeckNotFound)
}

func (r *postgresDeckRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM decks WHERE id = $1`, id)
	if err != nil {
		return r.handleDeckError(err)
	}
	return checkAffectedRows(result, ErrDeckNotFound)
}

func (r *postgresDeckRepository) Count(ctx context.Context, exec SQLExecutor) (int, error) {
	return countRows(ctx, r.getExecutor(exec), `SELECT COUNT(*) FROM decks`)
}

func (r *postgresDeckRepository) SumWins(ctx context.Context, exec SQLExecutor) (int, error) {
	return countRows(ctx, r.getExecutor(exec), `SELECT COALESCE(SUM(wins), 0) FROM decks`)
}

// TopByWinRate returns the deck with the best win rate among decks with at
// least one recorded result, or nil when no deck has played.
func (r *postgresDeckRepository) TopByWinRate(ctx context.Context, exec SQLExecutor) (*models.Deck, error) {
	query := `
		SELECT ` + deckColumns + `
		FROM decks
		WHERE wins + losses + ties > 0
		ORDER BY wins::float / (wins + losses + ties) DESC, wins DESC, id ASC
		LIMIT 1`
	d, err := scanDeck(r.getExecutor(exec).QueryRowContext(ctx, query))
	if errors.Is(err, ErrDeckNotFound) {
		return nil, nil
	}
	return d, err
}

func (r *postgresDeckRepository) handleDeckError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case pqUniqueViolation:
			return ErrDeckNameConflict
		case pqCheckViolation:
			return ErrDeckCountersInvalid
		case pqForeignKeyViolation:
			switch pqErr.Constraint {
			case "decks_format_id_fkey":
				return ErrDeckInvalidFormat
			case "decks_archetype_id_fkey":
				return ErrDeckInvalidArchetype
			default:
				return ErrDeckInUse
			}
		}
	}
	return err
}
