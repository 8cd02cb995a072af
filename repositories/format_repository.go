package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/duel-vault/models"
	"github.com/lib/pq"
)

var (
	ErrFormatNotFound        = errors.New("format not found")
	ErrFormatNameConflict    = errors.New("format name conflict")
	ErrArchetypeNotFound     = errors.New("archetype not found")
	ErrArchetypeNameConflict = errors.New("archetype name conflict")
)

type FormatRepository interface {
	Create(ctx context.Context, format *models.Format) error
	GetByID(ctx context.Context, id int) (*models.Format, error)
	GetAll(ctx context.Context) ([]models.Format, error)
}

type ArchetypeRepository interface {
	Create(ctx context.Context, archetype *models.Archetype) error
	GetByID(ctx context.Context, id int) (*models.Archetype, error)
	GetAll(ctx context.Context) ([]models.Archetype, error)
}

// Formats and archetypes share one table shape (id, name), so a single
// implementation serves both, parameterised by table.
type namedRepository struct {
	db          *sql.DB
	table       string
	notFound    error
	conflictErr error
}

func (r *namedRepository) create(ctx context.Context, name string) (int, error) {
	var id int
	err := r.db.QueryRowContext(ctx, `INSERT INTO `+r.table+` (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqUniqueViolation {
			return 0, r.conflictErr
		}
		return 0, err
	}
	return id, nil
}

func (r *namedRepository) get(ctx context.Context, id int) (int, string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM `+r.table+` WHERE id = $1`, id).Scan(&id, &name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", r.notFound
		}
		return 0, "", err
	}
	return id, name, nil
}

func (r *namedRepository) all(ctx context.Context, each func(id int, name string)) error {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM `+r.table+` ORDER BY name ASC`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return err
		}
		each(id, name)
	}
	return rows.Err()
}

type postgresFormatRepository struct {
	named namedRepository
}

func NewPostgresFormatRepository(db *sql.DB) FormatRepository {
	return &postgresFormatRepository{named: namedRepository{
		db: db, table: "formats", notFound: ErrFormatNotFound, conflictErr: ErrFormatNameConflict,
	}}
}

func (r *postgresFormatRepository) Create(ctx context.Context, format *models.Format) error {
	id, err := r.named.create(ctx, format.Name)
	if err != nil {
		return err
	}
	format.ID = id
	return nil
}

func (r *postgresFormatRepository) GetByID(ctx context.Context, id int) (*models.Format, error) {
	id, name, err := r.named.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.Format{ID: id, Name: name}, nil
}

func (r *postgresFormatRepository) GetAll(ctx context.Context) ([]models.Format, error) {
	formats := make([]models.Format, 0)
	err := r.named.all(ctx, func(id int, name string) {
		formats = append(formats, models.Format{ID: id, Name: name})
	})
	if err != nil {
		return nil, err
	}
	return formats, nil
}

type postgresArchetypeRepository struct {
	named namedRepository
}

func NewPostgresArchetypeRepository(db *sql.DB) ArchetypeRepository {
	return &postgresArchetypeRepository{named: namedRepository{
		db: db, table: "archetypes", notFound: ErrArchetypeNotFound, conflictErr: ErrArchetypeNameConflict,
	}}
}

func (r *postgresArchetypeRepository) Create(ctx context.Context, archetype *models.Archetype) error {
	id, err := r.named.create(ctx, archetype.Name)
	if err != nil {
		return err
	}
	archetype.ID = id
	return nil
}

func (r *postgresArchetypeRepository) GetByID(ctx context.Context, id int) (*models.Archetype, error) {
	id, name, err := r.named.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.Archetype{ID: id, Name: name}, nil
}

func (r *postgresArchetypeRepository) GetAll(ctx context.Context) ([]models.Archetype, error) {
	archetypes := make([]models.Archetype, 0)
	err := r.named.all(ctx, func(id int, name string) {
		archetypes = append(archetypes, models.Archetype{ID: id, Name: name})
	})
	if err != nil {
		return nil, err
	}
	return archetypes, nil
}
