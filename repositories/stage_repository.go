package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/duel-vault/models"
	"github.com/lib/pq"
)

var ErrStageNotFound = errors.New("tournament stage not found")

type StageRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, stage *models.Stage) error
	GetByOrder(ctx context.Context, exec SQLExecutor, tournamentID, order int) (*models.Stage, error)
	GetLatest(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.Stage, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Stage, error)
}

type postgresStageRepository struct {
	db *sql.DB
}

func NewPostgresStageRepository(db *sql.DB) StageRepository {
	return &postgresStageRepository{db: db}
}

func (r *postgresStageRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	return pickExecutor(r.db, exec)
}

const stageColumns = `id, tournament_id, stage_order, name, stage_type, object_key, updated_at`

func scanStage(s rowScanner) (*models.Stage, error) {
	var st models.Stage
	err := s.Scan(&st.ID, &st.TournamentID, &st.Order, &st.Name, &st.Type, &st.ObjectKey, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (r *postgresStageRepository) Upsert(ctx context.Context, exec SQLExecutor, stage *models.Stage) error {
	query := `
		INSERT INTO tournament_stages (tournament_id, stage_order, name, stage_type, object_key, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (tournament_id, stage_order) DO UPDATE SET
			name = EXCLUDED.name,
			stage_type = EXCLUDED.stage_type,
			object_key = EXCLUDED.object_key,
			updated_at = NOW()
		RETURNING id, updated_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		stage.TournamentID, stage.Order, stage.Name, stage.Type, stage.ObjectKey,
	).Scan(&stage.ID, &stage.UpdatedAt)
	if err != nil {
		return handleStageError(err)
	}
	return nil
}

func (r *postgresStageRepository) GetByOrder(ctx context.Context, exec SQLExecutor, tournamentID, order int) (*models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM tournament_stages WHERE tournament_id = $1 AND stage_order = $2`
	return scanStage(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, order))
}

func (r *postgresStageRepository) GetLatest(ctx context.Context, exec SQLExecutor, tournamentID int) (*models.Stage, error) {
	query := `
		SELECT ` + stageColumns + `
		FROM tournament_stages
		WHERE tournament_id = $1
		ORDER BY stage_order DESC
		LIMIT 1`
	return scanStage(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID))
}

func (r *postgresStageRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM tournament_stages WHERE tournament_id = $1 ORDER BY stage_order ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := make([]models.Stage, 0)
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		stages = append(stages, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return stages, nil
}

func handleStageError(err error) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pqForeignKeyViolation {
		return ErrTournamentNotFound
	}
	return err
}
