package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/duel-vault/brackets"
	"github.com/Dosada05/duel-vault/metrics"
	"github.com/Dosada05/duel-vault/models"
	"github.com/Dosada05/duel-vault/repositories"
	"github.com/Dosada05/duel-vault/storage"
	"github.com/google/uuid"
)

// SyncStatus is the outcome class of a bracket propagation.
type SyncStatus string

const (
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusFailed  SyncStatus = "failed"
	SyncStatusSkipped SyncStatus = "skipped"
)

// SyncResult reports the outcome of one bracket propagation. It goes to logs,
// metrics and websocket clients only; a failed sync never fails a match write.
type SyncResult struct {
	Status    SyncStatus `json:"status"`
	Reason    string     `json:"reason,omitempty"`
	AttemptID string     `json:"attempt_id"`
	ObjectKey string     `json:"object_key,omitempty"`
}

// SyncRequest carries one committed match result into a stage's bracket document.
type SyncRequest struct {
	TournamentID   int
	StageOrder     *int
	BracketMatchID int
	Opponent1ID    int
	Opponent2ID    int
	DeckAScore     int
	DeckBScore     int
}

// BracketSynchronizer applies committed results to stored bracket documents.
// Sync never returns an error; failures are reported in the SyncResult.
type BracketSynchronizer interface {
	Sync(ctx context.Context, req SyncRequest) SyncResult
}

type bracketSynchronizer struct {
	stages  repositories.StageRepository
	store   storage.ObjectStore
	engine  brackets.Engine
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewBracketSynchronizer(
	stages repositories.StageRepository,
	store storage.ObjectStore,
	engine brackets.Engine,
	logger *slog.Logger,
	m *metrics.Metrics,
) BracketSynchronizer {
	return &bracketSynchronizer{stages: stages, store: store, engine: engine, logger: logger, metrics: m}
}

func (s *bracketSynchronizer) Sync(ctx context.Context, req SyncRequest) (res SyncResult) {
	res.AttemptID = uuid.NewString()
	log := s.logger.With(
		"attempt_id", res.AttemptID,
		"tournament_id", req.TournamentID,
		"bracket_match_id", req.BracketMatchID,
	)

	defer func() {
		if p := recover(); p != nil {
			res.Status = SyncStatusFailed
			res.Reason = fmt.Sprintf("bracket engine panic: %v", p)
		}
		s.metrics.BracketSync(string(res.Status))
		if res.Status == SyncStatusSynced {
			log.Info("bracket synced", "object_key", res.ObjectKey)
		} else {
			log.Warn("bracket sync failed, bracket view is stale", "object_key", res.ObjectKey, "reason", res.Reason)
		}
	}()

	key, err := s.objectKey(ctx, req)
	if err != nil {
		return failed(res, "resolve stage", err)
	}
	res.ObjectKey = key

	data, err := s.store.GetObject(ctx, key)
	if err != nil {
		return failed(res, "fetch document", err)
	}

	doc, err := brackets.Decode(data)
	if err != nil {
		return failed(res, "decode document", err)
	}

	r1, r2 := brackets.Classify(req.DeckAScore, req.DeckBScore)
	err = s.engine.UpdateMatch(doc, brackets.MatchUpdate{
		MatchID:   req.BracketMatchID,
		Opponent1: brackets.OpponentResult{ID: req.Opponent1ID, Score: req.DeckAScore, Result: r1},
		Opponent2: brackets.OpponentResult{ID: req.Opponent2ID, Score: req.DeckBScore, Result: r2},
	})
	if err != nil {
		return failed(res, "update match", err)
	}

	out, err := brackets.Encode(doc)
	if err != nil {
		return failed(res, "encode document", err)
	}
	if err := s.store.PutObject(ctx, key, out, "application/json"); err != nil {
		return failed(res, "store document", err)
	}

	res.Status = SyncStatusSynced
	return res
}

// objectKey picks the caller's stage, else the latest stage, else stage 1.
func (s *bracketSynchronizer) objectKey(ctx context.Context, req SyncRequest) (string, error) {
	if req.StageOrder != nil {
		return models.StageObjectKey(req.TournamentID, *req.StageOrder), nil
	}
	stage, err := s.stages.GetLatest(ctx, nil, req.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrStageNotFound) {
			return models.StageObjectKey(req.TournamentID, 1), nil
		}
		return "", err
	}
	return stage.ObjectKey, nil
}

func failed(res SyncResult, step string, err error) SyncResult {
	res.Status = SyncStatusFailed
	res.Reason = fmt.Sprintf("%s: %v", step, err)
	return res
}
