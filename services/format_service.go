package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/duel-vault/models"
	"github.com/Dosada05/duel-vault/repositories"
)

type FormatService interface {
	ListFormats(ctx context.Context) ([]models.Format, error)
	CreateFormat(ctx context.Context, name string) (*models.Format, error)
	ListArchetypes(ctx context.Context) ([]models.Archetype, error)
	CreateArchetype(ctx context.Context, name string) (*models.Archetype, error)
}

type formatService struct {
	formats    repositories.FormatRepository
	archetypes repositories.ArchetypeRepository
}

func NewFormatService(formats repositories.FormatRepository, archetypes repositories.ArchetypeRepository) FormatService {
	return &formatService{formats: formats, archetypes: archetypes}
}

func (s *formatService) ListFormats(ctx context.Context) ([]models.Format, error) {
	formats, err := s.formats.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list formats: %w", err)
	}
	return formats, nil
}

func (s *formatService) CreateFormat(ctx context.Context, name string) (*models.Format, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError(ErrNameRequired)
	}
	f := &models.Format{Name: name}
	if err := s.formats.Create(ctx, f); err != nil {
		if errors.Is(err, repositories.ErrFormatNameConflict) {
			return nil, conflictError(ErrNameConflict)
		}
		return nil, err
	}
	return f, nil
}

func (s *formatService) ListArchetypes(ctx context.Context) ([]models.Archetype, error) {
	archetypes, err := s.archetypes.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list archetypes: %w", err)
	}
	return archetypes, nil
}

func (s *formatService) CreateArchetype(ctx context.Context, name string) (*models.Archetype, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError(ErrNameRequired)
	}
	a := &models.Archetype{Name: name}
	if err := s.archetypes.Create(ctx, a); err != nil {
		if errors.Is(err, repositories.ErrArchetypeNameConflict) {
			return nil, conflictError(ErrNameConflict)
		}
		return nil, err
	}
	return a, nil
}
