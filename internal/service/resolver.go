package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sandman-server/internal/model"
	"sandman-server/internal/repository"
)

// Resolver serves read paths over assembled stories: metadata, listings
// and the binary sub-resources produced by the media stages.
type Resolver interface {
	GetStory(ctx context.Context, id uuid.UUID) (*model.StoryRecord, error)
	ListStories(ctx context.Context, limit int) ([]model.StorySummary, error)
	// GetAudio returns model.ErrNotFound both for an unknown story and for
	// a scene key the pipeline never filled.
	GetAudio(ctx context.Context, id uuid.UUID, sceneKey string) ([]byte, error)
	GetImage(ctx context.Context, id uuid.UUID, sceneKey string) ([]byte, error)
}

// Compile-time check to ensure implementation satisfies the interface.
var _ Resolver = (*resolver)(nil)

type resolver struct {
	repo   repository.StoryRepository
	logger *zap.Logger
}

// NewResolver создает сервис чтения историй и их медиаресурсов.
func NewResolver(repo repository.StoryRepository, logger *zap.Logger) Resolver {
	return &resolver{
		repo:   repo,
		logger: logger.Named("Resolver"),
	}
}

func (r *resolver) GetStory(ctx context.Context, id uuid.UUID) (*model.StoryRecord, error) {
	return r.repo.GetByID(ctx, id)
}

func (r *resolver) ListStories(ctx context.Context, limit int) ([]model.StorySummary, error) {
	return r.repo.List(ctx, limit)
}

func (r *resolver) GetAudio(ctx context.Context, id uuid.UUID, sceneKey string) ([]byte, error) {
	record, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, ok := record.AudioByScene[sceneKey]
	if !ok || len(payload) == 0 {
		r.logger.Debug("Audio key absent",
			zap.String("storyID", id.String()), zap.String("sceneKey", sceneKey))
		return nil, fmt.Errorf("%w: audio '%s'", model.ErrNotFound, sceneKey)
	}
	return payload, nil
}

func (r *resolver) GetImage(ctx context.Context, id uuid.UUID, sceneKey string) ([]byte, error) {
	record, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key := model.NormalizeImageKey(sceneKey)
	payload, ok := record.ImagesByScene[key]
	if !ok || len(payload) == 0 {
		r.logger.Debug("Image key absent",
			zap.String("storyID", id.String()), zap.String("sceneKey", key))
		return nil, fmt.Errorf("%w: image '%s'", model.ErrNotFound, key)
	}
	return payload, nil
}
