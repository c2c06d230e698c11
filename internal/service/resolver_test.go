package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sandman-server/internal/mocks"
	"sandman-server/internal/model"
	"sandman-server/internal/service"
)

func storedRecord(id uuid.UUID) *model.StoryRecord {
	return &model.StoryRecord{
		ID:    id,
		Title: "T",
		AudioByScene: map[string][]byte{
			"0":                   []byte("audio-0"),
			model.AudioKeySfx:     []byte("audio-sfx"),
			model.AudioKeyLullaby: []byte("audio-lullaby"),
		},
		ImagesByScene: map[string][]byte{
			"img_0": []byte("image-0"),
		},
	}
}

func TestResolver_GetAudio(t *testing.T) {
	repo := mocks.NewMockStoryRepository(t)
	resolver := service.NewResolver(repo, zap.NewNop())
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(storedRecord(id), nil)

	payload, err := resolver.GetAudio(context.Background(), id, "0")
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-0"), payload)

	payload, err = resolver.GetAudio(context.Background(), id, model.AudioKeyLullaby)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-lullaby"), payload)

	_, err = resolver.GetAudio(context.Background(), id, "7")
	assert.ErrorIs(t, err, model.ErrNotFound, "незаполненный ключ должен давать not found")
}

func TestResolver_GetImage_NormalizesKey(t *testing.T) {
	repo := mocks.NewMockStoryRepository(t)
	resolver := service.NewResolver(repo, zap.NewNop())
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(storedRecord(id), nil)

	// Оба варианта ключа ведут к одной иллюстрации.
	payload, err := resolver.GetImage(context.Background(), id, "img_0")
	require.NoError(t, err)
	assert.Equal(t, []byte("image-0"), payload)

	payload, err = resolver.GetImage(context.Background(), id, "0")
	require.NoError(t, err)
	assert.Equal(t, []byte("image-0"), payload)

	_, err = resolver.GetImage(context.Background(), id, "1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestResolver_UnknownStory(t *testing.T) {
	repo := mocks.NewMockStoryRepository(t)
	resolver := service.NewResolver(repo, zap.NewNop())
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, model.ErrNotFound)

	_, err := resolver.GetAudio(context.Background(), id, "0")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = resolver.GetImage(context.Background(), id, "0")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = resolver.GetStory(context.Background(), id)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
