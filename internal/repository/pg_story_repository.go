package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"sandman-server/internal/model"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgStoryRepository creates a new PostgreSQL-backed StoryRepository.
func NewPgStoryRepository(db DBTX, logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{
		db:     db,
		logger: logger.Named("PgStoryRepo"),
	}
}

const insertStoryQuery = `
INSERT INTO stories (id, title, child_name, language, mood, voice_id, scenes, audio_cache, image_cache, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const getStoryByIDQuery = `
SELECT id, title, child_name, language, mood, voice_id, scenes, audio_cache, image_cache, created_at
FROM stories
WHERE id = $1`

const listStoriesQuery = `
SELECT id, title, child_name, language, mood, jsonb_array_length(scenes) AS scene_count, created_at
FROM stories
ORDER BY created_at DESC
LIMIT $1`

// appendAudioQuery добавляет ключ только если его еще нет (additive-only fill).
const appendAudioQuery = `
UPDATE stories
SET audio_cache = jsonb_set(audio_cache, ARRAY[$2::text], $3::jsonb, true)
WHERE id = $1 AND NOT audio_cache ? $2`

const appendImageQuery = `
UPDATE stories
SET image_cache = jsonb_set(image_cache, ARRAY[$2::text], $3::jsonb, true)
WHERE id = $1 AND NOT image_cache ? $2`

const storyExistsQuery = `SELECT EXISTS(SELECT 1 FROM stories WHERE id = $1)`

// Insert stores a newly assembled story record.
func (r *pgStoryRepository) Insert(ctx context.Context, record *model.StoryRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	scenesJSON, err := json.Marshal(record.Scenes)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сцен: %w", err)
	}
	audioJSON, err := marshalPayloadMap(record.AudioByScene)
	if err != nil {
		return fmt.Errorf("ошибка сериализации аудио: %w", err)
	}
	imagesJSON, err := marshalPayloadMap(record.ImagesByScene)
	if err != nil {
		return fmt.Errorf("ошибка сериализации изображений: %w", err)
	}

	_, err = r.db.Exec(ctx, insertStoryQuery,
		record.ID,
		record.Title,
		record.ChildName,
		record.Language,
		record.Mood,
		record.VoiceID,
		scenesJSON,
		audioJSON,
		imagesJSON,
		record.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert story", zap.Error(err), zap.String("storyID", record.ID.String()))
		return fmt.Errorf("ошибка создания истории: %w", err)
	}

	r.logger.Info("Story inserted",
		zap.String("storyID", record.ID.String()),
		zap.Int("scenes", len(record.Scenes)),
		zap.Int("audioTracks", len(record.AudioByScene)),
		zap.Int("images", len(record.ImagesByScene)))
	return nil
}

// GetByID retrieves a full story record including binary sub-maps.
func (r *pgStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.StoryRecord, error) {
	record := &model.StoryRecord{}
	var scenesJSON, audioJSON, imagesJSON []byte

	err := r.db.QueryRow(ctx, getStoryByIDQuery, id).Scan(
		&record.ID,
		&record.Title,
		&record.ChildName,
		&record.Language,
		&record.Mood,
		&record.VoiceID,
		&scenesJSON,
		&audioJSON,
		&imagesJSON,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Story not found", zap.String("storyID", id.String()))
			return nil, model.ErrNotFound
		}
		r.logger.Error("Failed to get story", zap.Error(err), zap.String("storyID", id.String()))
		return nil, fmt.Errorf("ошибка получения истории %s: %w", id, err)
	}

	if err := json.Unmarshal(scenesJSON, &record.Scenes); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сцен истории %s: %w", id, err)
	}
	if record.AudioByScene, err = unmarshalPayloadMap(audioJSON); err != nil {
		return nil, fmt.Errorf("ошибка десериализации аудио истории %s: %w", id, err)
	}
	if record.ImagesByScene, err = unmarshalPayloadMap(imagesJSON); err != nil {
		return nil, fmt.Errorf("ошибка десериализации изображений истории %s: %w", id, err)
	}

	return record, nil
}

// List returns lightweight story summaries, newest first.
func (r *pgStoryRepository) List(ctx context.Context, limit int) ([]model.StorySummary, error) {
	if limit <= 0 {
		limit = 50
	}

	var summaries []model.StorySummary
	if err := pgxscan.Select(ctx, r.db, &summaries, listStoriesQuery, limit); err != nil {
		r.logger.Error("Failed to list stories", zap.Error(err))
		return nil, fmt.Errorf("ошибка получения списка историй: %w", err)
	}

	return summaries, nil
}

// AppendAudio adds one audio payload; an already present key stays untouched.
func (r *pgStoryRepository) AppendAudio(ctx context.Context, id uuid.UUID, sceneKey string, payload []byte) error {
	return r.appendPayload(ctx, appendAudioQuery, id, sceneKey, payload)
}

// AppendImage adds one image payload; an already present key stays untouched.
func (r *pgStoryRepository) AppendImage(ctx context.Context, id uuid.UUID, sceneKey string, payload []byte) error {
	return r.appendPayload(ctx, appendImageQuery, id, sceneKey, payload)
}

func (r *pgStoryRepository) appendPayload(ctx context.Context, query string, id uuid.UUID, sceneKey string, payload []byte) error {
	// Полезная нагрузка хранится в jsonb как base64-строка.
	valueJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ошибка сериализации полезной нагрузки: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, id, sceneKey, valueJSON)
	if err != nil {
		r.logger.Error("Failed to append payload",
			zap.Error(err), zap.String("storyID", id.String()), zap.String("sceneKey", sceneKey))
		return fmt.Errorf("ошибка записи полезной нагрузки: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Либо истории нет, либо ключ уже занят (идемпотентный no-op).
		var exists bool
		if err := r.db.QueryRow(ctx, storyExistsQuery, id).Scan(&exists); err != nil {
			return fmt.Errorf("ошибка проверки существования истории: %w", err)
		}
		if !exists {
			return model.ErrNotFound
		}
		r.logger.Debug("Payload key already present, skipping",
			zap.String("storyID", id.String()), zap.String("sceneKey", sceneKey))
	}

	return nil
}

// marshalPayloadMap serializes a payload map to jsonb, normalizing nil to {}.
func marshalPayloadMap(m map[string][]byte) ([]byte, error) {
	if m == nil {
		m = map[string][]byte{}
	}
	return json.Marshal(m)
}

func unmarshalPayloadMap(data []byte) (map[string][]byte, error) {
	m := map[string][]byte{}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
