package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"sandman-server/internal/model"
)

// DBTX is the subset of pgxpool.Pool/pgx.Tx the repositories need.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// StoryRepository persists assembled story records and their sparse
// audio/image sub-maps.
type StoryRepository interface {
	// Insert stores a newly assembled record, assigning id and creation
	// time when unset.
	Insert(ctx context.Context, record *model.StoryRecord) error
	// GetByID returns model.ErrNotFound for an unknown id.
	GetByID(ctx context.Context, id uuid.UUID) (*model.StoryRecord, error)
	// List returns summaries ordered by creation time, newest first.
	List(ctx context.Context, limit int) ([]model.StorySummary, error)
	// AppendAudio adds an audio payload under sceneKey. The fill is strictly
	// additive: an existing key is left untouched and no error is returned.
	AppendAudio(ctx context.Context, id uuid.UUID, sceneKey string, payload []byte) error
	// AppendImage behaves like AppendAudio for the image sub-map.
	AppendImage(ctx context.Context, id uuid.UUID, sceneKey string, payload []byte) error
}
