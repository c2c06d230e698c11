package cache

import (
	"context"

	"sandman-server/internal/model"
)

// CachedStory is the value stored per cache key: the summary of the
// assembled record plus its id for payload lookups in the record store.
type CachedStory struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Scenes []model.Scene `json:"scenes"`
	Mood   model.Mood    `json:"mood"`
}

// ResultCache maps request fingerprints to previously assembled stories.
// Get never generates; Put is an idempotent upsert (last-write-wins is safe
// because content for a given key is reproducibly equivalent).
type ResultCache interface {
	// Get returns model.ErrNotFound on a cache miss.
	Get(ctx context.Context, key string) (*CachedStory, error)
	Put(ctx context.Context, key string, story *CachedStory) error
}
