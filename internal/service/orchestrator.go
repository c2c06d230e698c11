package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"sandman-server/internal/cache"
	"sandman-server/internal/model"
	"sandman-server/internal/repository"
	"sandman-server/internal/stage"
)

var (
	storyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sandman_story_requests_total",
		Help: "Total story generation requests by outcome.",
	}, []string{"outcome"}) // generated | cached | invalid | failed

	stageFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sandman_stage_failures_total",
		Help: "Degraded or fatal stage failures by stage and kind.",
	}, []string{"stage", "kind"})

	storyGenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sandman_story_generation_duration_seconds",
		Help:    "Wall-clock duration of full pipeline runs (cache misses only).",
		Buckets: []float64{1, 5, 10, 20, 30, 60, 120, 240},
	})
)

// lullabyDurationSeconds — колыбельная всегда запрашивается максимальной длины.
const lullabyDurationSeconds = 22

// Orchestrator runs the full generation pipeline for one story request.
type Orchestrator interface {
	// GenerateStory returns the assembled record and whether it came from
	// the result cache.
	GenerateStory(ctx context.Context, req *model.StoryRequest) (*model.StoryRecord, bool, error)
}

// Compile-time check to ensure implementation satisfies the interface.
var _ Orchestrator = (*orchestrator)(nil)

// Stages groups the five pipeline stages. Writer is the only required one;
// every nil stage simply never contributes its sub-resources.
type Stages struct {
	Planner       stage.Planner
	Writer        stage.Writer
	Narrator      stage.Narrator
	SoundDesigner stage.SoundDesigner
	Illustrator   stage.Illustrator
}

type orchestrator struct {
	repo   repository.StoryRepository
	cache  cache.ResultCache
	stages Stages
	logger *zap.Logger

	defaultVoiceID     string
	sfxDurationSeconds float64
}

// NewOrchestrator создает оркестратор конвейера генерации историй.
func NewOrchestrator(
	repo repository.StoryRepository,
	resultCache cache.ResultCache,
	stages Stages,
	defaultVoiceID string,
	sfxDurationSeconds float64,
	logger *zap.Logger,
) Orchestrator {
	return &orchestrator{
		repo:               repo,
		cache:              resultCache,
		stages:             stages,
		logger:             logger.Named("Orchestrator"),
		defaultVoiceID:     defaultVoiceID,
		sfxDurationSeconds: sfxDurationSeconds,
	}
}

func (o *orchestrator) GenerateStory(ctx context.Context, req *model.StoryRequest) (*model.StoryRecord, bool, error) {
	if err := req.Validate(); err != nil {
		storyRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, false, err
	}

	key := cache.DeriveKey(req.Prompt, req.ChildName, req.LanguageOrDefault())
	log := o.logger.With(zap.String("cacheKey", key), zap.String("childName", req.ChildName))

	if record, ok := o.lookupCached(ctx, key, log); ok {
		storyRequestsTotal.WithLabelValues("cached").Inc()
		return record, true, nil
	}

	started := time.Now()
	record, err := o.runPipeline(ctx, req, log)
	if err != nil {
		storyRequestsTotal.WithLabelValues("failed").Inc()
		return nil, false, err
	}
	storyGenerationDuration.Observe(time.Since(started).Seconds())

	// Персист — best-effort: история уже собрана, клиент ее получает в любом
	// случае. Кэш при этом не заполняется, чтобы ключ не указывал на
	// отсутствующую запись.
	if err := o.repo.Insert(ctx, record); err != nil {
		log.Error("Failed to persist story, returning assembled record", zap.Error(err))
		storyRequestsTotal.WithLabelValues("generated").Inc()
		return record, false, nil
	}

	// Кэш заполняется после успешной записи: ключ без записи бесполезен.
	cached := &cache.CachedStory{
		ID:     record.ID.String(),
		Title:  record.Title,
		Scenes: record.Scenes,
		Mood:   record.Mood,
	}
	if err := o.cache.Put(ctx, key, cached); err != nil {
		log.Warn("Failed to cache story result", zap.Error(err))
	}

	storyRequestsTotal.WithLabelValues("generated").Inc()
	log.Info("Story generated",
		zap.String("storyID", record.ID.String()),
		zap.Int("scenes", len(record.Scenes)),
		zap.Duration("took", time.Since(started)))
	return record, false, nil
}

// lookupCached resolves a cache hit into a full record. Any failure along
// the way (miss, stale id, corrupted entry) falls back to regeneration.
func (o *orchestrator) lookupCached(ctx context.Context, key string, log *zap.Logger) (*model.StoryRecord, bool) {
	cached, err := o.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	id, err := uuid.Parse(cached.ID)
	if err != nil {
		log.Warn("Cached story has malformed id, regenerating", zap.String("cachedID", cached.ID))
		return nil, false
	}

	record, err := o.repo.GetByID(ctx, id)
	if err != nil {
		// Запись могла быть удалена вручную — кэш при этом устаревает.
		log.Warn("Cached story missing from store, regenerating",
			zap.String("storyID", cached.ID), zap.Error(err))
		return nil, false
	}

	log.Info("Story served from cache", zap.String("storyID", cached.ID))
	return record, true
}

func (o *orchestrator) runPipeline(ctx context.Context, req *model.StoryRequest, log *zap.Logger) (*model.StoryRecord, error) {
	plan := o.plan(ctx, req, log)

	story, err := o.write(ctx, plan, req, log)
	if err != nil {
		return nil, err
	}

	scenes := make([]model.Scene, len(story.Scenes))
	for i, text := range story.Scenes {
		scenes[i] = model.Scene{
			Text:               text,
			Mood:               model.ParseMood(story.Mood),
			IllustrationPrompt: text,
			SoundCue:           plan.AmbientSfx,
		}
	}

	record := &model.StoryRecord{
		ID:            uuid.New(),
		CreatedAt:     time.Now().UTC(),
		Title:         story.Title,
		Scenes:        scenes,
		Mood:          model.ParseMood(story.Mood),
		Language:      req.LanguageOrDefault(),
		ChildName:     req.ChildName,
		VoiceID:       o.voiceID(req),
		AudioByScene:  map[string][]byte{},
		ImagesByScene: map[string][]byte{},
	}

	o.produceMedia(ctx, record, plan, log)
	return record, nil
}

// plan runs the optional planner stage, degrading to a default plan.
func (o *orchestrator) plan(ctx context.Context, req *model.StoryRequest, log *zap.Logger) *model.StoryPlan {
	if o.stages.Planner == nil {
		return model.DefaultPlan(req)
	}

	plan, err := o.stages.Planner.Plan(ctx, req)
	if err != nil {
		o.recordStageFailure(err, log)
		return model.DefaultPlan(req)
	}
	return plan
}

// write runs the writer stage. This is the single fatal gate of the
// pipeline: no text means no story.
func (o *orchestrator) write(ctx context.Context, plan *model.StoryPlan, req *model.StoryRequest, log *zap.Logger) (*stage.StructuredStory, error) {
	if o.stages.Writer == nil {
		return nil, fmt.Errorf("%w: writer stage is not configured", model.ErrWriterFailed)
	}

	result, err := o.stages.Writer.Write(ctx, plan, req)
	if err != nil {
		o.recordStageFailure(err, log)
		return nil, fmt.Errorf("%w: %v", model.ErrWriterFailed, err)
	}

	if result.Structured != nil {
		return result.Structured, nil
	}

	raw := strings.TrimSpace(result.Raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: писатель вернул пустой текст", model.ErrWriterFailed)
	}

	// Сырой текст — деградация: одна сцена вместо структурной истории.
	log.Warn("Wrapping raw writer output into a single scene")
	return &stage.StructuredStory{
		Title:  fmt.Sprintf("A bedtime story for %s", req.ChildName),
		Scenes: []string{raw},
		Mood:   plan.Mood,
	}, nil
}

// produceMedia fans out narration, illustration, ambience and lullaby
// generation concurrently. Every failure here only leaves a sub-map key
// absent; scene order is preserved because each goroutine writes under
// its own pre-computed key.
func (o *orchestrator) produceMedia(ctx context.Context, record *model.StoryRecord, plan *model.StoryPlan, log *zap.Logger) {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	putAudio := func(key string, payload []byte) {
		mu.Lock()
		record.AudioByScene[key] = payload
		mu.Unlock()
	}
	putImage := func(key string, payload []byte) {
		mu.Lock()
		record.ImagesByScene[key] = payload
		mu.Unlock()
	}

	for i, scene := range record.Scenes {
		if o.stages.Narrator != nil {
			wg.Add(1)
			go func(idx int, text string) {
				defer wg.Done()
				audio, err := o.stages.Narrator.Narrate(ctx, text, record.Language, record.VoiceID)
				if err != nil {
					o.recordStageFailure(err, log.With(zap.Int("scene", idx)))
					return
				}
				putAudio(model.SceneAudioKey(idx), audio)
			}(i, scene.Text)
		}

		if o.stages.Illustrator != nil {
			wg.Add(1)
			go func(idx int, prompt string) {
				defer wg.Done()
				image, err := o.stages.Illustrator.Illustrate(ctx, prompt)
				if err != nil {
					o.recordStageFailure(err, log.With(zap.Int("scene", idx)))
					return
				}
				putImage(model.SceneImageKey(idx), image)
			}(i, scene.IllustrationPrompt)
		}
	}

	if o.stages.SoundDesigner != nil {
		wg.Add(2)
		go func() {
			defer wg.Done()
			audio, err := o.stages.SoundDesigner.Compose(ctx, plan.AmbientSfx, o.sfxDurationSeconds)
			if err != nil {
				o.recordStageFailure(err, log)
				return
			}
			putAudio(model.AudioKeySfx, audio)
		}()
		go func() {
			defer wg.Done()
			audio, err := o.stages.SoundDesigner.Compose(ctx, "gentle lullaby, "+plan.LullabyStyle, lullabyDurationSeconds)
			if err != nil {
				o.recordStageFailure(err, log)
				return
			}
			putAudio(model.AudioKeyLullaby, audio)
		}()
	}

	wg.Wait()
}

func (o *orchestrator) voiceID(req *model.StoryRequest) string {
	if req.VoiceID != "" {
		return req.VoiceID
	}
	return o.defaultVoiceID
}

func (o *orchestrator) recordStageFailure(err error, log *zap.Logger) {
	se := stage.Classify("unknown", err)
	stageFailuresTotal.WithLabelValues(se.Stage, string(se.Kind)).Inc()
	log.Warn("Stage failed",
		zap.String("stage", se.Stage),
		zap.String("kind", string(se.Kind)),
		zap.Error(err))
}
