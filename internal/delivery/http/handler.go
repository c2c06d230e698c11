package http

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"sandman-server/internal/model"
	"sandman-server/internal/service"
	"sandman-server/internal/stage"
)

// Handler представляет HTTP обработчик API историй.
type Handler struct {
	orchestrator service.Orchestrator
	resolver     service.Resolver
	stages       service.Stages
	logger       *zap.Logger
}

// New создает новый экземпляр обработчика.
func New(orchestrator service.Orchestrator, resolver service.Resolver, stages service.Stages, logger *zap.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		resolver:     resolver,
		stages:       stages,
		logger:       logger.Named("HTTPHandler"),
	}
}

// RegisterRoutes регистрирует маршруты API.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)

	api := router.Group("/api")
	{
		api.POST("/orchestrate", h.Orchestrate)
		api.GET("/stories", h.ListStories)
		api.GET("/stories/:id", h.GetStory)
		api.GET("/stories/:id/audio/:sceneKey", h.GetAudio)
		api.GET("/stories/:id/image/:sceneKey", h.GetImage)
		api.POST("/narrate", h.Narrate)
		api.GET("/agents", h.ListAgents)
	}
}

// storyResponse is the public shape of an assembled story. Binary payloads
// are exposed as key lists; clients fetch them through the media endpoints.
type storyResponse struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Scenes    []model.Scene `json:"scenes"`
	Mood      model.Mood    `json:"mood"`
	Language  string        `json:"language"`
	ChildName string        `json:"child_name"`
	Cached    bool          `json:"cached"`
	AudioKeys []string      `json:"audio_keys"`
	ImageKeys []string      `json:"image_keys"`
}

func newStoryResponse(record *model.StoryRecord, cached bool) storyResponse {
	return storyResponse{
		ID:        record.ID.String(),
		Title:     record.Title,
		Scenes:    record.Scenes,
		Mood:      record.Mood,
		Language:  record.Language,
		ChildName: record.ChildName,
		Cached:    cached,
		AudioKeys: sortedKeys(record.AudioByScene),
		ImageKeys: sortedKeys(record.ImagesByScene),
	}
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Health проверяет доступность сервиса.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Orchestrate запускает полный конвейер генерации истории.
func (h *Handler) Orchestrate(c *gin.Context) {
	var req model.StoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный формат запроса: " + err.Error()})
		return
	}

	record, cached, err := h.orchestrator.GenerateStory(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	status := http.StatusCreated
	if cached {
		status = http.StatusOK
	}
	c.JSON(status, newStoryResponse(record, cached))
}

// ListStories возвращает список историй, новые первыми.
func (h *Handler) ListStories(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	summaries, err := h.resolver.ListStories(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stories": summaries})
}

// GetStory возвращает историю по идентификатору.
func (h *Handler) GetStory(c *gin.Context) {
	id, ok := h.storyID(c)
	if !ok {
		return
	}

	record, err := h.resolver.GetStory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newStoryResponse(record, false))
}

// GetAudio возвращает аудиодорожку сцены ("0".."n", "sfx", "lullaby").
func (h *Handler) GetAudio(c *gin.Context) {
	id, ok := h.storyID(c)
	if !ok {
		return
	}

	payload, err := h.resolver.GetAudio(c.Request.Context(), id, c.Param("sceneKey"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "audio/mpeg", payload)
}

// GetImage возвращает иллюстрацию сцены ("img_N" или "N").
func (h *Handler) GetImage(c *gin.Context) {
	id, ok := h.storyID(c)
	if !ok {
		return
	}

	payload, err := h.resolver.GetImage(c.Request.Context(), id, c.Param("sceneKey"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", payload)
}

type narrateRequest struct {
	Text     string `json:"text" binding:"required"`
	Language string `json:"language"`
	VoiceID  string `json:"voice_id"`
}

// Narrate озвучивает произвольный текст, минуя конвейер.
func (h *Handler) Narrate(c *gin.Context) {
	if h.stages.Narrator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "нарратор не сконфигурирован"})
		return
	}

	var req narrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный формат запроса: " + err.Error()})
		return
	}
	if req.Language == "" {
		req.Language = "en"
	}

	payload, err := h.stages.Narrator.Narrate(c.Request.Context(), req.Text, req.Language, req.VoiceID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "audio/mpeg", payload)
}

type agentInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Required  bool   `json:"required"`
}

// ListAgents возвращает состояние стадий конвейера.
func (h *Handler) ListAgents(c *gin.Context) {
	agents := []agentInfo{
		{Name: stage.StagePlanner, Available: h.stages.Planner != nil},
		{Name: stage.StageWriter, Available: h.stages.Writer != nil, Required: true},
		{Name: stage.StageNarrator, Available: h.stages.Narrator != nil},
		{Name: stage.StageSoundDesigner, Available: h.stages.SoundDesigner != nil},
		{Name: stage.StageIllustrator, Available: h.stages.Illustrator != nil},
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

func (h *Handler) storyID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверный формат идентификатора истории"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var stageErr *stage.Error

	switch {
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, model.ErrBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrStoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrWriterFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.As(err, &stageErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Unhandled request error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка сервера"})
	}
}
