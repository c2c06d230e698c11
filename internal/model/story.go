package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mood определяет эмоциональную окраску истории.
// Совпадает с типом ENUM 'story_mood' в БД.
type Mood string

const (
	MoodCalming     Mood = "calming"
	MoodAdventurous Mood = "adventurous"
	MoodMagical     Mood = "magical"
	MoodFunny       Mood = "funny"
)

// DefaultMood is used whenever an upstream stage produced no usable mood tag.
const DefaultMood = MoodMagical

// IsValid reports whether m is one of the enumerated mood tags.
func (m Mood) IsValid() bool {
	switch m {
	case MoodCalming, MoodAdventurous, MoodMagical, MoodFunny:
		return true
	}
	return false
}

// ParseMood normalizes a free-form mood string coming from an AI response.
// Unknown values fall back to DefaultMood rather than failing the pipeline.
func ParseMood(s string) Mood {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if m.IsValid() {
		return m
	}
	return DefaultMood
}

// Reserved keys in the audio sub-map alongside the numeric scene indices.
const (
	AudioKeySfx     = "sfx"
	AudioKeyLullaby = "lullaby"
)

// SceneAudioKey returns the audio sub-map key for a scene index.
func SceneAudioKey(idx int) string {
	return fmt.Sprintf("%d", idx)
}

// SceneImageKey returns the image sub-map key for a scene index.
func SceneImageKey(idx int) string {
	return fmt.Sprintf("img_%d", idx)
}

// NormalizeImageKey accepts both "2" and "img_2" forms from callers and
// returns the canonical sub-map key.
func NormalizeImageKey(key string) string {
	if strings.HasPrefix(key, "img_") {
		return key
	}
	return "img_" + key
}

// StoryRequest представляет входящий запрос на генерацию истории.
// Immutable once received; used only to derive the cache key and to seed
// the generation prompts.
type StoryRequest struct {
	ChildName string `json:"child_name" binding:"required"`
	Age       *int   `json:"age,omitempty"`
	Language  string `json:"language"`
	Prompt    string `json:"prompt" binding:"required"`
	MoodHint  string `json:"mood,omitempty"`
	PetInfo   string `json:"pet,omitempty"`
	VoiceID   string `json:"voice_id,omitempty"`
}

// Validate checks the inbound request before any stage runs.
func (r *StoryRequest) Validate() error {
	if strings.TrimSpace(r.ChildName) == "" {
		return fmt.Errorf("%w: child_name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}
	if r.Age != nil && (*r.Age < 0 || *r.Age > 17) {
		return fmt.Errorf("%w: age must be between 0 and 17", ErrInvalidInput)
	}
	return nil
}

// LanguageOrDefault returns the request language code, defaulting to "en".
func (r *StoryRequest) LanguageOrDefault() string {
	if r.Language == "" {
		return "en"
	}
	return r.Language
}

// Scene is one narrative beat of a story. Scenes are never mutated after
// generation; narration/illustration results live in the record's sub-maps.
type Scene struct {
	Text               string `json:"text"`
	Mood               Mood   `json:"mood,omitempty"`
	IllustrationPrompt string `json:"illustration_prompt,omitempty"`
	SoundCue           string `json:"sound_cue,omitempty"`
}

// StoryPlan is the output of the planner stage: a direction for the writer
// plus ambient cue descriptions for the sound designer.
type StoryPlan struct {
	StoryDirection string `json:"story_direction"`
	Mood           string `json:"mood"`
	AmbientSfx     string `json:"ambient_sfx"`
	LullabyStyle   string `json:"lullaby_style"`
}

// DefaultPlan substitutes for a failed or unconfigured planner stage.
func DefaultPlan(req *StoryRequest) *StoryPlan {
	mood := string(DefaultMood)
	if req.MoodHint != "" {
		mood = string(ParseMood(req.MoodHint))
	}
	return &StoryPlan{
		StoryDirection: req.Prompt,
		Mood:           mood,
		AmbientSfx:     "gentle night sounds",
		LullabyStyle:   "soft music box",
	}
}

// StoryRecord представляет сгенерированную историю в базе данных.
// Created exactly once at the end of a pipeline run, read many times,
// never deleted by the core.
type StoryRecord struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	Title         string            `json:"title" db:"title"`
	Scenes        []Scene           `json:"scenes" db:"scenes"`
	Mood          Mood              `json:"mood" db:"mood"`
	Language      string            `json:"language" db:"language"`
	ChildName     string            `json:"child_name" db:"child_name"`
	VoiceID       string            `json:"voice_id,omitempty" db:"voice_id"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	AudioByScene  map[string][]byte `json:"-" db:"-"`
	ImagesByScene map[string][]byte `json:"-" db:"-"`
}

// Summary strips scene bodies and binary payloads for list responses and
// for the result cache value.
func (r *StoryRecord) Summary() StorySummary {
	return StorySummary{
		ID:         r.ID,
		Title:      r.Title,
		ChildName:  r.ChildName,
		Language:   r.Language,
		Mood:       r.Mood,
		SceneCount: len(r.Scenes),
		CreatedAt:  r.CreatedAt,
	}
}

// StorySummary is the lightweight projection of a StoryRecord.
type StorySummary struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	ChildName  string    `json:"child_name" db:"child_name"`
	Language   string    `json:"language" db:"language"`
	Mood       Mood      `json:"mood" db:"mood"`
	SceneCount int       `json:"scene_count" db:"scene_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
