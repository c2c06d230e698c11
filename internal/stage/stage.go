package stage

import (
	"context"
	"errors"
	"fmt"
	"net"

	"sandman-server/internal/model"
)

// Stage names used in errors, logs and metrics.
const (
	StagePlanner       = "planner"
	StageWriter        = "writer"
	StageNarrator      = "narrator"
	StageSoundDesigner = "sound_designer"
	StageIllustrator   = "illustrator"
)

// FailureKind classifies why a generation stage produced nothing.
type FailureKind string

const (
	// FailureUnavailable - нет учетных данных или стадия не сконфигурирована.
	FailureUnavailable FailureKind = "unavailable"
	// FailureRejected - upstream отклонил вход (ошибка валидации).
	FailureRejected FailureKind = "rejected"
	// FailureTimeout - превышен таймаут вызова стадии.
	FailureTimeout FailureKind = "timeout"
	// FailureTransient - временная ошибка upstream; ядро ретраев не делает.
	FailureTransient FailureKind = "transient"
)

// Error is the typed failure every stage adapter returns. The orchestrator
// treats all kinds identically for degradable stages ("stage produced
// nothing"); only the writer's failure is fatal.
type Error struct {
	Stage string
	Kind  FailureKind
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stage %s failed (%s): %v", e.Stage, e.Kind, e.Err)
	}
	return fmt.Sprintf("stage %s failed (%s)", e.Stage, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a typed stage failure.
func NewError(stageName string, kind FailureKind, err error) *Error {
	return &Error{Stage: stageName, Kind: kind, Err: err}
}

// Classify wraps an arbitrary adapter error into a typed stage failure,
// mapping context deadlines and network timeouts to FailureTimeout.
func Classify(stageName string, err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(stageName, FailureTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(stageName, FailureTimeout, err)
	}
	return NewError(stageName, FailureTransient, err)
}

// StructuredStory is a successfully parsed writer output.
type StructuredStory struct {
	Title  string   `json:"title"`
	Scenes []string `json:"scenes"`
	Mood   string   `json:"mood"`
}

// WriterResult is a tagged result: exactly one of Structured or Raw is set.
// Raw carries unparseable-but-nonempty upstream text; the orchestrator wraps
// it as a degraded single-scene story instead of failing the request.
type WriterResult struct {
	Structured *StructuredStory
	Raw        string
}

// Planner plans a story direction, mood and ambient cues for the request.
// Optional stage: any failure degrades to model.DefaultPlan.
type Planner interface {
	Plan(ctx context.Context, req *model.StoryRequest) (*model.StoryPlan, error)
}

// Writer produces the title and ordered scene list. The only stage whose
// failure aborts the whole pipeline.
type Writer interface {
	Write(ctx context.Context, plan *model.StoryPlan, req *model.StoryRequest) (*WriterResult, error)
}

// Narrator converts one scene's text into one audio payload.
type Narrator interface {
	Narrate(ctx context.Context, text, language, voiceID string) ([]byte, error)
}

// SoundDesigner produces one ambience/lullaby audio payload from a short
// description.
type SoundDesigner interface {
	Compose(ctx context.Context, description string, durationSeconds float64) ([]byte, error)
}

// Illustrator produces one raster image payload from a scene description.
type Illustrator interface {
	Illustrate(ctx context.Context, prompt string) ([]byte, error)
}
