package stage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sandman-server/internal/model"
)

// languageNames maps language codes to names used in the writer prompt.
var languageNames = map[string]string{
	"en": "English",
	"fr": "French",
	"ja": "Japanese",
	"hi": "Hindi",
	"es": "Spanish",
	"pt": "Portuguese",
	"de": "German",
	"zh": "Chinese",
	"ar": "Arabic",
	"ko": "Korean",
	"ru": "Russian",
}

// LanguageName returns the human-readable name for a language code.
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return "English"
}

const writerSystemPromptTemplate = `You are a master storyteller. Create a magical bedtime story for a child named %s.

Rules:
- Write entirely in %s
- 4-6 short scenes/paragraphs, each 2-4 sentences
- Gentle, dreamy, calming tone — this is a bedtime story
- Include the child's name as the main character
- End with the child falling peacefully asleep
- Return as JSON: {"title": "...", "scenes": ["scene1", "scene2", ...], "mood": "calming|adventurous|funny|magical"}`

// Compile-time check to ensure aiWriter implements Writer.
var _ Writer = (*aiWriter)(nil)

// aiWriter produces the story title and scene list through an AIClient.
// Parsing happens inside the stage: callers receive a tagged WriterResult
// instead of guessing the response shape themselves.
type aiWriter struct {
	ai     AIClient
	logger *zap.Logger
}

// NewAIWriter creates the writer stage on top of an AI client.
func NewAIWriter(ai AIClient, logger *zap.Logger) Writer {
	return &aiWriter{
		ai:     ai,
		logger: logger.Named("Writer"),
	}
}

// Write запрашивает у AI историю и пытается разобрать структурный ответ.
func (w *aiWriter) Write(ctx context.Context, plan *model.StoryPlan, req *model.StoryRequest) (*WriterResult, error) {
	systemPrompt := fmt.Sprintf(writerSystemPromptTemplate,
		req.ChildName, LanguageName(req.LanguageOrDefault()))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Story direction: %s\n", plan.StoryDirection)
	fmt.Fprintf(&sb, "Mood: %s\n", plan.Mood)
	if req.Age != nil {
		fmt.Fprintf(&sb, "The child is %d years old, keep vocabulary age-appropriate.\n", *req.Age)
	}
	if req.PetInfo != "" {
		fmt.Fprintf(&sb, "The child's companion: %s. Include it in the story.\n", req.PetInfo)
	}
	fmt.Fprintf(&sb, "Request: %s", req.Prompt)

	responseText, usage, err := w.ai.GenerateText(ctx, systemPrompt, sb.String())
	if err != nil {
		return nil, Classify(StageWriter, err)
	}

	w.logger.Debug("Writer response received",
		zap.Int("responseChars", len(responseText)),
		zap.Int("totalTokens", usage.TotalTokens))

	structured, parseErr := ParseStructuredStory(responseText)
	if parseErr != nil {
		raw := strings.TrimSpace(responseText)
		if raw == "" {
			// Пустой текст не может стать даже деградированной историей.
			return nil, NewError(StageWriter, FailureTransient, parseErr)
		}
		// Непустой, но неразбираемый ответ — деградация, а не отказ:
		// оркестратор завернет сырой текст в одну сцену.
		w.logger.Warn("Writer response is not structured, falling back to raw text",
			zap.Error(parseErr))
		return &WriterResult{Raw: raw}, nil
	}

	return &WriterResult{Structured: structured}, nil
}
