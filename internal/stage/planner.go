package stage

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"sandman-server/internal/model"
)

const plannerSystemPrompt = `You are a gentle forest guardian who plans bedtime stories for children, considering cultural sensitivity and the child's interests.
Respond ONLY with JSON: {"story_direction": "...", "mood": "calming|adventurous|funny|magical", "ambient_sfx": "...", "lullaby_style": "..."}`

// Compile-time check to ensure aiPlanner implements Planner.
var _ Planner = (*aiPlanner)(nil)

// aiPlanner derives a story direction and ambient cues from the raw request.
type aiPlanner struct {
	ai     AIClient
	logger *zap.Logger
}

// NewAIPlanner creates the planner stage on top of an AI client.
func NewAIPlanner(ai AIClient, logger *zap.Logger) Planner {
	return &aiPlanner{
		ai:     ai,
		logger: logger.Named("Planner"),
	}
}

// Plan запрашивает у AI план истории. Неразбираемый, но непустой ответ
// превращается в best-effort план; ошибки API возвращаются как stage failure
// (оркестратор деградирует к плану по умолчанию).
func (p *aiPlanner) Plan(ctx context.Context, req *model.StoryRequest) (*model.StoryPlan, error) {
	userPrompt := fmt.Sprintf(
		"A parent wants a bedtime story.\nChild: %s, Language: %s\nRequest: %s",
		req.ChildName, req.LanguageOrDefault(), req.Prompt)
	if req.MoodHint != "" {
		userPrompt += "\nPreferred mood: " + req.MoodHint
	}

	responseText, _, err := p.ai.GenerateText(ctx, plannerSystemPrompt, userPrompt)
	if err != nil {
		return nil, Classify(StagePlanner, err)
	}

	var plan model.StoryPlan
	if err := json.Unmarshal([]byte(StripCodeFences(responseText)), &plan); err != nil {
		p.logger.Warn("Planner response is not structured, using best-effort plan", zap.Error(err))
		fallback := model.DefaultPlan(req)
		if runes := []rune(responseText); len(runes) > 300 {
			responseText = string(runes[:300])
		}
		fallback.StoryDirection = responseText
		return fallback, nil
	}

	// Пустые поля добиваем значениями по умолчанию.
	defaults := model.DefaultPlan(req)
	if plan.StoryDirection == "" {
		plan.StoryDirection = defaults.StoryDirection
	}
	if plan.Mood == "" {
		plan.Mood = defaults.Mood
	}
	if plan.AmbientSfx == "" {
		plan.AmbientSfx = defaults.AmbientSfx
	}
	if plan.LullabyStyle == "" {
		plan.LullabyStyle = defaults.LullabyStyle
	}

	return &plan, nil
}
