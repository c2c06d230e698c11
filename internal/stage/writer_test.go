package stage_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sandman-server/internal/mocks"
	"sandman-server/internal/model"
	"sandman-server/internal/stage"
)

func writerRequest() *model.StoryRequest {
	return &model.StoryRequest{ChildName: "Mina", Language: "en", Prompt: "a dragon"}
}

func TestAIWriter_StructuredResponse(t *testing.T) {
	ai := mocks.NewMockAIClient(t)
	writer := stage.NewAIWriter(ai, zap.NewNop())

	ai.On("GenerateText", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Return(`{"title": "T", "scenes": ["s1", "s2"], "mood": "calming"}`, stage.UsageInfo{TotalTokens: 100}, nil)

	result, err := writer.Write(context.Background(), model.DefaultPlan(writerRequest()), writerRequest())
	require.NoError(t, err)
	require.NotNil(t, result.Structured)
	assert.Equal(t, "T", result.Structured.Title)
	assert.Equal(t, []string{"s1", "s2"}, result.Structured.Scenes)
	assert.Empty(t, result.Raw)
}

func TestAIWriter_UnparseableResponseDegradesToRaw(t *testing.T) {
	ai := mocks.NewMockAIClient(t)
	writer := stage.NewAIWriter(ai, zap.NewNop())

	ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).
		Return("Once upon a time there was a dragon without fire.", stage.UsageInfo{}, nil)

	result, err := writer.Write(context.Background(), model.DefaultPlan(writerRequest()), writerRequest())
	require.NoError(t, err, "неразбираемый ответ — деградация, а не отказ")
	assert.Nil(t, result.Structured)
	assert.Equal(t, "Once upon a time there was a dragon without fire.", result.Raw)
}

func TestAIWriter_WhitespaceOnlyResponseIsFailure(t *testing.T) {
	ai := mocks.NewMockAIClient(t)
	writer := stage.NewAIWriter(ai, zap.NewNop())

	ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).
		Return("   \n\t", stage.UsageInfo{}, nil)

	_, err := writer.Write(context.Background(), model.DefaultPlan(writerRequest()), writerRequest())
	require.Error(t, err, "пустой текст не может стать даже деградированной историей")

	var stageErr *stage.Error
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, stage.StageWriter, stageErr.Stage)
}

func TestAIWriter_APIErrorIsStageFailure(t *testing.T) {
	ai := mocks.NewMockAIClient(t)
	writer := stage.NewAIWriter(ai, zap.NewNop())

	ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).
		Return("", stage.UsageInfo{}, errors.New("upstream 500"))

	_, err := writer.Write(context.Background(), model.DefaultPlan(writerRequest()), writerRequest())
	require.Error(t, err)

	var stageErr *stage.Error
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, stage.StageWriter, stageErr.Stage)
	assert.Equal(t, stage.FailureTransient, stageErr.Kind)
}

func TestAIWriter_TimeoutClassification(t *testing.T) {
	ai := mocks.NewMockAIClient(t)
	writer := stage.NewAIWriter(ai, zap.NewNop())

	ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).
		Return("", stage.UsageInfo{}, context.DeadlineExceeded)

	_, err := writer.Write(context.Background(), model.DefaultPlan(writerRequest()), writerRequest())

	var stageErr *stage.Error
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, stage.FailureTimeout, stageErr.Kind)
}

func TestAIPlanner_StructuredResponse(t *testing.T) {
	ai := mocks.NewMockAIClient(t)
	planner := stage.NewAIPlanner(ai, zap.NewNop())

	ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"story_direction": "a quest", "mood": "adventurous", "ambient_sfx": "wind", "lullaby_style": "harp"}`,
			stage.UsageInfo{}, nil)

	plan, err := planner.Plan(context.Background(), writerRequest())
	require.NoError(t, err)
	assert.Equal(t, "a quest", plan.StoryDirection)
	assert.Equal(t, "adventurous", plan.Mood)
	assert.Equal(t, "wind", plan.AmbientSfx)
}

func TestAIPlanner_UnparseableResponseBestEffort(t *testing.T) {
	ai := mocks.NewMockAIClient(t)
	planner := stage.NewAIPlanner(ai, zap.NewNop())

	ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).
		Return("Let's tell a story about a brave dragon.", stage.UsageInfo{}, nil)

	plan, err := planner.Plan(context.Background(), writerRequest())
	require.NoError(t, err)
	assert.Equal(t, "Let's tell a story about a brave dragon.", plan.StoryDirection)
	assert.NotEmpty(t, plan.Mood)
	assert.NotEmpty(t, plan.AmbientSfx)
}

func TestAIPlanner_BestEffortTruncationKeepsValidUTF8(t *testing.T) {
	ai := mocks.NewMockAIClient(t)
	planner := stage.NewAIPlanner(ai, zap.NewNop())

	long := strings.Repeat("дракон ", 100)
	ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).
		Return(long, stage.UsageInfo{}, nil)

	plan, err := planner.Plan(context.Background(), writerRequest())
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(plan.StoryDirection),
		"обрезка не должна разрывать многобайтовые символы")
	assert.LessOrEqual(t, len([]rune(plan.StoryDirection)), 300)
}

func TestAIPlanner_EmptyFieldsBackfilled(t *testing.T) {
	ai := mocks.NewMockAIClient(t)
	planner := stage.NewAIPlanner(ai, zap.NewNop())

	ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"story_direction": "a quest"}`, stage.UsageInfo{}, nil)

	plan, err := planner.Plan(context.Background(), writerRequest())
	require.NoError(t, err)
	assert.Equal(t, "a quest", plan.StoryDirection)
	assert.Equal(t, string(model.DefaultMood), plan.Mood)
	assert.NotEmpty(t, plan.LullabyStyle)
}

func TestAIPlanner_APIErrorIsStageFailure(t *testing.T) {
	ai := mocks.NewMockAIClient(t)
	planner := stage.NewAIPlanner(ai, zap.NewNop())

	ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).
		Return("", stage.UsageInfo{}, errors.New("connection refused"))

	_, err := planner.Plan(context.Background(), writerRequest())
	require.Error(t, err)

	var stageErr *stage.Error
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, stage.StagePlanner, stageErr.Stage)
}
