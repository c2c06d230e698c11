package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStructuredStory_Plain(t *testing.T) {
	response := `{"title": "Mina and the Moon", "scenes": ["Once upon a time...", "And then...", "Good night."], "mood": "calming"}`

	story, err := ParseStructuredStory(response)
	require.NoError(t, err)
	assert.Equal(t, "Mina and the Moon", story.Title)
	assert.Equal(t, []string{"Once upon a time...", "And then...", "Good night."}, story.Scenes)
	assert.Equal(t, "calming", story.Mood)
}

func TestParseStructuredStory_CodeFences(t *testing.T) {
	response := "```json\n{\"title\": \"T\", \"scenes\": [\"s1\"], \"mood\": \"magical\"}\n```"

	story, err := ParseStructuredStory(response)
	require.NoError(t, err)
	assert.Equal(t, "T", story.Title)
	assert.Equal(t, []string{"s1"}, story.Scenes)
}

func TestParseStructuredStory_SceneObjects(t *testing.T) {
	// Модели иногда возвращают сцены как объекты вопреки промпту.
	response := `{"title": "T", "scenes": [{"text": "first"}, {"text": "second"}], "mood": "funny"}`

	story, err := ParseStructuredStory(response)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, story.Scenes)
}

func TestParseStructuredStory_Unparseable(t *testing.T) {
	cases := map[string]string{
		"не JSON":       "Once upon a time there was a dragon...",
		"пустой ответ":  "   ",
		"нет сцен":      `{"title": "T", "scenes": [], "mood": "calming"}`,
		"пустые сцены":  `{"title": "T", "scenes": ["", "  "], "mood": "calming"}`,
		"сцена-число":   `{"title": "T", "scenes": [42], "mood": "calming"}`,
		"обрезан ответ": `{"title": "T", "scenes": ["s1`,
	}

	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseStructuredStory(response)
			assert.ErrorIs(t, err, ErrUnparseableResponse)
		})
	}
}

func TestParseStructuredStory_SkipsEmptyScenes(t *testing.T) {
	response := `{"title": "T", "scenes": ["first", "", "second"], "mood": "calming"}`

	story, err := ParseStructuredStory(response)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, story.Scenes)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences(`{"a":1}`))
}
