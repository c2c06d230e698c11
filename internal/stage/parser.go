package stage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnparseableResponse - ответ AI не удалось привести к структурной форме.
var ErrUnparseableResponse = errors.New("unparseable AI response")

// StripCodeFences removes a surrounding markdown code fence (``` or ```json)
// that chat models often wrap JSON responses in.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// rawStory mirrors the JSON contract given to the writer model. Scenes may
// arrive either as plain strings or as objects with a "text" field, depending
// on how literally the model followed the prompt.
type rawStory struct {
	Title  string            `json:"title"`
	Scenes []json.RawMessage `json:"scenes"`
	Mood   string            `json:"mood"`
}

// ParseStructuredStory attempts the structured parse of a writer response.
// Callers fall back to wrapping the raw text on ErrUnparseableResponse.
func ParseStructuredStory(responseText string) (*StructuredStory, error) {
	clean := StripCodeFences(responseText)
	if clean == "" {
		return nil, fmt.Errorf("%w: пустой ответ", ErrUnparseableResponse)
	}

	var raw rawStory
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableResponse, err)
	}
	if len(raw.Scenes) == 0 {
		return nil, fmt.Errorf("%w: ответ не содержит сцен", ErrUnparseableResponse)
	}

	scenes := make([]string, 0, len(raw.Scenes))
	for i, rawScene := range raw.Scenes {
		text, err := parseSceneText(rawScene)
		if err != nil {
			return nil, fmt.Errorf("%w: сцена %d: %v", ErrUnparseableResponse, i, err)
		}
		if text != "" {
			scenes = append(scenes, text)
		}
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("%w: все сцены пустые", ErrUnparseableResponse)
	}

	return &StructuredStory{
		Title:  strings.TrimSpace(raw.Title),
		Scenes: scenes,
		Mood:   raw.Mood,
	}, nil
}

// parseSceneText accepts "scene text" or {"text": "scene text"} forms.
func parseSceneText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}

	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("сцена не является ни строкой, ни объектом: %v", err)
	}
	return strings.TrimSpace(obj.Text), nil
}
