package stage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// maxSoundDurationSeconds is the upper bound the sound-generation API accepts.
const maxSoundDurationSeconds = 22.0

// ElevenLabsClient реализует Narrator и SoundDesigner поверх ElevenLabs REST API.
type ElevenLabsClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Compile-time checks.
var (
	_ Narrator      = (*ElevenLabsClient)(nil)
	_ SoundDesigner = (*ElevenLabsClient)(nil)
)

// NewElevenLabsClient creates the narration/sound adapter. An empty API key is
// allowed: every call then fails with FailureUnavailable and the pipeline
// degrades to "no audio for this cue".
func NewElevenLabsClient(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) *ElevenLabsClient {
	return &ElevenLabsClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("ElevenLabs"),
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type soundRequest struct {
	Text            string  `json:"text"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Narrate синтезирует озвучку одной сцены. Возвращает аудио как opaque blob
// (mpeg-поток).
func (c *ElevenLabsClient) Narrate(ctx context.Context, text, language, voiceID string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, NewError(StageNarrator, FailureUnavailable, errors.New("ELEVENLABS_API_KEY не задан"))
	}

	payload := ttsRequest{
		Text:    text,
		ModelID: "eleven_multilingual_v2",
		VoiceSettings: voiceSettings{
			Stability:       0.6,
			SimilarityBoost: 0.8,
		},
	}

	endpointURL := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, voiceID)
	audio, err := c.post(ctx, StageNarrator, endpointURL, payload)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Narration generated",
		zap.String("voiceID", voiceID),
		zap.String("language", language),
		zap.Int("sizeBytes", len(audio)))
	return audio, nil
}

// Compose генерирует ambient/lullaby трек по короткому описанию.
func (c *ElevenLabsClient) Compose(ctx context.Context, description string, durationSeconds float64) ([]byte, error) {
	if c.apiKey == "" {
		return nil, NewError(StageSoundDesigner, FailureUnavailable, errors.New("ELEVENLABS_API_KEY не задан"))
	}

	if durationSeconds <= 0 || durationSeconds > maxSoundDurationSeconds {
		durationSeconds = maxSoundDurationSeconds
	}
	payload := soundRequest{
		Text:            description,
		DurationSeconds: durationSeconds,
	}

	audio, err := c.post(ctx, StageSoundDesigner, c.baseURL+"/v1/sound-generation", payload)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Sound generated", zap.Int("sizeBytes", len(audio)))
	return audio, nil
}

// post выполняет запрос и классифицирует ошибку как typed stage failure.
func (c *ElevenLabsClient) post(ctx context.Context, stageName, endpointURL string, payload interface{}) ([]byte, error) {
	reqBodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, NewError(stageName, FailureRejected, fmt.Errorf("failed to marshal request payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(reqBodyBytes))
	if err != nil {
		return nil, NewError(stageName, FailureRejected, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, Classify(stageName, fmt.Errorf("http request failed: %w", err))
	}
	defer resp.Body.Close()

	bodyBytes, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("ElevenLabs API returned non-OK status",
			zap.String("url", endpointURL),
			zap.Int("statusCode", resp.StatusCode))
		return nil, classifyHTTPStatus(stageName, resp.StatusCode, bodyBytes)
	}
	if readErr != nil {
		return nil, Classify(stageName, fmt.Errorf("failed to read response body: %w", readErr))
	}
	if len(bodyBytes) == 0 {
		return nil, NewError(stageName, FailureTransient, errors.New("API returned empty body"))
	}

	return bodyBytes, nil
}

// classifyHTTPStatus maps upstream status codes onto failure kinds.
func classifyHTTPStatus(stageName string, statusCode int, body []byte) *Error {
	detail := string(body)
	if len(detail) > 200 {
		detail = detail[:200]
	}
	err := fmt.Errorf("API returned status %d: %s", statusCode, detail)

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return NewError(stageName, FailureUnavailable, err)
	case statusCode >= 400 && statusCode < 500 && statusCode != http.StatusTooManyRequests:
		return NewError(stageName, FailureRejected, err)
	default:
		return NewError(stageName, FailureTransient, err)
	}
}
