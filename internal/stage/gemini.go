package stage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// illustrationStyleSuffix keeps scene images visually consistent across a story.
const illustrationStyleSuffix = ". Dreamy watercolor children's book illustration, soft pastels, magical atmosphere, warm and cozy"

// maxIllustrationPromptChars bounds the scene text passed to the image model.
const maxIllustrationPromptChars = 150

// GeminiClient реализует Illustrator поверх Gemini generateContent REST API.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// Compile-time check to ensure GeminiClient implements Illustrator.
var _ Illustrator = (*GeminiClient)(nil)

// NewGeminiClient creates the illustration adapter. An empty API key is
// allowed: calls then fail with FailureUnavailable and scenes simply stay
// unillustrated.
func NewGeminiClient(apiKey, baseURL, model string, timeout time.Duration, logger *zap.Logger) *GeminiClient {
	return &GeminiClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("Gemini"),
	}
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Illustrate генерирует одну иллюстрацию сцены (PNG) по текстовому описанию.
func (c *GeminiClient) Illustrate(ctx context.Context, prompt string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, NewError(StageIllustrator, FailureUnavailable, errors.New("GEMINI_API_KEY не задан"))
	}

	// Обрезаем по рунам, чтобы не разорвать многобайтовый символ.
	if runes := []rune(prompt); len(runes) > maxIllustrationPromptChars {
		prompt = string(runes[:maxIllustrationPromptChars])
	}
	fullPrompt := "Illustration for a bedtime story scene: " + prompt + illustrationStyleSuffix

	reqPayload := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: fullPrompt}}},
		},
		GenerationConfig: geminiGenConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}
	reqBodyBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, NewError(StageIllustrator, FailureRejected, fmt.Errorf("failed to marshal request payload: %w", err))
	}

	endpointURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(reqBodyBytes))
	if err != nil {
		return nil, NewError(StageIllustrator, FailureRejected, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, Classify(StageIllustrator, fmt.Errorf("http request failed: %w", err))
	}
	defer resp.Body.Close()

	bodyBytes, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Gemini API returned non-OK status", zap.Int("statusCode", resp.StatusCode))
		return nil, classifyHTTPStatus(StageIllustrator, resp.StatusCode, bodyBytes)
	}
	if readErr != nil {
		return nil, Classify(StageIllustrator, fmt.Errorf("failed to read response body: %w", readErr))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, NewError(StageIllustrator, FailureTransient, fmt.Errorf("failed to decode response: %w", err))
	}

	for _, candidate := range parsed.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			imageData, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, NewError(StageIllustrator, FailureTransient, fmt.Errorf("failed to decode image data: %w", err))
			}
			c.logger.Debug("Illustration generated", zap.Int("sizeBytes", len(imageData)))
			return imageData, nil
		}
	}

	return nil, NewError(StageIllustrator, FailureTransient, errors.New("response contains no image data"))
}
