package stage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestElevenLabs_NarrateRequestShape(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotBody ttsRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("xi-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte("mpeg-bytes"))
	}))
	defer srv.Close()

	client := NewElevenLabsClient("key-123", srv.URL, 5*time.Second, zap.NewNop())
	audio, err := client.Narrate(context.Background(), "scene text", "en", "voice-1")

	require.NoError(t, err)
	assert.Equal(t, []byte("mpeg-bytes"), audio)
	assert.Equal(t, "/v1/text-to-speech/voice-1", gotPath)
	assert.Equal(t, "key-123", gotAPIKey)
	assert.Equal(t, "scene text", gotBody.Text)
	assert.Equal(t, "eleven_multilingual_v2", gotBody.ModelID)
	assert.InDelta(t, 0.6, gotBody.VoiceSettings.Stability, 0.001)
	assert.InDelta(t, 0.8, gotBody.VoiceSettings.SimilarityBoost, 0.001)
}

func TestElevenLabs_ComposeDurationCapped(t *testing.T) {
	var gotBody soundRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte("sound"))
	}))
	defer srv.Close()

	client := NewElevenLabsClient("key", srv.URL, 5*time.Second, zap.NewNop())

	_, err := client.Compose(context.Background(), "rain", 60)
	require.NoError(t, err)
	assert.InDelta(t, maxSoundDurationSeconds, gotBody.DurationSeconds, 0.001,
		"длительность выше лимита должна обрезаться")

	_, err = client.Compose(context.Background(), "rain", 10)
	require.NoError(t, err)
	assert.InDelta(t, 10, gotBody.DurationSeconds, 0.001)
}

func TestElevenLabs_NoAPIKey(t *testing.T) {
	client := NewElevenLabsClient("", "http://unused", 5*time.Second, zap.NewNop())

	_, err := client.Narrate(context.Background(), "text", "en", "voice")
	var stageErr *Error
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, FailureUnavailable, stageErr.Kind)
	assert.Equal(t, StageNarrator, stageErr.Stage)

	_, err = client.Compose(context.Background(), "rain", 10)
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageSoundDesigner, stageErr.Stage)
}

func TestElevenLabs_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		kind   FailureKind
	}{
		{http.StatusUnauthorized, FailureUnavailable},
		{http.StatusForbidden, FailureUnavailable},
		{http.StatusUnprocessableEntity, FailureRejected},
		{http.StatusBadRequest, FailureRejected},
		{http.StatusTooManyRequests, FailureTransient},
		{http.StatusInternalServerError, FailureTransient},
		{http.StatusBadGateway, FailureTransient},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		client := NewElevenLabsClient("key", srv.URL, 5*time.Second, zap.NewNop())
		_, err := client.Narrate(context.Background(), "text", "en", "voice")

		var stageErr *Error
		require.ErrorAs(t, err, &stageErr, "status %d", tt.status)
		assert.Equal(t, tt.kind, stageErr.Kind, "status %d", tt.status)

		srv.Close()
	}
}

func TestElevenLabs_EmptyBodyIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewElevenLabsClient("key", srv.URL, 5*time.Second, zap.NewNop())
	_, err := client.Narrate(context.Background(), "text", "en", "voice")

	var stageErr *Error
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, FailureTransient, stageErr.Kind)
}
