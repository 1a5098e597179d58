package asr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castforge/studio-backend/internal/config"
)

func TestTranscribe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req transcribeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "recordings/r/tracks/t/final/t.wav", req.AudioRef)
		assert.Equal(t, int64(30000), req.DurationMs)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"segments": []map[string]interface{}{
				{"start_ms": 0, "end_ms": 1200, "text": "hello", "speaker": "S1", "confidence": 0.98},
				{"start_ms": 1200, "end_ms": 2000, "text": "again"},
			},
		})
	}))
	defer ts.Close()

	client := NewClient(&config.Config{ASR: config.ASRConfig{ServiceURL: ts.URL}})
	segments, err := client.Transcribe(context.Background(), "recordings/r/tracks/t/final/t.wav", 30*time.Second)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "hello", segments[0].Text)
	require.NotNil(t, segments[0].Speaker)
	assert.Equal(t, "S1", *segments[0].Speaker)
	assert.Nil(t, segments[1].Speaker)
	assert.Equal(t, int64(2000), segments[1].EndMs)
}

func TestTranscribe_ServiceError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	client := NewClient(&config.Config{ASR: config.ASRConfig{ServiceURL: ts.URL}})
	_, err := client.Transcribe(context.Background(), "some/ref", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model not loaded")
}
