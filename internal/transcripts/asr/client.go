// Package asr implements the Recognizer interface against an HTTP
// transcription service. The service contract is a single POST returning
// the full ordered segment list; streaming recognizers are out of scope.
package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/castforge/studio-backend/internal/config"
	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/internal/transcripts"
)

const (
	defaultTimeout    = 5 * time.Minute
	errorSnippetLimit = 400
)

var _ transcripts.Recognizer = (*Client)(nil)

type Client struct {
	httpClient *http.Client
	serviceURL string
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.ASR.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		serviceURL: cfg.ASR.ServiceURL,
	}
}

type transcribeRequest struct {
	AudioRef   string `json:"audio_ref"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

type transcribeResponse struct {
	Segments []struct {
		StartMs    int64    `json:"start_ms"`
		EndMs      int64    `json:"end_ms"`
		Text       string   `json:"text"`
		Speaker    *string  `json:"speaker,omitempty"`
		Confidence *float64 `json:"confidence,omitempty"`
	} `json:"segments"`
}

func (c *Client) Transcribe(ctx context.Context, audioRef string, durationHint time.Duration) ([]*models.TranscriptSegment, error) {
	reqBody := transcribeRequest{
		AudioRef: audioRef,
	}
	if durationHint > 0 {
		reqBody.DurationMs = durationHint.Milliseconds()
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "asr.Transcribe.Marshal")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "asr.Transcribe.NewRequest")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "asr.Transcribe.Do")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorSnippetLimit))
		return nil, fmt.Errorf("asr service returned %d: %s", resp.StatusCode, snippet)
	}

	var decoded transcribeResponse
	if err = json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "asr.Transcribe.Decode")
	}

	segments := make([]*models.TranscriptSegment, 0, len(decoded.Segments))
	for _, s := range decoded.Segments {
		segments = append(segments, &models.TranscriptSegment{
			StartMs:    s.StartMs,
			EndMs:      s.EndMs,
			Text:       s.Text,
			Speaker:    s.Speaker,
			Confidence: s.Confidence,
		})
	}
	return segments, nil
}
