package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

const (
	elevenLabsAPIURL = "https://api.elevenlabs.io/v1/text-to-speech"

	// DefaultTTSURL is the synthesis endpoint of the local speech service.
	DefaultTTSURL = "http://tts:8000/synthesize"
)

// Soothing delivery: slow, steady and a little quieter than normal speech.
const (
	soothingSpeed           = 0.85
	soothingVolume          = 0.8
	soothingStability       = 0.75
	soothingSimilarityBoost = 0.75
)

type TTSClient interface {
	Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error)
}

type elevenLabsClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

func NewElevenLabsClient(apiKey string, logger zerolog.Logger) TTSClient {
	return &elevenLabsClient{
		apiKey:  apiKey,
		baseURL: elevenLabsAPIURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		breaker: newBreaker[[]byte]("tts_elevenlabs", logger),
	}
}

type elevenLabsRequest struct {
	Text          string `json:"text"`
	ModelID       string `json:"model_id"`
	VoiceSettings struct {
		Stability       float64 `json:"stability"`
		SimilarityBoost float64 `json:"similarity_boost"`
	} `json:"voice_settings"`
}

func (c *elevenLabsClient) Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error) {
	if voiceID == "" {
		voiceID = "21m00Tcm4TlvDq8ikWAM" // Rachel
	}

	reqBody := elevenLabsRequest{
		Text:    text,
		ModelID: "eleven_multilingual_v2",
	}
	reqBody.VoiceSettings.Stability = soothingStability
	reqBody.VoiceSettings.SimilarityBoost = soothingSimilarityBoost

	return c.breaker.Execute(func() ([]byte, error) {
		return postJSON(ctx, c.httpClient, fmt.Sprintf("%s/%s", c.baseURL, voiceID), reqBody, map[string]string{"xi-api-key": c.apiKey})
	})
}

type localClient struct {
	url        string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

// NewLocalClient synthesizes WAV audio with the self-hosted speech service.
func NewLocalClient(url string, logger zerolog.Logger) TTSClient {
	if url == "" {
		url = DefaultTTSURL
	}
	return &localClient{
		url: url,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		breaker: newBreaker[[]byte]("tts_local", logger),
	}
}

type localRequest struct {
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
	Speed   float64 `json:"speed"`
	Volume  float64 `json:"volume"`
}

func (c *localClient) Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error) {
	reqBody := localRequest{Text: text, Speaker: voiceID, Speed: soothingSpeed, Volume: soothingVolume}
	return c.breaker.Execute(func() ([]byte, error) {
		return postJSON(ctx, c.httpClient, c.url, reqBody, nil)
	})
}

func postJSON(ctx context.Context, client *http.Client, url string, payload any, headers map[string]string) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("TTS API error: %s - %s", resp.Status, string(body))
	}
	return io.ReadAll(resp.Body)
}
