// Package speech synthesizes narration audio with the ElevenLabs API.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bmatch/matchbot/internal/utils"
)

const (
	apiURL         = "https://api.elevenlabs.io/v1"
	defaultVoiceID = "pNInz6obpgDQGcFmaJgB"
	defaultModelID = "eleven_v3"
	defaultTimeout = 30 * time.Second
	contentType    = "application/json"
	acceptAudio    = "audio/mpeg"
	userAgent      = "bmatch/matchbot"
	// maxErrorBody bounds the part of an error response kept for logs.
	maxErrorBody = 512
)

// Config selects the voice and output location.
type Config struct {
	BaseURL         string        `mapstructure:"base-url"`
	VoiceID         string        `mapstructure:"voice-id"`
	ModelID         string        `mapstructure:"model-id"`
	Stability       float64       `mapstructure:"stability"`
	SimilarityBoost float64       `mapstructure:"similarity-boost"`
	Timeout         time.Duration `mapstructure:"timeout"`
	TempDir         string        `mapstructure:"temp-dir"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Client talks to the text-to-speech endpoint.
type Client struct {
	token      string
	logger     *zap.Logger
	cfg        Config
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New creates a Client. Zero config values take the service defaults.
func New(logger *zap.Logger, token string, cfg Config) *Client {
	if cfg.VoiceID == "" {
		cfg.VoiceID = defaultVoiceID
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaultModelID
	}
	if cfg.Stability == 0 {
		cfg.Stability = 0.5
	}
	if cfg.SimilarityBoost == 0 {
		cfg.SimilarityBoost = 0.5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = apiURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		token:  token,
		logger: logger.Named("speech"),
		cfg:    cfg,
		HTTPClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		UserAgent: userAgent,
		APIURL:    baseURL,
	}
}

// Synthesize renders text to an mp3 file and returns its path. The caller
// owns the file and must pass it to Cleanup.
func (c *Client) Synthesize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("text must not be empty")
	}

	payload, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: c.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       c.cfg.Stability,
			SimilarityBoost: c.cfg.SimilarityBoost,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", c.APIURL, c.cfg.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	req = c.setHeaders(req)

	resp, err := c.request(req)
	if err != nil {
		return "", fmt.Errorf("text-to-speech request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("text-to-speech failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", utils.TruncateForLog(string(body), maxErrorBody)),
		)
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	f, err := os.CreateTemp(c.cfg.TempDir, "audio_summary_*.mp3")
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}

	written, err := io.Copy(f, resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		c.Cleanup(f.Name())
		return "", fmt.Errorf("write audio file: %w", err)
	}
	if written == 0 {
		c.Cleanup(f.Name())
		return "", errors.New("text-to-speech returned empty audio")
	}

	c.logger.Debug("audio synthesized", zap.String("path", f.Name()), zap.Int64("bytes", written))

	return f.Name(), nil
}

// Cleanup removes a file produced by Synthesize. Missing files are ignored.
func (c *Client) Cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("failed to remove audio file", zap.String("path", path), zap.Error(err))
	}
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("xi-api-key", c.token)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", acceptAudio)

	return req
}
