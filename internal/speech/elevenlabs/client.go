package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"topicast/internal/speech"
	"topicast/pkg/httputil"
)

const (
	baseURL      = "https://api.elevenlabs.io/v1"
	timeout      = 120 * time.Second
	defaultModel = "eleven_multilingual_v2"
	outputFormat = "mp3_44100_128"
)

// Models that accept an explicit language_code. Others reject the field.
var languageModels = []string{"eleven_turbo_v2_5", "eleven_flash_v2_5"}

type Client struct {
	apiKeys    []string
	keyIndex   uint64
	httpClient *httputil.RetryClient
	voiceID    string
	model      string
	baseURL    string
	stability  float64
	similarity float64
}

type Config struct {
	APIKeys    []string
	VoiceID    string
	Model      string
	Stability  float64
	Similarity float64
}

type option func(*Client)

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type request struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	LanguageCode  string        `json:"language_code,omitempty"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

func withBaseURL(url string) option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func withHTTPClient(client *http.Client) option {
	return func(c *Client) {
		c.httpClient = httputil.NewRetryClient(client, httputil.DefaultPolicy())
	}
}

func NewClient(cfg Config) speech.Provider {
	return newClient(cfg)
}

func newClient(cfg Config, opts ...option) *Client {
	keys := cfg.APIKeys
	if len(keys) == 0 {
		keys = []string{""}
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	c := &Client{
		apiKeys:    keys,
		httpClient: httputil.NewRetryClient(&http.Client{Timeout: timeout}, httputil.DefaultPolicy()),
		voiceID:    cfg.VoiceID,
		model:      model,
		baseURL:    baseURL,
		stability:  cfg.Stability,
		similarity: cfg.Similarity,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SplitKeys parses a comma separated key list, dropping blanks.
func SplitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func (c *Client) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	endpoint := c.buildURL()

	startKey := c.nextAPIKey()
	audio, err := c.doRequestWithKey(ctx, endpoint, text, language, startKey)
	if err == nil {
		return audio, nil
	}
	if !isQuotaError(err) {
		return nil, err
	}

	for i := 1; i < len(c.apiKeys); i++ {
		key := c.getKeyAtOffset(i)
		if key == startKey {
			continue
		}
		audio, err = c.doRequestWithKey(ctx, endpoint, text, language, key)
		if err == nil {
			return audio, nil
		}
		if !isQuotaError(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("all API keys exhausted: %w", err)
}

func (c *Client) nextAPIKey() string {
	if len(c.apiKeys) == 1 {
		return c.apiKeys[0]
	}
	idx := atomic.AddUint64(&c.keyIndex, 1)
	return c.apiKeys[idx%uint64(len(c.apiKeys))]
}

func (c *Client) getKeyAtOffset(offset int) string {
	idx := atomic.LoadUint64(&c.keyIndex)
	return c.apiKeys[(idx+uint64(offset))%uint64(len(c.apiKeys))]
}

func (c *Client) doRequestWithKey(ctx context.Context, endpoint, text, language, apiKey string) ([]byte, error) {
	req, err := c.buildRequest(ctx, endpoint, text, language, apiKey)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs: %s - %s", resp.Status, strings.TrimSpace(string(body)))
	}

	audio, err := speech.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	return audio, nil
}

func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "quota_exceeded") ||
		strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "429")
}

func (c *Client) buildURL() string {
	return fmt.Sprintf("%s/text-to-speech/%s?output_format=%s",
		strings.TrimRight(c.baseURL, "/"), url.PathEscape(c.voiceID), outputFormat)
}

func (c *Client) buildRequest(ctx context.Context, endpoint, text, language, apiKey string) (*http.Request, error) {
	payload := request{
		Text:    text,
		ModelID: c.model,
		VoiceSettings: voiceSettings{
			Stability:       c.stability,
			SimilarityBoost: c.similarity,
		},
	}
	if supportsLanguage(c.model) {
		payload.LanguageCode = language
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", speech.Encoding)
	req.Header.Set("xi-api-key", apiKey)

	return req, nil
}

func supportsLanguage(model string) bool {
	for _, m := range languageModels {
		if strings.HasPrefix(model, m) {
			return true
		}
	}
	return false
}
