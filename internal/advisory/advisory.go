// Package advisory implements the optional external recommendation service
// consulted by the coordinator. The service is non-authoritative: every
// failure is typed and recovered locally by the caller.
package advisory

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"dirhunter/internal/scan"
)

// Config holds the advisory connection settings.
type Config struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Configured reports whether credentials are present.
func (c Config) Configured() bool { return c.APIKey != "" }

// Context is the target profile snapshot submitted for analysis.
type Context struct {
	TargetURL    string            `json:"target_url"`
	Server       string            `json:"server,omitempty"`
	CMS          string            `json:"cms,omitempty"`
	TechStack    []string          `json:"tech_stack,omitempty"`
	BasePath     string            `json:"base_path,omitempty"`
	ResponseTime time.Duration     `json:"response_time_ms,omitempty"`
	Stats        map[string]int64  `json:"stats,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
}

// Recommendation is the advisory's tuning suggestion. Zero-valued fields
// mean "no opinion" and are ignored during merging.
type Recommendation struct {
	WordlistHint   string   `json:"wordlist_hint,omitempty"`
	Extensions     []string `json:"extensions,omitempty"`
	Threads        int      `json:"threads,omitempty"`
	RecursionDepth int      `json:"recursion_depth,omitempty"`
	TimeoutSec     int      `json:"timeout_sec,omitempty"`
	DelayMs        int      `json:"delay_ms,omitempty"`
	Reasoning      string   `json:"reasoning,omitempty"`
}

// Client is the one call the coordinator makes against the service.
type Client interface {
	SubmitAnalysis(ctx context.Context, ac Context) (*Recommendation, error)
	Reachable(ctx context.Context) bool
}

const systemPrompt = `You are a web content discovery assistant. Given a target
profile, respond with a single JSON object with optional keys: wordlist_hint
(one of: general, api, wordpress, joomla, drupal, backup), extensions (array
of strings without dots), threads (int), recursion_depth (int), timeout_sec
(int), delay_ms (int), reasoning (string). No prose outside the JSON.`

// OpenAIClient talks to an OpenAI-compatible endpoint.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClient builds a client from config. Model and timeout fall back
// to defaults when unset.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: timeout,
	}
}

// SubmitAnalysis sends the context and parses the recommendation. All
// failure modes (transport, timeout, malformed payload) surface as
// *scan.AdvisoryError.
func (c *OpenAIClient) SubmitAnalysis(ctx context.Context, ac Context) (*Recommendation, error) {
	payload, err := json.Marshal(ac)
	if err != nil {
		return nil, &scan.AdvisoryError{Reason: "encoding context", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, &scan.AdvisoryError{Reason: "request failed", Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &scan.AdvisoryError{Reason: "empty completion"}
	}

	rec, err := ParseRecommendation(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("model", c.model).Str("hint", rec.WordlistHint).Msg("Advisory recommendation received")
	return rec, nil
}

// Reachable probes the advisory endpoint within the configured timeout.
func (c *OpenAIClient) Reachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err := c.client.ListModels(ctx)
	return err == nil
}

// ParseRecommendation extracts the JSON object from a completion, tolerating
// surrounding prose or markdown fences.
func ParseRecommendation(text string) (*Recommendation, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, &scan.AdvisoryError{Reason: "no JSON object in response"}
	}

	var rec Recommendation
	if err := json.Unmarshal([]byte(text[start:end+1]), &rec); err != nil {
		return nil, &scan.AdvisoryError{Reason: "malformed recommendation", Err: err}
	}

	// Clamp hostile or absurd values rather than trusting them.
	if rec.Threads < 0 || rec.Threads > 50 {
		rec.Threads = 0
	}
	if rec.RecursionDepth < 0 || rec.RecursionDepth > 5 {
		rec.RecursionDepth = 0
	}
	if rec.TimeoutSec < 0 || rec.TimeoutSec > 120 {
		rec.TimeoutSec = 0
	}
	if rec.DelayMs < 0 || rec.DelayMs > 10000 {
		rec.DelayMs = 0
	}
	for i, ext := range rec.Extensions {
		rec.Extensions[i] = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	}
	return &rec, nil
}
