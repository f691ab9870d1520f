package textgen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Gemini generates text with the Gemini API GenerateContent call.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int
	logger    *slog.Logger
}

func NewGemini(ctx context.Context, cfg Config, logger *slog.Logger) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("textgen: creating gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &Gemini{client: cli, model: model, maxTokens: maxTokens, logger: logger}, nil
}

func (g *Gemini) Name() string { return ProviderGemini + ":" + g.model }

func (g *Gemini) Generate(ctx context.Context, prompt string) (Result, error) {
	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{MaxOutputTokens: int32(g.maxTokens)},
	)
	if err != nil {
		return Result{}, fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Result{}, ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return Result{}, ErrEmptyResponse
	}

	g.logger.DebugContext(ctx, "text generated",
		"model", g.model,
		"duration_ms", time.Since(start).Milliseconds())

	return Result{Text: sb.String()}, nil
}
