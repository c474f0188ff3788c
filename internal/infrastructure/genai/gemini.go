// Package genai calls the Gemini generative-language API.
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/infrastructure/config"
	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/option"
)

const serviceName = "gemini"

// ErrNotConfigured is wrapped by the disabled generator
var ErrNotConfigured = errors.New("generative-language API key is not configured")

// TextGenerator turns a prompt into text
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Params tune one generator
type Params struct {
	Temperature     float64
	MaxOutputTokens int64
}

// ChatParams returns the chat assistant settings from cfg
func ChatParams(cfg config.GenAIConfig) Params {
	return Params{Temperature: cfg.ChatTemperature, MaxOutputTokens: cfg.ChatMaxTokens}
}

// ReportParams returns the narrative generator settings from cfg
func ReportParams(cfg config.GenAIConfig) Params {
	return Params{Temperature: cfg.ReportTemperature, MaxOutputTokens: cfg.ReportMaxTokens}
}

// Gemini generates text with one model and fixed params
type Gemini struct {
	models  *generativelanguage.ModelsService
	model   string
	params  Params
	timeout time.Duration
}

// NewGemini creates a generator. Extra options are appended after the API key.
func NewGemini(ctx context.Context, cfg config.GenAIConfig, params Params, opts ...option.ClientOption) (*Gemini, error) {
	svc, err := generativelanguage.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create generative-language client: %w", err)
	}
	return &Gemini{
		models:  svc.Models,
		model:   modelName(cfg.Model),
		params:  params,
		timeout: cfg.Timeout,
	}, nil
}

// New returns a Gemini generator, or a Disabled one when no key is set
func New(ctx context.Context, cfg config.GenAIConfig, params Params) (TextGenerator, error) {
	if cfg.APIKey == "" {
		return Disabled{}, nil
	}
	return NewGemini(ctx, cfg, params)
}

// Generate sends prompt as a single user turn and joins the text parts of
// the first candidate
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req := &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{{
			Role:  "user",
			Parts: []*generativelanguage.Part{{Text: prompt}},
		}},
		GenerationConfig: &generativelanguage.GenerationConfig{
			Temperature:     g.params.Temperature,
			MaxOutputTokens: g.params.MaxOutputTokens,
			ForceSendFields: []string{"Temperature"},
		},
	}

	resp, err := g.models.GenerateContent(g.model, req).Context(ctx).Do()
	if err != nil {
		return "", shared.NewExternalServiceError(serviceName, err)
	}
	text := firstText(resp)
	if text == "" {
		return "", shared.NewExternalServiceError(serviceName, errors.New("response has no text"))
	}
	return text, nil
}

func firstText(resp *generativelanguage.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func modelName(model string) string {
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

// Disabled fails every call
type Disabled struct{}

// Generate always returns an ExternalServiceError
func (Disabled) Generate(context.Context, string) (string, error) {
	return "", shared.NewExternalServiceError(serviceName, ErrNotConfigured)
}
