package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const (
	ProviderGemini     = "gemini"
	DefaultGeminiModel = "gemini-2.0-flash"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini generates text with Google's Gemini API.
type Gemini struct {
	models contentGenerator
	model  string
}

// NewGemini returns ErrNotConfigured when apiKey is empty.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{models: client.Models, model: model}, nil
}

var harmCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

func threshold(level SafetyLevel) (genai.HarmBlockThreshold, bool) {
	switch level {
	case SafetyBlockNone:
		return genai.HarmBlockThresholdBlockNone, true
	case SafetyBlockLow:
		return genai.HarmBlockThresholdBlockLowAndAbove, true
	case SafetyBlockMedium:
		return genai.HarmBlockThresholdBlockMediumAndAbove, true
	case SafetyBlockOnlyHigh:
		return genai.HarmBlockThresholdBlockOnlyHigh, true
	}
	return "", false
}

func generateConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     req.Temperature,
		TopP:            req.TopP,
		MaxOutputTokens: req.MaxTokens,
	}
	if req.TopK != nil {
		cfg.TopK = genai.Ptr(float32(*req.TopK))
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(req.System)}}
	}
	if t, ok := threshold(req.Safety); ok {
		for _, c := range harmCategories {
			cfg.SafetySettings = append(cfg.SafetySettings, &genai.SafetySetting{Category: c, Threshold: t})
		}
	}
	return cfg
}

func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = g.model
	}
	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	resp, err := g.models.GenerateContent(ctx, model, contents, generateConfig(req))
	if err != nil {
		return "", wrap(ProviderGemini, start, err)
	}
	text := ""
	if resp != nil {
		text = resp.Text()
	}
	if text == "" {
		return "", wrap(ProviderGemini, start, &Error{Provider: ProviderGemini, Kind: KindUnknown, Err: ErrEmptyResponse})
	}
	observeSuccess(ProviderGemini, start)
	return text, nil
}
