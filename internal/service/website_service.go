package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"bizkit/internal/apperr"
	"bizkit/internal/llm"
	"bizkit/internal/model"
	"bizkit/internal/normalize"
	"bizkit/internal/prompt"
	"bizkit/pkg/logger"
	"bizkit/pkg/metrics"
)

type WebsiteService struct {
	gen    llm.Generator
	model  string
	logger *zap.Logger
}

func NewWebsiteService(gen llm.Generator, model string, logger *zap.Logger) *WebsiteService {
	return &WebsiteService{gen: gen, model: model, logger: logger}
}

// Generate builds a one-page site from a free-form description.
func (s *WebsiteService) Generate(ctx context.Context, description string) (site *model.GeneratedWebsite, err error) {
	defer func() { metrics.IncrementGeneration("website", generationStatus(err)) }()

	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperr.Validation("Prompt is required")
	}
	if s.gen == nil {
		return nil, upstreamErr(llm.ErrNotConfigured)
	}

	log := logger.WithTrace(ctx, s.logger)
	raw, err := s.gen.Generate(ctx, llm.Request{
		System:  prompt.WebsiteSystemPrompt,
		Prompt:  prompt.WebsiteUserPrompt(description),
		Options: llm.Options{Model: s.model},
	})
	if err != nil {
		log.Error("Website generation failed", zap.String("kind", string(llm.KindOf(err))), zap.Error(err))
		return nil, upstreamErr(err)
	}

	var out struct {
		HTML string `json:"html"`
		CSS  string `json:"css"`
	}
	if err := normalize.ExtractJSON(normalize.SanitizeModelJSON(raw), &out); err != nil {
		log.Warn("Website model returned invalid JSON", zap.Error(err))
		return nil, upstreamErr(err)
	}
	return &model.GeneratedWebsite{HTML: out.HTML, CSS: out.CSS}, nil
}

// GenerateFromBrief renders a structured brief into a description first.
func (s *WebsiteService) GenerateFromBrief(ctx context.Context, brief prompt.WebsiteBrief) (*model.GeneratedWebsite, error) {
	description, err := prompt.BuildWebsitePrompt(brief)
	if errors.Is(err, prompt.ErrBusinessNameRequired) {
		return nil, apperr.Validation("Business name is required")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "Invalid website brief", err)
	}
	return s.Generate(ctx, description)
}
