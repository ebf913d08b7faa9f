package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bizkit/internal/prompt"
	"bizkit/internal/service"
	"bizkit/pkg/logger"
)

type GenerateHandler struct {
	responder
	websiteService *service.WebsiteService
	emailService   *service.EmailService
}

func NewGenerateHandler(website *service.WebsiteService, email *service.EmailService, logger *zap.Logger, dev bool) *GenerateHandler {
	return &GenerateHandler{
		responder:      responder{logger: logger, dev: dev},
		websiteService: website,
		emailService:   email,
	}
}

// Website handles POST /generate. The body carries either a free-form
// prompt or a structured brief; the brief wins when both are present.
func (h *GenerateHandler) Website(c *gin.Context) {
	var req struct {
		Prompt string               `json:"prompt"`
		Brief  *prompt.WebsiteBrief `json:"brief"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	logger.WithTrace(c.Request.Context(), h.logger).Info("Website generation request received",
		zap.Bool("brief", req.Brief != nil),
		zap.Int("prompt_length", len(req.Prompt)),
	)

	ctx := c.Request.Context()
	var (
		site any
		err  error
	)
	if req.Brief != nil {
		site, err = h.websiteService.GenerateFromBrief(ctx, *req.Brief)
	} else {
		site, err = h.websiteService.Generate(ctx, req.Prompt)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}

// Email handles POST /api/generate-email
func (h *GenerateHandler) Email(c *gin.Context) {
	var req prompt.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	logger.WithTrace(c.Request.Context(), h.logger).Info("Email generation request received",
		zap.String("email_type", req.Type),
		zap.String("tone", req.Tone),
	)

	content, err := h.emailService.Generate(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, content)
}

// BulkEmails handles POST /api/generate-bulk-emails
func (h *GenerateHandler) BulkEmails(c *gin.Context) {
	var req struct {
		Topics    []string `json:"topics"`
		EmailType string   `json:"emailType"`
		Tone      string   `json:"tone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	results, err := h.emailService.GenerateBulk(c.Request.Context(), req.Topics, req.EmailType, req.Tone)
	if err != nil && results == nil {
		h.fail(c, err)
		return
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"results":   results,
		"total":     len(req.Topics),
		"succeeded": succeeded,
		"completed": err == nil,
	})
}

// Templates handles GET /api/templates
func (h *GenerateHandler) Templates(c *gin.Context) {
	c.JSON(http.StatusOK, prompt.Catalog())
}
