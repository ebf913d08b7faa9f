package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bizkit/internal/apperr"
	"bizkit/internal/mailer"
	"bizkit/internal/model"
	"bizkit/internal/service"
)

// addressList accepts either "a@x.com, b@y.com" or ["a@x.com", "b@y.com"].
type addressList []string

func (l *addressList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*l = mailer.SplitAddresses(s)
	return nil
}

type MailHandler struct {
	responder
	deliveryService *service.DeliveryService
}

func NewMailHandler(deliveryService *service.DeliveryService, logger *zap.Logger, dev bool) *MailHandler {
	return &MailHandler{
		responder:       responder{logger: logger, dev: dev},
		deliveryService: deliveryService,
	}
}

// Send handles POST /send-email
func (h *MailHandler) Send(c *gin.Context) {
	var req struct {
		To      addressList `json:"to"`
		Subject string      `json:"subject"`
		HTML    string      `json:"html"`
		Text    string      `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	res, err := h.deliveryService.Send(c.Request.Context(), service.SendRequest{
		To:             req.To,
		Subject:        req.Subject,
		HTML:           req.HTML,
		Text:           req.Text,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Test handles POST /test-email
func (h *MailHandler) Test(c *gin.Context) {
	if err := h.deliveryService.Verify(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Email service is properly configured and ready to send emails",
	})
}

// Validate handles POST /validate-emails
func (h *MailHandler) Validate(c *gin.Context) {
	var req struct {
		Emails addressList `json:"emails"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if len(req.Emails) == 0 {
		h.fail(c, apperr.Validation("Emails are required"))
		return
	}
	c.JSON(http.StatusOK, mailer.ValidateAddresses(req.Emails))
}

// ParseRecipients handles POST /api/recipients/parse
func (h *MailHandler) ParseRecipients(c *gin.Context) {
	var req struct {
		Input    string            `json:"input"`
		Existing []model.Recipient `json:"existing"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	added := mailer.ParseRecipients(req.Input, req.Existing)
	if added == nil {
		added = []model.Recipient{}
	}
	c.JSON(http.StatusOK, gin.H{
		"added":      added,
		"recipients": append(append([]model.Recipient{}, req.Existing...), added...),
	})
}
