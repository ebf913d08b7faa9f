package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bizkit/internal/apperr"
	"bizkit/internal/repository"
)

type EmailQueryHandler struct {
	responder
	emailLogs repository.EmailLogStore
}

// NewEmailQueryHandler serves the delivery log. emailLogs may be nil when no
// database is configured.
func NewEmailQueryHandler(emailLogs repository.EmailLogStore, logger *zap.Logger, dev bool) *EmailQueryHandler {
	return &EmailQueryHandler{
		responder: responder{logger: logger, dev: dev},
		emailLogs: emailLogs,
	}
}

// GetLogs handles GET /api/emails/logs?limit=N
func (h *EmailQueryHandler) GetLogs(c *gin.Context) {
	if h.emailLogs == nil {
		h.fail(c, apperr.New(apperr.KindDatabaseUnavailable, "Email logs are not available"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	logs, err := h.emailLogs.List(c.Request.Context(), repository.ClampLimit(limit))
	if err != nil {
		kind := apperr.KindInternal
		if repository.IsUnavailable(err) {
			kind = apperr.KindDatabaseUnavailable
		}
		h.fail(c, apperr.Wrap(kind, "failed to fetch email logs", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs": logs,
	})
}
