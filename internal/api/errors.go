package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bizkit/internal/apperr"
	"bizkit/pkg/logger"
)

// responder writes classified errors as {error, message, kind}.
type responder struct {
	logger *zap.Logger
	dev    bool
}

func (r responder) fail(c *gin.Context, err error, extra ...gin.H) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Wrap(apperr.KindInternal, "Internal server error", err)
	}
	status := apperr.HTTPStatus(ae.Kind)

	message := ae.Message
	if ae.Err != nil {
		message = ae.Err.Error()
	}
	// 生产环境不暴露内部错误细节
	if status >= http.StatusInternalServerError && ae.Kind == apperr.KindInternal && !r.dev {
		message = "Something went wrong"
	}

	body := gin.H{
		"error":   ae.Message,
		"message": message,
		"kind":    ae.Kind,
	}
	switch ae.Kind {
	case apperr.KindUpstreamParse:
		body["rawOutput"] = ae.Detail
	case apperr.KindMailTransport:
		if ae.Detail != "" {
			body["code"] = ae.Detail
		}
	}
	for _, h := range extra {
		for k, v := range h {
			body[k] = v
		}
	}

	log := logger.WithTrace(c.Request.Context(), r.logger).With(
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.String("kind", string(ae.Kind)),
		zap.Int("status", status),
	)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Error(err))
	} else {
		log.Info("Request rejected", zap.String("reason", ae.Message))
	}
	c.AbortWithStatusJSON(status, body)
}

// badRequest is for bodies that could not be decoded at all.
func (r responder) badRequest(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		r.fail(c, apperr.Wrap(apperr.KindValidation, "Request body too large", err))
		return
	}
	r.fail(c, apperr.Wrap(apperr.KindValidation, "invalid request", err))
}
