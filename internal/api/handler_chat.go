package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bizkit/internal/apperr"
	"bizkit/internal/normalize"
	"bizkit/internal/repository"
	"bizkit/internal/service"
)

type ChatHandler struct {
	responder
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService, logger *zap.Logger, dev bool) *ChatHandler {
	return &ChatHandler{
		responder:   responder{logger: logger, dev: dev},
		chatService: chatService,
	}
}

// Chat handles POST /chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	reply, err := h.chatService.Reply(c.Request.Context(), req.Message)
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			h.fail(c, err)
			return
		}
		h.fail(c, err, gin.H{"reply": service.ChatFallbackReply})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reply": reply,
		"lines": normalize.ChatLines(reply),
	})
}

// History handles GET /chat/history?limit=N
func (h *ChatHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	msgs, err := h.chatService.History(c.Request.Context(), repository.ClampLimit(limit))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
