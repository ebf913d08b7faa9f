package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bizkit/internal/assets"
	"bizkit/internal/repository"
	"bizkit/internal/service"
	"bizkit/pkg/config"
)

// Deps is everything the HTTP surface needs. EmailLogs may be nil.
type Deps struct {
	Server    config.ServerConfig
	Logger    *zap.Logger
	Health    *Health
	Auth      *service.AuthService
	Website   *service.WebsiteService
	Email     *service.EmailService
	Chat      *service.ChatService
	Delivery  *service.DeliveryService
	Assets    *assets.Service
	EmailLogs repository.EmailLogStore
}

type Router struct {
	Engine *gin.Engine
}

var availableEndpoints = []string{
	"GET /",
	"GET /health",
	"GET /metrics",
	"POST /generate (website)",
	"POST /api/generate-email",
	"POST /api/generate-bulk-emails",
	"GET /api/templates",
	"POST /send-email",
	"POST /test-email",
	"POST /validate-emails",
	"POST /api/recipients/parse",
	"POST /chat",
	"GET /chat/history",
	"POST /api/auth/*",
	"GET /api/auth/me",
	"/api/notes, /api/tables, /api/assets (auth)",
	"GET /api/emails/logs (auth)",
}

func NewRouter(d Deps) *Router {
	dev := d.Server.DevMode
	if d.Health == nil {
		d.Health = &Health{}
	}
	if !dev {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware(), MetricsMiddleware(), CORSMiddleware(d.Server), BodyLimit(d.Server.BodyLimit))

	authHandler := NewAuthHandler(d.Auth, d.Logger, dev)
	generateHandler := NewGenerateHandler(d.Website, d.Email, d.Logger, dev)
	chatHandler := NewChatHandler(d.Chat, d.Logger, dev)
	mailHandler := NewMailHandler(d.Delivery, d.Logger, dev)
	assetsHandler := NewAssetsHandler(d.Assets, d.Logger, dev)
	emailQueryHandler := NewEmailQueryHandler(d.EmailLogs, d.Logger, dev)

	// Health endpoints (放在最前面)
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Backend is working")
	})
	r.GET("/health", d.Health.Handle)
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/api/auth/signup", authHandler.Signup)
	r.POST("/api/auth/signin", authHandler.Signin)

	r.POST("/generate", generateHandler.Website)
	r.POST("/api/generate-email", generateHandler.Email)
	r.POST("/api/generate-bulk-emails", generateHandler.BulkEmails)
	r.GET("/api/templates", generateHandler.Templates)

	r.POST("/chat", chatHandler.Chat)
	r.GET("/chat/history", chatHandler.History)

	r.POST("/send-email", mailHandler.Send)
	r.POST("/test-email", mailHandler.Test)
	r.POST("/validate-emails", mailHandler.Validate)
	r.POST("/api/recipients/parse", mailHandler.ParseRecipients)

	// Protected
	auth := r.Group("/api")
	auth.Use(AuthMiddleware(d.Auth))
	{
		auth.GET("/auth/me", authHandler.Me)

		auth.GET("/notes", assetsHandler.ListNotes)
		auth.POST("/notes", assetsHandler.CreateNote)
		auth.PUT("/notes/:id", assetsHandler.UpdateNote)
		auth.DELETE("/notes/:id", assetsHandler.DeleteNote)

		auth.GET("/tables", assetsHandler.ListTables)
		auth.POST("/tables", assetsHandler.CreateTable)
		auth.DELETE("/tables/:id", assetsHandler.DeleteTable)
		auth.POST("/tables/:id/rows", assetsHandler.AddRow)
		auth.PUT("/tables/:id/cells", assetsHandler.UpdateCell)

		auth.GET("/assets", assetsHandler.ListAssets)
		auth.POST("/assets", assetsHandler.Upload)
		auth.GET("/assets/:id", assetsHandler.Download)
		auth.DELETE("/assets/:id", assetsHandler.DeleteAsset)

		auth.GET("/emails/logs", emailQueryHandler.GetLogs)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":              "Endpoint not found",
			"message":            fmt.Sprintf("The endpoint %s %s was not found", c.Request.Method, c.Request.URL.Path),
			"kind":               "not_found",
			"availableEndpoints": availableEndpoints,
		})
	})

	return &Router{Engine: r}
}
