package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bizkit/pkg/circuitbreaker"
)

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) error

// Health describes what the process was started with. A nil probe means
// the dependency is not configured.
type Health struct {
	Database Probe
	Cache    Probe
	Queue    Probe

	WebsiteGeneration bool
	EmailGeneration   bool
	EmailSending      bool

	// Breakers maps a generation provider to its circuit breaker state.
	Breakers map[string]func() circuitbreaker.State

	// EnvCheck maps a credential name to "Set" or "Missing".
	EnvCheck map[string]string
}

const probeTimeout = time.Second

func probeStatus(ctx context.Context, p Probe) string {
	if p == nil {
		return "Not configured"
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := p(ctx); err != nil {
		return "Disconnected"
	}
	return "Connected"
}

func available(ok bool) string {
	if ok {
		return "Available"
	}
	return "Not configured"
}

// Handle serves GET /health. It always answers 200: the process runs even
// when dependencies are down.
func (h *Health) Handle(c *gin.Context) {
	ctx := c.Request.Context()
	c.JSON(http.StatusOK, gin.H{
		"status":    "Server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services": gin.H{
			"database":           probeStatus(ctx, h.Database),
			"website_generation": available(h.WebsiteGeneration),
			"email_generation":   available(h.EmailGeneration),
			"email_sending":      available(h.EmailSending),
			"cache":              probeStatus(ctx, h.Cache),
			"queue":              probeStatus(ctx, h.Queue),
		},
		"breakers":  h.breakerStates(),
		"env_check": h.EnvCheck,
	})
}

func (h *Health) breakerStates() map[string]string {
	out := make(map[string]string, len(h.Breakers))
	for provider, state := range h.Breakers {
		out[provider] = state().String()
	}
	return out
}
