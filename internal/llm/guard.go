package llm

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"bizkit/pkg/circuitbreaker"
)

// Guarded short-circuits calls to a provider that keeps failing. It does not
// retry: every Generate makes at most one upstream call.
type Guarded struct {
	next     Generator
	cb       *circuitbreaker.CircuitBreaker
	provider string
}

// BreakerConfig 熔断器配置：只有网络类和未知错误才计入失败
func BreakerConfig(provider string, logger *zap.Logger) circuitbreaker.Config {
	cfg := circuitbreaker.DefaultConfig(provider)
	cfg.FailureThreshold = 3    // 连续失败3次后打开
	cfg.HalfOpenMaxRequests = 2 // 半开状态下最多允许2个请求
	cfg.IsFailure = func(err error) bool {
		switch KindOf(err) {
		case KindNetworkError, KindUnknown:
			return !errors.Is(err, context.Canceled)
		}
		return false
	}
	if logger != nil {
		cfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
			logger.Warn("generation circuit breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}
	}
	return cfg
}

// Guard wraps gen with cb. An open breaker surfaces as a network_error.
func Guard(provider string, gen Generator, cb *circuitbreaker.CircuitBreaker) *Guarded {
	return &Guarded{next: gen, cb: cb, provider: provider}
}

func (g *Guarded) Generate(ctx context.Context, req Request) (string, error) {
	var out string
	err := g.cb.Execute(func() error {
		var genErr error
		out, genErr = g.next.Generate(ctx, req)
		return genErr
	})
	if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) {
		return "", &Error{Provider: g.provider, Kind: KindNetworkError, Err: err}
	}
	return out, err
}

// State reports the breaker state for health checks.
func (g *Guarded) State() circuitbreaker.State {
	return g.cb.GetState()
}
