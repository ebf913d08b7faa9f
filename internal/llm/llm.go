// Package llm wraps the remote text-generation providers behind Generator.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"google.golang.org/genai"

	"bizkit/pkg/circuitbreaker"
	"bizkit/pkg/metrics"
)

// Generator turns one request into raw model text. Implementations make a
// single upstream call and never retry.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type Request struct {
	System string
	Prompt string
	Options
}

// SafetyLevel is the block threshold applied to every harm category.
// Providers without safety settings ignore it.
type SafetyLevel string

const (
	SafetyDefault       SafetyLevel = ""
	SafetyBlockNone     SafetyLevel = "block_none"
	SafetyBlockLow      SafetyLevel = "block_low_and_above"
	SafetyBlockMedium   SafetyLevel = "block_medium_and_above"
	SafetyBlockOnlyHigh SafetyLevel = "block_only_high"
)

// Options are sampling parameters. Nil pointers and zero values leave the
// provider default in place.
type Options struct {
	Model       string
	Temperature *float32
	TopP        *float32
	TopK        *int32
	MaxTokens   int32
	Safety      SafetyLevel
}

func Float32(v float32) *float32 { return &v }
func Int32(v int32) *int32       { return &v }

type Kind string

const (
	KindQuotaExceeded Kind = "quota_exceeded"
	KindAuthInvalid   Kind = "auth_invalid"
	KindNetworkError  Kind = "network_error"
	KindUnknown       Kind = "unknown"
)

var (
	ErrNotConfigured = errors.New("generation provider not configured")
	ErrEmptyResponse = errors.New("provider returned an empty response")
)

// Error is a classified provider failure.
type Error struct {
	Provider string
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind carried by err, classifying it if needed.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Classify(err)
}

// Classify maps a provider or transport error to a Kind. Typed status codes
// win; message matching is the last resort.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}

	var oaErr *openai.Error
	if errors.As(err, &oaErr) {
		if k := classifyStatus(oaErr.StatusCode, ""); k != "" {
			return k
		}
	}

	var gErr genai.APIError
	if errors.As(err, &gErr) {
		if k := classifyStatus(gErr.Code, gErr.Status); k != "" {
			return k
		}
		if strings.Contains(strings.ToLower(gErr.Message), "api key") {
			return KindAuthInvalid
		}
	}
	var gErrPtr *genai.APIError
	if errors.As(err, &gErrPtr) && gErrPtr != nil {
		if k := classifyStatus(gErrPtr.Code, gErrPtr.Status); k != "" {
			return k
		}
	}

	if errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen) || errors.Is(err, context.DeadlineExceeded) {
		return KindNetworkError
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetworkError
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetworkError
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key"):
		return KindAuthInvalid
	case strings.Contains(msg, "quota"):
		return KindQuotaExceeded
	case strings.Contains(msg, "network"):
		return KindNetworkError
	}
	return KindUnknown
}

func classifyStatus(code int, status string) Kind {
	switch {
	case code == 401 || code == 403 || status == "UNAUTHENTICATED" || status == "PERMISSION_DENIED":
		return KindAuthInvalid
	case code == 429 || status == "RESOURCE_EXHAUSTED":
		return KindQuotaExceeded
	case code == 502 || code == 503 || code == 504 || status == "UNAVAILABLE":
		return KindNetworkError
	}
	return ""
}

func observeSuccess(provider string, start time.Time) {
	metrics.RecordAICallLatency(provider, "success", time.Since(start))
}

// wrap classifies err and records call latency for provider.
func wrap(provider string, start time.Time, err error) error {
	kind := KindOf(err)
	metrics.RecordAICallLatency(provider, string(kind), time.Since(start))
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Provider: provider, Kind: kind, Err: err}
}
