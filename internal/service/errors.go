package service

import (
	"errors"

	"bizkit/internal/apperr"
	"bizkit/internal/llm"
	"bizkit/internal/normalize"
	"bizkit/internal/repository"
)

// upstreamErr maps a generation failure to the user-facing taxonomy.
func upstreamErr(err error) error {
	if errors.Is(err, llm.ErrNotConfigured) {
		return apperr.Wrap(apperr.KindServiceUnavailable, "AI service not configured", err)
	}
	var pe *normalize.ParseError
	if errors.As(err, &pe) {
		return &apperr.Error{
			Kind:    apperr.KindUpstreamParse,
			Message: "Invalid JSON response from model.",
			Err:     err,
			Detail:  pe.Raw,
		}
	}
	switch llm.KindOf(err) {
	case llm.KindAuthInvalid:
		return apperr.Wrap(apperr.KindUpstreamAuth, "Invalid or missing API key", err)
	case llm.KindQuotaExceeded:
		return apperr.Wrap(apperr.KindUpstreamQuota, "API quota exceeded. Please try again later", err)
	case llm.KindNetworkError:
		return apperr.Wrap(apperr.KindUpstreamNetwork, "Network error. Please check your connection", err)
	default:
		return apperr.Wrap(apperr.KindInternal, "Failed to generate content", err)
	}
}

// dbErr separates an unreachable database from other repository failures.
func dbErr(err error) error {
	if repository.IsUnavailable(err) {
		return apperr.Wrap(apperr.KindDatabaseUnavailable, "Database unavailable. Please try again later", err)
	}
	return apperr.Wrap(apperr.KindInternal, "Server error.", err)
}

// generationStatus is the metrics label for a finished generation.
func generationStatus(err error) string {
	if err == nil {
		return "success"
	}
	return string(apperr.KindOf(err))
}
