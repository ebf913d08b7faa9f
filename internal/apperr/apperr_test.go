package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:          http.StatusBadRequest,
		KindConflict:            http.StatusConflict,
		KindUnauthorized:        http.StatusUnauthorized,
		KindNotFound:            http.StatusNotFound,
		KindUpstreamAuth:        http.StatusUnauthorized,
		KindUpstreamQuota:       http.StatusTooManyRequests,
		KindUpstreamNetwork:     http.StatusServiceUnavailable,
		KindUpstreamParse:       http.StatusBadGateway,
		KindMailTransport:       http.StatusInternalServerError,
		KindDatabaseUnavailable: http.StatusServiceUnavailable,
		KindServiceUnavailable:  http.StatusServiceUnavailable,
		KindInternal:            http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(kind), kind)
	}
}

func TestKindOf_ThroughWrapping(t *testing.T) {
	base := errors.New("dial tcp: refused")
	err := fmt.Errorf("signup: %w", Wrap(KindDatabaseUnavailable, "Database unavailable", base))

	assert.Equal(t, KindDatabaseUnavailable, KindOf(err))
	assert.True(t, Is(err, KindDatabaseUnavailable))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Contains(t, err.Error(), "database_unavailable")
}
