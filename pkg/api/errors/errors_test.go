package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/recoverydesk/pkg/domain"
	"github.com/jordanlanch/recoverydesk/pkg/logger"
	"github.com/jordanlanch/recoverydesk/pkg/models"
)

// newContext creates an echo.Context backed by an httptest.NewRecorder.
func newContext(method, path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRespondMapsDomainCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"validation", domain.NewValidationError("no cases selected"), http.StatusBadRequest, "validation_error", "no cases selected"},
		{"not found", domain.NewNotFoundError("team"), http.StatusNotFound, "not_found", "team not found"},
		{"conflict", domain.NewConflictError("case was modified concurrently", errors.New("cas")), http.StatusConflict, "conflict", "case was modified concurrently"},
		{"forbidden", domain.NewForbiddenError("telecallers cannot run bulk operations"), http.StatusForbidden, "forbidden", ""},
		{"unauthorized", domain.NewUnauthorizedError(), http.StatusUnauthorized, "unauthorized", ""},
		{"internal", domain.NewInternalError(errors.New("pq: connection refused")), http.StatusInternalServerError, "internal_error", ""},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/api/v1/teams/1/metrics")
			require.NoError(t, Respond(c, tt.err))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

			body := parseBody(t, rec)
			assert.Equal(t, tt.wantCode, body.Error)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body.Message)
			}
		})
	}
}

func TestInternalErrorHidesDetailsAndLogs(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(logger.NewWithWriter(&buf, "debug"))
	defer SetLogger(logger.Nop())

	c, rec := newContext(http.MethodPost, "/api/v1/cases/bulk")
	require.NoError(t, InternalError(c, errors.New("pq: password authentication failed")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
	assert.Contains(t, buf.String(), "pq: password authentication failed")
	assert.Contains(t, buf.String(), "/api/v1/cases/bulk")
}

func TestNotFoundDefaultMessage(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/x")
	require.NoError(t, NotFoundError(c, ""))
	assert.Equal(t, "The requested resource was not found.", parseBody(t, rec).Message)
}

func TestRespondIncludesValidationFields(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/api/v1/payments")
	require.NoError(t, Respond(c, domain.NewFieldsError(map[string]string{"amount": "gt=0"})))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := parseBody(t, rec)
	assert.Equal(t, "validation_error", body.Error)
	assert.Equal(t, map[string]string{"amount": "gt=0"}, body.Fields)
}
