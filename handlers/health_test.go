package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthHandlerHealth(t *testing.T) {
	handler := NewHealthHandler("test", func() error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()

	handler.Health(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	body := rr.Body.String()
	for _, key := range []string{"status", "env", "uptime", "go_version", "db_status"} {
		assert.Contains(t, body, key)
	}
}

func TestHealthHandlerDatabaseDown(t *testing.T) {
	handler := NewHealthHandler("test", func() error { return errors.New("injoignable") })

	rr := httptest.NewRecorder()
	handler.Health(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"db_status":"error"`)
}
