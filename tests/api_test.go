package tests

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"classipost/internal/adapter/api/handler"
	"classipost/internal/adapter/api/router"
)

func TestHealthCheck(t *testing.T) {
	e := echo.New()
	router.SetupHealthRouter(e, handler.NewHealthHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
