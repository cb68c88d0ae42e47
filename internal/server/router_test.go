package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallery-core/internal/handler"
	"gallery-core/pkg/monitor"
)

// Replays the server main's startup order: business metrics first, then the
// router (which inits monitoring again). Building the engine must not panic
// and the base routes must answer.
func TestNewHTTPRouterAfterMainInitSequence(t *testing.T) {
	gin.SetMode(gin.TestMode)

	monitor.InitBusinessMetrics()

	var r *gin.Engine
	require.NotPanics(t, func() {
		r = NewHTTPRouter(
			handler.NewCollectHandler(nil),
			handler.NewSettlementHandler(nil),
		)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gallery_partial_settlement_total")
}
