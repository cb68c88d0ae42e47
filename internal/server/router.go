package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gallery-core/internal/handler"
	"gallery-core/pkg/monitor"
)

// NewHTTPRouter builds the Gin engine with middleware, base routes and the
// settlement API.
func NewHTTPRouter(collect *handler.CollectHandler, settlements *handler.SettlementHandler) *gin.Engine {
	monitor.Init()

	r := gin.Default()

	r.Use(monitor.PrometheusMiddleware())

	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		api.POST("/collect", collect.Collect)
		api.GET("/settlements/:fingerprint", settlements.GetAttempt)
	}

	return r
}
