package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/stjosephms/school-site-api/internal/service"
)

// MetricsHandler exposes the Prometheus scrape endpoint.
type MetricsHandler struct {
	service *service.MetricsService
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(svc *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{service: svc}
}

// Scrape serves the registry in the Prometheus exposition format.
func (h *MetricsHandler) Scrape(c *gin.Context) {
	h.service.Handler().ServeHTTP(c.Writer, c.Request)
}
