package handlers

import (
	xhttp "github.com/nimasrn/time-capsule/pkg/http"
	"github.com/nimasrn/time-capsule/pkg/logger"
)

type HealthService interface {
	Get() error
}

type HealthHandler struct {
	healthService HealthService
	version       string
}

func RegisterHealthRoutes(r *xhttp.Router, g *xhttp.Group, h *HealthHandler) {
	r.GET("/", h.Welcome)
	g.GET("/health", h.GetHealth)
}

func NewHealthHandler(healthService HealthService, version string) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
		version:       version,
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	if err := h.healthService.Get(); err != nil {
		logger.Warn("health check failed", "error", err)
		xhttp.JSON(ctx, xhttp.StatusServiceUnavailable, healthResponse{Status: "unavailable", Database: "down"})
		return
	}
	xhttp.JSON(ctx, xhttp.StatusOK, healthResponse{Status: "ok", Database: "ok"})
}

func (h *HealthHandler) Welcome(ctx *xhttp.RequestCtx) {
	xhttp.SuccessJSON(ctx, xhttp.StatusOK, map[string]interface{}{
		"name":    "time-capsule",
		"version": h.version,
		"endpoints": []string{
			"GET /api/health",
			"GET|POST /api/children",
			"GET|PUT|DELETE /api/children/{id}",
			"GET /api/children/{id}/messages",
			"GET|POST /api/messages",
			"GET|PUT|DELETE /api/messages/{id}",
		},
	}, "Welcome to the time capsule API")
}
