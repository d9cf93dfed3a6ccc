package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webandapp/institute-api/internal/service"
	"github.com/webandapp/institute-api/pkg/response"
)

// DashboardHandler exposes the admin dashboard.
type DashboardHandler struct {
	dashboard *service.DashboardService
	metrics   *service.MetricsService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService, metrics *service.MetricsService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, metrics: metrics}
}

// Summary godoc
// @Summary Admin dashboard summary
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	summary, cached, err := h.dashboard.Summary(c.Request.Context(), claims.SchoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil, map[string]interface{}{"cache_hit": cached})
}

// System godoc
// @Summary Runtime metrics snapshot
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/system [get]
func (h *DashboardHandler) System(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
