package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/huayan-lab/labtrack/internal/lab/service"
)

// DashboardHandler 看板处理器
type DashboardHandler struct {
	svc *service.DashboardService
}

// NewDashboardHandler 创建看板处理器
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Overview 看板总览，按角色可见阶段过滤
// GET /api/v1/dashboard/overview
func (h *DashboardHandler) Overview(c *gin.Context) {
	overview, err := h.svc.GetOverview(c.Request.Context(), GetUserRole(c))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, overview)
}
