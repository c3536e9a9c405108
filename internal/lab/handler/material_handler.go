package handler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/huayan-lab/labtrack/internal/lab/repository"
	"github.com/huayan-lab/labtrack/internal/lab/service"
	"github.com/huayan-lab/labtrack/internal/lab/workflow"
)

// MaterialHandler 材料处理器
type MaterialHandler struct {
	svc    *service.MaterialService
	export *service.ExportService
}

// NewMaterialHandler 创建材料处理器
func NewMaterialHandler(svc *service.MaterialService, export *service.ExportService) *MaterialHandler {
	return &MaterialHandler{svc: svc, export: export}
}

// transitionError 流转错误统一转HTTP响应
func transitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrTerminal):
		Conflict(c, err.Error())
	case errors.Is(err, repository.ErrVersionConflict):
		Conflict(c, err.Error())
	case errors.Is(err, workflow.ErrUnauthorized):
		Forbidden(c, err.Error())
	case errors.Is(err, workflow.ErrMissingEvidence):
		UnprocessableEntity(c, err.Error())
	case errors.Is(err, workflow.ErrInvalidDecision),
		errors.Is(err, workflow.ErrInvalidStage),
		errors.Is(err, workflow.ErrInvalidState):
		BadRequest(c, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "material not found")
	default:
		InternalError(c, err.Error())
	}
}

// Create 登记收样
// POST /api/v1/materials
func (h *MaterialHandler) Create(c *gin.Context) {
	var req service.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	m, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Created(c, m)
}

// Get 材料详情
// GET /api/v1/materials/:id
func (h *MaterialHandler) Get(c *gin.Context) {
	m, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "material not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, m)
}

// Scan 扫码查材料
// GET /api/v1/materials/scan/:code
func (h *MaterialHandler) Scan(c *gin.Context) {
	m, err := h.svc.ScanByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "material not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, m)
}

// List 材料列表，按角色可见阶段过滤
// GET /api/v1/materials
func (h *MaterialHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":        c.Query("status"),
		"material_type": c.Query("material_type"),
		"customer_name": c.Query("customer_name"),
	}

	items, total, err := h.svc.List(c.Request.Context(), GetUserRole(c), page, pageSize, c.Query("stage"), filters)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// Transition 推进/驳回流转
// POST /api/v1/materials/:id/transition
func (h *MaterialHandler) Transition(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	m, err := h.svc.Transition(c.Request.Context(), c.Param("id"), GetUserID(c), GetUserRole(c), &req)
	if err != nil {
		transitionError(c, err)
		return
	}

	Success(c, m)
}

// ForceState 管理员强制改状态
// POST /api/v1/materials/:id/force-state
func (h *MaterialHandler) ForceState(c *gin.Context) {
	var req service.ForceStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	m, err := h.svc.ForceState(c.Request.Context(), c.Param("id"), GetUserID(c), GetUserRole(c), &req)
	if err != nil {
		transitionError(c, err)
		return
	}

	Success(c, m)
}

// History 材料操作日志
// GET /api/v1/materials/:id/history
func (h *MaterialHandler) History(c *gin.Context) {
	page, pageSize := GetPagination(c)

	items, total, err := h.svc.History(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// Export 导出材料台账
// GET /api/v1/materials/export
func (h *MaterialHandler) Export(c *gin.Context) {
	f, fileName, err := h.export.ExportMaterials(c.Request.Context(), GetUserRole(c), c.Query("stage"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, err.Error())
	}
}
