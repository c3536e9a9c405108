package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/huayan-lab/labtrack/internal/lab/repository"
	"github.com/huayan-lab/labtrack/internal/lab/service"
)

// RecordHandler 检测记录与质检记录处理器
type RecordHandler struct {
	svc *service.RecordService
}

// NewRecordHandler 创建记录处理器
func NewRecordHandler(svc *service.RecordService) *RecordHandler {
	return &RecordHandler{svc: svc}
}

// CreateTestRecord 建检测记录
// POST /api/v1/materials/:id/test-records
func (h *RecordHandler) CreateTestRecord(c *gin.Context) {
	var req service.CreateTestRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	record, err := h.svc.CreateTestRecord(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "material not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Created(c, record)
}

// ListTestRecords 材料的检测记录
// GET /api/v1/materials/:id/test-records
func (h *RecordHandler) ListTestRecords(c *gin.Context) {
	records, err := h.svc.ListTestRecords(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, records)
}

// CreateQCInspection 建质检记录
// POST /api/v1/materials/:id/qc-inspections
func (h *RecordHandler) CreateQCInspection(c *gin.Context) {
	var req service.CreateQCInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	inspection, err := h.svc.CreateQCInspection(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "material not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Created(c, inspection)
}

// ListQCInspections 材料的质检记录
// GET /api/v1/materials/:id/qc-inspections
func (h *RecordHandler) ListQCInspections(c *gin.Context) {
	inspections, err := h.svc.ListQCInspections(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, inspections)
}
