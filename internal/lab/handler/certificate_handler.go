package handler

import (
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/huayan-lab/labtrack/internal/lab/repository"
	"github.com/huayan-lab/labtrack/internal/lab/service"
)

// CertificateHandler 终审记录与证书处理器
type CertificateHandler struct {
	svc *service.CertificateService
}

// NewCertificateHandler 创建证书处理器
func NewCertificateHandler(svc *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{svc: svc}
}

// CreateApproval 建终审记录
// POST /api/v1/materials/:id/approvals
func (h *CertificateHandler) CreateApproval(c *gin.Context) {
	var req service.CreateApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	approval, err := h.svc.CreateApproval(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "material not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Created(c, approval)
}

// ListApprovals 材料的终审记录
// GET /api/v1/materials/:id/approvals
func (h *CertificateHandler) ListApprovals(c *gin.Context) {
	approvals, err := h.svc.ListApprovals(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, approvals)
}

// Upload 上传证书文件
// POST /api/v1/materials/:id/certificates
func (h *CertificateHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	cert, err := h.svc.Upload(c.Request.Context(), c.Param("id"), GetUserID(c), file, header.Filename, header.Size, contentType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "material not found")
			return
		}
		if errors.Is(err, service.ErrStorageUnavailable) {
			InternalError(c, "object storage not configured")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Created(c, cert)
}

// List 材料的证书列表
// GET /api/v1/materials/:id/certificates
func (h *CertificateHandler) List(c *gin.Context) {
	certs, err := h.svc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, certs)
}

// Download 下载证书文件
// GET /api/v1/certificates/:id/download
func (h *CertificateHandler) Download(c *gin.Context) {
	cert, object, err := h.svc.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "certificate not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	defer object.Close()

	c.Header("Content-Type", cert.MimeType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, cert.FileName))
	io.Copy(c.Writer, object)
}
