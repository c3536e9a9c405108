package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/huayan-lab/labtrack/internal/lab/repository"
	"github.com/huayan-lab/labtrack/internal/lab/service"
)

// QuoteHandler 报价与收款处理器
type QuoteHandler struct {
	svc *service.QuoteService
}

// NewQuoteHandler 创建报价处理器
func NewQuoteHandler(svc *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{svc: svc}
}

// CreateQuote 建报价单
// POST /api/v1/materials/:id/quotes
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var req service.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	quote, err := h.svc.CreateQuote(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "material not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Created(c, quote)
}

// ListQuotes 材料的报价单
// GET /api/v1/materials/:id/quotes
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	quotes, err := h.svc.ListQuotes(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, quotes)
}

// CreatePayment 建收款记录
// POST /api/v1/materials/:id/payments
func (h *QuoteHandler) CreatePayment(c *gin.Context) {
	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	payment, err := h.svc.CreatePayment(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "material not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Created(c, payment)
}

// ListPayments 材料的收款记录
// GET /api/v1/materials/:id/payments
func (h *QuoteHandler) ListPayments(c *gin.Context) {
	payments, err := h.svc.ListPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, payments)
}
