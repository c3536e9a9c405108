package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huayan-lab/labtrack/internal/lab/entity"
	"github.com/huayan-lab/labtrack/internal/lab/repository"
)

// QuoteService 报价与收款服务。记录只增不改。
type QuoteService struct {
	repo     *repository.QuoteRepository
	material *repository.MaterialRepository
	activity *repository.ActivityLogRepository
}

// NewQuoteService 创建报价服务
func NewQuoteService(repo *repository.QuoteRepository, material *repository.MaterialRepository, activity *repository.ActivityLogRepository) *QuoteService {
	return &QuoteService{repo: repo, material: material, activity: activity}
}

// CreateQuoteRequest 创建报价请求
type CreateQuoteRequest struct {
	Amount   float64      `json:"amount" binding:"required"`
	Currency string       `json:"currency"`
	Items    entity.JSONB `json:"items"`
	Notes    string       `json:"notes"`
}

// CreatePaymentRequest 创建收款请求
type CreatePaymentRequest struct {
	QuoteID *string    `json:"quote_id"`
	Amount  float64    `json:"amount" binding:"required"`
	Method  string     `json:"method"`
	PaidAt  *time.Time `json:"paid_at"`
	Notes   string     `json:"notes"`
}

// CreateQuote 为材料建报价单
func (s *QuoteService) CreateQuote(ctx context.Context, materialID, userID string, req *CreateQuoteRequest) (*entity.Quote, error) {
	m, err := s.material.FindByID(ctx, materialID)
	if err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = "CNY"
	}

	quote := &entity.Quote{
		ID:         uuid.New().String()[:32],
		MaterialID: m.ID,
		Amount:     req.Amount,
		Currency:   currency,
		Items:      req.Items,
		Notes:      req.Notes,
		QuotedBy:   userID,
	}

	if err := s.repo.CreateQuote(ctx, quote); err != nil {
		return nil, fmt.Errorf("创建报价单失败: %w", err)
	}

	s.activity.LogActivity(ctx, "quote", quote.ID, m.Code, "record_create",
		fmt.Sprintf("报价: %.2f %s", quote.Amount, quote.Currency), userID, "")

	return quote, nil
}

// ListQuotes 材料的报价单
func (s *QuoteService) ListQuotes(ctx context.Context, materialID string) ([]entity.Quote, error) {
	return s.repo.FindQuotes(ctx, materialID)
}

// CreatePayment 为材料建收款记录
func (s *QuoteService) CreatePayment(ctx context.Context, materialID, userID string, req *CreatePaymentRequest) (*entity.Payment, error) {
	m, err := s.material.FindByID(ctx, materialID)
	if err != nil {
		return nil, err
	}

	if req.QuoteID != nil {
		if _, err := s.repo.FindQuoteByID(ctx, *req.QuoteID); err != nil {
			return nil, fmt.Errorf("关联报价单无效: %w", err)
		}
	}

	paidAt := req.PaidAt
	if paidAt == nil {
		now := time.Now()
		paidAt = &now
	}

	payment := &entity.Payment{
		ID:         uuid.New().String()[:32],
		MaterialID: m.ID,
		QuoteID:    req.QuoteID,
		Amount:     req.Amount,
		Method:     req.Method,
		PaidAt:     paidAt,
		Notes:      req.Notes,
		RecordedBy: userID,
	}

	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("创建收款记录失败: %w", err)
	}

	s.activity.LogActivity(ctx, "payment", payment.ID, m.Code, "record_create",
		fmt.Sprintf("收款: %.2f", payment.Amount), userID, "")

	return payment, nil
}

// ListPayments 材料的收款记录
func (s *QuoteService) ListPayments(ctx context.Context, materialID string) ([]entity.Payment, error) {
	return s.repo.FindPayments(ctx, materialID)
}
