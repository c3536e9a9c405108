package repository

import (
	"context"
	"errors"

	"github.com/huayan-lab/labtrack/internal/lab/entity"
	"gorm.io/gorm"
)

// QuoteRepository 报价与收款仓库。记录只增不改。
type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// CreateQuote 创建报价单
func (r *QuoteRepository) CreateQuote(ctx context.Context, quote *entity.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

// FindQuoteByID 根据ID查找报价单
func (r *QuoteRepository) FindQuoteByID(ctx context.Context, id string) (*entity.Quote, error) {
	var quote entity.Quote
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &quote, nil
}

// FindQuotes 查询材料的报价单
func (r *QuoteRepository) FindQuotes(ctx context.Context, materialID string) ([]entity.Quote, error) {
	var quotes []entity.Quote
	err := r.db.WithContext(ctx).
		Where("material_id = ?", materialID).
		Order("created_at ASC").
		Find(&quotes).Error
	return quotes, err
}

// CreatePayment 创建收款记录
func (r *QuoteRepository) CreatePayment(ctx context.Context, payment *entity.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// FindPayments 查询材料的收款记录
func (r *QuoteRepository) FindPayments(ctx context.Context, materialID string) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := r.db.WithContext(ctx).
		Where("material_id = ?", materialID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

// CountPayments 统计材料的收款记录数
func (r *QuoteRepository) CountPayments(ctx context.Context, materialID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Payment{}).
		Where("material_id = ?", materialID).
		Count(&count).Error
	return count, err
}
