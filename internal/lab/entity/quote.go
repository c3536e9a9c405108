package entity

import "time"

// Quote 报价单。只增不改。
type Quote struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	MaterialID string `json:"material_id" gorm:"size:32;not null;index"`

	Amount   float64 `json:"amount" gorm:"type:decimal(12,2);not null"`
	Currency string  `json:"currency" gorm:"size:10;default:CNY"`
	Items    JSONB   `json:"items" gorm:"type:jsonb"` // [{name, qty, unit_price}]
	Notes    string  `json:"notes" gorm:"size:500"`

	QuotedBy  string    `json:"quoted_by" gorm:"size:32;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Quote) TableName() string {
	return "lab_quotes"
}

// Payment 收款记录。只增不改，作为离开 accounting 阶段的凭证。
type Payment struct {
	ID         string  `json:"id" gorm:"primaryKey;size:32"`
	MaterialID string  `json:"material_id" gorm:"size:32;not null;index"`
	QuoteID    *string `json:"quote_id" gorm:"size:32"`

	Amount float64    `json:"amount" gorm:"type:decimal(12,2);not null"`
	Method string     `json:"method" gorm:"size:20"` // cash/transfer/wechat/alipay
	PaidAt *time.Time `json:"paid_at"`
	Notes  string     `json:"notes" gorm:"size:500"`

	RecordedBy string    `json:"recorded_by" gorm:"size:32;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Payment) TableName() string {
	return "lab_payments"
}
