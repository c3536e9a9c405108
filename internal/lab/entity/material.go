package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONB JSONB类型
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan JSONB: %v", value)
	}
	return json.Unmarshal(bytes, j)
}

// Material 送检样品。Code 同时作为二维码载荷，贴在实物上。
// Stage/Status 只允许通过 workflow 包的流转结果写入；Version 为乐观锁，
// 并发流转时后写的一方拿到冲突而不是静默覆盖。
type Material struct {
	ID      string `json:"id" gorm:"primaryKey;size:32"`
	Code    string `json:"code" gorm:"size:32;uniqueIndex;not null"` // MAT-{year}-{4位}
	Stage   string `json:"stage" gorm:"size:20;not null;default:received;index"`
	Status  string `json:"status" gorm:"size:20;not null;default:pending"`
	Version int    `json:"version" gorm:"not null;default:1"`

	// 描述字段，流转逻辑不触碰
	MaterialType  string    `json:"material_type" gorm:"size:100"`
	CustomerName  string    `json:"customer_name" gorm:"size:100"`
	CustomerPhone string    `json:"customer_phone" gorm:"size:20"`
	ReceivedAt    time.Time `json:"received_at"`
	Notes         string    `json:"notes" gorm:"type:text"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Material) TableName() string {
	return "lab_materials"
}
