package entity

import "time"

// User 用户实体。每个用户持有单一业务角色（workflow.Role 的编码）。
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	Username     string     `json:"username" gorm:"size:64;not null;uniqueIndex"`
	Name         string     `json:"name" gorm:"size:64;not null"`
	PasswordHash string     `json:"-" gorm:"size:128;not null"`
	Role         string     `json:"role" gorm:"size:20;not null"` // secretary/tester/manager/qc/accounting/uncle
	Mobile       string     `json:"mobile" gorm:"size:20"`
	Status       string     `json:"status" gorm:"size:16;not null;default:active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "lab_users"
}

// 用户状态
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)
