package entity

import "time"

// ActivityLog 操作日志。每次流转/驳回/强制改状态/凭证建档追加一条。
type ActivityLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	EntityType string `json:"entity_type" gorm:"size:50;not null;index:idx_lab_activity_entity"` // material/test_record/quote等
	EntityID   string `json:"entity_id" gorm:"size:32;not null;index:idx_lab_activity_entity"`
	EntityCode string `json:"entity_code" gorm:"size:50"`

	Action     string `json:"action" gorm:"size:50;not null"` // transition_accept/transition_reject/admin_override/record_create等
	FromStage  string `json:"from_stage" gorm:"size:20"`
	ToStage    string `json:"to_stage" gorm:"size:20"`
	FromStatus string `json:"from_status" gorm:"size:20"`
	ToStatus   string `json:"to_status" gorm:"size:20"`

	Content  string `json:"content" gorm:"type:text"`
	Metadata JSONB  `json:"metadata" gorm:"type:jsonb"`

	OperatorID   string    `json:"operator_id" gorm:"size:32"`
	OperatorRole string    `json:"operator_role" gorm:"size:20"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "lab_activity_logs"
}
