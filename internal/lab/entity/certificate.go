package entity

import "time"

// ApprovalRecord 终审记录。只增不改，作为离开 final_approval 阶段的凭证。
type ApprovalRecord struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	MaterialID string `json:"material_id" gorm:"size:32;not null;index"`

	Stage    string `json:"stage" gorm:"size:20;not null"`  // 审批发生时材料所在阶段
	Decision string `json:"decision" gorm:"size:20;not null"` // approved/rejected
	Comment  string `json:"comment" gorm:"type:text"`

	ApprovedBy string    `json:"approved_by" gorm:"size:32;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ApprovalRecord) TableName() string {
	return "lab_approval_records"
}

// Certificate 检测证书。文件存对象存储，记录只增不改。
type Certificate struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	MaterialID string `json:"material_id" gorm:"size:32;not null;index"`
	CertNo     string `json:"cert_no" gorm:"size:32;uniqueIndex;not null"` // CERT-{year}-{4位}

	FileName string `json:"file_name" gorm:"size:256;not null"`
	FileKey  string `json:"file_key" gorm:"size:500;not null"` // 对象存储key
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type" gorm:"size:128"`

	IssuedBy  string    `json:"issued_by" gorm:"size:32;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Certificate) TableName() string {
	return "lab_certificates"
}
