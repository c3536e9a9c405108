package entity

import "time"

// TestRecord 检测记录。只增不改：建档后不允许更新或删除，
// 作为离开 testing 阶段的凭证。
type TestRecord struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	MaterialID string `json:"material_id" gorm:"size:32;not null;index"`

	TestItem    string `json:"test_item" gorm:"size:200;not null"` // 检测项目
	Method      string `json:"method" gorm:"size:200"`             // 检测方法/标准号
	ResultValue string `json:"result_value" gorm:"size:100"`
	Unit        string `json:"unit" gorm:"size:20"`
	Conclusion  string `json:"conclusion" gorm:"size:20"` // passed/failed
	ReportKey   string `json:"report_key" gorm:"size:500"` // 对象存储key，可空

	TestedBy  string    `json:"tested_by" gorm:"size:32;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (TestRecord) TableName() string {
	return "lab_test_records"
}

// 检测结论
const (
	TestConclusionPassed = "passed"
	TestConclusionFailed = "failed"
)

// QCInspection 质检记录。只增不改，作为离开 qc 阶段的凭证。
type QCInspection struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	MaterialID string `json:"material_id" gorm:"size:32;not null;index"`

	CheckItem string `json:"check_item" gorm:"size:200;not null"`
	Result    string `json:"result" gorm:"size:20;not null"` // passed/failed
	Remarks   string `json:"remarks" gorm:"type:text"`

	InspectedBy string    `json:"inspected_by" gorm:"size:32;not null"`
	CreatedAt   time.Time `json:"created_at"`
}

func (QCInspection) TableName() string {
	return "lab_qc_inspections"
}
