package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/huayan-lab/labtrack/internal/lab/entity"
	"github.com/huayan-lab/labtrack/internal/lab/repository"
)

// RecordService 检测记录与质检记录服务。记录只增不改。
type RecordService struct {
	repo     *repository.RecordRepository
	material *repository.MaterialRepository
	activity *repository.ActivityLogRepository
}

// NewRecordService 创建记录服务
func NewRecordService(repo *repository.RecordRepository, material *repository.MaterialRepository, activity *repository.ActivityLogRepository) *RecordService {
	return &RecordService{repo: repo, material: material, activity: activity}
}

// CreateTestRecordRequest 创建检测记录请求
type CreateTestRecordRequest struct {
	TestItem    string `json:"test_item" binding:"required"`
	Method      string `json:"method"`
	ResultValue string `json:"result_value"`
	Unit        string `json:"unit"`
	Conclusion  string `json:"conclusion" binding:"required"` // passed/failed
	ReportKey   string `json:"report_key"`
}

// CreateQCInspectionRequest 创建质检记录请求
type CreateQCInspectionRequest struct {
	CheckItem string `json:"check_item" binding:"required"`
	Result    string `json:"result" binding:"required"` // passed/failed
	Remarks   string `json:"remarks"`
}

// CreateTestRecord 为材料建检测记录
func (s *RecordService) CreateTestRecord(ctx context.Context, materialID, userID string, req *CreateTestRecordRequest) (*entity.TestRecord, error) {
	m, err := s.material.FindByID(ctx, materialID)
	if err != nil {
		return nil, err
	}

	record := &entity.TestRecord{
		ID:          uuid.New().String()[:32],
		MaterialID:  m.ID,
		TestItem:    req.TestItem,
		Method:      req.Method,
		ResultValue: req.ResultValue,
		Unit:        req.Unit,
		Conclusion:  req.Conclusion,
		ReportKey:   req.ReportKey,
		TestedBy:    userID,
	}

	if err := s.repo.CreateTestRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("创建检测记录失败: %w", err)
	}

	s.activity.LogActivity(ctx, "test_record", record.ID, m.Code, "record_create",
		fmt.Sprintf("检测记录: %s (%s)", req.TestItem, req.Conclusion), userID, "")

	return record, nil
}

// ListTestRecords 材料的检测记录
func (s *RecordService) ListTestRecords(ctx context.Context, materialID string) ([]entity.TestRecord, error) {
	return s.repo.FindTestRecords(ctx, materialID)
}

// CreateQCInspection 为材料建质检记录
func (s *RecordService) CreateQCInspection(ctx context.Context, materialID, userID string, req *CreateQCInspectionRequest) (*entity.QCInspection, error) {
	m, err := s.material.FindByID(ctx, materialID)
	if err != nil {
		return nil, err
	}

	inspection := &entity.QCInspection{
		ID:          uuid.New().String()[:32],
		MaterialID:  m.ID,
		CheckItem:   req.CheckItem,
		Result:      req.Result,
		Remarks:     req.Remarks,
		InspectedBy: userID,
	}

	if err := s.repo.CreateQCInspection(ctx, inspection); err != nil {
		return nil, fmt.Errorf("创建质检记录失败: %w", err)
	}

	s.activity.LogActivity(ctx, "qc_inspection", inspection.ID, m.Code, "record_create",
		fmt.Sprintf("质检记录: %s (%s)", req.CheckItem, req.Result), userID, "")

	return inspection, nil
}

// ListQCInspections 材料的质检记录
func (s *RecordService) ListQCInspections(ctx context.Context, materialID string) ([]entity.QCInspection, error) {
	return s.repo.FindQCInspections(ctx, materialID)
}
