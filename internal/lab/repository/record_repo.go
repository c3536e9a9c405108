package repository

import (
	"context"
	"errors"

	"github.com/huayan-lab/labtrack/internal/lab/entity"
	"gorm.io/gorm"
)

// RecordRepository 检测记录与质检记录仓库。两类记录只增不改，
// 所以只提供 Create / 查询 / 计数。
type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// CreateTestRecord 创建检测记录
func (r *RecordRepository) CreateTestRecord(ctx context.Context, record *entity.TestRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindTestRecordByID 根据ID查找检测记录
func (r *RecordRepository) FindTestRecordByID(ctx context.Context, id string) (*entity.TestRecord, error) {
	var record entity.TestRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindTestRecords 查询材料的检测记录
func (r *RecordRepository) FindTestRecords(ctx context.Context, materialID string) ([]entity.TestRecord, error) {
	var records []entity.TestRecord
	err := r.db.WithContext(ctx).
		Where("material_id = ?", materialID).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

// CountTestRecords 统计材料的检测记录数
func (r *RecordRepository) CountTestRecords(ctx context.Context, materialID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.TestRecord{}).
		Where("material_id = ?", materialID).
		Count(&count).Error
	return count, err
}

// CreateQCInspection 创建质检记录
func (r *RecordRepository) CreateQCInspection(ctx context.Context, inspection *entity.QCInspection) error {
	return r.db.WithContext(ctx).Create(inspection).Error
}

// FindQCInspections 查询材料的质检记录
func (r *RecordRepository) FindQCInspections(ctx context.Context, materialID string) ([]entity.QCInspection, error) {
	var inspections []entity.QCInspection
	err := r.db.WithContext(ctx).
		Where("material_id = ?", materialID).
		Order("created_at ASC").
		Find(&inspections).Error
	return inspections, err
}

// CountQCInspections 统计材料的质检记录数
func (r *RecordRepository) CountQCInspections(ctx context.Context, materialID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.QCInspection{}).
		Where("material_id = ?", materialID).
		Count(&count).Error
	return count, err
}
