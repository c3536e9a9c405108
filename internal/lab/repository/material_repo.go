package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huayan-lab/labtrack/internal/lab/entity"
	"gorm.io/gorm"
)

// MaterialRepository 材料仓库
type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// Create 创建材料
func (r *MaterialRepository) Create(ctx context.Context, m *entity.Material) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// FindByID 根据ID查找材料
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*entity.Material, error) {
	var m entity.Material
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindByCode 根据编码查找材料（扫码入口）
func (r *MaterialRepository) FindByCode(ctx context.Context, code string) (*entity.Material, error) {
	var m entity.Material
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// FindAll 查询材料列表。stages 非空时限定在给定阶段集合内。
func (r *MaterialRepository) FindAll(ctx context.Context, page, pageSize int, stages []string, filters map[string]string) ([]entity.Material, int64, error) {
	var items []entity.Material
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Material{})

	if len(stages) > 0 {
		query = query.Where("stage IN ?", stages)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if materialType := filters["material_type"]; materialType != "" {
		query = query.Where("material_type = ?", materialType)
	}
	if customer := filters["customer_name"]; customer != "" {
		query = query.Where("customer_name LIKE ?", "%"+customer+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// UpdateState 按版本号条件更新阶段/状态。版本不匹配说明材料已被
// 其他人流转过，返回 ErrVersionConflict，调用方重新读取后再试。
func (r *MaterialRepository) UpdateState(ctx context.Context, id string, version int, stage, status string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Material{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"stage":   stage,
			"status":  status,
			"version": version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

// CountByStage 按阶段统计材料数量
func (r *MaterialRepository) CountByStage(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Stage string
		Count int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.Material{}).
		Select("stage, COUNT(*) as count").
		Group("stage").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Stage] = r.Count
	}
	return counts, nil
}

// CountByStageWithStatus 按阶段统计指定状态的材料数量
func (r *MaterialRepository) CountByStageWithStatus(ctx context.Context, status string) (map[string]int64, error) {
	type row struct {
		Stage string
		Count int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&entity.Material{}).
		Select("stage, COUNT(*) as count").
		Where("status = ?", status).
		Group("stage").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Stage] = r.Count
	}
	return counts, nil
}

// GenerateCode 生成材料编码 MAT-{year}-{4位}
func (r *MaterialRepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("MAT-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.Material{}).
		Select("COALESCE(MAX(code), '')").
		Where("code LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "MAT-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("MAT-%s-%04d", year, seq), nil
}
