package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/huayan-lab/labtrack/internal/lab/entity"
	"gorm.io/gorm"
)

// ActivityLogRepository 操作日志仓库
type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Create 创建操作日志
func (r *ActivityLogRepository) Create(ctx context.Context, log *entity.ActivityLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()[:32]
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByEntity 查询某实体的操作日志
func (r *ActivityLogRepository) FindByEntity(ctx context.Context, entityType, entityID string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	var items []entity.ActivityLog
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ActivityLog{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)

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

// LogTransition 便捷记录一次阶段流转
func (r *ActivityLogRepository) LogTransition(ctx context.Context, m *entity.Material, action, fromStage, toStage, fromStatus, toStatus, content, operatorID, operatorRole string) {
	log := &entity.ActivityLog{
		ID:           uuid.New().String()[:32],
		EntityType:   "material",
		EntityID:     m.ID,
		EntityCode:   m.Code,
		Action:       action,
		FromStage:    fromStage,
		ToStage:      toStage,
		FromStatus:   fromStatus,
		ToStatus:     toStatus,
		Content:      content,
		OperatorID:   operatorID,
		OperatorRole: operatorRole,
	}
	// 日志写失败不阻断业务，忽略错误
	r.db.WithContext(ctx).Create(log)
}

// LogActivity 便捷记录一般操作日志（凭证建档等）
func (r *ActivityLogRepository) LogActivity(ctx context.Context, entityType, entityID, entityCode, action, content, operatorID, operatorRole string) {
	log := &entity.ActivityLog{
		ID:           uuid.New().String()[:32],
		EntityType:   entityType,
		EntityID:     entityID,
		EntityCode:   entityCode,
		Action:       action,
		Content:      content,
		OperatorID:   operatorID,
		OperatorRole: operatorRole,
	}
	r.db.WithContext(ctx).Create(log)
}
