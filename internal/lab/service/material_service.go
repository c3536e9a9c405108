package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huayan-lab/labtrack/internal/lab/entity"
	"github.com/huayan-lab/labtrack/internal/lab/repository"
	"github.com/huayan-lab/labtrack/internal/lab/sse"
	"github.com/huayan-lab/labtrack/internal/lab/workflow"
)

// MaterialService 材料服务。所有阶段流转统一走 workflow 包的流转表，
// 本服务只负责取数、落库和日志。
type MaterialService struct {
	repo     *repository.MaterialRepository
	records  *repository.RecordRepository
	quotes   *repository.QuoteRepository
	certs    *repository.CertificateRepository
	activity *repository.ActivityLogRepository
}

// NewMaterialService 创建材料服务
func NewMaterialService(
	repo *repository.MaterialRepository,
	records *repository.RecordRepository,
	quotes *repository.QuoteRepository,
	certs *repository.CertificateRepository,
	activity *repository.ActivityLogRepository,
) *MaterialService {
	return &MaterialService{
		repo:     repo,
		records:  records,
		quotes:   quotes,
		certs:    certs,
		activity: activity,
	}
}

// CreateMaterialRequest 创建材料请求
type CreateMaterialRequest struct {
	MaterialType  string `json:"material_type" binding:"required"`
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerPhone string `json:"customer_phone"`
	Notes         string `json:"notes"`
}

// TransitionRequest 流转请求
type TransitionRequest struct {
	Decision string `json:"decision" binding:"required"` // accept/reject
	Comment  string `json:"comment"`
}

// ForceStateRequest 强制改状态请求
type ForceStateRequest struct {
	Stage  string `json:"stage" binding:"required"`
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// Create 登记收样。新材料从 received/pending 起步，编码即二维码载荷。
func (s *MaterialService) Create(ctx context.Context, userID string, req *CreateMaterialRequest) (*entity.Material, error) {
	code, err := s.repo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("生成材料编码失败: %w", err)
	}

	m := &entity.Material{
		ID:            uuid.New().String()[:32],
		Code:          code,
		Stage:         string(workflow.StageReceived),
		Status:        string(workflow.StatusPending),
		Version:       1,
		MaterialType:  req.MaterialType,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		ReceivedAt:    time.Now(),
		Notes:         req.Notes,
		CreatedBy:     userID,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("创建材料失败: %w", err)
	}

	s.activity.LogActivity(ctx, "material", m.ID, m.Code, "material_create",
		fmt.Sprintf("收样登记: %s", m.MaterialType), userID, "")

	return m, nil
}

// Get 获取材料详情
func (s *MaterialService) Get(ctx context.Context, id string) (*entity.Material, error) {
	return s.repo.FindByID(ctx, id)
}

// ScanByCode 扫码查材料。二维码载荷就是材料编码。
func (s *MaterialService) ScanByCode(ctx context.Context, code string) (*entity.Material, error) {
	return s.repo.FindByCode(ctx, code)
}

// List 材料列表。按角色可见阶段过滤；stage 参数进一步收窄，
// 但不能越过可见范围。
func (s *MaterialService) List(ctx context.Context, role workflow.Role, page, pageSize int, stageFilter string, filters map[string]string) ([]entity.Material, int64, error) {
	visible := workflow.VisibleStages(role)
	if len(visible) == 0 {
		return []entity.Material{}, 0, nil
	}

	stages := make([]string, 0, len(visible))
	for _, st := range visible {
		if stageFilter != "" && string(st) != stageFilter {
			continue
		}
		stages = append(stages, string(st))
	}
	if len(stages) == 0 {
		// 请求的阶段对该角色不可见
		return []entity.Material{}, 0, nil
	}

	return s.repo.FindAll(ctx, page, pageSize, stages, filters)
}

// evidenceFor 从记录存储收集离开当前阶段所需的凭证
func (s *MaterialService) evidenceFor(ctx context.Context, m *entity.Material) (workflow.EvidenceSet, error) {
	kind, need := workflow.RequiredEvidence(workflow.Stage(m.Stage))
	if !need {
		return nil, nil
	}

	var count int64
	var err error
	switch kind {
	case workflow.EvidenceTestRecord:
		count, err = s.records.CountTestRecords(ctx, m.ID)
	case workflow.EvidenceQCInspection:
		count, err = s.records.CountQCInspections(ctx, m.ID)
	case workflow.EvidencePayment:
		count, err = s.quotes.CountPayments(ctx, m.ID)
	case workflow.EvidenceApproval:
		count, err = s.certs.CountApprovals(ctx, m.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("查询凭证记录失败: %w", err)
	}

	return workflow.EvidenceSet{kind: count > 0}, nil
}

// Transition 推进或驳回一次流转。落库带版本号条件，两个操作人并发
// 处理同一材料时后提交的一方收到 ErrVersionConflict。
func (s *MaterialService) Transition(ctx context.Context, id string, actorID string, actorRole workflow.Role, req *TransitionRequest) (*entity.Material, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	evidence, err := s.evidenceFor(ctx, m)
	if err != nil {
		return nil, err
	}

	res, err := workflow.AttemptTransition(
		workflow.Stage(m.Stage),
		workflow.Status(m.Status),
		actorRole,
		workflow.Decision(req.Decision),
		evidence,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateState(ctx, m.ID, m.Version, string(res.Stage), string(res.Status)); err != nil {
		return nil, err
	}

	action := "transition_accept"
	if workflow.Decision(req.Decision) == workflow.DecisionReject {
		action = "transition_reject"
	}
	s.activity.LogTransition(ctx, m, action,
		m.Stage, string(res.Stage), m.Status, string(res.Status),
		req.Comment, actorID, string(actorRole))
	sse.PublishMaterialUpdate(m.ID, m.Code, string(res.Stage), string(res.Status), action)

	m.Stage = string(res.Stage)
	m.Status = string(res.Status)
	m.Version++
	return m, nil
}

// ForceState 管理员强制改状态。只允许 uncle，走 workflow.ForceSetState
// 校验不变量，并以 admin_override 记入日志。
func (s *MaterialService) ForceState(ctx context.Context, id string, actorID string, actorRole workflow.Role, req *ForceStateRequest) (*entity.Material, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := workflow.ForceSetState(actorRole, workflow.Stage(req.Stage), workflow.Status(req.Status))
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateState(ctx, m.ID, m.Version, string(res.Stage), string(res.Status)); err != nil {
		return nil, err
	}

	s.activity.LogTransition(ctx, m, "admin_override",
		m.Stage, string(res.Stage), m.Status, string(res.Status),
		req.Reason, actorID, string(actorRole))
	sse.PublishMaterialUpdate(m.ID, m.Code, string(res.Stage), string(res.Status), "admin_override")

	m.Stage = string(res.Stage)
	m.Status = string(res.Status)
	m.Version++
	return m, nil
}

// History 材料操作日志
func (s *MaterialService) History(ctx context.Context, id string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	return s.activity.FindByEntity(ctx, "material", id, page, pageSize)
}
