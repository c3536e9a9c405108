// Package workflow 材料生命周期状态机。
//
// 样品从收样到完成走固定七阶段流程，每个阶段由指定角色推进或驳回。
// 本包是纯函数实现：不访问存储，不读全局状态，操作角色全部显式传参，
// 所有页面/接口共用同一份流转表，避免各处各写一套 switch 漂移。
package workflow

import (
	"errors"
	"fmt"
)

// Stage 生命周期阶段
type Stage string

const (
	StageReceived      Stage = "received"       // 收样
	StageTesting       Stage = "testing"        // 检测中
	StageReview        Stage = "review"         // 结果审核
	StageQC            Stage = "qc"             // 质检
	StageAccounting    Stage = "accounting"     // 财务
	StageFinalApproval Stage = "final_approval" // 终审
	StageCompleted     Stage = "completed"      // 完成
)

// stageOrder 阶段全序，下标即推进顺序
var stageOrder = []Stage{
	StageReceived,
	StageTesting,
	StageReview,
	StageQC,
	StageAccounting,
	StageFinalApproval,
	StageCompleted,
}

// Status 状态标记，与阶段正交；rejected 是叠加在当前阶段上的标记而非阶段
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusRejected   Status = "rejected"
	StatusCompleted  Status = "completed"
)

// Role 操作角色
type Role string

const (
	RoleSecretary  Role = "secretary"  // 收发
	RoleTester     Role = "tester"     // 检测员
	RoleManager    Role = "manager"    // 检测主管
	RoleQC         Role = "qc"         // 质检员
	RoleAccounting Role = "accounting" // 财务
	RoleUncle      Role = "uncle"      // 超级角色，所有流转和读取均放行
)

// Decision 流转决定
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// EvidenceKind 流转前置凭证类型
type EvidenceKind string

const (
	EvidenceTestRecord   EvidenceKind = "test_record"
	EvidenceQCInspection EvidenceKind = "qc_inspection"
	EvidencePayment      EvidenceKind = "payment"
	EvidenceApproval     EvidenceKind = "approval"
)

// EvidenceSet 调用方从记录存储查好后传入；本包不做任何查询
type EvidenceSet map[EvidenceKind]bool

// Has 是否存在该类凭证
func (e EvidenceSet) Has(kind EvidenceKind) bool {
	return e[kind]
}

// 流转错误
var (
	ErrTerminal        = errors.New("material already completed")
	ErrUnauthorized    = errors.New("role not authorized for stage")
	ErrMissingEvidence = errors.New("required evidence record missing")
	ErrInvalidDecision = errors.New("decision not available at stage")
	ErrInvalidStage    = errors.New("unknown stage")
	ErrInvalidState    = errors.New("stage/status pair violates invariants")
)

// stageActors 各阶段的处理角色：该角色把材料从当前阶段推进到下一阶段，
// 或驳回退回上一阶段。completed 为终态，无处理角色。
var stageActors = map[Stage]Role{
	StageReceived:      RoleTester,
	StageTesting:       RoleManager,
	StageReview:        RoleQC,
	StageQC:            RoleAccounting,
	StageAccounting:    RoleSecretary,
	StageFinalApproval: RoleSecretary,
}

// requiredEvidence 离开某阶段所需的凭证记录（硬门槛）。
// received/review 无凭证要求。
var requiredEvidence = map[Stage]EvidenceKind{
	StageTesting:       EvidenceTestRecord,
	StageQC:            EvidenceQCInspection,
	StageAccounting:    EvidencePayment,
	StageFinalApproval: EvidenceApproval,
}

// readVisibility 列表/看板的读侧可见性：角色 → 可见阶段集合。
// 与流转授权表独立维护；uncle 见 VisibleStages 单独处理。
var readVisibility = map[Role][]Stage{
	RoleSecretary:  {StageReceived, StageAccounting, StageFinalApproval, StageCompleted},
	RoleTester:     {StageReceived, StageTesting},
	RoleManager:    {StageTesting, StageReview},
	RoleQC:         {StageReview, StageQC},
	RoleAccounting: {StageQC, StageAccounting},
}

// Result 流转结果
type Result struct {
	Stage  Stage  `json:"stage"`
	Status Status `json:"status"`
}

// Index 阶段在全序中的下标，未知阶段返回 -1
func (s Stage) Index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Next 下一阶段
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i < 0 || i >= len(stageOrder)-1 {
		return "", false
	}
	return stageOrder[i+1], true
}

// Prev 上一阶段
func (s Stage) Prev() (Stage, bool) {
	i := s.Index()
	if i <= 0 {
		return "", false
	}
	return stageOrder[i-1], true
}

// Valid 是否为已知阶段
func (s Stage) Valid() bool {
	return s.Index() >= 0
}

// Valid 是否为已知状态
func (st Status) Valid() bool {
	switch st {
	case StatusPending, StatusInProgress, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// Stages 返回阶段全序的副本
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// ActorFor 某阶段的处理角色
func ActorFor(stage Stage) (Role, bool) {
	r, ok := stageActors[stage]
	return r, ok
}

// Authorized 角色是否可处理该阶段；uncle 全部放行
func Authorized(role Role, stage Stage) bool {
	if role == RoleUncle {
		return stage.Valid() && stage != StageCompleted
	}
	return stageActors[stage] == role
}

// RequiredEvidence 离开该阶段所需的凭证类型
func RequiredEvidence(stage Stage) (EvidenceKind, bool) {
	k, ok := requiredEvidence[stage]
	return k, ok
}

// AttemptTransition 尝试一次流转。纯函数：结果只取决于入参，不产生副作用，
// 持久化与凭证记录的落库由调用方负责。
//
// 前置检查顺序：终态 → 授权 → 凭证。终态先于授权：completed 无处理角色，
// 任何角色得到的都应是 ErrTerminal 而非 ErrUnauthorized。
func AttemptTransition(stage Stage, status Status, actor Role, decision Decision, evidence EvidenceSet) (Result, error) {
	if !stage.Valid() {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidStage, stage)
	}
	if stage == StageCompleted {
		return Result{}, ErrTerminal
	}
	if !Authorized(actor, stage) {
		return Result{}, fmt.Errorf("%w: role %s cannot act on stage %s", ErrUnauthorized, actor, stage)
	}

	switch decision {
	case DecisionAccept:
		if kind, need := requiredEvidence[stage]; need && !evidence.Has(kind) {
			return Result{}, fmt.Errorf("%w: stage %s requires %s", ErrMissingEvidence, stage, kind)
		}
		next, _ := stage.Next()
		st := StatusInProgress
		if next == StageCompleted {
			st = StatusCompleted
		}
		return Result{Stage: next, Status: st}, nil

	case DecisionReject:
		// 驳回退回一个阶段，由上一阶段的处理角色整改后重新提交。
		// received 没有更早阶段，不存在驳回。
		prev, ok := stage.Prev()
		if !ok {
			return Result{}, fmt.Errorf("%w: cannot reject at %s", ErrInvalidDecision, stage)
		}
		return Result{Stage: prev, Status: StatusRejected}, nil

	default:
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidDecision, decision)
	}
}

// ForceSetState 管理员强制改状态。与 AttemptTransition 完全分离的逃生通道，
// 只允许 uncle，且结果必须满足不变量（stage=completed ⇔ status=completed）。
func ForceSetState(actor Role, stage Stage, status Status) (Result, error) {
	if actor != RoleUncle {
		return Result{}, fmt.Errorf("%w: force-set requires role %s", ErrUnauthorized, RoleUncle)
	}
	if !stage.Valid() {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidStage, stage)
	}
	if !status.Valid() {
		return Result{}, fmt.Errorf("%w: unknown status %s", ErrInvalidState, status)
	}
	if (stage == StageCompleted) != (status == StatusCompleted) {
		return Result{}, fmt.Errorf("%w: stage %s with status %s", ErrInvalidState, stage, status)
	}
	return Result{Stage: stage, Status: status}, nil
}

// VisibleStages 角色在列表/看板可见的阶段集合
func VisibleStages(role Role) []Stage {
	if role == RoleUncle {
		return Stages()
	}
	stages, ok := readVisibility[role]
	if !ok {
		return nil
	}
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// CanView 角色是否可见某阶段
func CanView(role Role, stage Stage) bool {
	if role == RoleUncle {
		return stage.Valid()
	}
	for _, s := range readVisibility[role] {
		if s == stage {
			return true
		}
	}
	return false
}

// ValidRoles 所有角色编码，用于建档/校验
func ValidRoles() []Role {
	return []Role{RoleSecretary, RoleTester, RoleManager, RoleQC, RoleAccounting, RoleUncle}
}

// IsValidRole 是否为已知角色
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles() {
		if v == r {
			return true
		}
	}
	return false
}
