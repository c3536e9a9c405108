package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/huayan-lab/labtrack/internal/lab/repository"
	"github.com/huayan-lab/labtrack/internal/lab/workflow"
	"github.com/redis/go-redis/v9"
)

const dashboardCacheKey = "lab:dashboard:overview"
const dashboardCacheTTL = 30 * time.Second

// DashboardService 看板服务。阶段统计走 Redis 短缓存，
// 看板轮询不落到数据库上。
type DashboardService struct {
	material *repository.MaterialRepository
	rdb      *redis.Client
}

func NewDashboardService(material *repository.MaterialRepository, rdb *redis.Client) *DashboardService {
	return &DashboardService{material: material, rdb: rdb}
}

// Overview 看板总览
type Overview struct {
	StageCounts   map[string]int64 `json:"stage_counts"`
	RejectedCount int64            `json:"rejected_count"`
	Total         int64            `json:"total"`
}

// overviewSnapshot 全量统计快照，退回数按阶段拆分以便按角色过滤
type overviewSnapshot struct {
	StageCounts     map[string]int64 `json:"stage_counts"`
	RejectedByStage map[string]int64 `json:"rejected_by_stage"`
}

// GetOverview 获取看板总览。角色可见性在这里按阶段过滤：
// 只返回该角色可见阶段的计数，退回数同样只统计可见阶段。
func (s *DashboardService) GetOverview(ctx context.Context, role workflow.Role) (*Overview, error) {
	full, err := s.fullOverview(ctx)
	if err != nil {
		return nil, err
	}

	visible := workflow.VisibleStages(role)
	out := &Overview{StageCounts: make(map[string]int64, len(visible))}
	for _, st := range visible {
		count := full.StageCounts[string(st)]
		out.StageCounts[string(st)] = count
		out.Total += count
		out.RejectedCount += full.RejectedByStage[string(st)]
	}

	return out, nil
}

// fullOverview 全量统计快照，带缓存
func (s *DashboardService) fullOverview(ctx context.Context) (*overviewSnapshot, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, dashboardCacheKey).Result(); err == nil && cached != "" {
			var o overviewSnapshot
			if json.Unmarshal([]byte(cached), &o) == nil {
				return &o, nil
			}
		}
	}

	counts, err := s.material.CountByStage(ctx)
	if err != nil {
		return nil, err
	}
	rejected, err := s.material.CountByStageWithStatus(ctx, string(workflow.StatusRejected))
	if err != nil {
		return nil, err
	}

	o := &overviewSnapshot{
		StageCounts:     counts,
		RejectedByStage: rejected,
	}

	if s.rdb != nil {
		if data, err := json.Marshal(o); err == nil {
			s.rdb.Set(ctx, dashboardCacheKey, data, dashboardCacheTTL)
		}
	}

	return o, nil
}
