package service

import (
	"context"
	"fmt"
	"time"

	"hacktrack/internal/interfaces"
	"hacktrack/internal/model"
	"hacktrack/internal/repository"

	"github.com/sirupsen/logrus"
)

// 已结束竞赛的保留期：end_time早于now-1h即清理（级联通知与日历事件）
const contestRetention = time.Hour

// IngestService 竞赛拉取服务：清理过期 -> 拉取窗口 -> 归一化 -> 按external_id幂等入库
type IngestService struct {
	feed        interfaces.ContestFeed
	contestRepo repository.ContestRepository
	logger      *logrus.Logger
	now         func() time.Time
}

// NewIngestService 创建竞赛拉取服务
func NewIngestService(feed interfaces.ContestFeed, contestRepo repository.ContestRepository, logger *logrus.Logger) *IngestService {
	return &IngestService{
		feed:        feed,
		contestRepo: contestRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// Run 执行一轮拉取，返回入库条数。拉取失败中止本轮（已提交的清理不回滚），等下一个tick重试
func (s *IngestService) Run(ctx context.Context) (int, error) {
	now := s.now()

	// 1. 保留期清理（先于拉取执行，与新数据无依赖）
	deleted, err := s.contestRepo.DeleteEndedBefore(ctx, now.Add(-contestRetention))
	if err != nil {
		return 0, fmt.Errorf("过期竞赛清理失败: %w", err)
	}
	if deleted > 0 {
		s.logger.Infof("已清理%d个过期竞赛（含级联通知/日历事件）", deleted)
	}

	// 2. 拉取即将开始的竞赛窗口
	raw, err := s.feed.FetchUpcoming(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s拉取竞赛失败: %w", s.feed.GetName(), err)
	}
	if len(raw) == 0 {
		s.logger.Warnf("%s未拉取到竞赛", s.feed.GetName())
		return 0, nil
	}

	// 3. 归一化（未知平台/非法记录在适配器内跳过）
	contests, err := s.feed.ConvertToDBModel(raw)
	if err != nil {
		return 0, fmt.Errorf("%s归一化失败: %w", s.feed.GetName(), err)
	}

	// 4. 批次内按external_id去重（后出现者覆盖先出现者）
	contests = dedupByExternalID(contests)
	if len(contests) == 0 {
		return 0, nil
	}

	// 5. 幂等入库
	if err := s.contestRepo.UpsertBatch(ctx, contests); err != nil {
		return 0, fmt.Errorf("竞赛入库失败: %w", err)
	}

	s.logger.Infof("%s同步完成，共%d个竞赛", s.feed.GetName(), len(contests))
	return len(contests), nil
}

// dedupByExternalID 批次内去重，保持原始顺序，相同external_id以最后一条为准
func dedupByExternalID(contests []*model.Contest) []*model.Contest {
	if len(contests) == 0 {
		return contests
	}
	index := make(map[string]int, len(contests))
	unique := make([]*model.Contest, 0, len(contests))
	for _, c := range contests {
		if i, ok := index[c.ExternalID]; ok {
			unique[i] = c
			continue
		}
		index[c.ExternalID] = len(unique)
		unique = append(unique, c)
	}
	return unique
}
