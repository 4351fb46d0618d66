package service

import (
	"context"
	"fmt"
	"time"

	"hacktrack/internal/model"
	"hacktrack/internal/repository"

	"github.com/sirupsen/logrus"
)

// 提醒提前量（分钟）：1小时与24小时各一封
var reminderLeadMinutes = []int{60, 1440}

// 全量排期的前向窗口：只排未来30天内开始的竞赛
const planningHorizon = 30 * 24 * time.Hour

// PlannerService 排期服务：计算每个用户应存在的提醒集合并幂等落库；
// 日历同步作为排期的副作用执行（不受提醒时间窗限制）
type PlannerService struct {
	userRepo         repository.UserRepository
	contestRepo      repository.ContestRepository
	notificationRepo repository.NotificationRepository
	calendarSync     *CalendarSyncService
	logger           *logrus.Logger
	now              func() time.Time
}

// NewPlannerService 创建排期服务
func NewPlannerService(
	userRepo repository.UserRepository,
	contestRepo repository.ContestRepository,
	notificationRepo repository.NotificationRepository,
	calendarSync *CalendarSyncService,
	logger *logrus.Logger,
) *PlannerService {
	return &PlannerService{
		userRepo:         userRepo,
		contestRepo:      contestRepo,
		notificationRepo: notificationRepo,
		calendarSync:     calendarSync,
		logger:           logger,
		now:              time.Now,
	}
}

// PlanForUser 对单个用户排期：按偏好过滤候选竞赛，逐个竞赛同步日历并upsert提醒。
// 与PlanAll共用同一算法，对相同(user, contest, lead)输入产生完全相同的通知状态
func (s *PlannerService) PlanForUser(ctx context.Context, user *model.User, contests []*model.Contest) error {
	now := s.now()
	planned := 0

	for _, contest := range contests {
		if !user.PrefersPlatform(contest.Platform) {
			continue
		}

		// 1. 日历同步副作用：不受提醒时间窗限制，快开始的竞赛也推日历
		s.calendarSync.SyncContest(ctx, user, contest)

		// 2. 提醒排期：send_time已过的键静默跳过，且过期键永不再创建
		for _, lead := range reminderLeadMinutes {
			sendTime := contest.StartTime.Add(-time.Duration(lead) * time.Minute)
			if !sendTime.After(now) {
				continue
			}
			n := &model.Notification{
				UserID:        user.ID,
				ContestID:     contest.ID,
				MinutesBefore: lead,
				SendTime:      sendTime,
				Status:        model.NotificationStatusPending,
			}
			if err := s.notificationRepo.InsertIfAbsent(ctx, n); err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"user_id":    user.ID,
					"contest_id": contest.ID,
					"lead":       lead,
				}).Warn("提醒upsert失败，跳过该条")
				continue
			}
			planned++
		}
	}

	s.logger.Debugf("用户%d排期完成，本轮处理%d条提醒", user.ID, planned)
	return nil
}

// PlanAll 全量排期：候选用户（已验证+偏好非空）x 30天窗口内竞赛，单用户失败不中断整轮
func (s *PlannerService) PlanAll(ctx context.Context) error {
	now := s.now()

	users, err := s.userRepo.ListEligible(ctx)
	if err != nil {
		return fmt.Errorf("查询候选用户失败: %w", err)
	}
	contests, err := s.contestRepo.ListWindow(ctx, now, now.Add(planningHorizon))
	if err != nil {
		return fmt.Errorf("查询排期窗口竞赛失败: %w", err)
	}

	s.logger.Infof("全量排期开始：%d个用户 x %d个竞赛", len(users), len(contests))
	for _, user := range users {
		if err := s.PlanForUser(ctx, user, contests); err != nil {
			s.logger.WithError(err).WithField("user_id", user.ID).Warn("该用户排期失败，继续下一个")
		}
	}
	return nil
}

// PlanUserByID 单用户按需排期（用户改偏好/接通日历后触发）：加载其全部未开始竞赛后排期
func (s *PlannerService) PlanUserByID(ctx context.Context, userID uint64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return fmt.Errorf("用户不存在: %d", userID)
	}

	contests, err := s.contestRepo.ListUpcomingByPlatforms(ctx, s.now(), user.PlatformList())
	if err != nil {
		return fmt.Errorf("查询用户候选竞赛失败: %w", err)
	}
	return s.PlanForUser(ctx, user, contests)
}
