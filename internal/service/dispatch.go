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

// DispatchService 邮件执行服务：扫描到期pending通知，发送后消费；
// 状态机：pending --发送成功--> 删除；pending --发送失败--> failed（终态，不重试）
type DispatchService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	contestRepo      repository.ContestRepository
	sender           interfaces.EmailSender
	logger           *logrus.Logger
}

// NewDispatchService 创建邮件执行服务
func NewDispatchService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	contestRepo repository.ContestRepository,
	sender interfaces.EmailSender,
	logger *logrus.Logger,
) *DispatchService {
	return &DispatchService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		contestRepo:      contestRepo,
		sender:           sender,
		logger:           logger,
	}
}

// Run 执行一轮到期通知发送，单条失败不阻塞整轮
func (s *DispatchService) Run(ctx context.Context, now time.Time) error {
	due, err := s.notificationRepo.ListDue(ctx, now)
	if err != nil {
		return fmt.Errorf("查询到期通知失败: %w", err)
	}
	if len(due) == 0 {
		return nil
	}
	s.logger.Infof("发现%d条到期通知待发送", len(due))

	for _, n := range due {
		s.dispatchOne(ctx, n)
	}
	return nil
}

// dispatchOne 处理单条通知：关联实体缺失视为孤儿直接删除，不算错误
func (s *DispatchService) dispatchOne(ctx context.Context, n *model.Notification) {
	log := s.logger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"user_id":         n.UserID,
		"contest_id":      n.ContestID,
		"lead":            n.MinutesBefore,
	})

	user, err := s.userRepo.GetByID(ctx, n.UserID)
	if err != nil {
		log.WithError(err).Warn("查询用户失败，跳过该条")
		return
	}
	contest, err := s.contestRepo.GetByID(ctx, n.ContestID)
	if err != nil {
		log.WithError(err).Warn("查询竞赛失败，跳过该条")
		return
	}
	if user == nil || contest == nil || user.Email == "" {
		// 用户或竞赛在排期与发送之间被删除：孤儿通知，直接移除
		if err := s.notificationRepo.Delete(ctx, n.ID); err != nil {
			log.WithError(err).Warn("删除孤儿通知失败")
		}
		return
	}

	subject := fmt.Sprintf("HackTrack Reminder: %s", contest.Name)
	if err := s.sender.Send(ctx, user.Email, subject, buildReminderBody(contest, n.MinutesBefore)); err != nil {
		// 发送失败：置failed终态，不自动重试，靠日志与failed行暴露给运维
		log.WithError(err).Error("邮件发送失败，通知置为failed")
		if err := s.notificationRepo.MarkFailed(ctx, n.ID); err != nil {
			log.WithError(err).Warn("标记failed失败")
		}
		return
	}

	// 发送成功：消费掉通知（删除而非归档，已发提醒不会重放）
	if err := s.notificationRepo.Delete(ctx, n.ID); err != nil {
		log.WithError(err).Warn("删除已发送通知失败")
		return
	}
	log.Infof("提醒邮件发送成功（%s）", leadLabel(n.MinutesBefore))
}

// leadLabel 提前量的展示文案
func leadLabel(minutesBefore int) string {
	if minutesBefore == 1440 {
		return "24 hours"
	}
	return "1 hour"
}

// buildReminderBody 组装提醒邮件HTML正文
func buildReminderBody(contest *model.Contest, minutesBefore int) string {
	label := "1-Hour Reminder"
	if minutesBefore == 1440 {
		label = "24-Hour Reminder"
	}
	return fmt.Sprintf(`
        <h1>HackTrack %s</h1>
        <p>The <b>%s</b> contest on %s is starting soon!</p>
        <p>Time Remaining: Approximately %s.</p>
        <p>Link: <a href="%s">Go to Contest</a></p>
    `, label, contest.Name, contest.Platform, leadLabel(minutesBefore), contest.URL)
}
