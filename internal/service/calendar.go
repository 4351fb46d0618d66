package service

import (
	"context"

	"hacktrack/internal/interfaces"
	"hacktrack/internal/model"
	"hacktrack/internal/repository"

	"github.com/sirupsen/logrus"
)

// CalendarSyncService 日历同步：以(user, contest)关联记录判定insert/update，
// 失败只记日志（本轮视为未同步，下轮sweep重试），绝不中断调用方循环
type CalendarSyncService struct {
	linkRepo    repository.CalendarEventRepository
	calendarAPI interfaces.CalendarAPI
	logger      *logrus.Logger
}

// NewCalendarSyncService 创建日历同步服务
func NewCalendarSyncService(linkRepo repository.CalendarEventRepository, calendarAPI interfaces.CalendarAPI, logger *logrus.Logger) *CalendarSyncService {
	return &CalendarSyncService{
		linkRepo:    linkRepo,
		calendarAPI: calendarAPI,
		logger:      logger,
	}
}

// SyncContest 同步单个竞赛到用户日历，返回本轮是否同步成功
func (s *CalendarSyncService) SyncContest(ctx context.Context, user *model.User, contest *model.Contest) bool {
	if !user.CalendarSync || user.GoogleRefreshToken == "" {
		return false
	}

	link, err := s.linkRepo.GetLink(ctx, user.ID, contest.ID)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":    user.ID,
			"contest_id": contest.ID,
		}).Warn("查询日历关联失败，跳过本轮同步")
		return false
	}

	existingEventID := ""
	if link != nil {
		existingEventID = link.GoogleEventID
	}

	eventData := model.CalendarEventData{
		Name:      contest.Name,
		StartTime: contest.StartTime,
		EndTime:   contest.EndTime,
		URL:       contest.URL,
	}
	googleEventID, err := s.calendarAPI.UpsertEvent(ctx, user.GoogleRefreshToken, eventData, existingEventID)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":    user.ID,
			"contest_id": contest.ID,
		}).Warn("日历upsert失败，等下轮sweep重试")
		return false
	}

	// 首次插入成功才落关联；关联已存在时远端已是update路径
	if link == nil {
		if err := s.linkRepo.CreateLink(ctx, &model.CalendarEvent{
			UserID:        user.ID,
			ContestID:     contest.ID,
			GoogleEventID: googleEventID,
		}); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"user_id":    user.ID,
				"contest_id": contest.ID,
			}).Warn("记录日历关联失败")
			return false
		}
	}
	return true
}
