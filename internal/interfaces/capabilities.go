package interfaces

import (
	"context"

	"hacktrack/internal/model"
)

// ContestFeed 外部竞赛数据源必须实现的核心接口
type ContestFeed interface {
	GetName() string                                                                   // 数据源名称
	FetchUpcoming(ctx context.Context) ([]*model.ContestRecord, error)                 // 拉取即将开始的竞赛窗口
	ConvertToDBModel(raw []*model.ContestRecord) ([]*model.Contest, error)             // 归一化为数据库模型（未知平台跳过）
}

// CalendarAPI 日历upsert能力（existingEventID非空走update分支，否则insert）
type CalendarAPI interface {
	UpsertEvent(ctx context.Context, refreshToken string, event model.CalendarEventData, existingEventID string) (string, error)
}

// EmailSender 邮件发送能力
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
