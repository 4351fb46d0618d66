package model

import (
	"time"
)

// CalendarEvent 日历事件关联表（(user, contest)唯一；存在即代表插入已成功，决定insert/update分支）
type CalendarEvent struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	UserID        uint64    `gorm:"column:user_id;type:bigint;not null;uniqueIndex:uk_user_contest;comment:关联用户ID"`
	ContestID     uint64    `gorm:"column:contest_id;type:bigint;not null;uniqueIndex:uk_user_contest;comment:关联竞赛ID"`
	GoogleEventID string    `gorm:"column:google_event_id;type:varchar(128);not null;comment:Google日历事件ID"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime;comment:创建时间"`
}

// TableName 指定日历事件表名
func (CalendarEvent) TableName() string { return "calendar_events" }

// CalendarEventData 日历upsert能力所需的最小事件数据
type CalendarEventData struct {
	Name      string
	StartTime time.Time
	EndTime   time.Time
	URL       string
}
