package model

import (
	"time"
)

// 通知状态机：pending -> 删除（发送成功）/ failed（发送失败，终态不重试）
const (
	NotificationStatusPending = "pending"
	NotificationStatusSent    = "sent"
	NotificationStatusFailed  = "failed"
)

// Notification 邮件提醒计划表（(user, contest, minutes_before)三元组全局唯一）
type Notification struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	UserID        uint64    `gorm:"column:user_id;type:bigint;not null;uniqueIndex:uk_user_contest_lead;comment:关联用户ID"`
	ContestID     uint64    `gorm:"column:contest_id;type:bigint;not null;uniqueIndex:uk_user_contest_lead;comment:关联竞赛ID"`
	MinutesBefore int       `gorm:"column:minutes_before;type:int;not null;uniqueIndex:uk_user_contest_lead;comment:提前分钟数（60/1440）"`
	SendTime      time.Time `gorm:"column:send_time;type:timestamp;index;not null;comment:计划发送时间（开赛时间-提前量）"`
	Status        string    `gorm:"column:status;type:varchar(16);default:pending;not null;comment:状态：pending/sent/failed"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime;comment:创建时间"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime;comment:更新时间"`
}

// TableName 指定通知表名
func (Notification) TableName() string { return "notifications" }
