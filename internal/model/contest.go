package model

import (
	"time"
)

// Contest 竞赛表（来自clist.by，按external_id幂等去重）
type Contest struct {
	ID              uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	ExternalID      string    `gorm:"column:external_id;type:varchar(64);uniqueIndex;not null;comment:clist.by原生ID（唯一去重键）"`
	Name            string    `gorm:"column:name;type:varchar(256);not null;comment:竞赛名称"`
	Platform        Platform  `gorm:"column:platform;type:varchar(32);index;not null;comment:平台枚举"`
	StartTime       time.Time `gorm:"column:start_time;type:timestamp;index;not null;comment:开始时间（UTC）"`
	EndTime         time.Time `gorm:"column:end_time;type:timestamp;not null;comment:结束时间（UTC）"`
	DurationSeconds int64     `gorm:"column:duration_seconds;type:bigint;not null;comment:时长（秒）"`
	URL             string    `gorm:"column:url;type:varchar(512);not null;comment:竞赛链接"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime;comment:创建时间"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime;comment:更新时间"`
}

// TableName 指定竞赛表名
func (Contest) TableName() string { return "contests" }
