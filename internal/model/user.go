package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// User 用户表（调度核心只读消费：平台偏好 + 日历同步开关 + 凭证）
type User struct {
	ID                 uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	Email              string         `gorm:"column:email;type:varchar(256);uniqueIndex;not null;comment:邮箱"`
	Name               string         `gorm:"column:name;type:varchar(128);not null;comment:用户名"`
	IsVerified         bool           `gorm:"column:is_verified;type:boolean;default:false;comment:邮箱是否已验证"`
	PreferredPlatforms datatypes.JSON `gorm:"column:preferred_platforms;type:jsonb;comment:偏好平台列表"`
	CalendarSync       bool           `gorm:"column:calendar_sync;type:boolean;default:false;comment:是否开启日历同步"`
	GoogleRefreshToken string         `gorm:"column:google_refresh_token;type:varchar(512);comment:Google刷新令牌（开启同步时非空）"`
	CreatedAt          time.Time      `gorm:"column:created_at;autoCreateTime;comment:创建时间"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;autoUpdateTime;comment:更新时间"`
}

// TableName 指定用户表名
func (User) TableName() string { return "users" }

// PlatformList 解析偏好平台JSONB为枚举切片（解析失败按空偏好处理）
func (u *User) PlatformList() []Platform {
	if len(u.PreferredPlatforms) == 0 {
		return nil
	}
	var names []string
	if err := json.Unmarshal(u.PreferredPlatforms, &names); err != nil {
		return nil
	}
	platforms := make([]Platform, 0, len(names))
	for _, n := range names {
		platforms = append(platforms, Platform(n))
	}
	return platforms
}

// PrefersPlatform 判断用户是否偏好指定平台
func (u *User) PrefersPlatform(p Platform) bool {
	for _, pref := range u.PlatformList() {
		if pref == p {
			return true
		}
	}
	return false
}
