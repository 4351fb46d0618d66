package repository

import (
	"context"
	"errors"

	"hacktrack/internal/model"

	"gorm.io/gorm"
)

// CalendarEventRepository 日历事件关联仓储接口
type CalendarEventRepository interface {
	// GetLink 查询(user, contest)对应的日历关联，不存在返回(nil, nil)
	GetLink(ctx context.Context, userID, contestID uint64) (*model.CalendarEvent, error)
	// CreateLink 首次插入成功后记录关联（唯一约束兜底重复创建）
	CreateLink(ctx context.Context, link *model.CalendarEvent) error
}

type calendarEventRepository struct {
	db *gorm.DB
}

// NewCalendarEventRepository 创建CalendarEventRepository实例
func NewCalendarEventRepository(db *gorm.DB) CalendarEventRepository {
	return &calendarEventRepository{db: db}
}

// GetLink 不存在不视为错误（决定insert/update分支用）
func (r *calendarEventRepository) GetLink(ctx context.Context, userID, contestID uint64) (*model.CalendarEvent, error) {
	var link model.CalendarEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND contest_id = ?", userID, contestID).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// CreateLink 记录日历关联
func (r *calendarEventRepository) CreateLink(ctx context.Context, link *model.CalendarEvent) error {
	return r.db.WithContext(ctx).Create(link).Error
}
