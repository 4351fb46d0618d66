package repository

import (
	"context"
	"time"

	"hacktrack/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationRepository 通知计划仓储接口
type NotificationRepository interface {
	// InsertIfAbsent 按(user, contest, minutes_before)三元组幂等插入；
	// 已存在则不做任何修改（send_time不可变，failed不会被复活）
	InsertIfAbsent(ctx context.Context, n *model.Notification) error
	// ListDue 查询send_time已到且仍为pending的通知
	ListDue(ctx context.Context, now time.Time) ([]*model.Notification, error)
	// Delete 删除通知（发送成功后消费掉，不归档）
	Delete(ctx context.Context, id uint64) error
	// MarkFailed 标记为failed终态（不再重试）
	MarkFailed(ctx context.Context, id uint64) error
	// CountByContest 统计某竞赛下的通知条数（级联校验用）
	CountByContest(ctx context.Context, contestID uint64) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建NotificationRepository实例
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// InsertIfAbsent 冲突即无操作，依赖uk_user_contest_lead唯一约束兜底并发
func (r *notificationRepository) InsertIfAbsent(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "contest_id"}, {Name: "minutes_before"},
		},
		DoNothing: true,
	}).Create(n).Error
}

// ListDue 到期且pending的通知，按计划发送时间排序
func (r *notificationRepository) ListDue(ctx context.Context, now time.Time) ([]*model.Notification, error) {
	var list []*model.Notification
	if err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("status = ? AND send_time <= ?", model.NotificationStatusPending, now).
		Order("send_time ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Delete 删除通知
func (r *notificationRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Notification{}).Error
}

// MarkFailed 置为failed终态
func (r *notificationRepository) MarkFailed(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ?", id).
		Update("status", model.NotificationStatusFailed).Error
}

// CountByContest 统计某竞赛下的通知条数
func (r *notificationRepository) CountByContest(ctx context.Context, contestID uint64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("contest_id = ?", contestID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
