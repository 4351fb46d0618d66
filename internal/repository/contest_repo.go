package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hacktrack/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContestRepository 竞赛仓储接口
type ContestRepository interface {
	// UpsertBatch 按external_id幂等入库（冲突则更新全部可变字段，唯一键不动）
	UpsertBatch(ctx context.Context, contests []*model.Contest) error
	// DeleteEndedBefore 清理早于cutoff结束的竞赛，并级联删除其通知与日历事件，返回删除条数
	DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	// ListWindow 全量排期窗口：尚未结束且开始时间不晚于until的竞赛
	ListWindow(ctx context.Context, now, until time.Time) ([]*model.Contest, error)
	// ListUpcomingByPlatforms 按平台拉取尚未开始的全部竞赛（单用户按需排期用）
	ListUpcomingByPlatforms(ctx context.Context, now time.Time, platforms []model.Platform) ([]*model.Contest, error)
	// GetByID 通过主键获取竞赛，不存在返回(nil, nil)
	GetByID(ctx context.Context, id uint64) (*model.Contest, error)
}

type contestRepository struct {
	db *gorm.DB
}

// NewContestRepository 创建ContestRepository实例
func NewContestRepository(db *gorm.DB) ContestRepository {
	return &contestRepository{db: db}
}

// UpsertBatch 按external_id幂等入库
func (r *contestRepository) UpsertBatch(ctx context.Context, contests []*model.Contest) error {
	if len(contests) == 0 {
		return nil
	}

	// 开启事务
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("开启事务失败: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
		}
	}()

	for i := range contests {
		// 唯一约束冲突时只更新可变字段，external_id保持不变
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "platform", "start_time", "end_time", "duration_seconds", "url", "updated_at",
			}),
		}).Create(contests[i]).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("保存Contest失败: %w, external_id: %s", err, contests[i].ExternalID)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// DeleteEndedBefore 保留期清理：级联删除通知、日历事件，最后删竞赛本身
func (r *contestRepository) DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var ids []uint64
	if err := r.db.WithContext(ctx).Model(&model.Contest{}).
		Where("end_time < ?", cutoff).
		Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("查询过期竞赛失败: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, fmt.Errorf("开启事务失败: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("contest_id IN ?", ids).Delete(&model.Notification{}).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("级联删除通知失败: %w", err)
	}
	if err := tx.Where("contest_id IN ?", ids).Delete(&model.CalendarEvent{}).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("级联删除日历事件失败: %w", err)
	}
	result := tx.Where("id IN ?", ids).Delete(&model.Contest{})
	if result.Error != nil {
		tx.Rollback()
		return 0, fmt.Errorf("删除竞赛失败: %w", result.Error)
	}

	if err := tx.Commit().Error; err != nil {
		return 0, fmt.Errorf("提交事务失败: %w", err)
	}
	return result.RowsAffected, nil
}

// ListWindow 尚未结束且30天内开始的竞赛（全量排期用）
func (r *contestRepository) ListWindow(ctx context.Context, now, until time.Time) ([]*model.Contest, error) {
	var contests []*model.Contest
	if err := r.db.WithContext(ctx).Model(&model.Contest{}).
		Where("end_time > ? AND start_time <= ?", now, until).
		Order("start_time ASC").
		Find(&contests).Error; err != nil {
		return nil, err
	}
	return contests, nil
}

// ListUpcomingByPlatforms 按平台过滤的全部未开始竞赛
func (r *contestRepository) ListUpcomingByPlatforms(ctx context.Context, now time.Time, platforms []model.Platform) ([]*model.Contest, error) {
	if len(platforms) == 0 {
		return []*model.Contest{}, nil
	}
	var contests []*model.Contest
	if err := r.db.WithContext(ctx).Model(&model.Contest{}).
		Where("platform IN ? AND start_time >= ?", platforms, now).
		Order("start_time ASC").
		Find(&contests).Error; err != nil {
		return nil, err
	}
	return contests, nil
}

// GetByID 竞赛可能在排期与发送之间被保留期清理删掉，不存在不视为错误
func (r *contestRepository) GetByID(ctx context.Context, id uint64) (*model.Contest, error) {
	var c model.Contest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
