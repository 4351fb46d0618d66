package repository

import (
	"context"
	"errors"

	"hacktrack/internal/model"

	"gorm.io/gorm"
)

// UserRepository 用户仓储接口（调度核心只读）
type UserRepository interface {
	// ListEligible 全量排期的候选用户：已验证且偏好平台非空
	ListEligible(ctx context.Context) ([]*model.User, error)
	// GetByID 通过主键获取用户，不存在返回(nil, nil)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建UserRepository实例
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// ListEligible 先筛已验证用户，偏好非空在内存判断（JSONB空值形态不止一种）
func (r *userRepository) ListEligible(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("is_verified = ?", true).
		Find(&users).Error; err != nil {
		return nil, err
	}

	eligible := make([]*model.User, 0, len(users))
	for _, u := range users {
		if len(u.PlatformList()) > 0 {
			eligible = append(eligible, u)
		}
	}
	return eligible, nil
}

// GetByID 用户可能在排期与发送之间被删除，不存在不视为错误
func (r *userRepository) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
