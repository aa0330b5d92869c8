package repository

import (
	"context"

	"github.com/Andrew-Beniash/tai/internal/model"
	"gorm.io/gorm"
)

type chatUsageRepository struct {
	db *gorm.DB
}

// NewChatUsageRepository 创建对话用量仓储
func NewChatUsageRepository(db *gorm.DB) ChatUsageRepository {
	return &chatUsageRepository{db: db}
}

// Create 新增对话用量记录
func (r *chatUsageRepository) Create(ctx context.Context, usage *model.ChatUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

// ListByTask 查询任务的全部用量记录，最新的在前
func (r *chatUsageRepository) ListByTask(ctx context.Context, taskID string) ([]model.ChatUsage, error) {
	var usages []model.ChatUsage
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("id DESC").
		Find(&usages).Error
	return usages, err
}
