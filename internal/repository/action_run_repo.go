package repository

import (
	"context"

	"github.com/Andrew-Beniash/tai/internal/model"
	"gorm.io/gorm"
)

type actionRunRepository struct {
	db *gorm.DB
}

func NewActionRunRepository(db *gorm.DB) ActionRunRepository {
	return &actionRunRepository{db: db}
}

func (r *actionRunRepository) Create(ctx context.Context, run *model.ActionRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *actionRunRepository) ListByTask(ctx context.Context, taskID string) ([]model.ActionRun, error) {
	var runs []model.ActionRun
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at desc").
		Find(&runs).Error
	return runs, err
}
