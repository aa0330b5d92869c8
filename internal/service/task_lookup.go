package service

import (
	"context"

	"github.com/Andrew-Beniash/tai/internal/pkg/rag"
	"github.com/Andrew-Beniash/tai/internal/repository"
)

// TaskLookup 基于仓储实现 rag.TaskLookup
type TaskLookup struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
}

var _ rag.TaskLookup = (*TaskLookup)(nil)

func NewTaskLookup(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository) *TaskLookup {
	return &TaskLookup{taskRepo: taskRepo, projectRepo: projectRepo}
}

func (l *TaskLookup) GetTask(ctx context.Context, taskID string) (*rag.TaskFields, error) {
	t, err := l.taskRepo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return &rag.TaskFields{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Client:      t.Client,
		TaxForm:     t.TaxForm,
		Status:      t.Status,
		DueDate:     t.DueDate,
		AssignedTo:  t.AssignedTo,
		Description: t.Description,
	}, nil
}

func (l *TaskLookup) GetProject(ctx context.Context, projectID string) (*rag.ProjectFields, error) {
	p, err := l.projectRepo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &rag.ProjectFields{
		ID:       p.ID,
		Name:     p.Name,
		Clients:  p.Clients,
		Services: p.Services,
	}, nil
}
