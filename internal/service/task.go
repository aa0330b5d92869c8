package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Andrew-Beniash/tai/internal/model"
	"github.com/Andrew-Beniash/tai/internal/repository"
	"github.com/Andrew-Beniash/tai/internal/service/statemachine"
	"k8s.io/klog/v2"
)

type TaskService struct {
	taskRepo     repository.TaskRepository
	projectRepo  repository.ProjectRepository
	docRepo      repository.DocumentRepository
	stateMachine *statemachine.TaskStateMachine
}

func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, docRepo repository.DocumentRepository) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		projectRepo:  projectRepo,
		docRepo:      docRepo,
		stateMachine: statemachine.NewTaskStateMachine(),
	}
}

type CreateTaskRequest struct {
	ID          string   `json:"task_id"`
	ProjectID   string   `json:"project_id" binding:"required"`
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	AssignedTo  string   `json:"assigned_to"`
	Client      string   `json:"client"`
	TaxForm     string   `json:"tax_form"`
	Status      string   `json:"status"`
	DueDate     string   `json:"due_date"`
	DocumentIDs []string `json:"document_ids"`
}

// UpdateTaskRequest 仅更新非 nil 字段；状态变更需满足状态机
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	AssignedTo  *string `json:"assigned_to"`
	Client      *string `json:"client"`
	TaxForm     *string `json:"tax_form"`
	Status      *string `json:"status"`
	DueDate     *string `json:"due_date"`
}

func (s *TaskService) Create(ctx context.Context, req CreateTaskRequest) (*model.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: task title is required", ErrInvalidInput)
	}
	if _, err := s.projectRepo.Get(ctx, req.ProjectID); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = model.TaskStatusNotStarted
	}
	if _, ok := statemachine.ParseTaskStatus(status); !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	task := &model.Task{
		ID:          req.ID,
		ProjectID:   req.ProjectID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Client:      req.Client,
		TaxForm:     req.TaxForm,
		Status:      status,
		DueDate:     req.DueDate,
	}
	if task.ID == "" {
		task.ID = newID("task")
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}
	if len(req.DocumentIDs) > 0 {
		if err := s.AttachDocuments(ctx, task.ID, req.DocumentIDs); err != nil {
			return nil, err
		}
	}
	klog.V(6).Infof("[TaskService] 创建任务: id=%s, project=%s, status=%s", task.ID, task.ProjectID, task.Status)
	return task, nil
}

func (s *TaskService) List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error) {
	return s.taskRepo.List(ctx, filter)
}

func (s *TaskService) Get(ctx context.Context, id string) (*model.Task, error) {
	return s.taskRepo.Get(ctx, id)
}

func (s *TaskService) Update(ctx context.Context, id string, req UpdateTaskRequest) (*model.Task, error) {
	task, err := s.taskRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != nil && *req.Status != task.Status {
		if err := s.transition(task, *req.Status); err != nil {
			return nil, err
		}
	}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, fmt.Errorf("%w: task title is required", ErrInvalidInput)
		}
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.AssignedTo != nil {
		task.AssignedTo = *req.AssignedTo
	}
	if req.Client != nil {
		task.Client = *req.Client
	}
	if req.TaxForm != nil {
		task.TaxForm = *req.TaxForm
	}
	if req.DueDate != nil {
		task.DueDate = *req.DueDate
	}
	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateStatus 按状态机变更任务状态
func (s *TaskService) UpdateStatus(ctx context.Context, id, status string) (*model.Task, error) {
	return s.Update(ctx, id, UpdateTaskRequest{Status: &status})
}

func (s *TaskService) transition(task *model.Task, to string) error {
	target, ok := statemachine.ParseTaskStatus(to)
	if !ok {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	if err := s.stateMachine.Transition(statemachine.TaskStatus(task.Status), target, task.ID); err != nil {
		return err
	}
	task.Status = string(target)
	return nil
}

// NextStatuses 任务当前可迁移到的状态
func (s *TaskService) NextStatuses(ctx context.Context, id string) ([]string, error) {
	task, err := s.taskRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, st := range s.stateMachine.NextStatuses(statemachine.TaskStatus(task.Status)) {
		out = append(out, string(st))
	}
	return out, nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	return s.taskRepo.Delete(ctx, id)
}

// AttachDocuments 设置任务文档，docIDs 的顺序即检索时的文档顺序
// 文档必须存在且与任务属于同一项目
func (s *TaskService) AttachDocuments(ctx context.Context, taskID string, docIDs []string) error {
	task, err := s.taskRepo.Get(ctx, taskID)
	if err != nil {
		return err
	}
	docs, err := s.docRepo.GetByIDs(ctx, docIDs)
	if err != nil {
		return err
	}
	found := make(map[string]model.Document, len(docs))
	for _, d := range docs {
		found[d.ID] = d
	}
	for _, id := range docIDs {
		d, ok := found[id]
		if !ok {
			return fmt.Errorf("%w: document %s", repository.ErrNotFound, id)
		}
		if d.ProjectID != "" && d.ProjectID != task.ProjectID {
			return fmt.Errorf("%w: document %s belongs to project %s", ErrInvalidInput, id, d.ProjectID)
		}
	}
	if err := s.docRepo.SetTaskDocuments(ctx, taskID, docIDs); err != nil {
		return err
	}
	klog.V(6).Infof("[TaskService] 设置任务文档: taskID=%s, docs=%v", taskID, docIDs)
	return nil
}

func (s *TaskService) ListDocuments(ctx context.Context, taskID string) ([]model.Document, error) {
	if _, err := s.taskRepo.Get(ctx, taskID); err != nil {
		return nil, err
	}
	return s.docRepo.ListByTask(ctx, taskID)
}
