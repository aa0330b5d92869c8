package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Andrew-Beniash/tai/internal/model"
	"github.com/Andrew-Beniash/tai/internal/repository"
	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

type ProjectService struct {
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
}

func NewProjectService(projectRepo repository.ProjectRepository, taskRepo repository.TaskRepository) *ProjectService {
	return &ProjectService{projectRepo: projectRepo, taskRepo: taskRepo}
}

type CreateProjectRequest struct {
	ID       string   `json:"project_id"`
	Name     string   `json:"name" binding:"required"`
	Clients  []string `json:"clients"`
	Services []string `json:"services"`
}

type UpdateProjectRequest struct {
	Name     *string  `json:"name"`
	Clients  []string `json:"clients"`
	Services []string `json:"services"`
}

// newID 生成带前缀的短 ID，例如 proj-1a2b3c4d
func newID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func (s *ProjectService) Create(ctx context.Context, req CreateProjectRequest) (*model.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	project := &model.Project{
		ID:       req.ID,
		Name:     name,
		Clients:  nonNil(req.Clients),
		Services: nonNil(req.Services),
	}
	if project.ID == "" {
		project.ID = newID("proj")
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}
	klog.V(6).Infof("[ProjectService] 创建项目: id=%s, name=%s", project.ID, project.Name)
	return project, nil
}

func (s *ProjectService) List(ctx context.Context) ([]model.Project, error) {
	return s.projectRepo.List(ctx)
}

func (s *ProjectService) Get(ctx context.Context, id string) (*model.Project, error) {
	return s.projectRepo.Get(ctx, id)
}

func (s *ProjectService) Update(ctx context.Context, id string, req UpdateProjectRequest) (*model.Project, error) {
	project, err := s.projectRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: project name is required", ErrInvalidInput)
		}
		project.Name = name
	}
	if req.Clients != nil {
		project.Clients = req.Clients
	}
	if req.Services != nil {
		project.Services = req.Services
	}
	if err := s.projectRepo.Save(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete 删除项目及其任务
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return err
	}
	klog.V(6).Infof("[ProjectService] 删除项目: id=%s", id)
	return nil
}

// TaskStats 项目下各状态的任务数
func (s *ProjectService) TaskStats(ctx context.Context, id string) (map[string]int64, error) {
	if _, err := s.projectRepo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.taskRepo.GetTaskStats(ctx, id)
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
