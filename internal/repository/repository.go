package repository

import (
	"context"
	"errors"

	"github.com/Andrew-Beniash/tai/internal/model"
	"gorm.io/gorm"
)

// ErrNotFound 记录不存在错误
var ErrNotFound = errors.New("record not found")

type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	List(ctx context.Context) ([]model.Project, error)
	Get(ctx context.Context, id string) (*model.Project, error)
	Save(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id string) error
}

// TaskFilter 任务列表过滤条件，空字段不过滤
type TaskFilter struct {
	ProjectID  string
	AssignedTo string
	Status     string
}

type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	List(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	Get(ctx context.Context, id string) (*model.Task, error)
	Save(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id string) error
	GetTaskStats(ctx context.Context, projectID string) (map[string]int64, error)
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	List(ctx context.Context, projectID string) ([]model.Document, error)
	Get(ctx context.Context, id string) (*model.Document, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.Document, error)
	Save(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, id string) error

	// ListByTask 按关联顺序返回任务文档
	ListByTask(ctx context.Context, taskID string) ([]model.Document, error)
	// SetTaskDocuments 用 docIDs 替换任务的全部文档关联，顺序即检索顺序
	SetTaskDocuments(ctx context.Context, taskID string, docIDs []string) error
	// FindByStoragePath 按存储路径查找文档
	FindByStoragePath(ctx context.Context, path string) ([]model.Document, error)
}

type ChatUsageRepository interface {
	Create(ctx context.Context, usage *model.ChatUsage) error
	ListByTask(ctx context.Context, taskID string) ([]model.ChatUsage, error)
}

type ActionRunRepository interface {
	Create(ctx context.Context, run *model.ActionRun) error
	ListByTask(ctx context.Context, taskID string) ([]model.ActionRun, error)
}

type UserRepository interface {
	Get(ctx context.Context, id string) (*model.User, error)
	Save(ctx context.Context, user *model.User) error
}

// notFound 把 gorm 的记录不存在错误转换为 ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
