package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/Andrew-Beniash/tai/internal/model"
	"github.com/Andrew-Beniash/tai/internal/repository"
	"github.com/Andrew-Beniash/tai/internal/service"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

//go:embed data.yaml
var defaultData []byte

type User struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
	Password string `yaml:"password"`
}

type Project struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Clients  []string `yaml:"clients"`
	Services []string `yaml:"services"`
}

type Document struct {
	ID        string `yaml:"id"`
	ProjectID string `yaml:"project_id"`
	FileName  string `yaml:"file_name"`
	FileType  string `yaml:"file_type"`
	Content   string `yaml:"content"`
}

type Task struct {
	ID          string   `yaml:"id"`
	ProjectID   string   `yaml:"project_id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	AssignedTo  string   `yaml:"assigned_to"`
	Client      string   `yaml:"client"`
	TaxForm     string   `yaml:"tax_form"`
	Status      string   `yaml:"status"`
	DueDate     string   `yaml:"due_date"`
	Documents   []string `yaml:"documents"`
}

// Data 示例数据
type Data struct {
	Users     []User     `yaml:"users"`
	Projects  []Project  `yaml:"projects"`
	Documents []Document `yaml:"documents"`
	Tasks     []Task     `yaml:"tasks"`
}

// Load 解析内置的示例数据
func Load() (*Data, error) {
	return Parse(defaultData)
}

func Parse(raw []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	return &d, nil
}

// Result 本次写入的记录数，已存在的记录不计入
type Result struct {
	Users     int
	Projects  int
	Documents int
	Tasks     int
}

func (r Result) String() string {
	return fmt.Sprintf("users=%d projects=%d documents=%d tasks=%d", r.Users, r.Projects, r.Documents, r.Tasks)
}

// Seeder 将示例数据写入数据库，可重复执行
type Seeder struct {
	users    repository.UserRepository
	projects repository.ProjectRepository
	docs     repository.DocumentRepository
	tasks    repository.TaskRepository
}

func NewSeeder(users repository.UserRepository, projects repository.ProjectRepository, docs repository.DocumentRepository, tasks repository.TaskRepository) *Seeder {
	return &Seeder{users: users, projects: projects, docs: docs, tasks: tasks}
}

// Apply 只创建不存在的记录，已有记录（可能被用户修改过）保持不变
func (s *Seeder) Apply(ctx context.Context, d *Data) (Result, error) {
	var res Result

	for _, u := range d.Users {
		created, err := ensure(ctx, u.ID, s.users.Get, func() error {
			hash, err := service.HashPassword(u.Password)
			if err != nil {
				return err
			}
			return s.users.Save(ctx, &model.User{ID: u.ID, Name: u.Name, Role: u.Role, PasswordHash: hash})
		})
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.ID, err)
		}
		if created {
			res.Users++
		}
	}

	for _, p := range d.Projects {
		created, err := ensure(ctx, p.ID, s.projects.Get, func() error {
			return s.projects.Create(ctx, &model.Project{ID: p.ID, Name: p.Name, Clients: p.Clients, Services: p.Services})
		})
		if err != nil {
			return res, fmt.Errorf("seed project %s: %w", p.ID, err)
		}
		if created {
			res.Projects++
		}
	}

	for _, doc := range d.Documents {
		content := strings.TrimSpace(doc.Content)
		created, err := ensure(ctx, doc.ID, s.docs.Get, func() error {
			return s.docs.Create(ctx, &model.Document{
				ID:        doc.ID,
				ProjectID: doc.ProjectID,
				FileName:  doc.FileName,
				FileType:  doc.FileType,
				Content:   content,
				SizeBytes: int64(len(content)),
			})
		})
		if err != nil {
			return res, fmt.Errorf("seed document %s: %w", doc.ID, err)
		}
		if created {
			res.Documents++
		}
	}

	for _, t := range d.Tasks {
		created, err := ensure(ctx, t.ID, s.tasks.Get, func() error {
			return s.tasks.Create(ctx, &model.Task{
				ID:          t.ID,
				ProjectID:   t.ProjectID,
				Title:       t.Title,
				Description: t.Description,
				AssignedTo:  t.AssignedTo,
				Client:      t.Client,
				TaxForm:     t.TaxForm,
				Status:      t.Status,
				DueDate:     t.DueDate,
			})
		})
		if err != nil {
			return res, fmt.Errorf("seed task %s: %w", t.ID, err)
		}
		if !created {
			continue
		}
		res.Tasks++
		if len(t.Documents) > 0 {
			if err := s.docs.SetTaskDocuments(ctx, t.ID, t.Documents); err != nil {
				return res, fmt.Errorf("seed task %s documents: %w", t.ID, err)
			}
		}
	}

	klog.V(6).Infof("[Seed] 示例数据写入完成: %s", res)
	return res, nil
}

// ensure 记录不存在时调用 create，返回是否新建
func ensure[T any](ctx context.Context, id string, get func(context.Context, string) (T, error), create func() error) (bool, error) {
	_, err := get(ctx, id)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	return true, create()
}
