package service

import (
	"context"
	"testing"

	"github.com/Andrew-Beniash/tai/internal/eventbus"
	"github.com/Andrew-Beniash/tai/internal/model"
	"github.com/Andrew-Beniash/tai/internal/pkg/database"
	"github.com/Andrew-Beniash/tai/internal/pkg/docsource"
	"github.com/Andrew-Beniash/tai/internal/repository"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// testEnv 基于内存 sqlite 的真实仓储
type testEnv struct {
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
	docs     repository.DocumentRepository
	usage    repository.ChatUsageRepository
	runs     repository.ActionRunRepository
	users    repository.UserRepository
	source   *docsource.Source
	bus      *eventbus.DocEventBus
	root     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db error: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db error: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate error: %v", err)
	}

	docs := repository.NewDocumentRepository(db)
	root := t.TempDir()
	return &testEnv{
		projects: repository.NewProjectRepository(db),
		tasks:    repository.NewTaskRepository(db),
		docs:     docs,
		usage:    repository.NewChatUsageRepository(db),
		runs:     repository.NewActionRunRepository(db),
		users:    repository.NewUserRepository(db),
		source:   docsource.NewSource(docs, nil, root),
		bus:      eventbus.NewDocEventBus(),
		root:     root,
	}
}

const (
	missingItemsText = "ACME CORPORATION - CLIENT RESPONSES\n\nMissing Items:\n- Officer compensation documentation is still needed.\n- Fixed asset additions schedule is incomplete."
	financialsText   = "Income Statement\nTotal Revenue: $5,435,000\nCost of Goods Sold: $2,850,000\nNet Income: $1,185,000"
)

// seed 创建 proj-001 / task-001（1120）以及两份内联文本文档
func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed error: %v", err)
		}
	}
	must(e.projects.Create(ctx, &model.Project{
		ID:       "proj-001",
		Name:     "Acme Corp 2024 Tax Filing",
		Clients:  []string{"Acme Corporation"},
		Services: []string{"Corporate Tax Return"},
	}))
	must(e.projects.Create(ctx, &model.Project{ID: "proj-002", Name: "Beta LLC 2024 Partnership Returns"}))
	must(e.tasks.Create(ctx, &model.Task{
		ID:          "task-001",
		ProjectID:   "proj-001",
		Title:       "Prepare Form 1120",
		Client:      "Acme Corporation",
		TaxForm:     "1120",
		Status:      model.TaskStatusInProgress,
		DueDate:     "2024-04-15",
		AssignedTo:  "jeff",
		Description: "Prepare the corporate income tax return",
	}))
	must(e.tasks.Create(ctx, &model.Task{ID: "task-002", ProjectID: "proj-001", Title: "Review", TaxForm: "9999", Status: model.TaskStatusNotStarted}))
	must(e.docs.Create(ctx, &model.Document{ID: "doc-001", ProjectID: "proj-001", FileName: "financial_statement.xlsx", FileType: "xlsx", Content: financialsText}))
	must(e.docs.Create(ctx, &model.Document{ID: "doc-002", ProjectID: "proj-001", FileName: "client_responses.docx", FileType: "docx", Content: missingItemsText}))
	must(e.docs.Create(ctx, &model.Document{ID: "doc-004", ProjectID: "proj-002", FileName: "prior_year_return.pdf", FileType: "pdf", Content: "Form 1065"}))
	must(e.docs.SetTaskDocuments(ctx, "task-001", []string{"doc-001", "doc-002"}))
}
