package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/Andrew-Beniash/tai/internal/eventbus"
	"github.com/Andrew-Beniash/tai/internal/model"
	"github.com/Andrew-Beniash/tai/internal/pkg/database"
	"github.com/Andrew-Beniash/tai/internal/pkg/docsource"
	"github.com/Andrew-Beniash/tai/internal/pkg/llm"
	"github.com/Andrew-Beniash/tai/internal/pkg/rag"
	"github.com/Andrew-Beniash/tai/internal/repository"
	"github.com/Andrew-Beniash/tai/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	engine *gin.Engine
	root   string
}

// newTestServer 基于内存 sqlite 与模拟模型搭建处理器
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithQueue(t, nil)
}

func newTestServerWithQueue(t *testing.T, queue IndexQueue) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	root := t.TempDir()
	source := docsource.NewSource(docRepo, nil, root)

	ctx := context.Background()
	require.NoError(t, projectRepo.Create(ctx, &model.Project{ID: "proj-001", Name: "Acme Corp 2024 Tax Filing", Clients: []string{"Acme Corporation"}}))
	require.NoError(t, taskRepo.Create(ctx, &model.Task{ID: "task-001", ProjectID: "proj-001", Title: "Prepare Form 1120", TaxForm: "1120", Status: model.TaskStatusInProgress, AssignedTo: "jeff"}))
	require.NoError(t, docRepo.Create(ctx, &model.Document{ID: "doc-001", ProjectID: "proj-001", FileName: "client_responses.docx", FileType: "docx", Content: "Missing Items:\n- Officer compensation documentation is still needed."}))
	require.NoError(t, docRepo.SetTaskDocuments(ctx, "task-001", []string{"doc-001"}))

	ragSvc, err := rag.NewService(rag.DefaultConfig(), service.NewTaskLookup(taskRepo, projectRepo), source)
	require.NoError(t, err)
	usage := service.NewUsageService(repository.NewChatUsageRepository(db))
	completer := llm.NewClientWithModel(llm.NewMockChatModel(), llm.MockModelName, true)

	docs := NewDocumentHandler(service.NewDocumentService(docRepo, projectRepo, source, eventbus.NewDocEventBus()), queue)
	tasks := NewTaskHandler(service.NewTaskService(taskRepo, projectRepo, docRepo))
	projects := NewProjectHandler(service.NewProjectService(projectRepo, taskRepo))
	chat := NewChatHandler(service.NewChatService(ragSvc, completer, taskRepo, usage), usage)
	actions := NewActionHandler(service.NewActionService(repository.NewActionRunRepository(db), taskRepo, docRepo))

	r := gin.New()
	r.GET("/projects/:id", projects.Get)
	r.POST("/projects", projects.Create)
	r.GET("/projects/:id/documents", docs.GetByProject)
	r.POST("/projects/:id/documents", docs.Upload)
	r.POST("/projects/:id/documents/reindex", docs.ReindexProject)
	r.GET("/documents/:id/preview", docs.Preview)
	r.POST("/documents/:id/reindex", docs.Reindex)
	r.GET("/tasks", tasks.List)
	r.PUT("/tasks/:id/status", tasks.UpdateStatus)
	r.PUT("/tasks/:id/documents", tasks.AttachDocuments)
	r.POST("/task/:id/chat", chat.Chat)
	r.GET("/task/:id/context", chat.Context)
	r.GET("/task/:id/usage", chat.Usage)
	r.GET("/task/:id/preset-questions", chat.PresetQuestions)
	r.POST("/task/:id/action", actions.Execute)
	r.GET("/task/:id/available-actions", actions.Available)

	return &testServer{engine: r, root: root}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

