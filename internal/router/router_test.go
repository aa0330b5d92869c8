package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Andrew-Beniash/tai/config"
	"github.com/Andrew-Beniash/tai/internal/eventbus"
	"github.com/Andrew-Beniash/tai/internal/handler"
	"github.com/Andrew-Beniash/tai/internal/mcpserver"
	"github.com/Andrew-Beniash/tai/internal/pkg/database"
	"github.com/Andrew-Beniash/tai/internal/pkg/docsource"
	"github.com/Andrew-Beniash/tai/internal/pkg/llm"
	"github.com/Andrew-Beniash/tai/internal/pkg/rag"
	"github.com/Andrew-Beniash/tai/internal/repository"
	"github.com/Andrew-Beniash/tai/internal/seed"
	"github.com/Andrew-Beniash/tai/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newEngine(t *testing.T, authEnabled bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.Server.Mode = "test"
	cfg.Auth.Enabled = authEnabled

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	users := repository.NewUserRepository(db)
	projects := repository.NewProjectRepository(db)
	tasks := repository.NewTaskRepository(db)
	docs := repository.NewDocumentRepository(db)
	data, err := seed.Load()
	require.NoError(t, err)
	_, err = seed.NewSeeder(users, projects, docs, tasks).Apply(context.Background(), data)
	require.NoError(t, err)

	source := docsource.NewSource(docs, nil, t.TempDir())
	ragSvc, err := rag.NewService(rag.DefaultConfig(), service.NewTaskLookup(tasks, projects), source)
	require.NoError(t, err)
	usage := service.NewUsageService(repository.NewChatUsageRepository(db))
	auth := service.NewAuthService(users, cfg.Auth.JWTSecret, time.Hour)
	completer := llm.NewClientWithModel(llm.NewMockChatModel(), llm.MockModelName, true)

	h := Handlers{
		Auth:     handler.NewAuthHandler(auth),
		Project:  handler.NewProjectHandler(service.NewProjectService(projects, tasks)),
		Task:     handler.NewTaskHandler(service.NewTaskService(tasks, projects, docs)),
		Document: handler.NewDocumentHandler(service.NewDocumentService(docs, projects, source, eventbus.NewDocEventBus()), nil),
		Chat:     handler.NewChatHandler(service.NewChatService(ragSvc, completer, tasks, usage), usage),
		Action:   handler.NewActionHandler(service.NewActionService(repository.NewActionRunRepository(db), tasks, docs)),
	}
	return Setup(cfg, h, auth, mcpserver.NewSSEServer(ragSvc, cfg.MCP.BasePath))
}

func request(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndNotFound(t *testing.T) {
	r := newEngine(t, true)

	w := request(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = request(r, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoginFlow(t *testing.T) {
	r := newEngine(t, true)

	w := request(r, http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(r, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "jeff", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(r, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "jeff", "password": "password"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login service.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = request(r, http.MethodGet, "/api/users/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"Preparer"`)

	w = request(r, http.MethodGet, "/api/tasks?assigned_to=me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	assert.Len(t, tasks, 4)
}

func TestSeededChatScenario(t *testing.T) {
	r := newEngine(t, false)

	w := request(r, http.MethodPost, "/api/task/task-002/chat", "", map[string]string{"message": "What information is missing?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp service.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.References, service.Reference{Source: "client_responses.docx", ID: "doc-003"})
	require.NotEmpty(t, resp.SuggestedActions)
	assert.Equal(t, service.ActionGenerateMissingInfo, resp.SuggestedActions[0].ActionID)

	w = request(r, http.MethodGet, "/api/task/task-005/context?query=risks", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"snippets":[]`)

	w = request(r, http.MethodGet, "/api/task/task-404/prompt?query=risks", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
