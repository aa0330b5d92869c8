package router

import (
	"net/http"
	"strings"

	"github.com/Andrew-Beniash/tai/config"
	"github.com/Andrew-Beniash/tai/internal/handler"
	"github.com/Andrew-Beniash/tai/internal/mcpserver"
	"github.com/Andrew-Beniash/tai/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
)

// Handlers 路由依赖的处理器
type Handlers struct {
	Auth     *handler.AuthHandler
	Project  *handler.ProjectHandler
	Task     *handler.TaskHandler
	Document *handler.DocumentHandler
	Chat     *handler.ChatHandler
	Action   *handler.ActionHandler
}

// Setup 注册路由。parser 为 nil 或未开启鉴权时不校验令牌；sse 为 nil 时不挂载 MCP。
func Setup(cfg *config.Config, h Handlers, parser middleware.TokenParser, sse *server.SSEServer) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	mcpBase := "/" + strings.Trim(cfg.MCP.BasePath, "/")
	// SSE 流不能被压缩缓冲
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{mcpBase})))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if sse != nil && cfg.MCP.Enabled {
		mcpserver.Mount(r, mcpBase, sse)
	}

	api := r.Group("/api")
	if cfg.Auth.Enabled && parser != nil {
		api.Use(middleware.Auth(parser, "/api/auth/"))
	}
	{
		api.POST("/auth/login", h.Auth.Login)
		api.GET("/users/me", h.Auth.Me)

		projects := api.Group("/projects")
		{
			projects.POST("", h.Project.Create)
			projects.GET("", h.Project.List)
			projects.GET("/:id", h.Project.Get)
			projects.PUT("/:id", h.Project.Update)
			projects.DELETE("/:id", h.Project.Delete)
			projects.GET("/:id/tasks", h.Task.GetByProject)
			projects.GET("/:id/tasks/stats", h.Project.GetStats)
			projects.GET("/:id/documents", h.Document.GetByProject)
			projects.POST("/:id/documents", h.Document.Upload)
			projects.POST("/:id/documents/reindex", h.Document.ReindexProject)
		}

		tasks := api.Group("/tasks")
		{
			tasks.POST("", h.Task.Create)
			tasks.GET("", h.Task.List)
			tasks.GET("/:id", h.Task.Get)
			tasks.PUT("/:id", h.Task.Update)
			tasks.DELETE("/:id", h.Task.Delete)
			tasks.PUT("/:id/status", h.Task.UpdateStatus)
			tasks.GET("/:id/next-statuses", h.Task.NextStatuses)
			tasks.GET("/:id/documents", h.Task.ListDocuments)
			tasks.PUT("/:id/documents", h.Task.AttachDocuments)
		}

		// 对话与操作
		task := api.Group("/task")
		{
			task.POST("/:id/chat", h.Chat.Chat)
			task.GET("/:id/preset-questions", h.Chat.PresetQuestions)
			task.GET("/:id/context", h.Chat.Context)
			task.GET("/:id/prompt", h.Chat.Prompt)
			task.GET("/:id/usage", h.Chat.Usage)
			task.POST("/:id/action", h.Action.Execute)
			task.GET("/:id/available-actions", h.Action.Available)
			task.GET("/:id/action-runs", h.Action.Runs)
		}

		docs := api.Group("/documents")
		{
			docs.GET("/index-status", h.Document.IndexStatus)
			docs.GET("/:id", h.Document.Get)
			docs.GET("/:id/preview", h.Document.Preview)
			docs.PUT("/:id", h.Document.Update)
			docs.DELETE("/:id", h.Document.Delete)
			docs.POST("/:id/reindex", h.Document.Reindex)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}
