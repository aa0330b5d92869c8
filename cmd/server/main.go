package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"k8s.io/klog/v2"

	"github.com/Andrew-Beniash/tai/config"
	"github.com/Andrew-Beniash/tai/internal/eventbus"
	"github.com/Andrew-Beniash/tai/internal/handler"
	"github.com/Andrew-Beniash/tai/internal/mcpserver"
	"github.com/Andrew-Beniash/tai/internal/pkg/database"
	"github.com/Andrew-Beniash/tai/internal/pkg/docsource"
	"github.com/Andrew-Beniash/tai/internal/pkg/llm"
	"github.com/Andrew-Beniash/tai/internal/pkg/rag"
	"github.com/Andrew-Beniash/tai/internal/repository"
	"github.com/Andrew-Beniash/tai/internal/router"
	"github.com/Andrew-Beniash/tai/internal/seed"
	"github.com/Andrew-Beniash/tai/internal/service"
	"github.com/Andrew-Beniash/tai/internal/service/orchestrator"
	"github.com/Andrew-Beniash/tai/internal/subscriber"
)

func main() {
	// 初始化 klog
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("服务启动中...")

	cfg := config.GetConfig()

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		klog.Fatalf("创建数据目录失败: %v", err)
	}
	if err := os.MkdirAll(cfg.Data.DocumentsDir, 0755); err != nil {
		klog.Fatalf("创建文档目录失败: %v", err)
	}

	// 初始化数据库
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		klog.Fatalf("初始化数据库失败: %v", err)
	}

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	usageRepo := repository.NewChatUsageRepository(db)
	runRepo := repository.NewActionRunRepository(db)

	// 上下文组装
	source := docsource.NewSource(docRepo, nil, cfg.Data.DocumentsDir)
	ragService, err := rag.NewService(rag.ConfigFrom(cfg.RAG), service.NewTaskLookup(taskRepo, projectRepo), source)
	if err != nil {
		klog.Fatalf("上下文组装配置无效: %v", err)
	}

	// 文档事件 + 后台索引
	bus := eventbus.NewDocEventBus()
	docService := service.NewDocumentService(docRepo, projectRepo, source, bus)
	// maxWorkers=2，文本提取主要消耗 CPU
	orch, err := orchestrator.NewOrchestrator(2, docService)
	if err != nil {
		klog.Fatalf("初始化索引调度器失败: %v", err)
	}
	orch.Start()
	defer orch.Stop()
	subscriber.NewDocEventSubscriber(ragService.Cache(), orch).Register(bus)

	if cfg.Data.WatchDocuments {
		adapter := &fileEventAdapter{docService: docService}
		watcher := docsource.NewWatcher(cfg.Data.DocumentsDir, 500*time.Millisecond, adapter.OnFileEvent)
		if err := watcher.Start(); err != nil {
			klog.Warningf("启动文档目录监听失败: %v", err)
		} else {
			defer watcher.Stop()
		}
	}

	if cfg.Data.SeedOnStart {
		seedDatabase(userRepo, projectRepo, docRepo, taskRepo)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		klog.Fatalf("初始化 LLM 客户端失败: %v", err)
	}

	// 初始化 Service
	authService := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	projectService := service.NewProjectService(projectRepo, taskRepo)
	taskService := service.NewTaskService(taskRepo, projectRepo, docRepo)
	usageService := service.NewUsageService(usageRepo)
	chatService := service.NewChatService(ragService, llmClient, taskRepo, usageService)
	actionService := service.NewActionService(runRepo, taskRepo, docRepo)

	// 初始化 Handler
	handlers := router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Project:  handler.NewProjectHandler(projectService),
		Task:     handler.NewTaskHandler(taskService),
		Document: handler.NewDocumentHandler(docService, orch),
		Chat:     handler.NewChatHandler(chatService, usageService),
		Action:   handler.NewActionHandler(actionService),
	}

	// 设置路由
	sse := mcpserver.NewSSEServer(ragService, cfg.MCP.BasePath)
	r := router.Setup(cfg, handlers, authService, sse)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Fatalf("服务启动失败: %v", err)
		}
	}()
	printBanner(cfg, llmClient)

	<-ctx.Done()
	klog.V(6).Info("收到退出信号，正在关闭服务...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		klog.Errorf("关闭 HTTP 服务失败: %v", err)
	}
}

// seedDatabase 写入演示数据，已存在的记录保持不变
func seedDatabase(users repository.UserRepository, projects repository.ProjectRepository, docs repository.DocumentRepository, tasks repository.TaskRepository) {
	data, err := seed.Load()
	if err != nil {
		klog.Errorf("加载演示数据失败: %v", err)
		return
	}
	res, err := seed.NewSeeder(users, projects, docs, tasks).Apply(context.Background(), data)
	if err != nil {
		klog.Errorf("写入演示数据失败: %v", err)
		return
	}
	klog.V(6).Infof("演示数据写入完成: %s", res)
}

func printBanner(cfg *config.Config, client *llm.Client) {
	bold := color.New(color.FgCyan, color.Bold)
	bold.Println("TAI context assembler")
	color.White("  http:      http://localhost:%s/api", cfg.Server.Port)
	if cfg.MCP.Enabled {
		color.White("  mcp (sse): http://localhost:%s%s/sse", cfg.Server.Port, cfg.MCP.BasePath)
	}
	color.White("  database:  %s", cfg.Database.Type)
	if client.IsMock() {
		color.Yellow("  llm:       mock (set llm.api_key to use %s)", cfg.LLM.Model)
	} else {
		color.Green("  llm:       %s", client.ModelName())
	}
	if !cfg.Auth.Enabled {
		color.Yellow("  auth:      disabled")
	}
}
