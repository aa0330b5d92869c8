package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/Andrew-Beniash/tai/config"
	"github.com/Andrew-Beniash/tai/internal/pkg/database"
	"github.com/Andrew-Beniash/tai/internal/pkg/docsource"
	"github.com/Andrew-Beniash/tai/internal/pkg/rag"
	"github.com/Andrew-Beniash/tai/internal/repository"
	"github.com/Andrew-Beniash/tai/internal/service"
)

var (
	dsn       string
	dbType    string
	docsDir   string
	timeout   time.Duration
	maxTokens int
	asJSON    bool
)

// rootCmd taictl 根命令
var rootCmd = &cobra.Command{
	Use:   "taictl",
	Short: "Inspect task context assembly without the HTTP server",
	Long: `taictl talks to the same database as the server and runs context
assembly in-process, so retrieval results can be inspected offline.

Available subcommands:
  seed    - Load the demo users, projects, documents and tasks
  context - Show the assembled context for a task and question
  prompt  - Show the system and user prompt sent to the model
  config  - Write the effective configuration to a YAML file`,
	SilenceUsage: true,
}

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCmd.PersistentFlags().StringVar(&dbType, "db-type", "", "Database type: sqlite or mysql (default: from config)")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Database DSN (default: from config)")
	rootCmd.PersistentFlags().StringVar(&docsDir, "documents-dir", "", "Directory holding uploaded documents (default: from config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	contextCmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Token budget (default: rag.token_budget)")
	contextCmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw assembled context as JSON")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env 命令共享的依赖
type env struct {
	cfg *config.Config
	db  *gorm.DB
}

func openEnv() (*env, error) {
	cfg := config.GetConfig()
	if dbType != "" {
		cfg.Database.Type = dbType
	}
	if dsn != "" {
		cfg.Database.DSN = dsn
	}
	if docsDir != "" {
		cfg.Data.DocumentsDir = docsDir
	}
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &env{cfg: cfg, db: db}, nil
}

// ragService 与服务端相同的组装配置
func (e *env) ragService() (*rag.Service, error) {
	taskRepo := repository.NewTaskRepository(e.db)
	projectRepo := repository.NewProjectRepository(e.db)
	docRepo := repository.NewDocumentRepository(e.db)
	source := docsource.NewSource(docRepo, nil, e.cfg.Data.DocumentsDir)
	return rag.NewService(rag.ConfigFrom(e.cfg.RAG), service.NewTaskLookup(taskRepo, projectRepo), source)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
