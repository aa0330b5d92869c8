package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Data     DataConfig     `yaml:"data"`
	RAG      RAGConfig      `yaml:"rag"`
	Auth     AuthConfig     `yaml:"auth"`
	MCP      MCPConfig      `yaml:"mcp"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite, mysql
	DSN  string `yaml:"dsn"`
}

type LLMConfig struct {
	APIURL      string  `yaml:"api_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

type DataConfig struct {
	Dir          string `yaml:"dir"`
	DocumentsDir string `yaml:"documents_dir"`
	// WatchDocuments 监听文档目录变化，文件更新后清理切片缓存
	WatchDocuments bool `yaml:"watch_documents"`
	SeedOnStart    bool `yaml:"seed_on_start"`
}

// RAGConfig 上下文组装参数
type RAGConfig struct {
	ChunkSize        int     `yaml:"chunk_size"`
	ChunkOverlap     int     `yaml:"chunk_overlap"`
	MaxSnippets      int     `yaml:"max_snippets"`
	TokenBudget      int     `yaml:"token_budget"`
	CharsPerToken    float64 `yaml:"chars_per_token"`
	ReserveTokens    int     `yaml:"reserve_tokens"`
	FetchConcurrency int     `yaml:"fetch_concurrency"`
	CacheEnabled     bool    `yaml:"cache_enabled"`
}

type AuthConfig struct {
	Enabled   bool          `yaml:"enabled"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type MCPConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BasePath string `yaml:"base_path"`
}

var (
	cfg  *Config
	once sync.Once
)

func GetConfig() *Config {
	once.Do(func() {
		cfg = loadConfig()
	})
	return cfg
}

// Default 默认配置，缺少配置文件和环境变量时也能正常启动
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "./data/tai.db",
		},
		LLM: LLMConfig{
			APIURL:      "https://api.openai.com/v1",
			Model:       "gpt-4o",
			MaxTokens:   1500,
			Temperature: 0.7,
		},
		Data: DataConfig{
			Dir:          "./data",
			DocumentsDir: "./data/documents",
			SeedOnStart:  true,
		},
		RAG: RAGConfig{
			ChunkSize:        1000,
			ChunkOverlap:     200,
			MaxSnippets:      20,
			TokenBudget:      8000,
			CharsPerToken:    4.0,
			ReserveTokens:    400,
			FetchConcurrency: 4,
		},
		Auth: AuthConfig{
			Enabled:   true,
			JWTSecret: "tai-dev-secret",
			TokenTTL:  24 * time.Hour,
		},
		MCP: MCPConfig{
			Enabled:  true,
			BasePath: "/mcp",
		},
	}
}

func loadConfig() *Config {
	config := Default()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			klog.Warningf("解析配置文件失败，使用默认配置: path=%s, error=%v", configPath, err)
		}
	}

	applyEnv(config, os.Getenv)
	return config
}

// applyEnv 环境变量优先级高于配置文件
func applyEnv(config *Config, getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		config.Server.Port = port
	}
	if mode := getenv("GIN_MODE"); mode != "" {
		config.Server.Mode = mode
	}

	if apiKey := getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}
	if baseURL := getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.LLM.APIURL = baseURL
	}
	if model := getenv("OPENAI_MODEL_NAME"); model != "" {
		config.LLM.Model = model
	}

	// 数据库环境变量
	if dbType := getenv("DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbDSN := getenv("DB_DSN"); dbDSN != "" {
		config.Database.DSN = dbDSN
	}

	// 数据目录环境变量
	if dataDir := getenv("DATA_DIR"); dataDir != "" {
		config.Data.Dir = dataDir
		config.Data.DocumentsDir = ""
	}
	if docDir := getenv("DOCUMENTS_DIR"); docDir != "" {
		config.Data.DocumentsDir = docDir
	}
	if config.Data.DocumentsDir == "" {
		config.Data.DocumentsDir = filepath.Join(config.Data.Dir, "documents")
	}
	envBool(getenv, "WATCH_DOCUMENTS", &config.Data.WatchDocuments)
	envBool(getenv, "SEED_ON_START", &config.Data.SeedOnStart)

	envInt(getenv, "RAG_CHUNK_SIZE", &config.RAG.ChunkSize)
	envInt(getenv, "RAG_CHUNK_OVERLAP", &config.RAG.ChunkOverlap)
	envInt(getenv, "RAG_MAX_SNIPPETS", &config.RAG.MaxSnippets)
	envInt(getenv, "RAG_TOKEN_BUDGET", &config.RAG.TokenBudget)
	envFloat(getenv, "RAG_CHARS_PER_TOKEN", &config.RAG.CharsPerToken)
	envInt(getenv, "RAG_RESERVE_TOKENS", &config.RAG.ReserveTokens)
	envInt(getenv, "RAG_FETCH_CONCURRENCY", &config.RAG.FetchConcurrency)
	envBool(getenv, "RAG_CACHE_ENABLED", &config.RAG.CacheEnabled)

	envBool(getenv, "AUTH_ENABLED", &config.Auth.Enabled)
	if secret := getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}
	envBool(getenv, "MCP_ENABLED", &config.MCP.Enabled)
}

func envInt(getenv func(string) string, key string, dst *int) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		klog.Warningf("环境变量格式错误，忽略: %s=%q", key, v)
		return
	}
	*dst = n
}

func envFloat(getenv func(string) string, key string, dst *float64) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		klog.Warningf("环境变量格式错误，忽略: %s=%q", key, v)
		return
	}
	*dst = f
}

func envBool(getenv func(string) string, key string, dst *bool) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		klog.Warningf("环境变量格式错误，忽略: %s=%q", key, v)
		return
	}
	*dst = b
}

// Save 将配置写回 YAML 文件
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
