package rag

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// TaskLookup 任务与项目元数据来源
type TaskLookup interface {
	GetTask(ctx context.Context, taskID string) (*TaskFields, error)
	GetProject(ctx context.Context, projectID string) (*ProjectFields, error)
}

// DocumentSource 文档列表与文本来源
// GetTextContent 对不支持或提取失败的文档返回空字符串
type DocumentSource interface {
	ListDocumentsForTask(ctx context.Context, taskID string) ([]DocumentRef, error)
	GetTextContent(ctx context.Context, docID string) (string, error)
}

// Config 上下文组装参数，零值字段使用默认值
// ReserveTokens 为 nil 时取默认值，显式设为 0 表示不预留
type Config struct {
	ChunkSize        int
	ChunkOverlap     int
	MaxSnippets      int
	TokenBudget      int
	CharsPerToken    float64
	ReserveTokens    *int
	FetchConcurrency int
	CacheEnabled     bool
	Synonyms         SynonymTable
}

// DefaultConfig 默认参数
func DefaultConfig() Config {
	return Config{
		ChunkSize:        1000,
		ChunkOverlap:     200,
		MaxSnippets:      DefaultMaxSnippets,
		TokenBudget:      DefaultTokenBudget,
		CharsPerToken:    DefaultCharsPerToken,
		ReserveTokens:    Tokens(DefaultReserveTokens),
		FetchConcurrency: 4,
	}
}

// Tokens 返回 n 的指针，用于设置 Config.ReserveTokens
func Tokens(n int) *int {
	return &n
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ChunkSize == 0 && c.ChunkOverlap == 0 {
		c.ChunkSize = def.ChunkSize
		c.ChunkOverlap = def.ChunkOverlap
	}
	if c.MaxSnippets <= 0 {
		c.MaxSnippets = def.MaxSnippets
	}
	if c.TokenBudget <= 0 {
		c.TokenBudget = def.TokenBudget
	}
	if c.CharsPerToken <= 0 {
		c.CharsPerToken = def.CharsPerToken
	}
	if c.ReserveTokens == nil {
		c.ReserveTokens = def.ReserveTokens
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = def.FetchConcurrency
	}
	return c
}

// Prepared 一次请求的组装结果与提示词
type Prepared struct {
	Context *AssembledContext `json:"context"`
	Prompt  PromptPair        `json:"prompt"`
}

// Service 上下文组装入口。不持有跨调用状态（可选的切片缓存除外），可并发调用。
type Service struct {
	cfg       Config
	tasks     TaskLookup
	docs      DocumentSource
	assembler *Assembler
	builder   *PromptBuilder
	cache     *MemoryChunkCache
}

// NewService 创建组装服务，切片参数非法时返回 ErrInvalidChunkConfig
func NewService(cfg Config, tasks TaskLookup, docs DocumentSource) (*Service, error) {
	cfg = cfg.withDefaults()
	if *cfg.ReserveTokens < 0 {
		return nil, fmt.Errorf("%w: reserve_tokens=%d", ErrInvalidBudgetConfig, *cfg.ReserveTokens)
	}

	chunker, err := NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	var cache *MemoryChunkCache
	var chunkCache ChunkCache
	if cfg.CacheEnabled {
		cache = NewMemoryChunkCache()
		chunkCache = cache
	}

	retriever := NewRetriever(chunker, NewExpander(cfg.Synonyms), NewScorer(DefaultScorerConfig()), chunkCache)
	assembler := NewAssembler(retriever, NewEstimator(cfg.CharsPerToken), AssemblerConfig{
		MaxSnippets:   cfg.MaxSnippets,
		ReserveTokens: *cfg.ReserveTokens,
	})

	return &Service{
		cfg:       cfg,
		tasks:     tasks,
		docs:      docs,
		assembler: assembler,
		builder:   NewPromptBuilder(nil),
		cache:     cache,
	}, nil
}

// Cache 返回切片缓存，未启用时为 nil
func (s *Service) Cache() *MemoryChunkCache {
	return s.cache
}

// TokenBudget 默认 token 预算
func (s *Service) TokenBudget() int {
	return s.cfg.TokenBudget
}

// AssembleContext 为任务组装上下文，maxTokens 非正时使用默认预算。
// 只有任务本身无法解析时返回 ErrContextUnavailable，单个文档失败只会被跳过。
func (s *Service) AssembleContext(ctx context.Context, taskID, query string, maxTokens int) (*AssembledContext, error) {
	tc, err := s.taskContext(ctx, taskID)
	if err != nil {
		return nil, err
	}

	docs, failures := s.fetchDocuments(ctx, taskID)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if maxTokens <= 0 {
		maxTokens = s.cfg.TokenBudget
	}
	ac := s.assembler.Assemble(tc, docs, query, maxTokens)
	for i := range ac.Consulted {
		if reason, ok := failures[ac.Consulted[i].DocID]; ok {
			ac.Consulted[i].Reason = reason
		}
	}
	return ac, nil
}

// BuildPrompt 检索、组装并渲染提示词
func (s *Service) BuildPrompt(ctx context.Context, taskID, query string) (PromptPair, error) {
	p, err := s.Prepare(ctx, taskID, query, 0)
	if err != nil {
		return PromptPair{}, err
	}
	return p.Prompt, nil
}

// Prepare 同时返回组装上下文与提示词，供聊天处理记录引用来源
func (s *Service) Prepare(ctx context.Context, taskID, query string, maxTokens int) (*Prepared, error) {
	ac, err := s.AssembleContext(ctx, taskID, query, maxTokens)
	if err != nil {
		return nil, err
	}
	return &Prepared{
		Context: ac,
		Prompt:  s.builder.Build(ac, query),
	}, nil
}

func (s *Service) taskContext(ctx context.Context, taskID string) (TaskContext, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return TaskContext{}, fmt.Errorf("%w: task %s: %w", ErrContextUnavailable, taskID, err)
	}
	if task == nil {
		return TaskContext{}, fmt.Errorf("%w: task %s", ErrContextUnavailable, taskID)
	}

	tc := TaskContext{Task: *task}
	if task.ProjectID == "" {
		return tc, nil
	}
	project, err := s.tasks.GetProject(ctx, task.ProjectID)
	if err != nil || project == nil {
		klog.Warningf("[RAG] 获取项目信息失败，仅使用任务信息: task=%s, project=%s, error=%v", taskID, task.ProjectID, err)
		tc.Project = ProjectFields{ID: task.ProjectID}
		return tc, nil
	}
	tc.Project = *project
	return tc, nil
}

// fetchDocuments 并发获取文档文本，结果按列表顺序存放，与完成顺序无关。
// 获取失败的文档文本置空，原因记录在返回的 map 中。
func (s *Service) fetchDocuments(ctx context.Context, taskID string) ([]Document, map[string]string) {
	refs, err := s.docs.ListDocumentsForTask(ctx, taskID)
	if err != nil {
		klog.Warningf("[RAG] 获取任务文档列表失败，按无文档处理: task=%s, error=%v", taskID, err)
		return nil, nil
	}

	docs := make([]Document, len(refs))
	reasons := make([]string, len(refs))

	var g errgroup.Group
	g.SetLimit(s.cfg.FetchConcurrency)
	for i, ref := range refs {
		docs[i].DocumentRef = ref
		g.Go(func() error {
			text, err := s.docs.GetTextContent(ctx, ref.ID)
			if err != nil {
				klog.Warningf("[RAG] %v: doc=%s, file=%s, error=%v", ErrRetrievalDegraded, ref.ID, ref.FileName, err)
				reasons[i] = "fetch failed: " + err.Error()
				return nil
			}
			docs[i].Text = text
			return nil
		})
	}
	_ = g.Wait()

	failures := make(map[string]string)
	for i, r := range reasons {
		if r != "" {
			failures[refs[i].ID] = r
		}
	}
	klog.V(6).Infof("[RAG] 文档获取完成: task=%s, documents=%d, failed=%d", taskID, len(docs), len(failures))
	return docs, failures
}
