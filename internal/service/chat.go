package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Andrew-Beniash/tai/internal/pkg/llm"
	"github.com/Andrew-Beniash/tai/internal/pkg/rag"
	"github.com/Andrew-Beniash/tai/internal/repository"
	"github.com/Andrew-Beniash/tai/internal/utils"
	"k8s.io/klog/v2"
)

// Completer 补全接口，llm.Client 满足该接口
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (*llm.Completion, error)
}

// ContextAssembler 上下文组装接口，rag.Service 满足该接口
type ContextAssembler interface {
	AssembleContext(ctx context.Context, taskID, query string, maxTokens int) (*rag.AssembledContext, error)
	BuildPrompt(ctx context.Context, taskID, query string) (rag.PromptPair, error)
	Prepare(ctx context.Context, taskID, query string, maxTokens int) (*rag.Prepared, error)
}

const maxFallbackReferences = 3

var presetQuestions = map[string][]string{
	"1120": {
		"What are the risks based on prior year financials?",
		"List missing information for filing Form 1120.",
		"Summarize important notes from prior year return.",
		"What tax changes impact this corporate filing this year?",
		"Review prepared forms for completeness.",
	},
	"1065": {
		"What are the key partnership items requiring attention?",
		"List missing information for filing Form 1065.",
		"Summarize partner allocations from prior year.",
		"Check for compliance with partnership agreement.",
		"Review Schedule K-1 calculations.",
	},
	"1040": {
		"What are common deductions this client may have missed?",
		"List missing information for filing Form 1040.",
		"Summarize tax planning opportunities.",
		"Review dependents and filing status.",
		"Check for potential audit flags.",
	},
	"default": {
		"What are the risks based on prior year documents?",
		"List missing information for this filing.",
		"Summarize important notes from prior documents.",
		"Review prepared forms for completeness.",
		"Generate additional questions for the client.",
	},
}

// PresetQuestionsFor 按税表类型返回预设问题，未知类型使用默认问题
func PresetQuestionsFor(taxForm string) []string {
	qs, ok := presetQuestions[strings.TrimSpace(taxForm)]
	if !ok {
		qs = presetQuestions["default"]
	}
	out := make([]string, len(qs))
	copy(out, qs)
	return out
}

type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	MaxTokens int    `json:"max_tokens"`
}

// Reference 回答引用的文档
type Reference struct {
	Source string `json:"source"`
	ID     string `json:"id"`
}

// ContextSummary 本次回答使用的上下文概况
type ContextSummary struct {
	SnippetCount    int  `json:"snippet_count"`
	EstimatedTokens int  `json:"estimated_tokens"`
	TokenBudget     int  `json:"token_budget"`
	Grounded        bool `json:"grounded"`
	BudgetExhausted bool `json:"budget_exhausted"`
}

type ChatResponse struct {
	Message          string                  `json:"message"`
	SuggestedActions []utils.SuggestedAction `json:"suggested_actions"`
	References       []Reference             `json:"references"`
	Context          ContextSummary          `json:"context"`
	Model            string                  `json:"model"`
}

// ChatService 对话编排：组装上下文 → 补全 → 解析建议操作 → 记录用量
type ChatService struct {
	assembler ContextAssembler
	completer Completer
	taskRepo  repository.TaskRepository
	usage     *UsageService
}

func NewChatService(assembler ContextAssembler, completer Completer, taskRepo repository.TaskRepository, usage *UsageService) *ChatService {
	return &ChatService{
		assembler: assembler,
		completer: completer,
		taskRepo:  taskRepo,
		usage:     usage,
	}
}

// PresetQuestions 任务的预设问题
func (s *ChatService) PresetQuestions(ctx context.Context, taskID string) ([]string, error) {
	task, err := s.taskRepo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return PresetQuestionsFor(task.TaxForm), nil
}

// AssembleContext 检查某个问题会组装出的上下文
func (s *ChatService) AssembleContext(ctx context.Context, taskID, query string, maxTokens int) (*rag.AssembledContext, error) {
	return s.assembler.AssembleContext(ctx, taskID, query, maxTokens)
}

// BuildPrompt 返回某个问题的提示词对
func (s *ChatService) BuildPrompt(ctx context.Context, taskID, query string) (rag.PromptPair, error) {
	return s.assembler.BuildPrompt(ctx, taskID, query)
}

// ProcessMessage 处理一条用户消息
func (s *ChatService) ProcessMessage(ctx context.Context, taskID string, req ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	klog.V(6).Infof("[ChatService] 处理消息: taskID=%s, length=%d", taskID, len(req.Message))

	// 用户提示词保持原样，不做裁剪
	prepared, err := s.assembler.Prepare(ctx, taskID, req.Message, req.MaxTokens)
	if err != nil {
		return nil, err
	}

	completion, err := s.completer.Complete(ctx, prepared.Prompt.SystemPrompt, prepared.Prompt.UserPrompt)
	if err != nil {
		klog.Errorf("[ChatService] 补全失败: taskID=%s, err=%v", taskID, err)
		return nil, fmt.Errorf("completion: %w", err)
	}

	ac := prepared.Context
	resp := &ChatResponse{
		Message:          completion.Content,
		SuggestedActions: utils.ExtractActions(completion.Content),
		References:       references(ac),
		Context: ContextSummary{
			SnippetCount:    len(ac.Snippets),
			EstimatedTokens: ac.EstimatedTokens,
			TokenBudget:     ac.TokenBudget,
			Grounded:        len(ac.Snippets) > 0,
			BudgetExhausted: ac.BudgetExhausted,
		},
		Model: completion.Model,
	}
	if resp.SuggestedActions == nil {
		resp.SuggestedActions = []utils.SuggestedAction{}
	}

	if s.usage != nil {
		if err := s.usage.RecordUsage(ctx, taskID, completion.Model, completion.Usage, ac); err != nil {
			klog.Warningf("[ChatService] 用量记录失败，忽略: taskID=%s, err=%v", taskID, err)
		}
	}
	klog.V(6).Infof("[ChatService] 消息处理完成: taskID=%s, snippets=%d, actions=%d", taskID, len(ac.Snippets), len(resp.SuggestedActions))
	return resp, nil
}

// references 优先使用入选切片的来源；没有切片时退回到前几个被查阅的文档
func references(ac *rag.AssembledContext) []Reference {
	refs := []Reference{}
	seen := make(map[string]bool)
	for _, sn := range ac.Snippets {
		if seen[sn.DocID] {
			continue
		}
		seen[sn.DocID] = true
		refs = append(refs, Reference{Source: sn.FileName, ID: sn.DocID})
	}
	if len(refs) > 0 {
		return refs
	}
	for _, d := range ac.Consulted {
		if len(refs) == maxFallbackReferences {
			break
		}
		refs = append(refs, Reference{Source: d.FileName, ID: d.DocID})
	}
	return refs
}
