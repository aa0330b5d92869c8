package service

import (
	"context"
	"fmt"

	"github.com/Andrew-Beniash/tai/internal/model"
	"github.com/Andrew-Beniash/tai/internal/pkg/llm"
	"github.com/Andrew-Beniash/tai/internal/pkg/rag"
	"github.com/Andrew-Beniash/tai/internal/repository"
	"k8s.io/klog/v2"
)

// UsageService 对话用量服务
type UsageService struct {
	repo repository.ChatUsageRepository
}

func NewUsageService(repo repository.ChatUsageRepository) *UsageService {
	return &UsageService{repo: repo}
}

// RecordUsage 记录一次对话的 token 用量以及上下文规模
func (s *UsageService) RecordUsage(ctx context.Context, taskID, modelName string, usage llm.Usage, ac *rag.AssembledContext) error {
	if taskID == "" {
		klog.V(6).Infof("[UsageService] 用量记录失败：taskID 为空")
		return fmt.Errorf("%w: task id is required", ErrInvalidInput)
	}

	record := &model.ChatUsage{
		TaskID:           taskID,
		Model:            modelName,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	}
	if ac != nil {
		record.ContextTokens = ac.EstimatedTokens
		record.SnippetCount = len(ac.Snippets)
	}

	if err := s.repo.Create(ctx, record); err != nil {
		klog.V(6).Infof("[UsageService] 用量记录失败：taskID=%s, 模型=%s, err=%v", taskID, modelName, err)
		return err
	}
	klog.V(6).Infof("[UsageService] 用量记录成功：taskID=%s, 模型=%s, total=%d", taskID, modelName, usage.TotalTokens)
	return nil
}

// UsageSummary 任务累计用量
type UsageSummary struct {
	TaskID           string            `json:"task_id"`
	Requests         int               `json:"requests"`
	PromptTokens     int               `json:"prompt_tokens"`
	CompletionTokens int               `json:"completion_tokens"`
	TotalTokens      int               `json:"total_tokens"`
	Records          []model.ChatUsage `json:"records"`
}

func (s *UsageService) Summary(ctx context.Context, taskID string) (*UsageSummary, error) {
	records, err := s.repo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	sum := &UsageSummary{TaskID: taskID, Requests: len(records), Records: records}
	for _, r := range records {
		sum.PromptTokens += r.PromptTokens
		sum.CompletionTokens += r.CompletionTokens
		sum.TotalTokens += r.TotalTokens
	}
	return sum, nil
}
