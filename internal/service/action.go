package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Andrew-Beniash/tai/internal/model"
	"github.com/Andrew-Beniash/tai/internal/repository"
	"github.com/Andrew-Beniash/tai/internal/utils"
	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

const (
	ActionGenerateMissingInfo   = "generate_missing_info"
	ActionTriggerRiskReview     = "trigger_risk_review"
	ActionGenerateClientSummary = "generate_client_summary"
	ActionSendToTaxReview       = "send_to_tax_review"
)

// ActionDefinition 可执行的模拟操作
type ActionDefinition struct {
	ActionID       string   `json:"action_id"`
	ActionName     string   `json:"action_name"`
	Description    string   `json:"description"`
	RequiredParams []string `json:"required_params"`
}

var actionCatalog = []ActionDefinition{
	{
		ActionID:       ActionGenerateMissingInfo,
		ActionName:     "Generate Missing Information Letter",
		Description:    "Create a letter to request missing information from the client",
		RequiredParams: []string{"client_name"},
	},
	{
		ActionID:       ActionTriggerRiskReview,
		ActionName:     "Trigger Risk Review",
		Description:    "Send task for risk assessment review",
		RequiredParams: []string{},
	},
	{
		ActionID:       ActionGenerateClientSummary,
		ActionName:     "Generate Client Summary",
		Description:    "Create a summary report for the client",
		RequiredParams: []string{"project_id"},
	},
	{
		ActionID:       ActionSendToTaxReview,
		ActionName:     "Send to Tax Review",
		Description:    "Submit documents for tax review",
		RequiredParams: []string{"document_ids"},
	},
}

type ActionRequest struct {
	ActionID string         `json:"action_id" binding:"required"`
	Params   map[string]any `json:"params"`
}

type ActionResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	RunID   string         `json:"run_id"`
	Result  map[string]any `json:"result"`
}

// ActionService 模拟外部集成：生成信函、风险复核、客户摘要、提交税务复核
type ActionService struct {
	runRepo  repository.ActionRunRepository
	taskRepo repository.TaskRepository
	docRepo  repository.DocumentRepository
	now      func() time.Time
}

func NewActionService(runRepo repository.ActionRunRepository, taskRepo repository.TaskRepository, docRepo repository.DocumentRepository) *ActionService {
	return &ActionService{
		runRepo:  runRepo,
		taskRepo: taskRepo,
		docRepo:  docRepo,
		now:      time.Now,
	}
}

// AvailableActions 任务可用的操作，目前所有任务都可使用全部操作
func (s *ActionService) AvailableActions(ctx context.Context, taskID string) ([]ActionDefinition, error) {
	if _, err := s.taskRepo.Get(ctx, taskID); err != nil {
		return nil, err
	}
	out := make([]ActionDefinition, len(actionCatalog))
	copy(out, actionCatalog)
	return out, nil
}

func findAction(id string) (ActionDefinition, bool) {
	for _, a := range actionCatalog {
		if a.ActionID == id {
			return a, true
		}
	}
	return ActionDefinition{}, false
}

// Execute 执行操作并保存执行记录
func (s *ActionService) Execute(ctx context.Context, taskID, userID string, req ActionRequest) (*ActionResult, error) {
	task, err := s.taskRepo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	def, ok := findAction(req.ActionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, req.ActionID)
	}
	params := req.Params
	if params == nil {
		params = map[string]any{}
	}
	for _, p := range def.RequiredParams {
		if _, ok := params[p]; !ok {
			return nil, fmt.Errorf("%w: missing required parameter: %s", ErrInvalidInput, p)
		}
	}

	result, err := s.simulate(ctx, def, task, params)
	if err != nil {
		return nil, err
	}

	run := &model.ActionRun{
		ID:        uuid.NewString(),
		TaskID:    task.ID,
		ActionID:  def.ActionID,
		Status:    "success",
		Params:    utils.ToJSON(params),
		Result:    utils.ToJSON(result),
		CreatedBy: userID,
		CreatedAt: s.now(),
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, err
	}
	klog.V(6).Infof("[ActionService] 操作执行成功: taskID=%s, action=%s, runID=%s", task.ID, def.ActionID, run.ID)

	return &ActionResult{
		Success: true,
		Message: fmt.Sprintf("Action %s executed successfully", def.ActionName),
		RunID:   run.ID,
		Result:  result,
	}, nil
}

func (s *ActionService) ListRuns(ctx context.Context, taskID string) ([]model.ActionRun, error) {
	if _, err := s.taskRepo.Get(ctx, taskID); err != nil {
		return nil, err
	}
	return s.runRepo.ListByTask(ctx, taskID)
}

func (s *ActionService) simulate(ctx context.Context, def ActionDefinition, task *model.Task, params map[string]any) (map[string]any, error) {
	now := s.now()
	switch def.ActionID {
	case ActionGenerateMissingInfo:
		return map[string]any{
			"status":     "success",
			"fileUrl":    fmt.Sprintf("https://mock-storage.local/missing-info-letter-%s.pdf", task.ID),
			"fileName":   fmt.Sprintf("Missing_Info_Letter_%s.pdf", task.ID),
			"clientName": params["client_name"],
			"expiryDate": now.Add(24 * time.Hour).Format(time.RFC3339),
			"message":    "Missing information letter generated successfully",
		}, nil
	case ActionTriggerRiskReview:
		return map[string]any{
			"status":    "success",
			"reviewId":  "risk-review-" + task.ID,
			"riskScore": 75,
			"reviewUrl": "https://mock-risk-review.local/review/" + task.ID,
			"message":   "Risk review triggered successfully",
		}, nil
	case ActionGenerateClientSummary:
		projectID := fmt.Sprint(params["project_id"])
		return map[string]any{
			"status":     "success",
			"fileUrl":    fmt.Sprintf("https://mock-storage.local/client-summary-%s.pdf", projectID),
			"fileName":   fmt.Sprintf("Client_Summary_%s.pdf", projectID),
			"expiryDate": now.Add(24 * time.Hour).Format(time.RFC3339),
			"message":    "Client summary generated successfully",
		}, nil
	case ActionSendToTaxReview:
		docIDs, err := stringList(params["document_ids"])
		if err != nil {
			return nil, err
		}
		docs, err := s.docRepo.GetByIDs(ctx, docIDs)
		if err != nil {
			return nil, err
		}
		if len(docs) != len(docIDs) {
			return nil, fmt.Errorf("%w: unknown document in document_ids", ErrInvalidInput)
		}
		submissions := make([]map[string]any, 0, len(docs))
		for _, d := range docs {
			submissions = append(submissions, map[string]any{
				"documentId":   d.ID,
				"fileName":     d.FileName,
				"submissionId": uuid.NewString(),
			})
		}
		return map[string]any{
			"status":                  "success",
			"submissions":             submissions,
			"reviewerName":            "Mock Reviewer",
			"estimatedCompletionDate": now.Add(72 * time.Hour).Format(time.RFC3339),
			"message":                 "Documents sent to tax review successfully",
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownAction, def.ActionID)
}

// stringList 接受 JSON 解码后的 []any 或 []string，去重并保持顺序
func stringList(v any) ([]string, error) {
	var raw []string
	switch items := v.(type) {
	case []string:
		raw = items
	case []any:
		for _, it := range items {
			s, ok := it.(string)
			if !ok {
				return nil, fmt.Errorf("%w: document_ids must be strings", ErrInvalidInput)
			}
			raw = append(raw, s)
		}
	case string:
		raw = []string{items}
	default:
		return nil, fmt.Errorf("%w: document_ids must be a list", ErrInvalidInput)
	}
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: document_ids is empty", ErrInvalidInput)
	}
	return out, nil
}
