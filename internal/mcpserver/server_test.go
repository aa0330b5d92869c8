package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Andrew-Beniash/tai/internal/pkg/rag"
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
)

type mockAssembler struct {
	AssembleFunc func(ctx context.Context, taskID, query string, maxTokens int) (*rag.AssembledContext, error)
	PromptFunc   func(ctx context.Context, taskID, query string) (rag.PromptPair, error)
}

func (m *mockAssembler) AssembleContext(ctx context.Context, taskID, query string, maxTokens int) (*rag.AssembledContext, error) {
	return m.AssembleFunc(ctx, taskID, query, maxTokens)
}

func (m *mockAssembler) BuildPrompt(ctx context.Context, taskID, query string) (rag.PromptPair, error) {
	return m.PromptFunc(ctx, taskID, query)
}

func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestAssembleContextTool(t *testing.T) {
	var gotMax int
	var gotQuery string
	tl := &tools{assembler: &mockAssembler{
		AssembleFunc: func(ctx context.Context, taskID, query string, maxTokens int) (*rag.AssembledContext, error) {
			gotMax, gotQuery = maxTokens, query
			if taskID != "task-001" {
				return nil, rag.ErrContextUnavailable
			}
			return &rag.AssembledContext{Query: query, TokenBudget: maxTokens}, nil
		},
	}}

	res, err := tl.handleAssembleContext(context.Background(), makeReq(map[string]any{
		"task_id":    "task-001",
		"query":      "What is missing?",
		"max_tokens": float64(1500),
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(res))
	}
	if gotMax != 1500 || gotQuery != "What is missing?" {
		t.Fatalf("arguments not forwarded: max=%d query=%q", gotMax, gotQuery)
	}
	var ac rag.AssembledContext
	if err := json.Unmarshal([]byte(resultText(res)), &ac); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if ac.TokenBudget != 1500 {
		t.Fatalf("token budget = %d, want 1500", ac.TokenBudget)
	}

	res, _ = tl.handleAssembleContext(context.Background(), makeReq(map[string]any{"task_id": "task-404"}))
	if !res.IsError || !strings.Contains(resultText(res), "task context unavailable") {
		t.Fatalf("expected tool error, got %q", resultText(res))
	}

	res, _ = tl.handleAssembleContext(context.Background(), makeReq(map[string]any{}))
	if !res.IsError {
		t.Fatalf("missing task_id should be a tool error")
	}
}

func TestBuildPromptTool(t *testing.T) {
	tl := &tools{assembler: &mockAssembler{
		PromptFunc: func(ctx context.Context, taskID, query string) (rag.PromptPair, error) {
			if taskID == "boom" {
				return rag.PromptPair{}, errors.New("boom")
			}
			return rag.PromptPair{SystemPrompt: "system", UserPrompt: query}, nil
		},
	}}

	res, err := tl.handleBuildPrompt(context.Background(), makeReq(map[string]any{"task_id": "task-001", "query": "Summarize"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(resultText(res), `"user_prompt": "Summarize"`) {
		t.Fatalf("unexpected result: %s", resultText(res))
	}

	res, _ = tl.handleBuildPrompt(context.Background(), makeReq(map[string]any{"task_id": "boom"}))
	if !res.IsError {
		t.Fatalf("expected tool error")
	}
}

func TestMountRegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Mount(r, "mcp/", NewSSEServer(&mockAssembler{}, "/mcp"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/mcp/message", strings.NewReader("{}")))
	if w.Code == http.StatusNotFound && strings.Contains(w.Body.String(), "404 page not found") {
		t.Fatalf("message endpoint not mounted")
	}
}
