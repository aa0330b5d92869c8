package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Andrew-Beniash/tai/internal/pkg/rag"
	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"k8s.io/klog/v2"
)

const (
	serverName    = "Tax Assistant Context MCP Server"
	serverVersion = "1.0"

	ToolAssembleContext = "assemble_context"
	ToolBuildPrompt     = "build_prompt"
)

// Assembler 上下文组装接口，rag.Service 满足该接口
type Assembler interface {
	AssembleContext(ctx context.Context, taskID, query string, maxTokens int) (*rag.AssembledContext, error)
	BuildPrompt(ctx context.Context, taskID, query string) (rag.PromptPair, error)
}

// tools MCP 工具处理器
type tools struct {
	assembler Assembler
}

// NewMCPServer 创建 MCP Server 并注册 assemble_context / build_prompt 两个工具
func NewMCPServer(assembler Assembler) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	t := &tools{assembler: assembler}

	s.AddTool(mcp.NewTool(
		ToolAssembleContext,
		mcp.WithDescription("Retrieve, rank and budget document excerpts for a tax task and return the assembled context as JSON."),
		mcp.WithString("task_id",
			mcp.Description("ID of the task whose documents are searched"),
			mcp.Required(),
		),
		mcp.WithString("query",
			mcp.Description("The user's question"),
		),
		mcp.WithNumber("max_tokens",
			mcp.Description("Token budget for the assembled context; the server default is used when omitted"),
		),
	), t.handleAssembleContext)

	s.AddTool(mcp.NewTool(
		ToolBuildPrompt,
		mcp.WithDescription("Assemble context for a tax task and render the system/user prompt pair as JSON."),
		mcp.WithString("task_id",
			mcp.Description("ID of the task whose documents are searched"),
			mcp.Required(),
		),
		mcp.WithString("query",
			mcp.Description("The user's question"),
		),
	), t.handleBuildPrompt)

	return s
}

// NewSSEServer 创建挂载在 basePath 下的 SSE 服务
func NewSSEServer(assembler Assembler, basePath string) *server.SSEServer {
	return server.NewSSEServer(NewMCPServer(assembler), server.WithStaticBasePath(basePath))
}

// Adapt 将标准的 http.Handler 适配为 Gin 框架可用的处理函数。
func Adapt(fn func() http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		handler := fn()
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// Mount 注册 SSE 与消息端点：basePath/sse、basePath/message
func Mount(r gin.IRoutes, basePath string, sse *server.SSEServer) {
	basePath = "/" + strings.Trim(basePath, "/")
	r.GET(basePath+"/sse", Adapt(sse.SSEHandler))
	r.POST(basePath+"/sse", Adapt(sse.SSEHandler))
	r.POST(basePath+"/message", Adapt(sse.MessageHandler))
	klog.V(6).Infof("[MCP] SSE 服务已挂载: %s/sse", basePath)
}

func (t *tools) handleAssembleContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := strings.TrimSpace(req.GetString("task_id", ""))
	if taskID == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	maxTokens := 0
	if v, ok := req.GetArguments()["max_tokens"].(float64); ok {
		maxTokens = int(v)
	}

	ac, err := t.assembler.AssembleContext(ctx, taskID, req.GetString("query", ""), maxTokens)
	if err != nil {
		klog.V(6).Infof("[MCP] assemble_context 失败: task=%s, err=%v", taskID, err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to assemble context: %v", err)), nil
	}
	return jsonResult(ac)
}

func (t *tools) handleBuildPrompt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := strings.TrimSpace(req.GetString("task_id", ""))
	if taskID == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}

	prompt, err := t.assembler.BuildPrompt(ctx, taskID, req.GetString("query", ""))
	if err != nil {
		klog.V(6).Infof("[MCP] build_prompt 失败: task=%s, err=%v", taskID, err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to build prompt: %v", err)), nil
	}
	return jsonResult(prompt)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}
