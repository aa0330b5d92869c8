package handler

import (
	"net/http"
	"strconv"

	"github.com/Andrew-Beniash/tai/internal/service"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

// ChatHandler 任务对话、上下文检查与用量
type ChatHandler struct {
	chat  *service.ChatService
	usage *service.UsageService
}

func NewChatHandler(chat *service.ChatService, usage *service.UsageService) *ChatHandler {
	return &ChatHandler{chat: chat, usage: usage}
}

// Chat 处理一条用户消息
func (h *ChatHandler) Chat(c *gin.Context) {
	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	resp, err := h.chat.ProcessMessage(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	klog.V(8).Infof("[ChatHandler] 回答: task=%s, message=%s", c.Param("id"), resp.Message)
	c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) PresetQuestions(c *gin.Context) {
	questions, err := h.chat.PresetQuestions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

// Context 查看某个问题组装出的上下文，query 可为空，max_tokens 可选
func (h *ChatHandler) Context(c *gin.Context) {
	maxTokens := 0
	if v := c.Query("max_tokens"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "invalid max_tokens")
			return
		}
		maxTokens = n
	}
	ac, err := h.chat.AssembleContext(c.Request.Context(), c.Param("id"), c.Query("query"), maxTokens)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ac)
}

// Prompt 查看某个问题渲染出的提示词
func (h *ChatHandler) Prompt(c *gin.Context) {
	prompt, err := h.chat.BuildPrompt(c.Request.Context(), c.Param("id"), c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prompt)
}

// Usage 任务累计 token 用量
func (h *ChatHandler) Usage(c *gin.Context) {
	summary, err := h.usage.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
