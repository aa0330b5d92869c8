package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/Andrew-Beniash/tai/config"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"k8s.io/klog/v2"
)

// ErrEmptyResponse 模型没有返回内容
var ErrEmptyResponse = errors.New("no response from LLM")

// Usage 单次补全的 token 用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion 补全结果
type Completion struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

// Client 补全客户端，底层为 eino ChatModel
type Client struct {
	chatModel model.BaseChatModel
	modelName string
	mock      bool
}

// NewClient 根据配置创建客户端；未配置 API Key 时使用离线模拟模型
func NewClient(cfg *config.Config) (*Client, error) {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		klog.Warningf("[LLMClient] 未配置 API Key，使用模拟模型")
		return NewClientWithModel(NewMockChatModel(), MockModelName, true), nil
	}

	chatModel, err := NewLLMChatModel(cfg)
	if err != nil {
		return nil, err
	}
	return NewClientWithModel(chatModel, cfg.LLM.Model, false), nil
}

// NewLLMChatModel 创建 OpenAI 兼容的 ChatModel
func NewLLMChatModel(cfg *config.Config) (*openai.ChatModel, error) {
	klog.V(6).Infof("[LLMClient] 创建 OpenAI ChatModel: model=%s, baseURL=%s", cfg.LLM.Model, cfg.LLM.APIURL)

	modelConfig := &openai.ChatModelConfig{
		APIKey: cfg.LLM.APIKey,
		Model:  cfg.LLM.Model,
	}
	if cfg.LLM.APIURL != "" {
		modelConfig.BaseURL = cfg.LLM.APIURL
	}
	if cfg.LLM.MaxTokens > 0 {
		maxTokens := cfg.LLM.MaxTokens
		modelConfig.MaxTokens = &maxTokens
	}
	if cfg.LLM.Temperature > 0 {
		temperature := cfg.LLM.Temperature
		modelConfig.Temperature = &temperature
	}

	chatModel, err := openai.NewChatModel(context.Background(), modelConfig)
	if err != nil {
		klog.Errorf("[LLMClient] 创建 ChatModel 失败: %v", err)
		return nil, err
	}
	klog.V(6).Infof("[LLMClient] ChatModel 创建成功")
	return chatModel, nil
}

// NewClientWithModel 使用已有的 ChatModel 创建客户端
func NewClientWithModel(chatModel model.BaseChatModel, modelName string, mock bool) *Client {
	return &Client{chatModel: chatModel, modelName: modelName, mock: mock}
}

// ModelName 当前模型名称
func (c *Client) ModelName() string {
	return c.modelName
}

// IsMock 是否为离线模拟模型
func (c *Client) IsMock() bool {
	return c.mock
}

// Complete 发送 system + user 两条消息并返回回答
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (*Completion, error) {
	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	}
	klog.V(6).Infof("[LLMClient] Generate 开始: model=%s, systemLength=%d, userLength=%d", c.modelName, len(systemPrompt), len(userPrompt))
	klog.V(8).Infof("[LLMClient] system prompt: %s", systemPrompt)

	resp, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		klog.Errorf("[LLMClient] Generate 失败: %v", err)
		return nil, err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, ErrEmptyResponse
	}

	out := &Completion{
		Content: strings.TrimSpace(resp.Content),
		Model:   c.modelName,
	}
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		u := resp.ResponseMeta.Usage
		out.Usage = Usage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	klog.V(6).Infof("[LLMClient] Generate 完成: responseLength=%d, totalTokens=%d", len(out.Content), out.Usage.TotalTokens)
	return out, nil
}
