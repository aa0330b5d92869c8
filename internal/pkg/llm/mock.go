package llm

import (
	"context"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockModelName 模拟模型名称
const MockModelName = "mock-gpt-4"

var sourceHeaderPattern = regexp.MustCompile(`\[Source: ([^\]]+)\]`)

// MockChatModel 离线模拟模型：按关键字返回固定回答，用于本地开发和测试
type MockChatModel struct{}

var _ model.BaseChatModel = (*MockChatModel)(nil)

func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

func (m *MockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var system, user string
	for _, msg := range input {
		switch msg.Role {
		case schema.System:
			system = msg.Content
		case schema.User:
			user = msg.Content
		}
	}

	content := mockAnswer(user)
	if match := sourceHeaderPattern.FindStringSubmatch(system); match != nil {
		content += "\n\n(Source: " + match[1] + ")"
	}

	resp := schema.AssistantMessage(content, nil)
	prompt := approxTokens(system) + approxTokens(user)
	completion := approxTokens(content)
	resp.ResponseMeta = &schema.ResponseMeta{
		FinishReason: "stop",
		Usage: &schema.TokenUsage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}
	return resp, nil
}

func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func approxTokens(s string) int {
	return (len([]rune(s)) + 3) / 4
}

func mockAnswer(query string) string {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "missing") || strings.Contains(q, "what do we need"):
		return `Based on my review of the documents, the following items are missing for filing:
1. Current year W-2 forms for all employees
2. Form 1099-DIV for dividend income
3. Documentation for business expenses over $5,000
4. Updated depreciation schedules for business assets

I recommend generating a Missing Information Letter.
Action: Generate Missing Information Letter`
	case strings.Contains(q, "risk") || strings.Contains(q, "review"):
		return `After analyzing the prior year financials, I've identified several potential risk areas:
1. The high ratio of business travel expenses to revenue (15%) might trigger an audit
2. The company reported losses in three consecutive years, which is an IRS audit flag
3. There are significant related-party transactions that need proper documentation

Action: Trigger Risk Review`
	case strings.Contains(q, "summar"):
		return `Here is a summary of the engagement so far:
1. Prior year return and financial statements have been received
2. Client responses are partially complete
3. Open items remain for officer compensation and fixed asset additions

Action: Generate Client Summary`
	case strings.Contains(q, "form") || strings.Contains(q, "check") || strings.Contains(q, "calculation"):
		return `I've reviewed the prepared forms and found a few issues:
1. The depreciation calculation on Form 4562 uses the wrong useful life for office equipment
2. There's a discrepancy between reported gross receipts on Schedule C and the 1099-K forms
3. The charitable contribution on Schedule A exceeds the allowed percentage limit

Once corrected, the return can be prepared for sending to tax review.`
	default:
		return `I've analyzed the available documents for this tax engagement. How can I assist you with this client's tax filing? You might want to know about:
- Missing information needed to complete filing
- Potential risk areas based on prior year returns
- Review of prepared forms
- Generating client communications

Let me know what specific information you need.`
	}
}
