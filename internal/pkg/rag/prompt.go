package rag

import (
	"fmt"
	"strings"
)

// Action 可建议给用户的操作
type Action struct {
	ID   string
	Name string
}

// DefaultActions 系统提示词中列出的可用操作
func DefaultActions() []Action {
	return []Action{
		{ID: "generate_missing_info", Name: "Generate Missing Information Letter"},
		{ID: "trigger_risk_review", Name: "Trigger Risk Review"},
		{ID: "generate_client_summary", Name: "Generate Client Summary"},
		{ID: "send_to_tax_review", Name: "Send to Tax Review"},
	}
}

const promptIntro = `You are an AI Tax Assistant helping preparers and reviewers complete tax projects.
You have access to task details, project information and excerpts from the documents attached to this task.`

const groundedInstructions = `When providing answers:
1. Answer only from the task information and document excerpts provided above.
2. When you use an excerpt, cite its source by file name, e.g. (Source: prior_year_return.pdf).
3. If the excerpts do not contain the answer, say so and state what information appears to be missing.
4. Use professional tax terminology.`

const fallbackInstructions = `No document excerpts are available for this task.
When providing answers:
1. Answer from the task and project information above only.
2. Do not claim to have read any documents or cite document sources.
3. Be clear about what information might be missing and what documents would help.
4. Use professional tax terminology.`

// snippetHeader 每个切片在提示词中的标题行
func snippetHeader(fileName string) string {
	return fmt.Sprintf("[Source: %s]", fileName)
}

// PromptBuilder 将组装好的上下文渲染成系统/用户提示词
type PromptBuilder struct {
	actions []Action
}

// NewPromptBuilder 创建提示词构建器，actions 为空时使用默认操作列表
func NewPromptBuilder(actions []Action) *PromptBuilder {
	if len(actions) == 0 {
		actions = DefaultActions()
	}
	cp := make([]Action, len(actions))
	copy(cp, actions)
	return &PromptBuilder{actions: cp}
}

// Build 渲染提示词。用户提示词原样使用 query。
// 没有切片时进入兜底模式：不输出文档段落，只依据任务元数据回答。
func (b *PromptBuilder) Build(ac *AssembledContext, query string) PromptPair {
	var sb strings.Builder
	sb.WriteString(promptIntro)
	sb.WriteString("\n\n")
	sb.WriteString(RenderMetadata(ac.TaskContext))

	if len(ac.Snippets) > 0 {
		sb.WriteString("\nRelevant Document Excerpts:\n")
		for _, s := range ac.Snippets {
			sb.WriteString("\n")
			sb.WriteString(snippetHeader(s.FileName))
			sb.WriteString("\n")
			sb.WriteString(s.Chunk.Text)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
		sb.WriteString(groundedInstructions)
	} else {
		sb.WriteString("\n")
		sb.WriteString(fallbackInstructions)
	}

	sb.WriteString("\n\n")
	sb.WriteString(b.renderActions())

	return PromptPair{
		SystemPrompt: sb.String(),
		UserPrompt:   query,
	}
}

func (b *PromptBuilder) renderActions() string {
	var sb strings.Builder
	sb.WriteString("Available actions you can suggest:\n")
	for _, a := range b.actions {
		fmt.Fprintf(&sb, "- %s\n", a.Name)
	}
	sb.WriteString(`If you suggest an action, put it on its own line formatted as "Action: [action name]".
Only suggest actions when they are appropriate for the question and the task.`)
	return sb.String()
}

// RenderMetadata 渲染任务与项目元数据，组装器按同样的文本估算 token
func RenderMetadata(tc TaskContext) string {
	var sb strings.Builder
	t := tc.Task
	sb.WriteString("Task Information:\n")
	writeField(&sb, "Task ID", t.ID)
	writeField(&sb, "Title", t.Title)
	writeField(&sb, "Client", t.Client)
	writeField(&sb, "Tax Form", t.TaxForm)
	writeField(&sb, "Status", t.Status)
	writeField(&sb, "Due Date", t.DueDate)
	writeField(&sb, "Assigned To", t.AssignedTo)
	writeField(&sb, "Description", t.Description)

	p := tc.Project
	if p.ID != "" || p.Name != "" {
		sb.WriteString("\nProject Information:\n")
		writeField(&sb, "Project ID", p.ID)
		writeField(&sb, "Name", p.Name)
		writeField(&sb, "Clients", strings.Join(p.Clients, ", "))
		writeField(&sb, "Services", strings.Join(p.Services, ", "))
	}
	return sb.String()
}

func writeField(sb *strings.Builder, label, value string) {
	if value == "" {
		value = "N/A"
	}
	fmt.Fprintf(sb, "- %s: %s\n", label, value)
}
