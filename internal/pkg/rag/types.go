package rag

// TaskFields 任务元数据（只读快照）
type TaskFields struct {
	ID          string `json:"task_id"`
	ProjectID   string `json:"project_id"`
	Title       string `json:"title"`
	Client      string `json:"client"`
	TaxForm     string `json:"tax_form"`
	Status      string `json:"status"`
	DueDate     string `json:"due_date"`
	AssignedTo  string `json:"assigned_to"`
	Description string `json:"description"`
}

// ProjectFields 项目元数据（只读快照）
type ProjectFields struct {
	ID       string   `json:"project_id"`
	Name     string   `json:"name"`
	Clients  []string `json:"clients"`
	Services []string `json:"services"`
}

// TaskContext 一次调用中使用的任务与项目信息，每次调用重新获取，不做缓存
type TaskContext struct {
	Task    TaskFields    `json:"task"`
	Project ProjectFields `json:"project"`
}

// DocumentRef 文档引用，由文档来源方提供
type DocumentRef struct {
	ID          string `json:"doc_id"`
	FileName    string `json:"file_name"`
	FileType    string `json:"file_type"`
	Description string `json:"description,omitempty"`
}

// Document 文档快照：引用 + 已提取的纯文本
type Document struct {
	DocumentRef
	Text string `json:"-"`
}

// Chunk 文档切片，仅在一次检索中存在
// Start/End 为 rune 偏移，左闭右开
type Chunk struct {
	DocumentID string `json:"doc_id"`
	Index      int    `json:"chunk_index"`
	Text       string `json:"text"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

// ScoredSnippet 带相关度分数和来源的切片
type ScoredSnippet struct {
	Chunk     Chunk   `json:"chunk"`
	Score     float64 `json:"score"`
	DocID     string  `json:"doc_id"`
	FileName  string  `json:"file_name"`
	Truncated bool    `json:"truncated,omitempty"`

	docOrder int
}

// ConsultStatus 文档在本次组装中的处理结果
type ConsultStatus string

const (
	ConsultUsed    ConsultStatus = "used"    // 至少一个切片进入上下文
	ConsultUnused  ConsultStatus = "unused"  // 参与了检索但没有切片入选
	ConsultSkipped ConsultStatus = "skipped" // 文本为空或获取失败
)

// ConsultedDocument 记录组装过程中查阅过的文档
type ConsultedDocument struct {
	DocID    string        `json:"doc_id"`
	FileName string        `json:"file_name"`
	Status   ConsultStatus `json:"status"`
	Reason   string        `json:"reason,omitempty"`
}

// AssembledContext 组装器的唯一输出
type AssembledContext struct {
	TaskContext
	Query           string              `json:"query"`
	Snippets        []ScoredSnippet     `json:"snippets"`
	Consulted       []ConsultedDocument `json:"consulted_documents"`
	TokenBudget     int                 `json:"token_budget"`
	EstimatedTokens int                 `json:"estimated_tokens"`
	// BudgetExhausted 预算耗尽，部分候选切片被丢弃或截断
	BudgetExhausted bool `json:"budget_exhausted"`
	// OverBudget 仅元数据就已超出预算，此时不包含任何切片
	OverBudget bool `json:"over_budget"`
}

// Sources 返回入选切片的来源文件名（去重，保持排名顺序）
func (a *AssembledContext) Sources() []string {
	seen := make(map[string]bool, len(a.Snippets))
	var out []string
	for _, s := range a.Snippets {
		if seen[s.FileName] {
			continue
		}
		seen[s.FileName] = true
		out = append(out, s.FileName)
	}
	return out
}

// PromptPair 发送给补全接口的提示词对
type PromptPair struct {
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
}
