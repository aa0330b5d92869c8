package model

import (
	"time"
)

// 任务状态
const (
	TaskStatusNotStarted     = "Not Started"
	TaskStatusInProgress     = "In Progress"
	TaskStatusReadyForReview = "Ready for Review"
	TaskStatusUnderReview    = "Under Review"
	TaskStatusCompleted      = "Completed"
)

type Project struct {
	ID        string    `json:"project_id" gorm:"primaryKey;size:64"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Clients   []string  `json:"clients" gorm:"serializer:json;type:text"`
	Services  []string  `json:"services" gorm:"serializer:json;type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Tasks     []Task    `json:"tasks,omitempty" gorm:"foreignKey:ProjectID"`
}

type Task struct {
	ID          string    `json:"task_id" gorm:"primaryKey;size:64"`
	ProjectID   string    `json:"project_id" gorm:"index;size:64;not null"`
	Title       string    `json:"title" gorm:"size:255"`
	Description string    `json:"description" gorm:"size:2000"`
	AssignedTo  string    `json:"assigned_to" gorm:"size:64;index"`
	Client      string    `json:"client" gorm:"size:255"`
	TaxForm     string    `json:"tax_form" gorm:"size:32"`
	Status      string    `json:"status" gorm:"size:50"`
	DueDate     string    `json:"due_date" gorm:"size:32"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Document 文档元数据
// 正文优先取 Content，其次是后台索引得到的 ExtractedText，最后才实时读取 StoragePath 文件提取
type Document struct {
	ID            string     `json:"doc_id" gorm:"primaryKey;size:64"`
	ProjectID     string     `json:"project_id" gorm:"index;size:64"`
	FileName      string     `json:"file_name" gorm:"size:255;not null"`
	FileType      string     `json:"file_type" gorm:"size:16"`
	Description   string     `json:"description" gorm:"size:1000"`
	StoragePath   string     `json:"storage_path" gorm:"size:500;index"`
	Content       string     `json:"-" gorm:"type:text"`
	SizeBytes     int64      `json:"size_bytes"`
	ExtractedText string     `json:"-" gorm:"type:text"`
	IndexedAt     *time.Time `json:"indexed_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TaskDocument 任务与文档的关联，SortOrder 决定检索时的文档顺序
type TaskDocument struct {
	ID         uint   `gorm:"primaryKey"`
	TaskID     string `gorm:"size:64;uniqueIndex:idx_task_document"`
	DocumentID string `gorm:"size:64;uniqueIndex:idx_task_document;index"`
	SortOrder  int    `gorm:"default:0"`
}

// ChatUsage 单次对话的 token 用量
type ChatUsage struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	TaskID           string    `json:"task_id" gorm:"index;size:64"`
	Model            string    `json:"model" gorm:"size:255"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	ContextTokens    int       `json:"context_tokens"`
	SnippetCount     int       `json:"snippet_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// ActionRun 模拟操作的执行记录
type ActionRun struct {
	ID        string    `json:"run_id" gorm:"primaryKey;size:64"`
	TaskID    string    `json:"task_id" gorm:"index;size:64"`
	ActionID  string    `json:"action_id" gorm:"size:64;index"`
	Status    string    `json:"status" gorm:"size:32"`
	Params    string    `json:"params" gorm:"type:text"`
	Result    string    `json:"result" gorm:"type:text"`
	CreatedBy string    `json:"created_by" gorm:"size:64"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID           string    `json:"user_id" gorm:"primaryKey;size:64"`
	Name         string    `json:"name" gorm:"size:255"`
	Role         string    `json:"role" gorm:"size:32"` // Preparer, Reviewer
	PasswordHash string    `json:"-" gorm:"size:255"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
