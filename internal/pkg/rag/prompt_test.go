package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func promptTaskContext() TaskContext {
	return TaskContext{
		Task: TaskFields{
			ID: "task-001", ProjectID: "proj-001", Title: "Prepare Form 1120",
			Client: "Acme Corp", TaxForm: "1120", Status: "In Progress",
			DueDate: "2024-04-15", AssignedTo: "jeff",
		},
		Project: ProjectFields{
			ID: "proj-001", Name: "Acme Corp 2023 Tax Year",
			Clients: []string{"Acme Corp", "Acme Holdings"}, Services: []string{"Tax Preparation", "Tax Planning"},
		},
	}
}

func TestBuildWithSnippets(t *testing.T) {
	ac := &AssembledContext{
		TaskContext: promptTaskContext(),
		Snippets: []ScoredSnippet{
			{Chunk: Chunk{Text: "Missing Items: signed engagement letter."}, DocID: "doc-002", FileName: "client_responses.docx", Score: 0.8},
			{Chunk: Chunk{Text: "Revenue 2023: $2,400,000."}, DocID: "doc-001", FileName: "financial_statement.xlsx", Score: 0.1},
		},
	}
	query := "  What information is missing?  "

	p := NewPromptBuilder(nil).Build(ac, query)

	assert.Equal(t, query, p.UserPrompt)
	for _, want := range []string{
		"- Task ID: task-001",
		"- Client: Acme Corp",
		"- Tax Form: 1120",
		"- Due Date: 2024-04-15",
		"- Description: N/A",
		"- Clients: Acme Corp, Acme Holdings",
		"- Services: Tax Preparation, Tax Planning",
		"Relevant Document Excerpts:",
		"[Source: client_responses.docx]\nMissing Items: signed engagement letter.",
		"[Source: financial_statement.xlsx]",
		"cite its source by file name",
		"- Generate Missing Information Letter",
		"- Send to Tax Review",
		`"Action: [action name]"`,
	} {
		assert.Contains(t, p.SystemPrompt, want)
	}
	assert.Less(t,
		strings.Index(p.SystemPrompt, "client_responses.docx"),
		strings.Index(p.SystemPrompt, "financial_statement.xlsx"),
		"snippets should keep rank order")
	assert.NotContains(t, p.SystemPrompt, "No document excerpts are available")
}

func TestBuildFallbackWithoutSnippets(t *testing.T) {
	ac := &AssembledContext{TaskContext: promptTaskContext()}
	p := NewPromptBuilder(nil).Build(ac, "Summarize the engagement.")

	assert.Equal(t, "Summarize the engagement.", p.UserPrompt)
	assert.Contains(t, p.SystemPrompt, "- Task ID: task-001")
	assert.Contains(t, p.SystemPrompt, "No document excerpts are available")
	assert.Contains(t, p.SystemPrompt, "Answer from the task and project information above only.")
	assert.NotContains(t, p.SystemPrompt, "Relevant Document Excerpts")
	assert.NotContains(t, p.SystemPrompt, "[Source:")
}

func TestBuildCustomActions(t *testing.T) {
	b := NewPromptBuilder([]Action{{ID: "escalate", Name: "Escalate to Partner"}})
	p := b.Build(&AssembledContext{TaskContext: promptTaskContext()}, "q")

	assert.Contains(t, p.SystemPrompt, "- Escalate to Partner")
	assert.NotContains(t, p.SystemPrompt, "Trigger Risk Review")
}

func TestRenderMetadataOmitsEmptyProject(t *testing.T) {
	got := RenderMetadata(TaskContext{Task: TaskFields{ID: "task-009"}})
	assert.Contains(t, got, "- Task ID: task-009")
	assert.NotContains(t, got, "Project Information")
}
