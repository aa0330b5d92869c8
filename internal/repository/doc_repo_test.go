package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/Andrew-Beniash/tai/internal/model"
)

func TestDocumentRepositoryTaskLinksKeepOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(openTestDB(t))

	for _, d := range []model.Document{
		{ID: "doc-001", ProjectID: "proj-001", FileName: "prior_year_return.pdf", FileType: "pdf"},
		{ID: "doc-002", ProjectID: "proj-001", FileName: "financial_statement.xlsx", FileType: "xlsx"},
		{ID: "doc-003", ProjectID: "proj-001", FileName: "client_responses.docx", FileType: "docx"},
	} {
		d := d
		if err := repo.Create(ctx, &d); err != nil {
			t.Fatalf("Create %s error: %v", d.ID, err)
		}
	}

	if err := repo.SetTaskDocuments(ctx, "task-001", []string{"doc-003", "doc-001", "doc-003", ""}); err != nil {
		t.Fatalf("SetTaskDocuments error: %v", err)
	}
	docs, err := repo.ListByTask(ctx, "task-001")
	if err != nil {
		t.Fatalf("ListByTask error: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "doc-003" || docs[1].ID != "doc-001" {
		t.Fatalf("unexpected task documents: %+v", docs)
	}

	// 重新设置会替换原有关联
	if err := repo.SetTaskDocuments(ctx, "task-001", []string{"doc-002"}); err != nil {
		t.Fatalf("SetTaskDocuments error: %v", err)
	}
	docs, err = repo.ListByTask(ctx, "task-001")
	if err != nil {
		t.Fatalf("ListByTask error: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "doc-002" {
		t.Fatalf("unexpected task documents after reset: %+v", docs)
	}
}

func TestDocumentRepositoryGetByIDsPreservesOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(openTestDB(t))
	for _, id := range []string{"a", "b", "c"} {
		if err := repo.Create(ctx, &model.Document{ID: id, FileName: id + ".txt"}); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	docs, err := repo.GetByIDs(ctx, []string{"c", "missing", "a"})
	if err != nil {
		t.Fatalf("GetByIDs error: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "c" || docs[1].ID != "a" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
}

func TestDocumentRepositoryDeleteRemovesLinks(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewDocumentRepository(db)
	if err := repo.Create(ctx, &model.Document{ID: "doc-1", FileName: "x.pdf", StoragePath: "x.pdf"}); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := repo.SetTaskDocuments(ctx, "task-1", []string{"doc-1"}); err != nil {
		t.Fatalf("SetTaskDocuments error: %v", err)
	}

	found, err := repo.FindByStoragePath(ctx, "x.pdf")
	if err != nil || len(found) != 1 {
		t.Fatalf("FindByStoragePath = %v, %v", found, err)
	}

	if err := repo.Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	var links int64
	db.Model(&model.TaskDocument{}).Count(&links)
	if links != 0 {
		t.Fatalf("expected links removed, got %d", links)
	}
	if _, err := repo.Get(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "doc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
