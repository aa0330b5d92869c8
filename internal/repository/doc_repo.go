package repository

import (
	"context"

	"github.com/Andrew-Beniash/tai/internal/model"
	"gorm.io/gorm"
)

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// List 列出文档，projectID 为空时返回全部
func (r *documentRepository) List(ctx context.Context, projectID string) ([]model.Document, error) {
	var docs []model.Document
	q := r.db.WithContext(ctx)
	if projectID != "" {
		q = q.Where("project_id = ?", projectID)
	}
	err := q.Order("id asc").Find(&docs).Error
	return docs, err
}

func (r *documentRepository) Get(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &doc, nil
}

// GetByIDs 按 ids 的顺序返回存在的文档，不存在的 id 被忽略
func (r *documentRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var docs []model.Document
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&docs).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]model.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	ordered := make([]model.Document, 0, len(docs))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			ordered = append(ordered, d)
			delete(byID, id)
		}
	}
	return ordered, nil
}

func (r *documentRepository) Save(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&model.TaskDocument{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Document{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *documentRepository) ListByTask(ctx context.Context, taskID string) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.WithContext(ctx).
		Joins("JOIN task_documents ON task_documents.document_id = documents.id").
		Where("task_documents.task_id = ?", taskID).
		Order("task_documents.sort_order asc, task_documents.id asc").
		Find(&docs).Error
	return docs, err
}

func (r *documentRepository) SetTaskDocuments(ctx context.Context, taskID string, docIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&model.TaskDocument{}).Error; err != nil {
			return err
		}
		seen := make(map[string]bool, len(docIDs))
		links := make([]model.TaskDocument, 0, len(docIDs))
		for _, id := range docIDs {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			links = append(links, model.TaskDocument{TaskID: taskID, DocumentID: id, SortOrder: len(links)})
		}
		if len(links) == 0 {
			return nil
		}
		return tx.Create(&links).Error
	})
}

func (r *documentRepository) FindByStoragePath(ctx context.Context, path string) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.WithContext(ctx).Where("storage_path = ?", path).Find(&docs).Error
	return docs, err
}
