package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Andrew-Beniash/tai/internal/eventbus"
	"github.com/Andrew-Beniash/tai/internal/model"
	"github.com/Andrew-Beniash/tai/internal/pkg/docsource"
	"github.com/Andrew-Beniash/tai/internal/pkg/extract"
	"github.com/Andrew-Beniash/tai/internal/repository"
	"k8s.io/klog/v2"
)

// DocumentService 文档元数据、上传文件与后台索引
type DocumentService struct {
	docRepo     repository.DocumentRepository
	projectRepo repository.ProjectRepository
	source      *docsource.Source
	bus         *eventbus.DocEventBus
}

func NewDocumentService(docRepo repository.DocumentRepository, projectRepo repository.ProjectRepository, source *docsource.Source, bus *eventbus.DocEventBus) *DocumentService {
	return &DocumentService{
		docRepo:     docRepo,
		projectRepo: projectRepo,
		source:      source,
		bus:         bus,
	}
}

type UploadDocumentRequest struct {
	ProjectID   string
	FileName    string
	Description string
	Data        []byte
}

type UpdateDocumentRequest struct {
	FileName    *string `json:"file_name"`
	Description *string `json:"description"`
	Content     *string `json:"content"`
}

// DocumentPreview 文档文本预览
type DocumentPreview struct {
	DocID     string `json:"doc_id"`
	FileName  string `json:"file_name"`
	Text      string `json:"text"`
	Truncated bool   `json:"truncated"`
	TotalLen  int    `json:"total_length"`
}

func (s *DocumentService) List(ctx context.Context, projectID string) ([]model.Document, error) {
	if projectID != "" {
		if _, err := s.projectRepo.Get(ctx, projectID); err != nil {
			return nil, err
		}
	}
	return s.docRepo.List(ctx, projectID)
}

func (s *DocumentService) Get(ctx context.Context, id string) (*model.Document, error) {
	return s.docRepo.Get(ctx, id)
}

// Upload 保存上传的文件到 文档目录/<projectID>/<docID>_<文件名>，并登记元数据
func (s *DocumentService) Upload(ctx context.Context, req UploadDocumentRequest) (*model.Document, error) {
	name := path.Base(filepath.ToSlash(strings.TrimSpace(req.FileName)))
	if name == "" || name == "." || name == "/" {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	if _, err := s.projectRepo.Get(ctx, req.ProjectID); err != nil {
		return nil, err
	}

	docID := newID("doc")
	storagePath := path.Join(req.ProjectID, docID+"_"+name)
	abs, err := s.source.ResolvePath(storagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create document dir: %w", err)
	}
	if err := os.WriteFile(abs, req.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}

	doc := &model.Document{
		ID:          docID,
		ProjectID:   req.ProjectID,
		FileName:    name,
		FileType:    string(extract.DetectType(name, "", req.Data)),
		Description: req.Description,
		StoragePath: storagePath,
		SizeBytes:   int64(len(req.Data)),
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		_ = os.Remove(abs)
		return nil, err
	}
	klog.V(6).Infof("[DocumentService] 上传文档: id=%s, file=%s, type=%s, size=%d", doc.ID, doc.FileName, doc.FileType, doc.SizeBytes)
	s.publish(ctx, eventbus.DocEventCreated, doc)
	return doc, nil
}

func (s *DocumentService) Update(ctx context.Context, id string, req UpdateDocumentRequest) (*model.Document, error) {
	doc, err := s.docRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	contentChanged := false
	if req.FileName != nil {
		name := strings.TrimSpace(*req.FileName)
		if name == "" {
			return nil, fmt.Errorf("%w: file name is required", ErrInvalidInput)
		}
		doc.FileName = name
	}
	if req.Description != nil {
		doc.Description = *req.Description
	}
	if req.Content != nil && *req.Content != doc.Content {
		doc.Content = *req.Content
		doc.SizeBytes = int64(len(doc.Content))
		contentChanged = true
	}
	if err := s.docRepo.Save(ctx, doc); err != nil {
		return nil, err
	}
	if contentChanged {
		s.publish(ctx, eventbus.DocEventUpdated, doc)
	}
	return doc, nil
}

// Delete 删除文档记录和已上传的文件
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.docRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.docRepo.Delete(ctx, id); err != nil {
		return err
	}
	if doc.StoragePath != "" {
		if abs, err := s.source.ResolvePath(doc.StoragePath); err == nil {
			if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
				klog.Warningf("[DocumentService] 删除文件失败: %s, err=%v", abs, err)
			}
		}
	}
	s.publish(ctx, eventbus.DocEventDeleted, doc)
	return nil
}

// Preview 返回文档纯文本的前 maxChars 个字符
func (s *DocumentService) Preview(ctx context.Context, id string, maxChars int) (*DocumentPreview, error) {
	doc, err := s.docRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	text, err := s.source.Text(ctx, doc)
	if err != nil {
		return nil, err
	}
	runes := []rune(text)
	p := &DocumentPreview{DocID: doc.ID, FileName: doc.FileName, TotalLen: len(runes), Text: text}
	if maxChars > 0 && len(runes) > maxChars {
		p.Text = string(runes[:maxChars])
		p.Truncated = true
	}
	return p, nil
}

// IndexDocument 重新提取文件文本并保存，供后台调度器调用
func (s *DocumentService) IndexDocument(ctx context.Context, docID string) error {
	doc, err := s.docRepo.Get(ctx, docID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			klog.V(6).Infof("[DocumentService] 文档已删除，跳过索引: id=%s", docID)
			return nil
		}
		return err
	}
	if doc.StoragePath == "" {
		return nil
	}
	text, err := s.source.ExtractFile(ctx, doc)
	if err != nil {
		return err
	}

	now := time.Now()
	doc.ExtractedText = text
	doc.IndexedAt = &now
	if err := s.docRepo.Save(ctx, doc); err != nil {
		return err
	}
	klog.V(6).Infof("[DocumentService] 文档索引完成: id=%s, chars=%d", doc.ID, len(text))
	s.publish(ctx, eventbus.DocEventIndexed, doc)
	return nil
}

// HandleFileEvent 处理文档目录中的文件变化
// 文件被删除时清空已索引文本；文件变化时发布事件触发重新索引
func (s *DocumentService) HandleFileEvent(ctx context.Context, ev docsource.FileEvent) error {
	docs, err := s.docRepo.FindByStoragePath(ctx, ev.Path)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		klog.V(6).Infof("[DocumentService] 文件未登记为文档，忽略: %s", ev.Path)
		return nil
	}
	for i := range docs {
		doc := &docs[i]
		switch ev.Type {
		case docsource.FileRemoved:
			doc.ExtractedText = ""
			doc.IndexedAt = nil
			if err := s.docRepo.Save(ctx, doc); err != nil {
				return err
			}
			klog.Warningf("[DocumentService] 文档文件已被删除: id=%s, path=%s", doc.ID, ev.Path)
			s.publish(ctx, eventbus.DocEventIndexed, doc)
		default:
			s.publish(ctx, eventbus.DocEventFileChanged, doc)
		}
	}
	return nil
}

func (s *DocumentService) publish(ctx context.Context, t eventbus.DocEventType, doc *model.Document) {
	if s.bus == nil {
		return
	}
	err := s.bus.Publish(ctx, t, eventbus.DocEvent{
		Type:        t,
		DocumentID:  doc.ID,
		ProjectID:   doc.ProjectID,
		StoragePath: doc.StoragePath,
	})
	if err != nil {
		klog.Warningf("[DocumentService] 文档事件处理失败: type=%s, id=%s, err=%v", t, doc.ID, err)
	}
}
