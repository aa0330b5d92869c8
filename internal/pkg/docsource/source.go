package docsource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Andrew-Beniash/tai/internal/model"
	"github.com/Andrew-Beniash/tai/internal/pkg/extract"
	"github.com/Andrew-Beniash/tai/internal/pkg/rag"
	"k8s.io/klog/v2"
)

// ErrPathOutsideRoot 存储路径越出文档目录
var ErrPathOutsideRoot = errors.New("storage path outside documents directory")

// DocumentStore 文档元数据存储，repository.DocumentRepository 满足该接口
type DocumentStore interface {
	Get(ctx context.Context, id string) (*model.Document, error)
	ListByTask(ctx context.Context, taskID string) ([]model.Document, error)
}

// Source 文档来源：列出任务文档并提供纯文本
// 文本优先级：内联内容 > 已索引文本 > 从文档目录读取文件并实时提取
type Source struct {
	store      DocumentStore
	extractors *extract.Registry
	root       string
}

var _ rag.DocumentSource = (*Source)(nil)

// NewSource 创建文档来源，root 为文档目录
func NewSource(store DocumentStore, extractors *extract.Registry, root string) *Source {
	if extractors == nil {
		extractors = extract.NewRegistry()
	}
	return &Source{store: store, extractors: extractors, root: root}
}

// Root 文档目录
func (s *Source) Root() string {
	return s.root
}

func (s *Source) ListDocumentsForTask(ctx context.Context, taskID string) ([]rag.DocumentRef, error) {
	docs, err := s.store.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	refs := make([]rag.DocumentRef, 0, len(docs))
	for _, d := range docs {
		refs = append(refs, rag.DocumentRef{
			ID:          d.ID,
			FileName:    d.FileName,
			FileType:    d.FileType,
			Description: d.Description,
		})
	}
	return refs, nil
}

func (s *Source) GetTextContent(ctx context.Context, docID string) (string, error) {
	doc, err := s.store.Get(ctx, docID)
	if err != nil {
		return "", err
	}
	return s.Text(ctx, doc)
}

// Text 返回文档纯文本；不支持的格式或提取失败返回空字符串
func (s *Source) Text(ctx context.Context, doc *model.Document) (string, error) {
	if doc.Content != "" {
		return doc.Content, nil
	}
	if doc.ExtractedText != "" {
		return doc.ExtractedText, nil
	}
	if doc.StoragePath == "" {
		return "", nil
	}
	return s.ExtractFile(ctx, doc)
}

// ExtractFile 忽略已缓存的文本，直接从文件重新提取
// 文件读取失败返回错误；格式不支持或解析失败返回空字符串
func (s *Source) ExtractFile(ctx context.Context, doc *model.Document) (string, error) {
	if doc.StoragePath == "" {
		return doc.Content, nil
	}
	path, err := s.ResolvePath(doc.StoragePath)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document %s: %w", doc.ID, err)
	}

	ft := extract.DetectType(doc.FileName, doc.FileType, data)
	text, err := s.extractors.Extract(ctx, ft, data)
	if err != nil {
		klog.Warningf("[DocSource] 文本提取失败，按空文本处理: docID=%s, file=%s, err=%v", doc.ID, doc.FileName, err)
		return "", nil
	}
	klog.V(6).Infof("[DocSource] 提取文本完成: docID=%s, type=%s, chars=%d", doc.ID, ft, len(text))
	return text, nil
}

// ResolvePath 将相对存储路径解析为文档目录下的绝对路径
func (s *Source) ResolvePath(storagePath string) (string, error) {
	return SafeJoin(s.root, storagePath)
}

// SafeJoin 拼接路径并保证结果仍在 root 之下
func SafeJoin(root, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideRoot, rel)
	}
	joined := filepath.Join(root, rel)
	r, err := filepath.Rel(root, joined)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideRoot, rel)
	}
	return joined, nil
}
