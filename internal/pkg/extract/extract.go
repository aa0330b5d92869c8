package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"k8s.io/klog/v2"
)

// FileType 可提取的文件类型，未知类型一律归为 Unsupported
type FileType string

const (
	PDF         FileType = "pdf"
	DOCX        FileType = "docx"
	XLSX        FileType = "xlsx"
	Text        FileType = "text"
	Unsupported FileType = "other"
)

// ErrEmptyInput 输入为空
var ErrEmptyInput = errors.New("empty input")

// Extractor 单一格式的文本提取器
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// ExtractorFunc 函数适配器
type ExtractorFunc func(ctx context.Context, data []byte) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, data []byte) (string, error) {
	return f(ctx, data)
}

// Registry 按文件类型分发提取器
type Registry struct {
	extractors map[FileType]Extractor
}

// NewRegistry 创建包含 PDF/DOCX/XLSX/纯文本提取器的注册表
func NewRegistry() *Registry {
	return &Registry{
		extractors: map[FileType]Extractor{
			PDF:  ExtractorFunc(extractPDF),
			DOCX: ExtractorFunc(extractDOCX),
			XLSX: ExtractorFunc(extractXLSX),
			Text: ExtractorFunc(extractText),
		},
	}
}

// Register 注册或替换某个类型的提取器
func (r *Registry) Register(ft FileType, e Extractor) {
	r.extractors[ft] = e
}

// Extract 提取纯文本。不支持的类型返回空字符串而不是错误。
func (r *Registry) Extract(ctx context.Context, ft FileType, data []byte) (string, error) {
	e, ok := r.extractors[ft]
	if !ok {
		klog.V(6).Infof("[Extract] 不支持的文件类型，返回空文本: type=%s", ft)
		return "", nil
	}
	if len(data) == 0 {
		return "", ErrEmptyInput
	}
	text, err := e.Extract(ctx, data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", ft, err)
	}
	return normalize(text), nil
}

// ParseFileType 将文件类型标签转换为 FileType
func ParseFileType(tag string) FileType {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), ".")) {
	case "pdf":
		return PDF
	case "docx":
		return DOCX
	case "xlsx":
		return XLSX
	case "text", "txt", "md", "markdown", "csv", "log":
		return Text
	default:
		return Unsupported
	}
}

// DetectType 依次根据声明的类型标签、文件扩展名、文件内容判断类型
func DetectType(fileName, declared string, data []byte) FileType {
	if ft := ParseFileType(declared); ft != Unsupported {
		return ft
	}
	if ft := ParseFileType(filepath.Ext(fileName)); ft != Unsupported {
		return ft
	}
	if len(data) == 0 {
		return Unsupported
	}

	mtype := mimetype.Detect(data)
	if ft := ParseFileType(mtype.Extension()); ft != Unsupported {
		return ft
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return Text
		}
	}
	return Unsupported
}

// normalize 统一换行并去掉行尾空白，保留段落空行
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\u00a0")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
