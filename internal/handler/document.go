package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Andrew-Beniash/tai/internal/service"
	"github.com/Andrew-Beniash/tai/internal/service/orchestrator"
	"github.com/gin-gonic/gin"
)

const (
	maxUploadBytes      = 32 << 20
	defaultPreviewChars = 2000
)

// IndexQueue 后台索引队列，orchestrator.Orchestrator 满足该接口
type IndexQueue interface {
	Enqueue(docID, reason string) error
	EnqueueBatch(jobs []*orchestrator.Job) error
	GetQueueStatus() *orchestrator.QueueStatus
}

type DocumentHandler struct {
	service *service.DocumentService
	queue   IndexQueue
}

// NewDocumentHandler 创建文档处理器，queue 可为 nil（不提供重建索引接口）
func NewDocumentHandler(service *service.DocumentService, queue IndexQueue) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		queue:   queue,
	}
}

// GetByProject 获取项目下文档列表
func (h *DocumentHandler) GetByProject(c *gin.Context) {
	docs, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// Upload 上传文档（multipart 字段 file，可选 description）
func (h *DocumentHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	if fh.Size > maxUploadBytes {
		badRequest(c, fmt.Sprintf("file exceeds %d bytes", maxUploadBytes))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		respondError(c, err)
		return
	}

	doc, err := h.service.Upload(c.Request.Context(), service.UploadDocumentRequest{
		ProjectID:   c.Param("id"),
		FileName:    fh.Filename,
		Description: c.PostForm("description"),
		Data:        data,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// Get 获取单个文档详情
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Preview 文档纯文本预览，max_chars 默认 2000
func (h *DocumentHandler) Preview(c *gin.Context) {
	maxChars := defaultPreviewChars
	if v := c.Query("max_chars"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, "invalid max_chars")
			return
		}
		maxChars = n
	}
	preview, err := h.service.Preview(c.Request.Context(), c.Param("id"), maxChars)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// Update 更新文档元数据或内联文本
func (h *DocumentHandler) Update(c *gin.Context) {
	var req service.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	doc, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "document deleted"})
}

// Reindex 提交文档重新提取任务
func (h *DocumentHandler) Reindex(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "indexing is disabled"})
		return
	}
	doc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.queue.Enqueue(doc.ID, "manual"); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "document queued for indexing"})
}

// ReindexProject 为项目下全部文档批量提交重新提取任务
func (h *DocumentHandler) ReindexProject(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "indexing is disabled"})
		return
	}
	docs, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	jobs := make([]*orchestrator.Job, 0, len(docs))
	for _, doc := range docs {
		jobs = append(jobs, orchestrator.NewIndexJob(doc.ID, "project_reindex"))
	}
	if err := h.queue.EnqueueBatch(jobs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": len(jobs)})
}

// IndexStatus 后台索引队列状态
func (h *DocumentHandler) IndexStatus(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "indexing is disabled"})
		return
	}
	c.JSON(http.StatusOK, h.queue.GetQueueStatus())
}
