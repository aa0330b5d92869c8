package handler

import (
	"net/http"

	"github.com/Andrew-Beniash/tai/internal/middleware"
	"github.com/Andrew-Beniash/tai/internal/repository"
	"github.com/Andrew-Beniash/tai/internal/service"
	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	service *service.TaskService
}

func NewTaskHandler(service *service.TaskService) *TaskHandler {
	return &TaskHandler{
		service: service,
	}
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req service.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	task, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// List 支持 project_id / assigned_to / status 过滤，assigned_to=me 表示当前用户
func (h *TaskHandler) List(c *gin.Context) {
	filter := repository.TaskFilter{
		ProjectID:  c.Query("project_id"),
		AssignedTo: c.Query("assigned_to"),
		Status:     c.Query("status"),
	}
	if filter.AssignedTo == "me" {
		claims := middleware.CurrentClaims(c)
		if claims == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}
		filter.AssignedTo = claims.UserID
	}
	tasks, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GetByProject 项目下的任务
func (h *TaskHandler) GetByProject(c *gin.Context) {
	tasks, err := h.service.List(c.Request.Context(), repository.TaskFilter{ProjectID: c.Param("id")})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Update(c *gin.Context) {
	var req service.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	task, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateStatusRequest 状态变更请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	task, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// NextStatuses 当前状态可迁移的目标状态
func (h *TaskHandler) NextStatuses(c *gin.Context) {
	statuses, err := h.service.NextStatuses(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if statuses == nil {
		statuses = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}

func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}

// AttachDocumentsRequest 任务文档列表，顺序即检索顺序
type AttachDocumentsRequest struct {
	DocumentIDs []string `json:"document_ids"`
}

func (h *TaskHandler) AttachDocuments(c *gin.Context) {
	var req AttachDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()
	if err := h.service.AttachDocuments(ctx, c.Param("id"), req.DocumentIDs); err != nil {
		respondError(c, err)
		return
	}
	docs, err := h.service.ListDocuments(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *TaskHandler) ListDocuments(c *gin.Context) {
	docs, err := h.service.ListDocuments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}
