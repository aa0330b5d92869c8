package handler

import (
	"net/http"

	"github.com/Andrew-Beniash/tai/internal/middleware"
	"github.com/Andrew-Beniash/tai/internal/service"
	"github.com/gin-gonic/gin"
)

type ActionHandler struct {
	service *service.ActionService
}

func NewActionHandler(service *service.ActionService) *ActionHandler {
	return &ActionHandler{service: service}
}

// Execute 执行模拟操作，记录当前用户为执行人
func (h *ActionHandler) Execute(c *gin.Context) {
	var req service.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	userID := ""
	if claims := middleware.CurrentClaims(c); claims != nil {
		userID = claims.UserID
	}
	result, err := h.service.Execute(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ActionHandler) Available(c *gin.Context) {
	actions, err := h.service.AvailableActions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actions": actions})
}

func (h *ActionHandler) Runs(c *gin.Context) {
	runs, err := h.service.ListRuns(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}
