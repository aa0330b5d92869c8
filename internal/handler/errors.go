package handler

import (
	"errors"
	"net/http"

	"github.com/Andrew-Beniash/tai/internal/pkg/rag"
	"github.com/Andrew-Beniash/tai/internal/repository"
	"github.com/Andrew-Beniash/tai/internal/service"
	"github.com/Andrew-Beniash/tai/internal/service/statemachine"
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

// statusFor 将服务层错误映射为 HTTP 状态码
func statusFor(err error) int {
	var transitionErr *statemachine.InvalidStateTransitionError
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, rag.ErrContextUnavailable):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrUnknownAction), errors.As(err, &transitionErr):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		klog.Errorf("[Handler] %s %s 失败: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
