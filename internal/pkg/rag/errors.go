package rag

import "errors"

var (
	// ErrContextUnavailable 任务本身无法解析（如任务不存在），无法构建提示词
	ErrContextUnavailable = errors.New("task context unavailable")

	// ErrInvalidChunkConfig 切片参数非法：size、overlap 必须为正且 overlap < size
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

	// ErrInvalidBudgetConfig 预算参数非法，如预留 token 为负数
	ErrInvalidBudgetConfig = errors.New("invalid budget configuration")

	// ErrRetrievalDegraded 单个文档文本不可用，仅用于日志与记录，不会从检索中返回
	ErrRetrievalDegraded = errors.New("retrieval degraded")
)
