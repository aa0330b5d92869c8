package service

import "errors"

var (
	// ErrInvalidInput 请求参数校验失败
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized 用户名或密码错误、令牌无效
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnknownAction 未定义的操作
	ErrUnknownAction = errors.New("unknown action")
)
