package rag

import (
	"math"
	"unicode/utf8"
)

// DefaultCharsPerToken 粗略估算：1 token ≈ 4 个字符
const DefaultCharsPerToken = 4.0

// Estimator 按固定字符/token 比例估算文本的 token 数
// 只是近似值，对非英文或符号密集的文本会有偏差
type Estimator struct {
	charsPerToken float64
}

// NewEstimator 创建估算器，ratio 非正时使用默认比例
func NewEstimator(charsPerToken float64) Estimator {
	if charsPerToken <= 0 || math.IsNaN(charsPerToken) || math.IsInf(charsPerToken, 0) {
		charsPerToken = DefaultCharsPerToken
	}
	return Estimator{charsPerToken: charsPerToken}
}

// CharsPerToken 当前比例
func (e Estimator) CharsPerToken() float64 {
	if e.charsPerToken <= 0 {
		return DefaultCharsPerToken
	}
	return e.charsPerToken
}

// Estimate 估算 token 数，向上取整
func (e Estimator) Estimate(text string) int {
	if text == "" {
		return 0
	}
	n := utf8.RuneCountInString(text)
	return int(math.Ceil(float64(n) / e.CharsPerToken()))
}

// MaxRunes 在 tokens 个 token 之内最多能容纳的字符数
func (e Estimator) MaxRunes(tokens int) int {
	if tokens <= 0 {
		return 0
	}
	return int(math.Floor(float64(tokens) * e.CharsPerToken()))
}
