package rag

import "strings"

// ScorerConfig 打分参数
type ScorerConfig struct {
	DensityWeight  float64 // 词频密度权重
	CoverageWeight float64 // 覆盖度权重
	// DensitySaturation 命中词数 / 总词数 达到该比例时密度分满分
	DensitySaturation float64
	// CoverageSaturation 命中不同检索词的个数达到该值时覆盖度满分
	CoverageSaturation int
	// PrefixMinLen 检索词长度不小于该值时允许前缀匹配（deduction 命中 deductions）
	PrefixMinLen int
}

// DefaultScorerConfig 默认打分参数，覆盖度权重高于密度
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		DensityWeight:      0.4,
		CoverageWeight:     0.6,
		DensitySaturation:  0.1,
		CoverageSaturation: 5,
		PrefixMinLen:       4,
	}
}

// Scorer 计算切片与检索词集合的相关度，结果在 [0,1]
type Scorer struct {
	cfg ScorerConfig
}

// NewScorer 创建打分器，零值字段回落到默认值
func NewScorer(cfg ScorerConfig) *Scorer {
	def := DefaultScorerConfig()
	if cfg.DensityWeight <= 0 && cfg.CoverageWeight <= 0 {
		cfg.DensityWeight = def.DensityWeight
		cfg.CoverageWeight = def.CoverageWeight
	}
	if cfg.DensitySaturation <= 0 {
		cfg.DensitySaturation = def.DensitySaturation
	}
	if cfg.CoverageSaturation <= 0 {
		cfg.CoverageSaturation = def.CoverageSaturation
	}
	if cfg.PrefixMinLen <= 0 {
		cfg.PrefixMinLen = def.PrefixMinLen
	}
	return &Scorer{cfg: cfg}
}

// Score 密度分与覆盖度分的加权和。没有任何命中时恰好为 0。
func (s *Scorer) Score(text string, terms TermSet) float64 {
	if len(terms) == 0 || text == "" {
		return 0
	}
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	hits := 0
	matched := make(map[string]bool)
	for _, tok := range tokens {
		term, ok := s.match(tok, terms)
		if !ok {
			continue
		}
		hits++
		matched[term] = true
	}
	if hits == 0 {
		return 0
	}

	density := float64(hits) / float64(len(tokens)) / s.cfg.DensitySaturation
	coverage := float64(len(matched)) / float64(s.cfg.CoverageSaturation)

	score := s.cfg.DensityWeight*clamp01(density) + s.cfg.CoverageWeight*clamp01(coverage)
	return clamp01(score)
}

// match 精确匹配优先，其次按最长的检索词做前缀匹配
func (s *Scorer) match(tok string, terms TermSet) (string, bool) {
	if terms.Has(tok) {
		return tok, true
	}
	best := ""
	for term := range terms {
		if len(term) < s.cfg.PrefixMinLen || len(term) <= len(best) {
			continue
		}
		if strings.HasPrefix(tok, term) {
			best = term
		}
	}
	return best, best != ""
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
