package rag

import "github.com/Andrew-Beniash/tai/config"

// ConfigFrom 将配置文件中的 rag 段转换为组装参数，Synonyms 使用默认同义词表
func ConfigFrom(c config.RAGConfig) Config {
	return Config{
		ChunkSize:        c.ChunkSize,
		ChunkOverlap:     c.ChunkOverlap,
		MaxSnippets:      c.MaxSnippets,
		TokenBudget:      c.TokenBudget,
		CharsPerToken:    c.CharsPerToken,
		ReserveTokens:    Tokens(c.ReserveTokens),
		FetchConcurrency: c.FetchConcurrency,
		CacheEnabled:     c.CacheEnabled,
	}
}
