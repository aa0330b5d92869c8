package rag

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// ChunkCache 切片结果缓存，按 (文档ID, 文本哈希) 命中
// 仅是性能优化，关闭时每次调用都会重新切片
type ChunkCache interface {
	Get(docID, hash string) ([]Chunk, bool)
	Put(docID, hash string, chunks []Chunk)
	Invalidate(docID string)
}

// ContentHash 文本内容哈希
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

type cacheEntry struct {
	hash   string
	chunks []Chunk
}

// MemoryChunkCache 进程内缓存，每个文档只保留最新内容哈希对应的切片
type MemoryChunkCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewMemoryChunkCache 创建内存缓存
func NewMemoryChunkCache() *MemoryChunkCache {
	return &MemoryChunkCache{entries: make(map[string]cacheEntry)}
}

// Get 命中时返回切片副本
func (c *MemoryChunkCache) Get(docID, hash string) ([]Chunk, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[docID]
	if !ok || entry.hash != hash {
		return nil, false
	}
	out := make([]Chunk, len(entry.chunks))
	copy(out, entry.chunks)
	return out, true
}

// Put 写入缓存，覆盖该文档旧内容的切片
func (c *MemoryChunkCache) Put(docID, hash string, chunks []Chunk) {
	stored := make([]Chunk, len(chunks))
	copy(stored, chunks)

	c.mu.Lock()
	c.entries[docID] = cacheEntry{hash: hash, chunks: stored}
	c.mu.Unlock()
}

// Invalidate 删除某个文档的缓存，nil 缓存上调用为空操作
func (c *MemoryChunkCache) Invalidate(docID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, docID)
	c.mu.Unlock()
}

// Len 当前缓存的文档数
func (c *MemoryChunkCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
