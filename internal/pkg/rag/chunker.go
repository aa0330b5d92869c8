package rag

import (
	"fmt"
	"unicode"
)

// Chunker 按字符窗口切分文本，窗口之间保留 overlap 个字符的重叠
// 切点优先落在段落分隔处，其次句末标点，再次空白，最后才是原始窗口边界
type Chunker struct {
	size    int
	overlap int
}

// NewChunker 创建切片器，参数非法时直接返回错误
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 || overlap <= 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunkConfig, size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size 目标窗口大小（字符）
func (c *Chunker) Size() int { return c.size }

// Overlap 窗口重叠（字符）
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk 切分文档文本。空文本返回空切片，短于窗口的文本返回一个完整切片。
// 相邻切片首尾相接或重叠，因此原文每个字符至少出现在一个切片中。
func (c *Chunker) Chunk(docID, text string) []Chunk {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	n := len(runes)

	var chunks []Chunk
	start := 0
	for start < n {
		end := start + c.size
		if end >= n {
			chunks = append(chunks, c.newChunk(docID, len(chunks), runes, start, n))
			break
		}

		cut := c.findCut(runes, start, end)
		chunks = append(chunks, c.newChunk(docID, len(chunks), runes, start, cut))
		start = c.nextStart(runes, cut)
	}
	return chunks
}

func (c *Chunker) newChunk(docID string, index int, runes []rune, start, end int) Chunk {
	return Chunk{
		DocumentID: docID,
		Index:      index,
		Text:       string(runes[start:end]),
		Start:      start,
		End:        end,
	}
}

// findCut 在 [minCut, end] 内向后查找切点
// minCut 保证切片长度超过 overlap，下一个窗口一定向前推进
func (c *Chunker) findCut(runes []rune, start, end int) int {
	minCut := start + c.size/2
	if minCut < start+c.overlap+1 {
		minCut = start + c.overlap + 1
	}

	for p := end; p >= minCut; p-- {
		if isParagraphEnd(runes, start, p) {
			return p
		}
	}
	for p := end; p >= minCut; p-- {
		if isSentenceEnd(runes, p) {
			return p
		}
	}
	for p := end; p >= minCut; p-- {
		if unicode.IsSpace(runes[p-1]) {
			return p
		}
	}
	return end
}

// nextStart 下一个窗口起点：回退 overlap 个字符，并尽量对齐到单词开头
func (c *Chunker) nextStart(runes []rune, cut int) int {
	s := cut - c.overlap
	if s <= 0 || unicode.IsSpace(runes[s-1]) {
		return s
	}
	for q := s; q < cut; q++ {
		if unicode.IsSpace(runes[q]) {
			return q + 1
		}
	}
	return s
}

func isParagraphEnd(runes []rune, start, p int) bool {
	if p-2 < start || runes[p-1] != '\n' {
		return false
	}
	if runes[p-2] == '\n' {
		return true
	}
	return runes[p-2] == '\r' && p-3 >= start && runes[p-3] == '\n'
}

func isSentenceEnd(runes []rune, p int) bool {
	switch runes[p-1] {
	case '.', '!', '?', '。', '！', '？':
	default:
		return false
	}
	return p == len(runes) || unicode.IsSpace(runes[p])
}
