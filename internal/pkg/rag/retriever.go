package rag

import (
	"sort"
	"strings"

	"k8s.io/klog/v2"
)

// Retriever 对任务文档切片、打分并按相关度排序
type Retriever struct {
	chunker  *Chunker
	expander *Expander
	scorer   *Scorer
	cache    ChunkCache
}

// NewRetriever 创建检索器，cache 可以为 nil
func NewRetriever(chunker *Chunker, expander *Expander, scorer *Scorer, cache ChunkCache) *Retriever {
	if expander == nil {
		expander = NewExpander(nil)
	}
	if scorer == nil {
		scorer = NewScorer(DefaultScorerConfig())
	}
	return &Retriever{
		chunker:  chunker,
		expander: expander,
		scorer:   scorer,
		cache:    cache,
	}
}

// Retrieve 返回按分数降序排列的候选切片，最多 maxSnippets 个。
// 同分按文档原始顺序、再按切片序号升序。
// 查询为空（或只剩停用词）时不打分，按文档顺序返回前 maxSnippets 个切片。
// 文本为空的文档直接跳过，不影响其余文档。
func (r *Retriever) Retrieve(docs []Document, query string, maxSnippets int) []ScoredSnippet {
	if maxSnippets <= 0 {
		return nil
	}

	terms := r.expander.Expand(query)
	if len(terms) == 0 {
		klog.V(6).Infof("[Retriever] 查询无有效检索词，按文档顺序返回: query=%q", query)
		return r.inOrder(docs, maxSnippets)
	}
	klog.V(6).Infof("[Retriever] 检索词扩展: query=%q, terms=%v", query, terms.Sorted())

	var candidates []ScoredSnippet
	for i, doc := range docs {
		for _, ch := range r.chunks(doc) {
			candidates = append(candidates, ScoredSnippet{
				Chunk:    ch,
				Score:    r.scorer.Score(ch.Text, terms),
				DocID:    doc.ID,
				FileName: doc.FileName,
				docOrder: i,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.docOrder != b.docOrder {
			return a.docOrder < b.docOrder
		}
		return a.Chunk.Index < b.Chunk.Index
	})

	if len(candidates) > maxSnippets {
		candidates = candidates[:maxSnippets]
	}
	klog.V(6).Infof("[Retriever] 检索完成: documents=%d, returned=%d", len(docs), len(candidates))
	return candidates
}

// inOrder 无查询信号时的兜底：按文档顺序取前 n 个切片，分数均为 0
func (r *Retriever) inOrder(docs []Document, n int) []ScoredSnippet {
	var out []ScoredSnippet
	for i, doc := range docs {
		for _, ch := range r.chunks(doc) {
			if len(out) >= n {
				return out
			}
			out = append(out, ScoredSnippet{
				Chunk:    ch,
				DocID:    doc.ID,
				FileName: doc.FileName,
				docOrder: i,
			})
		}
	}
	return out
}

func (r *Retriever) chunks(doc Document) []Chunk {
	if strings.TrimSpace(doc.Text) == "" {
		klog.V(6).Infof("[Retriever] 文档文本为空，跳过: docID=%s, file=%s", doc.ID, doc.FileName)
		return nil
	}
	if r.cache == nil {
		return r.chunker.Chunk(doc.ID, doc.Text)
	}

	hash := ContentHash(doc.Text)
	if cached, ok := r.cache.Get(doc.ID, hash); ok {
		return cached
	}
	chunks := r.chunker.Chunk(doc.ID, doc.Text)
	r.cache.Put(doc.ID, hash, chunks)
	return chunks
}
