package rag

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"k8s.io/klog/v2"
)

const (
	// DefaultTokenBudget 单次请求默认 token 预算
	DefaultTokenBudget = 8000
	// DefaultMaxSnippets 默认候选切片数量
	DefaultMaxSnippets = 20
	// DefaultReserveTokens 为提示词中的说明文字预留的 token
	DefaultReserveTokens = 400

	// TruncationMarker 截断切片末尾追加的标记
	TruncationMarker = "... [truncated due to length]"

	// 每个切片在提示词中除标题与正文外的换行开销
	snippetOverheadTokens = 1
)

// AssemblerConfig 组装参数
type AssemblerConfig struct {
	MaxSnippets   int // 向检索器请求的候选数量
	ReserveTokens int // 预留给说明文字的 token，实际取 min(ReserveTokens, budget/5)
}

// Assembler 在 token 预算内合并任务元数据与排序后的切片
type Assembler struct {
	retriever *Retriever
	estimator Estimator
	cfg       AssemblerConfig
}

// NewAssembler 创建组装器
func NewAssembler(retriever *Retriever, estimator Estimator, cfg AssemblerConfig) *Assembler {
	if cfg.MaxSnippets <= 0 {
		cfg.MaxSnippets = DefaultMaxSnippets
	}
	if cfg.ReserveTokens < 0 {
		cfg.ReserveTokens = 0
	}
	return &Assembler{retriever: retriever, estimator: estimator, cfg: cfg}
}

// Assemble 组装上下文。任务元数据总是完整保留；切片按排名贪心放入，
// 第一个放不下的切片处停止。若排名第一的切片本身就超出剩余预算，截断后放入。
// 相同输入得到相同输出。
func (a *Assembler) Assemble(tc TaskContext, docs []Document, query string, budget int) *AssembledContext {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}

	out := &AssembledContext{
		TaskContext: tc,
		Query:       query,
		Snippets:    []ScoredSnippet{},
		TokenBudget: budget,
	}

	metaTokens := a.estimator.Estimate(RenderMetadata(tc)) + a.estimator.Estimate(query)
	candidates := a.retriever.Retrieve(docs, query, a.cfg.MaxSnippets)

	if metaTokens > budget {
		klog.Warningf("[Assembler] 任务元数据已超出 token 预算: task=%s, metadata=%d, budget=%d", tc.Task.ID, metaTokens, budget)
		out.OverBudget = true
		out.BudgetExhausted = len(candidates) > 0
		out.EstimatedTokens = metaTokens
		out.Consulted = consulted(docs, out.Snippets)
		return out
	}

	reserve := a.cfg.ReserveTokens
	if reserve > budget/5 {
		reserve = budget / 5
	}
	available := budget - metaTokens - reserve

	used := 0
	for i, c := range candidates {
		cost := a.snippetCost(c)
		if used+cost <= available {
			out.Snippets = append(out.Snippets, c)
			used += cost
			continue
		}

		out.BudgetExhausted = true
		if i == 0 {
			if t, ok := a.truncate(c, available); ok {
				out.Snippets = append(out.Snippets, t)
				used += a.snippetCost(t)
			}
		}
		break
	}

	out.EstimatedTokens = metaTokens + used
	out.Consulted = consulted(docs, out.Snippets)

	klog.V(6).Infof("[Assembler] 上下文组装完成: task=%s, candidates=%d, snippets=%d, tokens=%d/%d, exhausted=%v",
		tc.Task.ID, len(candidates), len(out.Snippets), out.EstimatedTokens, budget, out.BudgetExhausted)
	return out
}

func (a *Assembler) snippetCost(s ScoredSnippet) int {
	return a.estimator.Estimate(snippetHeader(s.FileName)) + a.estimator.Estimate(s.Chunk.Text) + snippetOverheadTokens
}

// truncate 把切片截断到 available 个 token 之内，尽量在空白处断开
func (a *Assembler) truncate(s ScoredSnippet, available int) (ScoredSnippet, bool) {
	textBudget := available - a.estimator.Estimate(snippetHeader(s.FileName)) - snippetOverheadTokens
	markerLen := utf8.RuneCountInString(TruncationMarker)
	maxRunes := a.estimator.MaxRunes(textBudget) - markerLen
	if maxRunes <= 0 {
		return s, false
	}

	runes := []rune(s.Chunk.Text)
	if maxRunes >= len(runes) {
		return s, a.snippetCost(s) <= available
	}

	cut := maxRunes
	for p := maxRunes; p > maxRunes/2; p-- {
		if unicode.IsSpace(runes[p-1]) {
			cut = p
			break
		}
	}
	kept := strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace)
	text := kept + TruncationMarker
	if a.estimator.Estimate(text) > textBudget {
		return s, false
	}

	s.Chunk.Text = text
	s.Chunk.End = s.Chunk.Start + cut
	s.Truncated = true
	return s, true
}

// consulted 按文档原始顺序记录每个文档的处理结果
func consulted(docs []Document, snippets []ScoredSnippet) []ConsultedDocument {
	used := make(map[string]bool, len(snippets))
	for _, s := range snippets {
		used[s.DocID] = true
	}

	out := make([]ConsultedDocument, 0, len(docs))
	for _, d := range docs {
		cd := ConsultedDocument{DocID: d.ID, FileName: d.FileName}
		switch {
		case strings.TrimSpace(d.Text) == "":
			cd.Status = ConsultSkipped
			cd.Reason = "no extractable text"
		case used[d.ID]:
			cd.Status = ConsultUsed
		default:
			cd.Status = ConsultUnused
		}
		out = append(out, cd)
	}
	return out
}
