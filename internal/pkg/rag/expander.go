package rag

import (
	"sort"
	"strings"
	"unicode"
)

// SynonymTable 领域同义词表：词 -> 扩展词
type SynonymTable map[string][]string

// DefaultSynonyms 返回内置税务领域同义词表的新副本
func DefaultSynonyms() SynonymTable {
	return SynonymTable{
		"missing":       {"incomplete", "needed", "required", "omitted"},
		"risk":          {"issue", "concern", "audit", "flag"},
		"risks":         {"issue", "concern", "audit", "flag"},
		"income":        {"revenue", "earnings", "receipts", "profit"},
		"revenue":       {"income", "sales", "receipts"},
		"expense":       {"expenses", "cost", "costs", "deduction"},
		"expenses":      {"expense", "cost", "costs", "deductions"},
		"deduction":     {"deductions", "deductible", "expense", "writeoff"},
		"deductions":    {"deduction", "deductible", "expenses"},
		"credit":        {"credits", "r&d", "incentive"},
		"credits":       {"credit", "incentive"},
		"depreciation":  {"amortization", "assets", "equipment", "schedule"},
		"asset":         {"assets", "equipment", "property"},
		"assets":        {"asset", "equipment", "property"},
		"foreign":       {"international", "subsidiary", "overseas", "canadian"},
		"compensation":  {"salary", "salaries", "wages", "officer"},
		"deadline":      {"due", "timeline", "filing"},
		"due":           {"deadline", "timeline"},
		"summary":       {"overview", "notes", "summarize"},
		"summarize":     {"summary", "overview", "notes"},
		"documentation": {"documents", "records", "statements"},
		"document":      {"documentation", "records", "statement"},
		"documents":     {"documentation", "records", "statements"},
		"liability":     {"liabilities", "debt", "obligation"},
		"debt":          {"liabilities", "loan", "financing"},
		"partner":       {"partners", "partnership", "k-1"},
		"partnership":   {"partners", "1065", "k-1"},
		"review":        {"check", "verify", "examine"},
		"tax":           {"taxable", "federal", "state"},
		"change":        {"changes", "changed", "new"},
		"changes":       {"change", "changed", "new"},
	}
}

// 冠词、介词及常见虚词
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "i": true,
	"of": true, "in": true, "on": true, "at": true, "to": true, "for": true,
	"from": true, "by": true, "with": true, "about": true, "into": true,
	"over": true, "under": true, "between": true, "through": true, "during": true,
	"before": true, "after": true, "above": true, "below": true, "as": true,
	"and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"do": true, "does": true, "did": true, "can": true, "could": true,
	"what": true, "which": true, "who": true, "how": true, "when": true, "where": true, "why": true,
	"this": true, "that": true, "these": true, "those": true, "it": true, "its": true,
	"any": true, "there": true, "me": true, "my": true, "we": true, "our": true,
}

// TermSet 小写检索词集合
type TermSet map[string]struct{}

// Has 是否包含某个词
func (s TermSet) Has(term string) bool {
	_, ok := s[term]
	return ok
}

// Sorted 返回排序后的词列表，用于确定性输出
func (s TermSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Expander 查询词扩展器，同义词表在构造时注入并复制，之后只读
type Expander struct {
	synonyms SynonymTable
}

// NewExpander 创建扩展器，table 为 nil 时使用内置表
func NewExpander(table SynonymTable) *Expander {
	if table == nil {
		table = DefaultSynonyms()
	}
	cp := make(SynonymTable, len(table))
	for k, v := range table {
		key := strings.ToLower(k)
		vals := make([]string, len(v))
		for i, s := range v {
			vals[i] = strings.ToLower(s)
		}
		cp[key] = append(cp[key], vals...)
	}
	return &Expander{synonyms: cp}
}

// Expand 分词、去停用词，再并入同义词。原始词一定在结果中，未知词原样保留。
func (e *Expander) Expand(query string) TermSet {
	terms := make(TermSet)
	for _, tok := range QueryTokens(query) {
		terms[tok] = struct{}{}
		for _, syn := range e.synonyms[tok] {
			terms[syn] = struct{}{}
		}
	}
	return terms
}

// QueryTokens 查询分词：小写、去停用词。单字母也保留（Schedule C、Part B）
func QueryTokens(query string) []string {
	var out []string
	for _, tok := range Tokenize(query) {
		if stopWords[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Tokenize 按非字母数字切分并转小写
// '&' 和 '-' 夹在字母数字之间时视为词内字符（如 r&d、k-1）
func Tokenize(text string) []string {
	runes := []rune(strings.ToLower(text))
	var tokens []string
	var cur []rune
	for i, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur = append(cur, r)
			continue
		}
		if (r == '&' || r == '-') && len(cur) > 0 && i+1 < len(runes) &&
			(unicode.IsLetter(runes[i+1]) || unicode.IsDigit(runes[i+1])) {
			cur = append(cur, r)
			continue
		}
		if len(cur) > 0 {
			tokens = append(tokens, string(cur))
			cur = cur[:0]
		}
	}
	if len(cur) > 0 {
		tokens = append(tokens, string(cur))
	}
	return tokens
}
