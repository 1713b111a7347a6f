package text

import "strings"

// Analyzer 把一篇文档切成词项序列：分词 → 去停用词 → 生成 n-gram。
// 停用词在生成 n-gram 之前去掉，因此 bigram 会跨过被去掉的停用词。
type Analyzer struct {
	StopWords map[string]struct{}
	MinN      int
	MaxN      int
}

// Analyze 返回文档的全部词项（含重复，用于词频统计）。
func (a Analyzer) Analyze(doc string) []string {
	tokens := Tokenize(doc)
	if len(a.StopWords) > 0 {
		kept := tokens[:0]
		for _, t := range tokens {
			if _, stop := a.StopWords[t]; !stop {
				kept = append(kept, t)
			}
		}
		tokens = kept
	}

	minN, maxN := a.MinN, a.MaxN
	if minN <= 0 {
		minN = 1
	}
	if maxN < minN {
		maxN = minN
	}
	if maxN == 1 {
		return tokens
	}

	terms := make([]string, 0, len(tokens)*(maxN-minN+1))
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			if n == 1 {
				terms = append(terms, tokens[i])
				continue
			}
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}
