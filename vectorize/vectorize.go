// Package vectorize 在语料上拟合 TF-IDF 模型，为每篇文档产出 L2 归一化的稀疏向量。
//
// 权重口径：
//
//	tf  = 词项在文档中的原始出现次数
//	idf = ln((1+n)/(1+df)) + 1     （平滑 idf，保证 idf > 0）
//	w   = tf * idf，随后整行做 L2 归一化
//
// 归一化后两向量的点积即余弦相似度。
package vectorize

import (
	"math"
	"sort"

	"github.com/rushteam/bookrec/text"
)

// Options 是向量化参数。
type Options struct {
	// MaxFeatures 词表上限，按语料总词频取前 N 个；<= 0 表示不限
	MaxFeatures int

	// MinN / MaxN 是 n-gram 范围，默认 (1, 1)
	MinN int
	MaxN int

	// MinDF 词项至少出现在多少篇文档中
	MinDF int

	// MaxDF 文档频率占比上限，1.0 表示不排除
	MaxDF float64

	// StopWords 为 nil 时不去停用词
	StopWords map[string]struct{}
}

// DefaultOptions 返回多文档语料的默认参数：5000 词、英文停用词、unigram+bigram。
func DefaultOptions() Options {
	return Options{
		MaxFeatures: 5000,
		MinN:        1,
		MaxN:        2,
		MinDF:       1,
		MaxDF:       1.0,
		StopWords:   text.EnglishStopWords(),
	}
}

// SingleDocOptions 返回单文档语料的参数：1000 词、只用 unigram。
func SingleDocOptions() Options {
	return Options{
		MaxFeatures: 1000,
		MinN:        1,
		MaxN:        1,
		MinDF:       1,
		MaxDF:       1.0,
		StopWords:   text.EnglishStopWords(),
	}
}

// OptionsFor 按语料规模选择参数：单文档时退化为 SingleDocOptions。
func OptionsFor(n int, multi Options) Options {
	if n == 1 {
		return SingleDocOptions()
	}
	return multi
}

// Vector 是一行稀疏向量，Indices 严格升序。
type Vector struct {
	Indices []int
	Values  []float64
}

// Dot 计算两个稀疏向量的点积。
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Norm 返回 L2 范数。
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// IsZero 表示全零行（文档的词全被停用词或词表过滤掉）。
func (v Vector) IsZero() bool {
	return len(v.Indices) == 0
}

// Space 是拟合结果：词表 + 每篇文档的向量。空语料得到 0x0 的 Space。
type Space struct {
	Terms   []string  // 列序，按词项字典序
	IDF     []float64 // 与 Terms 平行
	Vectors []Vector  // 与输入文档平行
}

// Len 返回文档数。
func (s *Space) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Vectors)
}

// Dim 返回词表大小。
func (s *Space) Dim() int {
	if s == nil {
		return 0
	}
	return len(s.Terms)
}

// Fit 在 docs 上拟合并变换。空语料、全停用词语料都不是错误。
func Fit(docs []string, opts Options) *Space {
	n := len(docs)
	if n == 0 {
		return &Space{Terms: []string{}, IDF: []float64{}, Vectors: []Vector{}}
	}

	analyzer := text.Analyzer{StopWords: opts.StopWords, MinN: opts.MinN, MaxN: opts.MaxN}

	counts := make([]map[string]int, n)
	df := make(map[string]int)
	cf := make(map[string]int)
	for i, doc := range docs {
		c := make(map[string]int)
		for _, term := range analyzer.Analyze(doc) {
			c[term]++
		}
		for term, k := range c {
			df[term]++
			cf[term] += k
		}
		counts[i] = c
	}

	vocab := selectTerms(df, cf, n, opts)
	index := make(map[string]int, len(vocab))
	idf := make([]float64, len(vocab))
	for col, term := range vocab {
		index[term] = col
		idf[col] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	vectors := make([]Vector, n)
	for i, c := range counts {
		vectors[i] = weigh(c, index, idf)
	}
	return &Space{Terms: vocab, IDF: idf, Vectors: vectors}
}

// selectTerms 按 df 上下限过滤，再按语料总词频取前 MaxFeatures 个，返回字典序词表。
func selectTerms(df, cf map[string]int, n int, opts Options) []string {
	minDF := opts.MinDF
	if minDF < 1 {
		minDF = 1
	}
	maxDF := opts.MaxDF
	if maxDF <= 0 {
		maxDF = 1.0
	}

	terms := make([]string, 0, len(df))
	for term, d := range df {
		if d < minDF || float64(d)/float64(n) > maxDF {
			continue
		}
		terms = append(terms, term)
	}

	if opts.MaxFeatures > 0 && len(terms) > opts.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if cf[terms[i]] != cf[terms[j]] {
				return cf[terms[i]] > cf[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:opts.MaxFeatures]
	}
	sort.Strings(terms)
	return terms
}

func weigh(counts map[string]int, index map[string]int, idf []float64) Vector {
	byCol := make(map[int]float64, len(counts))
	cols := make([]int, 0, len(counts))
	for term, c := range counts {
		col, ok := index[term]
		if !ok {
			continue
		}
		byCol[col] = float64(c) * idf[col]
		cols = append(cols, col)
	}
	sort.Ints(cols)

	vals := make([]float64, len(cols))
	var sq float64
	for k, col := range cols {
		vals[k] = byCol[col]
		sq += vals[k] * vals[k]
	}
	if sq > 0 {
		norm := math.Sqrt(sq)
		for k := range vals {
			vals[k] /= norm
		}
	}
	return Vector{Indices: cols, Values: vals}
}
