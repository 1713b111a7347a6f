// Package similarity 计算语料的两两余弦相似度矩阵。
package similarity

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/bookrec/vectorize"
)

// Matrix 是对称的稠密相似度矩阵，取值 [0, 1]。
// 只读；构建完成后可并发访问。
type Matrix struct {
	n    int
	data []float64
}

// Empty 返回 0x0 矩阵。
func Empty() *Matrix {
	return &Matrix{}
}

// Len 返回矩阵维度。
func (m *Matrix) Len() int {
	if m == nil {
		return 0
	}
	return m.n
}

// At 返回 (i, j) 处的相似度，越界返回 0。
func (m *Matrix) At(i, j int) float64 {
	if m == nil || i < 0 || j < 0 || i >= m.n || j >= m.n {
		return 0
	}
	return m.data[i*m.n+j]
}

// Row 返回第 i 行的拷贝。
func (m *Matrix) Row(i int) []float64 {
	if m == nil || i < 0 || i >= m.n {
		return nil
	}
	out := make([]float64, m.n)
	copy(out, m.data[i*m.n:(i+1)*m.n])
	return out
}

// Compute 按行并发计算上三角并镜像到下三角，因此结果严格对称。
// workers <= 0 时使用 GOMAXPROCS。
func Compute(ctx context.Context, space *vectorize.Space, workers int) (*Matrix, error) {
	n := space.Len()
	if n == 0 {
		return Empty(), nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	m := &Matrix{n: n, data: make([]float64, n*n)}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			vi := space.Vectors[i]
			if !vi.IsZero() {
				m.data[i*n+i] = 1
			}
			for j := i + 1; j < n; j++ {
				s := clamp(vi.Dot(space.Vectors[j]))
				m.data[i*n+j] = s
				m.data[j*n+i] = s
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

// Cosine 计算两个稀疏向量的余弦相似度（不要求已归一化），结果截断到 [0, 1]。
func Cosine(a, b vectorize.Vector) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp(a.Dot(b) / (na * nb))
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
