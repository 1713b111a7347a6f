package recommend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 推荐路径，作为 recommendations_total 的 path 标签。
const (
	PathPersonalized = "personalized"
	PathFallback     = "fallback"
	PathEmpty        = "empty"
)

// Metrics 是引擎的 Prometheus 指标。nil *Metrics 上的所有方法都是空操作。
type Metrics struct {
	RefreshDuration prometheus.Histogram
	CorpusSize      prometheus.Gauge
	Recommendations *prometheus.CounterVec
	SimilarQueries  prometheus.Counter
}

// NewMetrics 在 reg 上注册指标；reg 为 nil 时使用 prometheus.DefaultRegisterer。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		RefreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookrec_model_refresh_duration_seconds",
			Help:    "Duration of model refreshes (corpus, vectorizer and similarity matrix) in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		CorpusSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "bookrec_corpus_size",
			Help: "Number of books in the current model snapshot",
		}),
		Recommendations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bookrec_recommendations_total",
			Help: "Total number of recommendation requests by path",
		}, []string{"path"}),
		SimilarQueries: f.NewCounter(prometheus.CounterOpts{
			Name: "bookrec_similar_queries_total",
			Help: "Total number of similar-books queries",
		}),
	}
}

func (m *Metrics) observeRefresh(elapsed time.Duration, corpusSize int) {
	if m == nil {
		return
	}
	m.RefreshDuration.Observe(elapsed.Seconds())
	m.CorpusSize.Set(float64(corpusSize))
}

func (m *Metrics) recordRecommendation(path string) {
	if m == nil {
		return
	}
	m.Recommendations.WithLabelValues(path).Inc()
}

func (m *Metrics) recordSimilar() {
	if m == nil {
		return
	}
	m.SimilarQueries.Inc()
}
