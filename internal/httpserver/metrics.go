package httpserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics are the game counters exposed on /metrics.
type metrics struct {
	rolls         *prometheus.CounterVec // by result: accepted | rejected
	gamesStarted  prometheus.Counter
	gamesFinished prometheus.Counter
	finalScores   prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		rolls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bowlards",
			Name:      "rolls_total",
			Help:      "Rolls submitted, by result.",
		}, []string{"result"}),
		gamesStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "bowlards",
			Name:      "games_started_total",
			Help:      "Games created.",
		}),
		gamesFinished: f.NewCounter(prometheus.CounterOpts{
			Namespace: "bowlards",
			Name:      "games_finished_total",
			Help:      "Games finished or uploaded complete.",
		}),
		finalScores: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bowlards",
			Name:      "final_score",
			Help:      "Total score of finished games.",
			Buckets:   prometheus.LinearBuckets(0, 30, 11),
		}),
	}
}

func (m *metrics) finished(total *int) {
	m.gamesFinished.Inc()
	if total != nil {
		m.finalScores.Observe(float64(*total))
	}
}
