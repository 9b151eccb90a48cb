package bvh

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const typeLabel = "type"

var (
	buildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bvh_build_duration_seconds",
		Help:    "The time to build a hierarchy.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{
		typeLabel,
	})

	buildFailedSplits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bvh_build_failed_splits_total",
		Help: "The number of ranges that fell back to a median split.",
	}, []string{
		typeLabel,
	})

	builtNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bvh_nodes",
		Help: "The node count of the most recently built hierarchy.",
	}, []string{
		typeLabel,
	})
)

func observeBuild(stats Stats) {
	labels := prometheus.Labels{
		typeLabel: stats.Type.String(),
	}

	buildDuration.With(labels).Observe(stats.BuildTime.Seconds())
	buildFailedSplits.With(labels).Add(float64(stats.FailedSplits))
	builtNodes.With(labels).Set(float64(stats.Nodes))
}
