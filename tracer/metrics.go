package tracer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	raysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracer_rays_total",
		Help: "The number of rays cast into a scene.",
	}, []string{
		"query",
	})

	rayHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracer_ray_hits_total",
		Help: "The number of cast rays that hit a primitive.",
	}, []string{
		"query",
	})
)
