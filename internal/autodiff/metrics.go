package autodiff

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backwardPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradcore_backward_passes_total",
			Help: "Total number of backward passes by device and outcome",
		},
		[]string{"device", "status"},
	)
	backwardNodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradcore_backward_nodes_total",
			Help: "Total number of graph nodes differentiated",
		},
		[]string{"device"},
	)
	backwardGraphSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gradcore_backward_graph_tensors",
			Help:    "Number of tensors reached per backward pass",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)
