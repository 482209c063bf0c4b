package optim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	optimizerSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradcore_optimizer_steps_total",
			Help: "Total number of optimizer steps by optimizer and outcome",
		},
		[]string{"optimizer", "status"},
	)
	learningRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gradcore_optimizer_learning_rate",
			Help: "Current learning rate",
		},
		[]string{"optimizer"},
	)
)
