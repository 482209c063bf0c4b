package tensor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const bytesPerElement = 4

var (
	bufferAllocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gradcore_buffer_allocations_total",
		Help: "Total number of tensor buffers allocated, by device",
	}, []string{"device"})

	bufferFrees = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gradcore_buffer_frees_total",
		Help: "Total number of tensor buffers returned to their backend, by device",
	}, []string{"device"})

	bufferBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gradcore_buffer_bytes",
		Help: "Bytes currently held by live tensor buffers, by device",
	}, []string{"device"})

	allocationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gradcore_buffer_allocation_failures_total",
		Help: "Total number of allocations rejected by a backend, by device",
	}, []string{"device"})
)

// TrackAlloc records a successful allocation of n elements on d.
// Backends call it from Allocate.
func TrackAlloc(d Device, n int) {
	bufferAllocations.WithLabelValues(d.String()).Inc()
	bufferBytes.WithLabelValues(d.String()).Add(float64(n * bytesPerElement))
}

// TrackFree records that a buffer of n elements on d was released.
func TrackFree(d Device, n int) {
	bufferFrees.WithLabelValues(d.String()).Inc()
	bufferBytes.WithLabelValues(d.String()).Sub(float64(n * bytesPerElement))
}

// TrackAllocFailure records an allocation the backend could not satisfy.
func TrackAllocFailure(d Device) {
	allocationFailures.WithLabelValues(d.String()).Inc()
}
