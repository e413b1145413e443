package camera

import "github.com/prometheus/client_golang/prometheus"

var (
	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mantacam",
			Subsystem: "camera",
			Name:      "frames_total",
			Help:      "Frames delivered to observers",
		},
		[]string{"camera", "status"},
	)

	requeueFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mantacam",
			Subsystem: "camera",
			Name:      "requeue_failures_total",
			Help:      "Buffers the driver refused to re-queue after delivery",
		},
		[]string{"camera"},
	)

	announcedBuffers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mantacam",
			Subsystem: "camera",
			Name:      "announced_buffers",
			Help:      "Buffers currently announced to the driver",
		},
		[]string{"camera"},
	)

	sdkErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mantacam",
			Subsystem: "sdk",
			Name:      "errors_total",
			Help:      "Failures surfaced to callers, by error kind and source (sdk: driver status, api: rejected before any driver call)",
		},
		[]string{"kind", "source"},
	)

	hotplugTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mantacam",
			Subsystem: "sdk",
			Name:      "camera_list_events_total",
			Help:      "Camera list notifications received from the driver",
		},
		[]string{"trigger"},
	)
)

func init() {
	prometheus.MustRegister(framesTotal, requeueFailuresTotal, announcedBuffers, sdkErrorsTotal, hotplugTotal)
}
