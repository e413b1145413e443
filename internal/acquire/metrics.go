package acquire

import "github.com/prometheus/client_golang/prometheus"

var (
	activeStreams = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mantacam",
		Subsystem: "acquire",
		Name:      "streams",
		Help:      "Running acquisition streams",
	})

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mantacam",
			Subsystem: "acquire",
			Name:      "frames_total",
			Help:      "Frames copied into stream mailboxes",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(activeStreams, framesTotal)
}
