package control

import "github.com/prometheus/client_golang/prometheus"

var (
	subscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mantacam",
		Subsystem: "events",
		Name:      "subscribers",
		Help:      "Open camera list event subscriptions",
	})

	eventsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mantacam",
		Subsystem: "events",
		Name:      "dropped_total",
		Help:      "Camera list events dropped for slow subscribers",
	})
)

func init() {
	prometheus.MustRegister(subscribers, eventsDroppedTotal)
}
