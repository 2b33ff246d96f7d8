// Package metrics holds the Prometheus collectors for preference reads and
// writes and for the remote portal.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flow_settings_writes_total",
		Help: "Preference writes by key and outcome",
	}, []string{"key", "outcome"}) // outcome=success|failure

	writeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flow_settings_write_duration_seconds",
		Help:    "Latency of a single preference write",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flow_settings_loads_total",
		Help: "Preference record loads by outcome",
	}, []string{"outcome"})

	frameTime = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flow_settings_frame_time_seconds",
		Help: "Rolling average of update plus draw time per frame",
	})

	portalRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flow_settings_portal_requests_total",
		Help: "Portal HTTP requests by route and status code",
	}, []string{"route", "code"})
)

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordWrite counts one write and observes its latency
func RecordWrite(key string, took time.Duration, err error) {
	writesTotal.WithLabelValues(key, outcome(err)).Inc()
	writeDuration.Observe(took.Seconds())
}

// RecordLoad counts one record load
func RecordLoad(err error) {
	loadsTotal.WithLabelValues(outcome(err)).Inc()
}

// RecordPortalRequest counts one portal request
func RecordPortalRequest(route string, code int) {
	portalRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// SetFrameTime publishes the average frame time of the render loop
func SetFrameTime(avg time.Duration) {
	frameTime.Set(avg.Seconds())
}
