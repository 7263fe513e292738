package hirelinesdk

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records one sample per request attempt. A nil *Metrics is a no-op.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the client collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hireline",
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "API requests issued by the client, by operation and status code.",
			},
			[]string{"op", "method", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "hireline",
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "API request latency in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op", "method", "code"},
		),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(op, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(op, method, code).Inc()
	m.duration.WithLabelValues(op, method, code).Observe(elapsed.Seconds())
}
