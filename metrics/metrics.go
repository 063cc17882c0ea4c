// Package metrics exports Prometheus collectors for BORDERS API calls.
//
// A Collector plugs into the transport through httpx hooks:
//
//	m := metrics.New("borders")
//	reg.MustRegister(m)
//	c, _ := borders.New(pub, priv, borders.WithHooks(m.Hooks()))
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lgc202/borders-go/httpx"
)

// CodeError labels exchanges that produced no HTTP response.
const CodeError = "error"

// Collector counts requests and observes their latency. It implements
// prometheus.Collector.
type Collector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge

	mu      sync.Mutex
	started map[*http.Request]struct{}
}

// New builds a Collector. namespace prefixes every metric name and may be
// empty.
func New(namespace string) *Collector {
	return &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "API requests by method and HTTP status code.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Time from send to fully read response.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "requests_in_flight",
			Help:      "Requests sent and not yet completed.",
		}),
		started: make(map[*http.Request]struct{}),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.requests.Describe(ch)
	c.duration.Describe(ch)
	c.inflight.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.requests.Collect(ch)
	c.duration.Collect(ch)
	c.inflight.Collect(ch)
}

// Hooks returns the pair to install with borders.WithHooks or
// httpx.Client.WithHooks.
func (c *Collector) Hooks() ([]httpx.BeforeHook, []httpx.AfterHook) {
	return []httpx.BeforeHook{c.before}, []httpx.AfterHook{c.after}
}

func (c *Collector) before(req *http.Request) error {
	c.mu.Lock()
	c.started[req] = struct{}{}
	c.mu.Unlock()
	c.inflight.Inc()
	return nil
}

func (c *Collector) after(req *http.Request, resp *httpx.Response, err error, dur time.Duration) {
	// The after hook also runs when a rate limiter or an earlier before
	// hook failed, in which case before never saw req.
	c.mu.Lock()
	_, ok := c.started[req]
	delete(c.started, req)
	c.mu.Unlock()
	if ok {
		c.inflight.Dec()
	}

	code := CodeError
	if err == nil && resp != nil {
		code = strconv.Itoa(resp.StatusCode)
	}
	c.requests.WithLabelValues(req.Method, code).Inc()
	c.duration.WithLabelValues(req.Method).Observe(dur.Seconds())
}
