package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	storeOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowpanel_store_operations_total",
			Help: "Profile store operations by operation and result.",
		},
		[]string{"op", "result"},
	)

	uiTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowpanel_ui_transitions_total",
			Help: "Selection screen state transitions.",
		},
		[]string{"from", "to"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crowpanel_http_requests_total",
			Help: "Total number of HTTP requests by method, route, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crowpanel_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "crowpanel_http_requests_in_flight",
		Help: "Current number of HTTP requests being processed.",
	})
)

// ProfileCounter is the subset of the profile store needed to report slot usage.
type ProfileCounter interface {
	CountByConnection() (map[string]int, error)
}

// profileCollector reads the store on each scrape and reports slots by
// connection type, with unconfigured slots under "empty".
type profileCollector struct {
	counter      ProfileCounter
	profilesDesc *prometheus.Desc
}

func (c *profileCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.profilesDesc
}

func (c *profileCollector) Collect(ch chan<- prometheus.Metric) {
	counts, err := c.counter.CountByConnection()
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.profilesDesc, err)
		return
	}
	for conn, n := range counts {
		ch <- prometheus.MustNewConstMetric(
			c.profilesDesc,
			prometheus.GaugeValue,
			float64(n),
			conn,
		)
	}
}

// Register registers the application metrics with reg. Call once at startup
// after the store is opened. The default registerer already carries the Go
// runtime and process collectors; NewRegistry adds them to a fresh one.
func Register(reg prometheus.Registerer, counter ProfileCounter) {
	reg.MustRegister(
		storeOperationsTotal,
		uiTransitionsTotal,

		httpRequestsTotal,
		httpRequestDuration,
		httpRequestsInFlight,

		&profileCollector{
			counter: counter,
			profilesDesc: prometheus.NewDesc(
				"crowpanel_profiles",
				"Machine profile slots, partitioned by connection type.",
				[]string{"connection"},
				nil,
			),
		},
	)
}

// NewRegistry returns a registry with the Go runtime and process collectors
// plus everything Register adds.
func NewRegistry(counter ProfileCounter) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	Register(reg, counter)
	return reg
}

// Handler returns the /metrics handler over g, or over the default gatherer
// when g is nil.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveStoreOp counts one store operation. err decides the result label.
func ObserveStoreOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeOperationsTotal.WithLabelValues(op, result).Inc()
}

// StoreOpCount returns the current count for op and result.
func StoreOpCount(op, result string) prometheus.Counter {
	return storeOperationsTotal.WithLabelValues(op, result)
}

// Transitions records selection screen state changes.
type Transitions struct{}

// Transition implements ui.Observer.
func (Transitions) Transition(from, to string) {
	uiTransitionsTotal.WithLabelValues(from, to).Inc()
}

// TransitionCount returns the counter for one from/to pair.
func TransitionCount(from, to string) prometheus.Counter {
	return uiTransitionsTotal.WithLabelValues(from, to)
}

// responseWriter wraps http.ResponseWriter to capture the response status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware wraps an http.Handler to record HTTP metrics.
// path is the route's path pattern without the method (e.g.
// "/api/v1/slots/{slot}") so the path label has bounded cardinality.
func Middleware(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			httpRequestsInFlight.Dec()
			status := strconv.Itoa(rw.status)
			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		}()

		next.ServeHTTP(rw, r)
	})
}

// RequestCount returns the request counter for one method, route, and status.
func RequestCount(method, path string, status int) prometheus.Counter {
	return httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status))
}
