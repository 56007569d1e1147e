package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "endpoint", "status"},
	)

	salesCommitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_sales_committed_total",
		Help: "Sales committed to the ledger.",
	})
	unitsSold = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_units_sold_total",
		Help: "Units decremented from stock by committed sales.",
	})
	saleRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_sale_rejections_total",
			Help: "Sell attempts rejected, by error kind.",
		},
		[]string{"kind"},
	)
	commitRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_commit_retries_total",
		Help: "Commits retried after a concurrent stock modification.",
	})
	partialCommits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_partial_commits_total",
		Help: "Commits where stock was written but the ledger append could not be compensated.",
	})
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		salesCommitted,
		unitsSold,
		saleRejections,
		commitRetries,
		partialCommits,
	)
}

func RecordSale(quantity int) {
	salesCommitted.Inc()
	unitsSold.Add(float64(quantity))
}

func RecordRejection(kind string) {
	if kind == "" {
		kind = "internal"
	}

	saleRejections.WithLabelValues(kind).Inc()
}

func RecordRetry() {
	commitRetries.Inc()
}

func RecordPartialCommit() {
	partialCommits.Inc()
}

// RecordRequest records metrics for one HTTP request.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

func classifyStatus(statusCode int) string {
	if statusCode < 100 || statusCode >= 600 {
		return "unknown"
	}

	return strconv.Itoa(statusCode/100) + "xx"
}

// Middleware records every request under its chi route pattern so ids in
// paths do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
