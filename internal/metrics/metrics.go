package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder publishes workflow and HTTP metrics. A nil Recorder records nothing.
type Recorder struct {
	workflowItems    *prometheus.CounterVec
	workflowDuration *prometheus.HistogramVec
	penaltiesCharged prometheus.Counter
	notifyFailures   prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New registers the ledger collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		workflowItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loan_ledger",
			Name:      "workflow_items_total",
			Help:      "Loans processed by repair workflows, by outcome.",
		}, []string{"workflow", "outcome", "dry_run"}),
		workflowDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "loan_ledger",
			Name:      "workflow_duration_seconds",
			Help:      "Wall time of a repair workflow run.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"workflow"}),
		penaltiesCharged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loan_ledger",
			Name:      "penalties_charged_total",
			Help:      "Penalty charges appended to the ledger.",
		}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loan_ledger",
			Name:      "notification_failures_total",
			Help:      "Penalty notices the notifier failed to deliver.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loan_ledger",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "loan_ledger",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		r.workflowItems,
		r.workflowDuration,
		r.penaltiesCharged,
		r.notifyFailures,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// WorkflowItem counts one processed loan.
func (r *Recorder) WorkflowItem(workflow, outcome string, dryRun bool) {
	if r == nil {
		return
	}
	r.workflowItems.WithLabelValues(workflow, outcome, strconv.FormatBool(dryRun)).Inc()
}

// WorkflowDuration observes the duration of a finished run.
func (r *Recorder) WorkflowDuration(workflow string, d time.Duration) {
	if r == nil {
		return
	}
	r.workflowDuration.WithLabelValues(workflow).Observe(d.Seconds())
}

func (r *Recorder) PenaltiesCharged(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.penaltiesCharged.Add(float64(n))
}

func (r *Recorder) NotificationFailed() {
	if r == nil {
		return
	}
	r.notifyFailures.Inc()
}

// Middleware records request counts and latency. route labels the request
// so path parameters do not explode label cardinality.
func (r *Recorder) Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if r == nil {
				next.ServeHTTP(w, req)
				return
			}
			start := time.Now()

			// Wrap ResponseWriter to capture status code
			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, req)

			label := req.URL.Path
			if route != nil {
				label = route(req)
			}
			r.httpRequests.WithLabelValues(req.Method, label, strconv.Itoa(wrapped.statusCode)).Inc()
			r.httpDuration.WithLabelValues(req.Method, label).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (s *statusRecorder) WriteHeader(statusCode int) {
	s.statusCode = statusCode
	s.ResponseWriter.WriteHeader(statusCode)
}
