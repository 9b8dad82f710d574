package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_Workflow(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.WorkflowItem("reconcile", "would_fix", true)
	r.WorkflowItem("reconcile", "would_fix", true)
	r.WorkflowItem("reconcile", "error", false)
	r.WorkflowDuration("reconcile", 250*time.Millisecond)
	r.PenaltiesCharged(3)
	r.PenaltiesCharged(0)
	r.NotificationFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.workflowItems.WithLabelValues("reconcile", "would_fix", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.workflowItems.WithLabelValues("reconcile", "error", "false")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.workflowDuration))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.penaltiesCharged))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.notifyFailures))
}

func TestRecorder_Middleware(t *testing.T) {
	r := New(prometheus.NewRegistry())
	handler := r.Middleware(func(*http.Request) string { return "/api/v1/loans/{loanId}/ledger" })(
		http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans/abc/ledger", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues(http.MethodGet, "/api/v1/loans/{loanId}/ledger", "404")))
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.WorkflowItem("reconcile", "fixed", false)
		r.WorkflowDuration("reconcile", time.Second)
		r.PenaltiesCharged(1)
		r.NotificationFailed()

		rec := httptest.NewRecorder()
		r.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {})).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	})
}
