package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// upstreamReqs counts calls to third-party APIs by upstream, operation and outcome.
	upstreamReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dietbot_upstream_requests_total",
			Help: "Calls to third-party APIs.",
		},
		[]string{"upstream", "op", "outcome"},
	)

	upstreamLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dietbot_upstream_request_duration_seconds",
			Help:    "Duration of third-party API calls in seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"upstream", "op"},
	)

	// daysWritten counts daily rows written by table (body, nutrition, goal).
	daysWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dietbot_daily_rows_written_total",
			Help: "Daily rows inserted or updated.",
		},
		[]string{"table"},
	)

	batchRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dietbot_batch_runs_total",
			Help: "Backfill and reconciliation runs by outcome.",
		},
		[]string{"kind", "outcome"},
	)

	inboundEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dietbot_inbound_events_total",
			Help: "Webhook events by classified request type.",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(upstreamReqs, upstreamLat, daysWritten, batchRuns, inboundEvents)
}

// ObserveUpstream records one third-party call started at start.
func ObserveUpstream(upstream, op string, start time.Time, err error) {
	upstreamReqs.WithLabelValues(upstream, op, outcome(err)).Inc()
	upstreamLat.WithLabelValues(upstream, op).Observe(time.Since(start).Seconds())
}

// RowsWritten adds n to the written counter of table.
func RowsWritten(table string, n int) {
	if n > 0 {
		daysWritten.WithLabelValues(table).Add(float64(n))
	}
}

// BatchRun records the end of a backfill or reconciliation run.
func BatchRun(kind string, err error) {
	batchRuns.WithLabelValues(kind, outcome(err)).Inc()
}

// InboundEvent counts a classified webhook message.
func InboundEvent(requestType string) {
	inboundEvents.WithLabelValues(requestType).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
