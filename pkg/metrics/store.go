package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics exports storefront counters. A nil *StoreMetrics is a valid
// no-op recorder so services can run without a registry.
type StoreMetrics struct {
	cartMutations   *prometheus.CounterVec
	cartPersistFail *prometheus.CounterVec
	checkouts       *prometheus.CounterVec
	reorderFailures *prometheus.CounterVec
	outboxPublished *prometheus.CounterVec
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
}

// NewStoreMetrics registers the storefront metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and identity kind.",
	}, []string{"op", "identity"})
	cartPersistFail := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persist_failures_total",
		Help: "Cart persistence failures by backing store.",
	}, []string{"store"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcomes_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	reorderFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reorder_persist_failures_total",
		Help: "Position writes that failed during a reorder.",
	}, []string{"collection"})
	outboxPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox events handed to pubsub by event type and result.",
	}, []string{"event_type", "result"})
	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "housekeeping_job_runs_total",
		Help: "Housekeeping job executions by job and result.",
	}, []string{"job", "result"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "housekeeping_job_duration_seconds",
		Help:    "Housekeeping job duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	reg.MustRegister(cartMutations, cartPersistFail, checkouts, reorderFailures, outboxPublished, jobRuns, jobDuration)
	return &StoreMetrics{
		cartMutations:   cartMutations,
		cartPersistFail: cartPersistFail,
		checkouts:       checkouts,
		reorderFailures: reorderFailures,
		outboxPublished: outboxPublished,
		jobRuns:         jobRuns,
		jobDuration:     jobDuration,
	}
}

// CartMutation counts one cart operation for a user or guest cart.
func (m *StoreMetrics) CartMutation(op, identity string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op), normalizeLabel(identity)).Inc()
}

// CartPersistFailure counts a failed save or clear against the named store.
func (m *StoreMetrics) CartPersistFailure(store string) {
	if m == nil || m.cartPersistFail == nil {
		return
	}
	m.cartPersistFail.WithLabelValues(normalizeLabel(store)).Inc()
}

// CheckoutOutcome counts a checkout attempt ("placed", "rejected" or "failed").
func (m *StoreMetrics) CheckoutOutcome(outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ReorderFailure adds the number of failed position writes for a collection.
func (m *StoreMetrics) ReorderFailure(collection string, failed int) {
	if m == nil || m.reorderFailures == nil || failed <= 0 {
		return
	}
	m.reorderFailures.WithLabelValues(normalizeLabel(collection)).Add(float64(failed))
}

// OutboxPublished counts a publish attempt; ok=false records a failure.
func (m *StoreMetrics) OutboxPublished(eventType string, ok bool) {
	if m == nil || m.outboxPublished == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.outboxPublished.WithLabelValues(normalizeLabel(eventType), result).Inc()
}

// JobRun records one housekeeping job execution.
func (m *StoreMetrics) JobRun(job string, duration time.Duration, ok bool) {
	if m == nil || m.jobRuns == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	job = normalizeLabel(job)
	m.jobRuns.WithLabelValues(job, result).Inc()
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
