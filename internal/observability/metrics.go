// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Launch engine metrics
	OperationsTotal    *prometheus.CounterVec
	RejectionsTotal    *prometheus.CounterVec
	OperationLatency   *prometheus.HistogramVec
	CampaignsCreated   prometheus.Counter
	ActiveCampaigns    prometheus.Gauge
	JournalSeq         prometheus.Gauge
	CollateralLocked   *prometheus.GaugeVec
	RewardsDistributed *prometheus.GaugeVec

	// Clock metrics
	CurrentSlot     prometheus.Gauge
	RPCCallLatency  *prometheus.HistogramVec
	SlotClockErrors *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSnapshot  prometheus.Gauge
	UptimeSeconds prometheus.Counter
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "solana_launchpad"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Launch engine metrics
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "operations_total",
			Help:      "Total number of committed launch operations by kind",
		}, []string{"operation"}),
		RejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "rejections_total",
			Help:      "Total number of rejected launch operations by kind and reason",
		}, []string{"operation", "reason"}),
		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "operation_latency_seconds",
			Help:      "Launch operation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		CampaignsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "campaigns_created_total",
			Help:      "Total number of campaigns created",
		}),
		ActiveCampaigns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "campaigns",
			Help:      "Number of campaigns held by the engine",
		}),
		JournalSeq: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "journal_seq",
			Help:      "Sequence number of the last journaled event",
		}),
		CollateralLocked: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "collateral_locked",
			Help:      "Collateral currently held per campaign (base units, lossy float)",
		}, []string{"campaign"}),
		RewardsDistributed: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "rewards_distributed",
			Help:      "Reward tokens paid out per campaign (base units, lossy float)",
		}, []string{"campaign"}),

		// Clock metrics
		CurrentSlot: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "current_slot",
			Help:      "Latest Solana slot observed by the clock",
		}),
		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		SlotClockErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "slot_clock_errors_total",
			Help:      "Total number of slot clock read failures by source",
		}, []string{"source"}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSnapshot: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_snapshot_timestamp",
			Help:      "Unix timestamp of the last campaign summary snapshot",
		}),
		UptimeSeconds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordOperation records a committed or rejected launch operation.
// reason is empty for committed operations.
func (m *Metrics) RecordOperation(operation, reason string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.OperationLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
	if reason == "" {
		m.OperationsTotal.WithLabelValues(operation).Inc()
		return
	}
	m.RejectionsTotal.WithLabelValues(operation, reason).Inc()
}

// RecordCampaignCreated increments the created campaigns counter.
func (m *Metrics) RecordCampaignCreated(total int) {
	if m == nil {
		return
	}
	m.CampaignsCreated.Inc()
	m.ActiveCampaigns.Set(float64(total))
}

// UpdateJournalSeq records the latest journal sequence number.
func (m *Metrics) UpdateJournalSeq(seq int64) {
	if m == nil {
		return
	}
	m.JournalSeq.Set(float64(seq))
}

// UpdateCampaignTotals records per-campaign collateral and reward gauges.
func (m *Metrics) UpdateCampaignTotals(campaign string, collateral, rewarded float64) {
	if m == nil {
		return
	}
	m.CollateralLocked.WithLabelValues(campaign).Set(collateral)
	m.RewardsDistributed.WithLabelValues(campaign).Set(rewarded)
}

// UpdateSlot updates the current slot gauge.
func UpdateSlot(slot uint64) {
	DefaultMetrics.CurrentSlot.Set(float64(slot))
}

// RecordSlotClockError records a failed slot read.
func RecordSlotClockError(source string) {
	DefaultMetrics.SlotClockErrors.WithLabelValues(source).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordSnapshot records the time of the last summary snapshot.
func RecordSnapshot(at time.Time) {
	DefaultMetrics.LastSnapshot.Set(float64(at.Unix()))
}
