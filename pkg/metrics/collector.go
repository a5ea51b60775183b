// Package metrics exposes Prometheus collectors for the ledger service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total number of ledger operations labeled by operation and status",
		},
		[]string{"operation", "status"},
	)
	operationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Duration of ledger operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	commissionPaidTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_commission_paid_total",
			Help: "Total referral commission paid out, split by depth",
		},
		[]string{"depth"},
	)
	resourcesCollectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_resources_collected_total",
			Help: "Total resource units credited by collect operations",
		},
	)
	payoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_payouts_total",
			Help: "Total number of settled resource sales labeled by status",
		},
		[]string{"status"},
	)
	registeredUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_registered_users",
			Help: "Current number of registered users",
		},
	)
	factoriesOwned = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_factories",
			Help: "Current number of factories in the ledger",
		},
	)
	treasuryReserve = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_treasury_reserve",
			Help: "Current treasury reserve backing resource sales",
		},
	)
)

// RecordOperation increments operation counters and records duration.
func RecordOperation(operation, status string, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	ledgerOperationsTotal.WithLabelValues(operation, status).Inc()
	operationDurationSeconds.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCommission tracks a single commission credit at the given depth.
func RecordCommission(depth int, amount uint64) {
	commissionPaidTotal.WithLabelValues(depthLabel(depth)).Add(float64(amount))
}

// RecordCollected adds collected resource units to the running total.
func RecordCollected(units uint64) {
	resourcesCollectedTotal.Add(float64(units))
}

// RecordPayout counts a settled or failed resource sale.
func RecordPayout(status string) {
	if status == "" {
		status = "unknown"
	}

	payoutsTotal.WithLabelValues(status).Inc()
}

// SetLedgerSize updates the population gauges after a committed operation.
func SetLedgerSize(users, factories int, treasury uint64) {
	registeredUsers.Set(float64(users))
	factoriesOwned.Set(float64(factories))
	treasuryReserve.Set(float64(treasury))
}

func depthLabel(depth int) string {
	switch depth {
	case 0:
		return "0"
	case 1:
		return "1"
	case 2:
		return "2"
	case 3:
		return "3"
	case 4:
		return "4"
	default:
		return "deep"
	}
}
