package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "settlement_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	LedgerTransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_ledger_transactions_total",
			Help: "Ledger transactions written, by type and resulting status",
		},
		[]string{"type", "status"},
	)

	LedgerIdempotentReplaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_ledger_idempotent_replays_total",
			Help: "Appends that matched an existing idempotency key",
		},
		[]string{"type"},
	)

	BalanceDriftAccounts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "settlement_balance_drift_accounts",
			Help: "Accounts whose stored balance differed from the replayed log in the last reconciliation",
		},
	)

	CommissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_commissions_total",
			Help: "Commission records by program, tier and status",
		},
		[]string{"program", "tier", "status"},
	)

	CommissionAmountCents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_commission_amount_cents_total",
			Help: "Commission credited in cents",
		},
		[]string{"program"},
	)

	PayoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_payouts_total",
			Help: "Payout requests by outcome",
		},
		[]string{"outcome"},
	)

	StorageFeesCents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "settlement_storage_fees_cents_total",
			Help: "Storage fees charged in cents",
		},
	)

	SchedulerJobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_scheduler_job_runs_total",
			Help: "Scheduler job runs by job and result",
		},
		[]string{"job", "result"},
	)

	SchedulerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "settlement_scheduler_job_duration_seconds",
			Help:    "Scheduler job duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_notifications_total",
			Help: "Notifications by type and delivery status",
		},
		[]string{"type", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordCommission(program, tier, status string, amount int64) {
	CommissionsTotal.WithLabelValues(program, tier, status).Inc()
	if status == "PAID" {
		CommissionAmountCents.WithLabelValues(program).Add(float64(amount))
	}
}

func RecordPayout(outcome string) {
	PayoutsTotal.WithLabelValues(outcome).Inc()
}

func RecordStorageFee(amount int64) {
	StorageFeesCents.Add(float64(amount))
}

func RecordJobRun(job, result string, duration float64) {
	SchedulerJobRunsTotal.WithLabelValues(job, result).Inc()
	SchedulerJobDuration.WithLabelValues(job).Observe(duration)
}

func RecordNotification(notificationType, status string) {
	NotificationsTotal.WithLabelValues(notificationType, status).Inc()
}
