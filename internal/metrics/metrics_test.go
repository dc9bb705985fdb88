package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("POST", "/api/user/payouts", "202", 0.05)
	RecordHTTPRequest("POST", "/api/user/payouts", "202", 0.07)
	RecordHTTPRequest("POST", "/api/user/payouts", "402", 0.01)

	assert.Equal(t, float64(2), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/user/payouts", "202")))
	assert.Equal(t, float64(1), testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/user/payouts", "402")))
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestRecordCommission(t *testing.T) {
	CommissionsTotal.Reset()
	CommissionAmountCents.Reset()

	RecordCommission("affiliate", "1", "PAID", 3000)
	RecordCommission("affiliate", "2", "PAID", 1000)
	RecordCommission("affiliate", "3", "PENDING", 1000)

	assert.Equal(t, float64(1), testutil.ToFloat64(CommissionsTotal.WithLabelValues("affiliate", "3", "PENDING")))
	assert.Equal(t, float64(4000), testutil.ToFloat64(CommissionAmountCents.WithLabelValues("affiliate")))
}

func TestRecordPayout(t *testing.T) {
	PayoutsTotal.Reset()

	RecordPayout("requested")
	RecordPayout("completed")
	RecordPayout("requested")

	assert.Equal(t, float64(2), testutil.ToFloat64(PayoutsTotal.WithLabelValues("requested")))
	assert.Equal(t, float64(1), testutil.ToFloat64(PayoutsTotal.WithLabelValues("completed")))
}

func TestRecordStorageFee(t *testing.T) {
	before := testutil.ToFloat64(StorageFeesCents)
	RecordStorageFee(100)
	assert.Equal(t, before+100, testutil.ToFloat64(StorageFeesCents))
}

func TestRecordJobRun(t *testing.T) {
	SchedulerJobRunsTotal.Reset()

	RecordJobRun("retry_commissions", "ok", 0.2)
	RecordJobRun("retry_commissions", "error", 0.1)

	assert.Equal(t, float64(1), testutil.ToFloat64(SchedulerJobRunsTotal.WithLabelValues("retry_commissions", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(SchedulerJobRunsTotal.WithLabelValues("retry_commissions", "error")))
}

func TestRecordNotification(t *testing.T) {
	NotificationsTotal.Reset()

	RecordNotification("payout_completed", "sent")

	assert.Equal(t, float64(1), testutil.ToFloat64(NotificationsTotal.WithLabelValues("payout_completed", "sent")))
}
