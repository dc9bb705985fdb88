// Package storagefee computes storage fees from contract fields and a point
// in time. Nothing here touches storage: accrual is never kept as a running
// total, it is derived on every lookup.
package storagefee

import (
	"time"

	"github.com/GlebRadaev/settlement/internal/domain"
)

const DefaultFreeDays = 14

type Accrual struct {
	StoredDays     int   `json:"stored_days"`
	ChargeableDays int   `json:"chargeable_days"`
	Amount         int64 `json:"amount"`
}

// Date truncates t to its UTC calendar date.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from start to end, zero when end is not
// after start.
func DaysBetween(start, end time.Time) int {
	s, e := Date(start), Date(end)
	if !e.After(s) {
		return 0
	}
	return int(e.Sub(s).Hours() / 24)
}

// StoredDays is how long the goods have been held as of asOf. Holding stops
// counting on the release date.
func StoredDays(c domain.StorageContract, asOf time.Time) int {
	end := asOf
	if c.ReleasedAt != nil && c.ReleasedAt.Before(end) {
		end = *c.ReleasedAt
	}
	return DaysBetween(c.StorageStartDate, end)
}

func Accrue(c domain.StorageContract, asOf time.Time, freeDays int) Accrual {
	if freeDays < 0 {
		freeDays = 0
	}
	stored := StoredDays(c, asOf)
	chargeable := max(0, stored-freeDays)
	return Accrual{
		StoredDays:     stored,
		ChargeableDays: chargeable,
		Amount:         Amount(c, chargeable),
	}
}

func Amount(c domain.StorageContract, days int) int64 {
	return int64(days) * int64(c.PalletCount) * c.FeePerPalletPerDay
}

// FreePeriodEnd is the first chargeable date of the contract.
func FreePeriodEnd(c domain.StorageContract, freeDays int) time.Time {
	return Date(c.StorageStartDate).AddDate(0, 0, freeDays)
}
