package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/settlement/internal/config"
	"github.com/GlebRadaev/settlement/internal/pg"
	"github.com/GlebRadaev/settlement/internal/repo"
	"github.com/GlebRadaev/settlement/internal/service/commissionservice"
	"github.com/GlebRadaev/settlement/internal/service/ledgerservice"
	"github.com/GlebRadaev/settlement/internal/service/payoutservice"
	"github.com/GlebRadaev/settlement/internal/service/storageservice"
	"github.com/GlebRadaev/settlement/internal/settlement"
)

func newRepos(ctrl *gomock.Controller) *repo.Repositories {
	return &repo.Repositories{
		LedgerRepo:     ledgerservice.NewMockRepo(ctrl),
		CommissionRepo: commissionservice.NewMockRepo(ctrl),
		OrderRepo:      commissionservice.NewMockOrderRepo(ctrl),
		ReferralRepo:   commissionservice.NewMockReferralRepo(ctrl),
		PayoutRepo:     payoutservice.NewMockRepo(ctrl),
		ContractRepo:   storageservice.NewMockRepo(ctrl),
		ActionRepo:     settlement.NewMockActionLog(ctrl),
	}
}

func validConfig() config.Config {
	return config.Config{
		ResellerRate:      "0.20",
		AffiliateRates:    []string{"0.03", "0.01", "0.01"},
		StorageFreeDays:   14,
		StorageFeeCents:   50,
		MinPayoutCents:    1000,
		SchedulerInterval: time.Hour,
		SchedulerBatch:    500,
		Workers:           10,
		RateLimitRPS:      20,
	}
}

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	cfg := validConfig()

	services, err := New(newRepos(ctrl), pg.NewMockTXManager(ctrl), commissionservice.NewMockNotifier(ctrl), &cfg)
	require.NoError(t, err)
	assert.NotNil(t, services.LedgerService)
	assert.NotNil(t, services.CommissionService)
	assert.NotNil(t, services.StorageService)
	assert.NotNil(t, services.PayoutService)
	assert.Equal(t, 14, services.StorageService.FreeDays())
}

func TestNew_InvalidConfig(t *testing.T) {
	ctrl := gomock.NewController(t)

	tests := []struct {
		name   string
		modify func(cfg *config.Config)
	}{
		{"bad reseller rate", func(cfg *config.Config) { cfg.ResellerRate = "twenty" }},
		{"too many tiers", func(cfg *config.Config) { cfg.AffiliateRates = []string{"0.03", "0.01", "0.01", "0.01"} }},
		{"negative free days", func(cfg *config.Config) { cfg.StorageFreeDays = -1 }},
		{"zero scheduler interval", func(cfg *config.Config) { cfg.SchedulerInterval = 0 }},
		{"negative scheduler interval", func(cfg *config.Config) { cfg.SchedulerInterval = -time.Minute }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			services, err := New(newRepos(ctrl), pg.NewMockTXManager(ctrl), commissionservice.NewMockNotifier(ctrl), &cfg)
			assert.Error(t, err)
			assert.Nil(t, services)
		})
	}
}
