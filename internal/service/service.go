package service

import (
	"context"
	"fmt"

	"github.com/GlebRadaev/settlement/internal/config"
	"github.com/GlebRadaev/settlement/internal/notify"
	"github.com/GlebRadaev/settlement/internal/pg"
	"github.com/GlebRadaev/settlement/internal/repo"
	"github.com/GlebRadaev/settlement/internal/service/commissionservice"
	"github.com/GlebRadaev/settlement/internal/service/ledgerservice"
	"github.com/GlebRadaev/settlement/internal/service/payoutservice"
	"github.com/GlebRadaev/settlement/internal/service/storageservice"
)

type Notifier interface {
	Publish(ctx context.Context, event notify.Event)
}

type Services struct {
	LedgerService     *ledgerservice.Service
	CommissionService *commissionservice.Service
	StorageService    *storageservice.Service
	PayoutService     *payoutservice.Service
}

func New(repos *repo.Repositories, txManager pg.TXManager, notifier Notifier, cfg *config.Config) (*Services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	rates, err := cfg.Rates()
	if err != nil {
		return nil, err
	}

	ledgerService := ledgerservice.New(repos.LedgerRepo, txManager)
	commissionService := commissionservice.New(
		repos.CommissionRepo, repos.OrderRepo, repos.ReferralRepo, repos.ActionRepo, ledgerService, notifier, txManager, rates)
	storageService := storageservice.New(
		repos.ContractRepo, ledgerService, notifier, txManager, cfg.StorageFreeDays, cfg.StorageFeeCents)
	payoutService := payoutservice.New(
		repos.PayoutRepo, ledgerService, storageService, notifier, txManager, cfg.MinPayoutCents)

	return &Services{
		LedgerService:     ledgerService,
		CommissionService: commissionService,
		StorageService:    storageService,
		PayoutService:     payoutService,
	}, nil
}
