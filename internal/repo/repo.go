package repo

import (
	"github.com/GlebRadaev/settlement/internal/pg"
	actionrepo "github.com/GlebRadaev/settlement/internal/repo/action-repo"
	commissionrepo "github.com/GlebRadaev/settlement/internal/repo/commission-repo"
	contractrepo "github.com/GlebRadaev/settlement/internal/repo/contract-repo"
	ledgerrepo "github.com/GlebRadaev/settlement/internal/repo/ledger-repo"
	orderrepo "github.com/GlebRadaev/settlement/internal/repo/order-repo"
	payoutrepo "github.com/GlebRadaev/settlement/internal/repo/payout-repo"
	referralrepo "github.com/GlebRadaev/settlement/internal/repo/referral-repo"
	"github.com/GlebRadaev/settlement/internal/service/commissionservice"
	"github.com/GlebRadaev/settlement/internal/service/ledgerservice"
	"github.com/GlebRadaev/settlement/internal/service/payoutservice"
	"github.com/GlebRadaev/settlement/internal/service/storageservice"
	"github.com/GlebRadaev/settlement/internal/settlement"
)

type Repositories struct {
	LedgerRepo     ledgerservice.Repo
	CommissionRepo commissionservice.Repo
	OrderRepo      commissionservice.OrderRepo
	ReferralRepo   commissionservice.ReferralRepo
	PayoutRepo     payoutservice.Repo
	ContractRepo   storageservice.Repo
	ActionRepo     settlement.ActionLog
}

func New(conn pg.Database) *Repositories {
	return &Repositories{
		LedgerRepo:     ledgerrepo.New(conn),
		CommissionRepo: commissionrepo.New(conn),
		OrderRepo:      orderrepo.New(conn),
		ReferralRepo:   referralrepo.New(conn),
		PayoutRepo:     payoutrepo.New(conn),
		ContractRepo:   contractrepo.New(conn),
		ActionRepo:     actionrepo.New(conn),
	}
}
