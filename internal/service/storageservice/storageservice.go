package storageservice

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/GlebRadaev/settlement/internal/domain"
	"github.com/GlebRadaev/settlement/internal/metrics"
	"github.com/GlebRadaev/settlement/internal/notify"
	"github.com/GlebRadaev/settlement/internal/pg"
	"github.com/GlebRadaev/settlement/internal/service/ledgerservice"
	"github.com/GlebRadaev/settlement/internal/storagefee"
)

//go:generate mockgen -source=storageservice.go -destination=mock_storageservice.go -package=storageservice

type Repo interface {
	Create(ctx context.Context, c *domain.StorageContract) (*domain.StorageContract, error)
	Release(ctx context.Context, id int64, releasedAt time.Time) error
	Get(ctx context.Context, id int64) (*domain.StorageContract, error)
	Lock(ctx context.Context, id int64) (*domain.StorageContract, error)
	ListByAccount(ctx context.Context, accountID int64, asOf time.Time) ([]domain.StorageContract, error)
	ListFreePeriodEnding(ctx context.Context, freeDays int, from, to time.Time, limit uint32) ([]domain.StorageContract, error)
	SumDaysCharged(ctx context.Context, contractID int64) (int, error)
	GetFee(ctx context.Context, contractID int64, billingPeriodEnd time.Time) (*domain.StorageFee, error)
	InsertFee(ctx context.Context, fee *domain.StorageFee) (*domain.StorageFee, error)
}

type Ledger interface {
	AppendTransaction(ctx context.Context, in ledgerservice.TransactionInput) (*domain.Transaction, error)
}

type Notifier interface {
	Publish(ctx context.Context, event notify.Event)
}

type Service struct {
	repo       Repo
	ledger     Ledger
	notifier   Notifier
	txManager  pg.TXManager
	freeDays   int
	defaultFee int64
}

func New(repo Repo, ledger Ledger, notifier Notifier, txManager pg.TXManager, freeDays int, defaultFee int64) *Service {
	return &Service{
		repo:       repo,
		ledger:     ledger,
		notifier:   notifier,
		txManager:  txManager,
		freeDays:   freeDays,
		defaultFee: defaultFee,
	}
}

type ContractInput struct {
	AccountID          int64
	StorageStartDate   time.Time
	PalletCount        int
	FeePerPalletPerDay int64
}

// Quote is the accrual as of a date next to what settlements already charged.
type Quote struct {
	storagefee.Accrual
	ChargedDays       int   `json:"charged_days"`
	OutstandingDays   int   `json:"outstanding_days"`
	OutstandingAmount int64 `json:"outstanding_amount"`
}

func (s *Service) FreeDays() int {
	return s.freeDays
}

func (s *Service) CreateContract(ctx context.Context, in ContractInput) (*domain.StorageContract, error) {
	if in.PalletCount <= 0 {
		return nil, domain.NewValidationError("pallet_count", "must be positive")
	}
	if in.FeePerPalletPerDay < 0 {
		return nil, domain.NewValidationError("fee_per_pallet_per_day", "must not be negative")
	}
	if in.FeePerPalletPerDay == 0 {
		in.FeePerPalletPerDay = s.defaultFee
	}
	return s.repo.Create(ctx, &domain.StorageContract{
		AccountID:          in.AccountID,
		StorageStartDate:   storagefee.Date(in.StorageStartDate),
		PalletCount:        in.PalletCount,
		FeePerPalletPerDay: in.FeePerPalletPerDay,
	})
}

func (s *Service) ReleaseContract(ctx context.Context, contractID int64, releasedAt time.Time) (*domain.StorageContract, error) {
	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	day := storagefee.Date(releasedAt)
	if day.Before(storagefee.Date(contract.StorageStartDate)) {
		return nil, domain.NewValidationError("released_at", "is before storage start")
	}
	if err := s.repo.Release(ctx, contractID, day); err != nil {
		return nil, err
	}
	contract.ReleasedAt = &day
	return contract, nil
}

func (s *Service) Quote(ctx context.Context, contractID int64, asOf time.Time) (*Quote, error) {
	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	charged, err := s.repo.SumDaysCharged(ctx, contractID)
	if err != nil {
		return nil, err
	}
	accrual := storagefee.Accrue(*contract, asOf, s.freeDays)
	outstanding := max(0, accrual.ChargeableDays-charged)
	return &Quote{
		Accrual:           accrual,
		ChargedDays:       charged,
		OutstandingDays:   outstanding,
		OutstandingAmount: storagefee.Amount(*contract, outstanding),
	}, nil
}

// Settle materializes the fee accrued up to billingPeriodEnd, once per
// (contract, billing period end). Only days that earlier settlements did not
// charge are billed. Nothing is written when no day is chargeable, in which
// case the returned fee is nil.
func (s *Service) Settle(ctx context.Context, contractID int64, billingPeriodEnd time.Time) (*domain.StorageFee, error) {
	periodEnd := storagefee.Date(billingPeriodEnd)

	var (
		fee       *domain.StorageFee
		accountID int64
		created   bool
	)
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		contract, err := s.repo.Lock(ctx, contractID)
		if err != nil {
			return err
		}
		if contract == nil {
			return domain.NotFoundf("contract %d", contractID)
		}
		accountID = contract.AccountID

		existing, err := s.repo.GetFee(ctx, contractID, periodEnd)
		if err != nil {
			return err
		}
		if existing != nil {
			fee = existing
			return nil
		}

		charged, err := s.repo.SumDaysCharged(ctx, contractID)
		if err != nil {
			return err
		}
		days := storagefee.Accrue(*contract, periodEnd, s.freeDays).ChargeableDays - charged
		if days <= 0 {
			return nil
		}

		inserted, err := s.repo.InsertFee(ctx, &domain.StorageFee{
			ContractID:       contractID,
			BillingPeriodEnd: periodEnd,
			DaysCharged:      days,
			Amount:           storagefee.Amount(*contract, days),
		})
		if err != nil {
			return err
		}
		if inserted.Amount > 0 {
			_, err = s.ledger.AppendTransaction(ctx, ledgerservice.TransactionInput{
				AccountID:   contract.AccountID,
				Type:        domain.TxStorageFeeCharged,
				Amount:      inserted.Amount,
				ReferenceID: inserted.ReferenceID(),
				Status:      domain.TxStatusCompleted,
			})
			if err != nil {
				return err
			}
		}
		fee = inserted
		created = true
		return nil
	})
	if err != nil {
		zap.L().Info("storage fee not settled",
			zap.Int64("contract_id", contractID),
			zap.Time("billing_period_end", periodEnd),
			zap.Error(err))
		return nil, err
	}

	if created {
		charged := *fee
		// inside a caller's transaction the fee is only real once it commits
		pg.AfterCommit(ctx, func() {
			metrics.RecordStorageFee(charged.Amount)
			s.notifier.Publish(ctx, notify.Event{
				Type:      notify.EventStorageFeeCharged,
				AccountID: accountID,
				EntityID:  contractID,
				Amount:    charged.Amount,
				Reference: charged.ReferenceID(),
			})
		})
	}
	return fee, nil
}

// SettleAccount settles every contract of the account up to asOf.
func (s *Service) SettleAccount(ctx context.Context, accountID int64, asOf time.Time) ([]domain.StorageFee, error) {
	contracts, err := s.repo.ListByAccount(ctx, accountID, asOf)
	if err != nil {
		return nil, err
	}

	var fees []domain.StorageFee
	for _, c := range contracts {
		fee, err := s.Settle(ctx, c.ID, asOf)
		if err != nil {
			return nil, err
		}
		if fee != nil {
			fees = append(fees, *fee)
		}
	}
	return fees, nil
}

// FreePeriodEnding lists unreleased contracts whose first chargeable day
// falls in [from, to).
func (s *Service) FreePeriodEnding(ctx context.Context, from, to time.Time, limit uint32) ([]domain.StorageContract, error) {
	return s.repo.ListFreePeriodEnding(ctx, s.freeDays, storagefee.Date(from), storagefee.Date(to), limit)
}

func (s *Service) getContract(ctx context.Context, contractID int64) (*domain.StorageContract, error) {
	contract, err := s.repo.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, domain.NotFoundf("contract %d", contractID)
	}
	return contract, nil
}
