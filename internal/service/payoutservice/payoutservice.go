package payoutservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GlebRadaev/settlement/internal/domain"
	"github.com/GlebRadaev/settlement/internal/metrics"
	"github.com/GlebRadaev/settlement/internal/notify"
	"github.com/GlebRadaev/settlement/internal/pg"
	"github.com/GlebRadaev/settlement/internal/service/ledgerservice"
	"github.com/GlebRadaev/settlement/pkg/validate"
)

//go:generate mockgen -source=payoutservice.go -destination=mock_payoutservice.go -package=payoutservice

type Repo interface {
	Create(ctx context.Context, payout *domain.PayoutRequest) (*domain.PayoutRequest, error)
	Get(ctx context.Context, id int64) (*domain.PayoutRequest, error)
	Lock(ctx context.Context, id int64) (*domain.PayoutRequest, error)
	ListByAccount(ctx context.Context, accountID int64) ([]domain.PayoutRequest, error)
	ListPendingOlderThan(ctx context.Context, before time.Time, limit uint32) ([]domain.PayoutRequest, error)
	SumReserved(ctx context.Context, accountID int64) (int64, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.PayoutStatus, processedBy int64, notes string) error
}

type Ledger interface {
	GetBalance(ctx context.Context, accountID int64) (*domain.Account, error)
	LockAccount(ctx context.Context, accountID int64) (*domain.Account, error)
	AppendTransaction(ctx context.Context, in ledgerservice.TransactionInput) (*domain.Transaction, error)
	FindTransaction(ctx context.Context, accountID int64, referenceID string, txType domain.TransactionType) (*domain.Transaction, error)
	SettleTransaction(ctx context.Context, txID int64, status domain.TransactionStatus) (*domain.Transaction, error)
}

type Storage interface {
	SettleAccount(ctx context.Context, accountID int64, asOf time.Time) ([]domain.StorageFee, error)
}

type Notifier interface {
	Publish(ctx context.Context, event notify.Event)
}

type Service struct {
	repo      Repo
	ledger    Ledger
	storage   Storage
	notifier  Notifier
	txManager pg.TXManager
	minPayout int64
	now       func() time.Time
}

func New(repo Repo, ledger Ledger, storage Storage, notifier Notifier, txManager pg.TXManager, minPayout int64) *Service {
	return &Service{
		repo:      repo,
		ledger:    ledger,
		storage:   storage,
		notifier:  notifier,
		txManager: txManager,
		minPayout: minPayout,
		now:       time.Now,
	}
}

// Balance is the stored balance next to what open payout requests reserve.
type Balance struct {
	AccountID int64 `json:"account_id"`
	Current   int64 `json:"current"`
	Reserved  int64 `json:"reserved"`
	Available int64 `json:"available"`
}

func (s *Service) Balance(ctx context.Context, accountID int64) (*Balance, error) {
	account, err := s.ledger.GetBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}
	reserved, err := s.repo.SumReserved(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &Balance{
		AccountID: accountID,
		Current:   account.CurrentBalance,
		Reserved:  reserved,
		Available: account.CurrentBalance - reserved,
	}, nil
}

func (s *Service) validateMethod(method domain.PayoutMethod) error {
	if err := validate.Struct(method); err != nil {
		return domain.NewValidationError("method", err.Error())
	}
	switch method.Type {
	case domain.PayoutMethodBank:
		if !validate.IsIBAN(method.IBAN) {
			return domain.NewValidationError("method.iban", "invalid IBAN")
		}
	case domain.PayoutMethodPayPal:
		if !validate.IsEmail(method.Email) {
			return domain.NewValidationError("method.email", "invalid email")
		}
	case domain.PayoutMethodCard:
		if !validate.IsLuna(method.CardNumber) {
			return domain.NewValidationError("method.card_number", "invalid card number")
		}
	}
	return nil
}

// CreatePayoutRequest reserves amount against the available balance. The
// reservation is a PENDING PAYOUT_REQUESTED transaction; the balance itself
// only moves on approval.
func (s *Service) CreatePayoutRequest(ctx context.Context, accountID, amount int64, method domain.PayoutMethod) (*domain.PayoutRequest, error) {
	if amount < s.minPayout {
		return nil, domain.NewValidationError("amount", "minimum payout is "+domain.FormatCents(s.minPayout))
	}
	if err := s.validateMethod(method); err != nil {
		return nil, err
	}

	var created *domain.PayoutRequest
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		account, err := s.ledger.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}
		reserved, err := s.repo.SumReserved(ctx, accountID)
		if err != nil {
			return err
		}
		if available := account.CurrentBalance - reserved; amount > available {
			return &domain.InsufficientBalanceError{Available: available, Requested: amount}
		}

		created, err = s.repo.Create(ctx, &domain.PayoutRequest{
			AccountID: accountID,
			Amount:    amount,
			Method:    method,
			Status:    domain.PayoutPending,
		})
		if err != nil {
			return err
		}
		_, err = s.ledger.AppendTransaction(ctx, ledgerservice.TransactionInput{
			AccountID:   accountID,
			Type:        domain.TxPayoutRequested,
			Amount:      amount,
			ReferenceID: created.ReferenceID(),
			Status:      domain.TxStatusPending,
		})
		return err
	})
	if err != nil {
		logFailure("failed to create payout request", err, zap.Int64("account_id", accountID), zap.Int64("amount", amount))
		return nil, err
	}

	metrics.RecordPayout("requested")
	s.publish(ctx, notify.EventPayoutCreated, created)
	return created, nil
}

// ApprovePayout settles the account's storage fees, then debits the payout
// and completes it. A payout that no longer fits the balance stays PENDING.
func (s *Service) ApprovePayout(ctx context.Context, payoutID, adminID int64, notes string) (*domain.PayoutRequest, error) {
	payout, err := s.GetPayout(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if payout.Status.IsTerminal() {
		return nil, domain.AlreadyProcessedf("payout %d is %s", payoutID, payout.Status)
	}

	now := s.now()
	var approved *domain.PayoutRequest
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		locked, err := s.lock(ctx, payoutID)
		if err != nil {
			return err
		}
		if !locked.Status.CanTransition(domain.PayoutApproved) {
			return domain.InvalidStatef("payout %d is %s", payoutID, locked.Status)
		}

		// fee debits share the approval transaction and roll back with it
		if _, err := s.storage.SettleAccount(ctx, locked.AccountID, now); err != nil {
			return fmt.Errorf("settle storage fees: %w", err)
		}

		account, err := s.ledger.LockAccount(ctx, locked.AccountID)
		if err != nil {
			return err
		}
		if account.CurrentBalance < locked.Amount {
			return &domain.InsufficientBalanceError{Available: account.CurrentBalance, Requested: locked.Amount}
		}

		if err := s.repo.UpdateStatus(ctx, payoutID, domain.PayoutPending, domain.PayoutApproved, adminID, notes); err != nil {
			return err
		}
		if _, err := s.ledger.AppendTransaction(ctx, ledgerservice.TransactionInput{
			AccountID:   locked.AccountID,
			Type:        domain.TxPayoutCompleted,
			Amount:      locked.Amount,
			ReferenceID: locked.ReferenceID(),
			Status:      domain.TxStatusCompleted,
		}); err != nil {
			return err
		}
		if err := s.settleReservation(ctx, locked, domain.TxStatusCompleted); err != nil {
			return err
		}
		if err := s.repo.UpdateStatus(ctx, payoutID, domain.PayoutApproved, domain.PayoutCompleted, adminID, notes); err != nil {
			return err
		}

		approved = processed(locked, domain.PayoutCompleted, adminID, notes, now)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) {
			metrics.RecordPayout("insufficient")
		}
		logFailure("failed to approve payout", err, zap.Int64("payout_id", payoutID), zap.Int64("admin_id", adminID))
		return nil, err
	}

	metrics.RecordPayout("completed")
	s.publish(ctx, notify.EventPayoutCompleted, approved)
	return approved, nil
}

// RejectPayout releases the reservation. The balance is untouched.
func (s *Service) RejectPayout(ctx context.Context, payoutID, adminID int64, notes string) (*domain.PayoutRequest, error) {
	now := s.now()
	var rejected *domain.PayoutRequest
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		locked, err := s.lock(ctx, payoutID)
		if err != nil {
			return err
		}
		if !locked.Status.CanTransition(domain.PayoutRejected) {
			return domain.InvalidStatef("payout %d is %s", payoutID, locked.Status)
		}
		if err := s.repo.UpdateStatus(ctx, payoutID, locked.Status, domain.PayoutRejected, adminID, notes); err != nil {
			return err
		}
		if err := s.settleReservation(ctx, locked, domain.TxStatusCancelled); err != nil {
			return err
		}
		rejected = processed(locked, domain.PayoutRejected, adminID, notes, now)
		return nil
	})
	if err != nil {
		logFailure("failed to reject payout", err, zap.Int64("payout_id", payoutID), zap.Int64("admin_id", adminID))
		return nil, err
	}

	metrics.RecordPayout("rejected")
	s.publish(ctx, notify.EventPayoutRejected, rejected)
	return rejected, nil
}

func (s *Service) GetPayout(ctx context.Context, payoutID int64) (*domain.PayoutRequest, error) {
	payout, err := s.repo.Get(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, domain.NotFoundf("payout %d", payoutID)
	}
	return payout, nil
}

func (s *Service) ListPayouts(ctx context.Context, accountID int64) ([]domain.PayoutRequest, error) {
	payouts, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		zap.L().Error("failed to list payouts", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return payouts, nil
}

// ListPending returns PENDING payouts created more than olderThan ago.
func (s *Service) ListPending(ctx context.Context, olderThan time.Duration, limit uint32) ([]domain.PayoutRequest, error) {
	return s.repo.ListPendingOlderThan(ctx, s.now().Add(-olderThan), limit)
}

// lock re-reads the payout under its row lock; terminal payouts are
// rejected here so concurrent admins see AlreadyProcessed.
func (s *Service) lock(ctx context.Context, payoutID int64) (*domain.PayoutRequest, error) {
	payout, err := s.repo.Lock(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if payout == nil {
		return nil, domain.NotFoundf("payout %d", payoutID)
	}
	if payout.Status.IsTerminal() {
		return nil, domain.AlreadyProcessedf("payout %d is %s", payoutID, payout.Status)
	}
	return payout, nil
}

func (s *Service) settleReservation(ctx context.Context, payout *domain.PayoutRequest, status domain.TransactionStatus) error {
	reservation, err := s.ledger.FindTransaction(ctx, payout.AccountID, payout.ReferenceID(), domain.TxPayoutRequested)
	if err != nil {
		return err
	}
	_, err = s.ledger.SettleTransaction(ctx, reservation.ID, status)
	return err
}

func (s *Service) publish(ctx context.Context, eventType string, payout *domain.PayoutRequest) {
	s.notifier.Publish(ctx, notify.Event{
		Type:       eventType,
		AccountID:  payout.AccountID,
		EntityID:   payout.ID,
		Amount:     payout.Amount,
		Reference:  payout.ReferenceID(),
		OccurredAt: s.now(),
	})
}

func processed(p *domain.PayoutRequest, status domain.PayoutStatus, adminID int64, notes string, at time.Time) *domain.PayoutRequest {
	out := *p
	out.Status = status
	out.ProcessedBy = &adminID
	out.ProcessedAt = &at
	out.Notes = notes
	return &out
}

func logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrAlreadyProcessed),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidState):
		zap.L().Info(msg, fields...)
	default:
		zap.L().Error(msg, fields...)
	}
}
