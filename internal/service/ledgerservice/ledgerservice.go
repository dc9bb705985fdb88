package ledgerservice

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/GlebRadaev/settlement/internal/domain"
	"github.com/GlebRadaev/settlement/internal/metrics"
	"github.com/GlebRadaev/settlement/internal/pg"
)

//go:generate mockgen -source=ledgerservice.go -destination=mock_ledgerservice.go -package=ledgerservice

type Repo interface {
	CreateAccount(ctx context.Context, accountID int64) (*domain.Account, error)
	GetAccount(ctx context.Context, accountID int64) (*domain.Account, error)
	LockAccount(ctx context.Context, accountID int64) (*domain.Account, error)
	SetBalance(ctx context.Context, accountID int64, balance int64) error
	ListAccountIDs(ctx context.Context, afterID int64, limit uint32) ([]int64, error)
	FindTransaction(ctx context.Context, accountID int64, referenceID string, txType domain.TransactionType) (*domain.Transaction, error)
	LockTransaction(ctx context.Context, id int64) (*domain.Transaction, error)
	InsertTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id int64, status domain.TransactionStatus) error
	ListTransactions(ctx context.Context, accountID int64, limit, offset int) ([]domain.Transaction, error)
	ReplayBalance(ctx context.Context, accountID int64) (int64, error)
}

type Service struct {
	repo      Repo
	txManager pg.TXManager
}

func New(repo Repo, txManager pg.TXManager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type TransactionInput struct {
	AccountID   int64
	Type        domain.TransactionType
	Amount      int64
	ReferenceID string
	Status      domain.TransactionStatus
}

type Reconciliation struct {
	AccountID int64 `json:"account_id"`
	Stored    int64 `json:"stored"`
	Replayed  int64 `json:"replayed"`
	Drift     int64 `json:"drift"`
}

func (in TransactionInput) validate() error {
	switch {
	case !in.Type.Valid():
		return domain.NewValidationError("type", "unknown transaction type "+string(in.Type))
	case !in.Status.Valid() || in.Status == domain.TxStatusCancelled:
		return domain.NewValidationError("status", "transaction must be created PENDING or COMPLETED")
	case in.Amount <= 0:
		return domain.NewValidationError("amount", "must be positive")
	case strings.TrimSpace(in.ReferenceID) == "":
		return domain.NewValidationError("reference_id", "is required")
	}
	return nil
}

func (s *Service) OpenAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	if accountID <= 0 {
		return nil, domain.NewValidationError("account_id", "must be positive")
	}
	account, err := s.repo.CreateAccount(ctx, accountID)
	if err != nil {
		zap.L().Error("failed to open account", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return account, nil
}

func (s *Service) GetBalance(ctx context.Context, accountID int64) (*domain.Account, error) {
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		zap.L().Error("failed to get balance", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	if account == nil {
		return nil, domain.NotFoundf("account %d", accountID)
	}
	return account, nil
}

// LockAccount takes the account row lock for the surrounding database
// transaction so callers can check and reserve against a stable balance.
func (s *Service) LockAccount(ctx context.Context, accountID int64) (*domain.Account, error) {
	account, err := s.repo.LockAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.NotFoundf("account %d", accountID)
	}
	return account, nil
}

// AppendTransaction is the only path that changes an account balance.
// A repeated (account, reference, type) key returns the stored record and
// changes nothing.
func (s *Service) AppendTransaction(ctx context.Context, in TransactionInput) (*domain.Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var result *domain.Transaction
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		account, err := s.repo.LockAccount(ctx, in.AccountID)
		if err != nil {
			return err
		}
		if account == nil {
			return domain.NotFoundf("account %d", in.AccountID)
		}

		existing, err := s.repo.FindTransaction(ctx, in.AccountID, in.ReferenceID, in.Type)
		if err != nil {
			return err
		}
		if existing != nil {
			zap.L().Info("transaction already recorded",
				zap.Int64("account_id", in.AccountID),
				zap.String("reference_id", in.ReferenceID),
				zap.String("type", string(in.Type)))
			metrics.LedgerIdempotentReplaysTotal.WithLabelValues(string(in.Type)).Inc()
			result = existing
			return nil
		}

		tx := &domain.Transaction{
			AccountID:   in.AccountID,
			Type:        in.Type,
			Amount:      in.Amount,
			Status:      in.Status,
			ReferenceID: in.ReferenceID,
		}
		delta := tx.Delta()
		if account.CurrentBalance+delta < 0 {
			return &domain.InsufficientBalanceError{Available: account.CurrentBalance, Requested: in.Amount}
		}

		inserted, err := s.repo.InsertTransaction(ctx, tx)
		if err != nil {
			return err
		}
		if delta != 0 {
			if err := s.repo.SetBalance(ctx, in.AccountID, account.CurrentBalance+delta); err != nil {
				return err
			}
		}
		metrics.LedgerTransactionsTotal.WithLabelValues(string(in.Type), string(in.Status)).Inc()
		result = inserted
		return nil
	})
	if err != nil {
		logFailure("failed to append transaction", err,
			zap.Int64("account_id", in.AccountID),
			zap.String("reference_id", in.ReferenceID),
			zap.String("type", string(in.Type)))
		return nil, err
	}
	return result, nil
}

// SettleTransaction moves a PENDING transaction to COMPLETED (applying its
// balance effect) or CANCELLED. Asking for the status a transaction already
// has is a no-op.
func (s *Service) SettleTransaction(ctx context.Context, txID int64, status domain.TransactionStatus) (*domain.Transaction, error) {
	if status != domain.TxStatusCompleted && status != domain.TxStatusCancelled {
		return nil, domain.NewValidationError("status", "can only settle to COMPLETED or CANCELLED")
	}

	var result *domain.Transaction
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		current, err := s.repo.LockTransaction(ctx, txID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.NotFoundf("transaction %d", txID)
		}
		if current.Status == status {
			result = current
			return nil
		}
		if current.Status != domain.TxStatusPending {
			return domain.AlreadyProcessedf("transaction %d is %s", txID, current.Status)
		}

		settled := *current
		settled.Status = status
		if delta := settled.Delta(); delta != 0 {
			account, err := s.repo.LockAccount(ctx, current.AccountID)
			if err != nil {
				return err
			}
			if account == nil {
				return domain.NotFoundf("account %d", current.AccountID)
			}
			if account.CurrentBalance+delta < 0 {
				return &domain.InsufficientBalanceError{Available: account.CurrentBalance, Requested: current.Amount}
			}
			if err := s.repo.SetBalance(ctx, current.AccountID, account.CurrentBalance+delta); err != nil {
				return err
			}
		}
		if err := s.repo.UpdateTransactionStatus(ctx, txID, status); err != nil {
			return err
		}
		metrics.LedgerTransactionsTotal.WithLabelValues(string(settled.Type), string(status)).Inc()
		result = &settled
		return nil
	})
	if err != nil {
		logFailure("failed to settle transaction", err, zap.Int64("transaction_id", txID))
		return nil, err
	}
	return result, nil
}

func (s *Service) FindTransaction(ctx context.Context, accountID int64, referenceID string, txType domain.TransactionType) (*domain.Transaction, error) {
	tx, err := s.repo.FindTransaction(ctx, accountID, referenceID, txType)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domain.NotFoundf("transaction %s/%s", referenceID, txType)
	}
	return tx, nil
}

func (s *Service) GetTransactionHistory(ctx context.Context, accountID int64, limit, offset int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	if _, err := s.GetBalance(ctx, accountID); err != nil {
		return nil, err
	}
	txs, err := s.repo.ListTransactions(ctx, accountID, limit, offset)
	if err != nil {
		zap.L().Error("failed to fetch transaction history", zap.Int64("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return txs, nil
}

// VerifyBalance compares the stored balance with a replay of the log.
func (s *Service) VerifyBalance(ctx context.Context, accountID int64) (*Reconciliation, error) {
	account, err := s.GetBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}
	replayed, err := s.repo.ReplayBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}
	rec := &Reconciliation{
		AccountID: accountID,
		Stored:    account.CurrentBalance,
		Replayed:  replayed,
		Drift:     account.CurrentBalance - replayed,
	}
	if rec.Drift != 0 {
		zap.L().Error("balance drift detected",
			zap.Int64("account_id", accountID),
			zap.Int64("stored", rec.Stored),
			zap.Int64("replayed", rec.Replayed))
	}
	return rec, nil
}

func (s *Service) ListAccountIDs(ctx context.Context, afterID int64, limit uint32) ([]int64, error) {
	return s.repo.ListAccountIDs(ctx, afterID, limit)
}

// logFailure keeps business rejections at info level and infrastructure
// failures at error level.
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
