package commissionservice

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GlebRadaev/settlement/internal/config"
	"github.com/GlebRadaev/settlement/internal/domain"
	"github.com/GlebRadaev/settlement/internal/metrics"
	"github.com/GlebRadaev/settlement/internal/notify"
	"github.com/GlebRadaev/settlement/internal/pg"
	"github.com/GlebRadaev/settlement/internal/service/ledgerservice"
)

//go:generate mockgen -source=commissionservice.go -destination=mock_commissionservice.go -package=commissionservice

type Repo interface {
	Create(ctx context.Context, rec *domain.CommissionRecord) (*domain.CommissionRecord, bool, error)
	Lock(ctx context.Context, id int64) (*domain.CommissionRecord, error)
	MarkPaid(ctx context.Context, id int64) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.CommissionRecord, error)
	ListPending(ctx context.Context, createdBefore time.Time, limit uint32) ([]domain.CommissionRecord, error)
}

type OrderRepo interface {
	FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
}

type ReferralRepo interface {
	GetReferrer(ctx context.Context, userID int64, program domain.Program) (*int64, error)
}

type ActionLog interface {
	Claim(ctx context.Context, entityType string, entityID int64, actionType string, at time.Time) (bool, error)
}

type Ledger interface {
	AppendTransaction(ctx context.Context, in ledgerservice.TransactionInput) (*domain.Transaction, error)
}

type Notifier interface {
	Publish(ctx context.Context, event notify.Event)
}

const (
	// records younger than this are still being paid by the event path
	retryGrace   = time.Minute
	retryWorkers = 8
)

type Service struct {
	commissions Repo
	orders      OrderRepo
	referrals   ReferralRepo
	actions     ActionLog
	ledger      Ledger
	notifier    Notifier
	txManager   pg.TXManager
	rates       config.Rates
}

func New(
	commissions Repo,
	orders OrderRepo,
	referrals ReferralRepo,
	actions ActionLog,
	ledger Ledger,
	notifier Notifier,
	txManager pg.TXManager,
	rates config.Rates,
) *Service {
	return &Service{
		commissions: commissions,
		orders:      orders,
		referrals:   referrals,
		actions:     actions,
		ledger:      ledger,
		notifier:    notifier,
		txManager:   txManager,
		rates:       rates,
	}
}

type beneficiary struct {
	accountID int64
	program   domain.Program
	tier      int
	rate      decimal.Decimal
}

// Amount applies rate to total, rounding half away from zero to whole cents.
func Amount(total int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(total).Mul(rate).Round(0).IntPart()
}

// OnOrderPaid creates and pays the commissions of a paid order. The
// beneficiaries are resolved once per order; later calls return the stored
// records and only pay the ones still pending.
func (s *Service) OnOrderPaid(ctx context.Context, orderNumber string, totalAmount int64) ([]domain.CommissionRecord, error) {
	order, err := s.orders.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.NotFoundf("order %s", orderNumber)
	}
	if order.Status != domain.OrderStatusPaid {
		return nil, domain.InvalidStatef("order %s is %s", orderNumber, order.Status)
	}
	if totalAmount != order.TotalAmount {
		return nil, domain.NewValidationError("total_amount",
			"does not match order total "+domain.FormatCents(order.TotalAmount))
	}

	records, err := s.commissions.ListByOrder(ctx, order.OrderNumber)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		records, err = s.attribute(ctx, order)
		if err != nil {
			return nil, err
		}
	}

	result := make([]domain.CommissionRecord, len(records))
	var g errgroup.Group
	for i, rec := range records {
		if rec.Status == domain.CommissionPaid {
			result[i] = rec
			continue
		}
		g.Go(func() error {
			paid, err := s.pay(ctx, &rec)
			if err != nil {
				zap.L().Error("failed to pay commission",
					zap.String("order_number", order.OrderNumber),
					zap.Int64("beneficiary_id", rec.BeneficiaryID),
					zap.Error(err))
				return err
			}
			result[i] = *paid
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// attribute resolves the beneficiaries of the order and stores all of their
// records in one transaction, under a claim on the order. The claim makes the
// set final: once it is taken the referral chain is never walked again for
// this order, even if the chain changes later.
func (s *Service) attribute(ctx context.Context, order *domain.Order) ([]domain.CommissionRecord, error) {
	var (
		records []domain.CommissionRecord
		created int
	)
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		records, created = nil, 0
		claimed, err := s.actions.Claim(ctx, domain.EntityOrder, order.ID, domain.ActionCommissionsResolved, time.Now().UTC())
		if err != nil {
			return err
		}
		if !claimed {
			records, err = s.commissions.ListByOrder(ctx, order.OrderNumber)
			return err
		}

		beneficiaries, err := s.resolve(ctx, order.BuyerID)
		if err != nil {
			return err
		}
		for _, b := range beneficiaries {
			amount := Amount(order.TotalAmount, b.rate)
			if amount <= 0 {
				continue
			}
			rec, isNew, err := s.commissions.Create(ctx, &domain.CommissionRecord{
				OrderID:       order.OrderNumber,
				BeneficiaryID: b.accountID,
				Program:       b.program,
				Tier:          b.tier,
				RateApplied:   b.rate,
				Amount:        amount,
			})
			if err != nil {
				return err
			}
			if isNew {
				created++
			}
			records = append(records, *rec)
		}
		return nil
	})
	if err != nil {
		zap.L().Error("failed to attribute commissions",
			zap.String("order_number", order.OrderNumber), zap.Error(err))
		return nil, err
	}

	if created > 0 {
		for _, rec := range records {
			metrics.RecordCommission(string(rec.Program), strconv.Itoa(rec.Tier), string(domain.CommissionPending), rec.Amount)
		}
	}
	return records, nil
}

// resolve walks the attribution chain of the buyer. The reseller program pays
// the direct referrer only; the affiliate program walks up to one hop per
// configured tier and stops at a missing referrer or a revisited account. An
// account found by both programs is paid once, by the reseller program.
func (s *Service) resolve(ctx context.Context, buyerID int64) ([]beneficiary, error) {
	var out []beneficiary
	paid := map[int64]bool{buyerID: true}

	reseller, err := s.referrals.GetReferrer(ctx, buyerID, domain.ProgramReseller)
	if err != nil {
		return nil, err
	}
	if reseller != nil && !paid[*reseller] {
		paid[*reseller] = true
		out = append(out, beneficiary{accountID: *reseller, program: domain.ProgramReseller, tier: 1, rate: s.rates.Reseller})
	}

	visited := map[int64]bool{buyerID: true}
	current := buyerID
	for tier := 1; tier <= len(s.rates.Affiliate); tier++ {
		referrer, err := s.referrals.GetReferrer(ctx, current, domain.ProgramAffiliate)
		if err != nil {
			return nil, err
		}
		if referrer == nil {
			break
		}
		if visited[*referrer] {
			zap.L().Warn("referral cycle detected",
				zap.Int64("buyer_id", buyerID),
				zap.Int64("account_id", *referrer),
				zap.Int("tier", tier))
			break
		}
		visited[*referrer] = true
		if !paid[*referrer] {
			paid[*referrer] = true
			out = append(out, beneficiary{accountID: *referrer, program: domain.ProgramAffiliate, tier: tier, rate: s.rates.Affiliate[tier-1]})
		}
		current = *referrer
	}
	return out, nil
}

// pay credits a pending record and marks it paid in one database transaction.
// A beneficiary without an account leaves the record pending for the retry
// job.
func (s *Service) pay(ctx context.Context, rec *domain.CommissionRecord) (*domain.CommissionRecord, error) {
	var (
		result  *domain.CommissionRecord
		paidNow bool
	)
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		locked, err := s.commissions.Lock(ctx, rec.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.NotFoundf("commission %d", rec.ID)
		}
		if locked.Status == domain.CommissionPaid {
			result = locked
			return nil
		}

		_, err = s.ledger.AppendTransaction(ctx, ledgerservice.TransactionInput{
			AccountID:   locked.BeneficiaryID,
			Type:        domain.TxCommissionEarned,
			Amount:      locked.Amount,
			ReferenceID: locked.OrderID,
			Status:      domain.TxStatusCompleted,
		})
		if err != nil {
			return err
		}
		if err := s.commissions.MarkPaid(ctx, locked.ID); err != nil {
			return err
		}

		now := time.Now().UTC()
		locked.Status = domain.CommissionPaid
		locked.PaidAt = &now
		result = locked
		paidNow = true
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		zap.L().Warn("commission left pending, beneficiary account missing",
			zap.Int64("commission_id", rec.ID),
			zap.Int64("beneficiary_id", rec.BeneficiaryID),
			zap.Error(err))
		return rec, nil
	}
	if err != nil {
		return nil, err
	}

	if paidNow {
		metrics.RecordCommission(string(result.Program), strconv.Itoa(result.Tier), string(domain.CommissionPaid), result.Amount)
		s.notifier.Publish(ctx, notify.Event{
			Type:      notify.EventCommissionEarned,
			AccountID: result.BeneficiaryID,
			EntityID:  result.ID,
			Amount:    result.Amount,
			Reference: result.OrderID,
		})
	}
	return result, nil
}

// RetryPending re-attempts payment of pending records and returns how many
// were paid.
func (s *Service) RetryPending(ctx context.Context, limit uint32) (int, error) {
	pending, err := s.commissions.ListPending(ctx, time.Now().Add(-retryGrace), limit)
	if err != nil {
		return 0, err
	}

	paid := make([]bool, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(retryWorkers)
	for i := range pending {
		rec := pending[i]
		g.Go(func() error {
			result, err := s.pay(gctx, &rec)
			if err != nil {
				zap.L().Error("commission retry failed", zap.Int64("commission_id", rec.ID), zap.Error(err))
				return nil
			}
			paid[i] = result.Status == domain.CommissionPaid
			return nil
		})
	}
	_ = g.Wait()

	count := 0
	for _, ok := range paid {
		if ok {
			count++
		}
	}
	return count, nil
}

func (s *Service) ListByOrder(ctx context.Context, orderNumber string) ([]domain.CommissionRecord, error) {
	records, err := s.commissions.ListByOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		return records, nil
	}
	order, err := s.orders.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.NotFoundf("order %s", orderNumber)
	}
	return []domain.CommissionRecord{}, nil
}
