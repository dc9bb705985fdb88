package settlement

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GlebRadaev/settlement/internal/domain"
	"github.com/GlebRadaev/settlement/internal/metrics"
	"github.com/GlebRadaev/settlement/internal/notify"
	"github.com/GlebRadaev/settlement/internal/service/ledgerservice"
	"github.com/GlebRadaev/settlement/internal/storagefee"
	"github.com/GlebRadaev/settlement/pkg/workerpool"
)

//go:generate mockgen -source=settlement.go -destination=mock_settlement.go -package=settlement

const (
	lockKey        = "settlement:scheduler"
	staleAfter     = 24 * time.Hour
	reminderWindow = 24 * time.Hour
)

const (
	JobRetryCommissions    = "retry_commissions"
	JobFreePeriodReminders = "storage_free_period_reminders"
	JobStalePayouts        = "stale_payout_reminders"
	JobReconciliation      = "balance_reconciliation"
)

type Commissions interface {
	RetryPending(ctx context.Context, limit uint32) (int, error)
}

type Contracts interface {
	FreeDays() int
	FreePeriodEnding(ctx context.Context, from, to time.Time, limit uint32) ([]domain.StorageContract, error)
}

type Payouts interface {
	ListPending(ctx context.Context, olderThan time.Duration, limit uint32) ([]domain.PayoutRequest, error)
}

type Ledger interface {
	ListAccountIDs(ctx context.Context, afterID int64, limit uint32) ([]int64, error)
	VerifyBalance(ctx context.Context, accountID int64) (*ledgerservice.Reconciliation, error)
}

type ActionLog interface {
	Claim(ctx context.Context, entityType string, entityID int64, actionType string, at time.Time) (bool, error)
}

type Notifier interface {
	Publish(ctx context.Context, event notify.Event)
}

type job struct {
	name string
	run  func(ctx context.Context) error
}

type Scheduler struct {
	commissions Commissions
	contracts   Contracts
	payouts     Payouts
	ledger      Ledger
	actions     ActionLog
	notifier    Notifier
	locker      Locker
	workerPool  workerpool.WorkerPoolI
	interval    time.Duration
	batch       uint32
	inFlight    sync.Map
	now         func() time.Time
}

func New(
	commissions Commissions,
	contracts Contracts,
	payouts Payouts,
	ledger Ledger,
	actions ActionLog,
	notifier Notifier,
	locker Locker,
	workerPool workerpool.WorkerPoolI,
	interval time.Duration,
	batch uint32,
) *Scheduler {
	return &Scheduler{
		commissions: commissions,
		contracts:   contracts,
		payouts:     payouts,
		ledger:      ledger,
		actions:     actions,
		notifier:    notifier,
		locker:      locker,
		workerPool:  workerPool,
		interval:    interval,
		batch:       batch,
		now:         time.Now,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	zap.L().Info("Settlement scheduler started", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Context canceled, stopping scheduler")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs every job if this instance wins the tick lock. A failing job
// is recorded and does not stop the ones after it.
func (s *Scheduler) RunOnce(ctx context.Context) {
	release, acquired, err := s.locker.Acquire(ctx, lockKey, s.interval)
	if err != nil {
		zap.L().Error("Failed to acquire scheduler lock", zap.Error(err))
		return
	}
	if !acquired {
		zap.L().Debug("Scheduler tick held by another instance")
		return
	}
	defer release(context.WithoutCancel(ctx))

	for _, j := range s.jobs() {
		s.runJob(ctx, j)
	}
}

func (s *Scheduler) jobs() []job {
	return []job{
		{name: JobRetryCommissions, run: s.retryCommissions},
		{name: JobFreePeriodReminders, run: s.remindFreePeriodEnding},
		{name: JobStalePayouts, run: s.remindStalePayouts},
		{name: JobReconciliation, run: s.reconcileBalances},
	}
}

func (s *Scheduler) runJob(ctx context.Context, j job) {
	runID := uuid.NewString()
	logger := zap.L().With(zap.String("job", j.name), zap.String("run_id", runID))
	started := time.Now()

	err := j.run(ctx)
	result := "success"
	if err != nil {
		result = "error"
		logger.Error("Scheduler job failed", zap.Error(err))
	} else {
		logger.Info("Scheduler job finished", zap.Duration("took", time.Since(started)))
	}
	metrics.RecordJobRun(j.name, result, time.Since(started).Seconds())
}

func (s *Scheduler) retryCommissions(ctx context.Context) error {
	paid, err := s.commissions.RetryPending(ctx, s.batch)
	if err != nil {
		return err
	}
	if paid > 0 {
		zap.L().Info("Pending commissions credited", zap.Int("count", paid))
	}
	return nil
}

// remindFreePeriodEnding notifies once per contract whose first chargeable
// day is tomorrow.
func (s *Scheduler) remindFreePeriodEnding(ctx context.Context) error {
	now := s.now()
	contracts, err := s.contracts.FreePeriodEnding(ctx, now.Add(reminderWindow), now.Add(2*reminderWindow), s.batch)
	if err != nil {
		return fmt.Errorf("failed to list contracts: %w", err)
	}

	keys := make([]string, len(contracts))
	for i, c := range contracts {
		keys[i] = fmt.Sprintf("%s:%d", domain.EntityStorageContract, c.ID)
	}
	failed := s.dispatch(ctx, keys, func(i int) error {
		c := contracts[i]
		claimed, err := s.actions.Claim(ctx, domain.EntityStorageContract, c.ID, domain.ActionFreePeriodEnding, now)
		if err != nil || !claimed {
			return err
		}
		s.notifier.Publish(ctx, notify.Event{
			Type:       notify.EventStorageFreePeriod,
			AccountID:  c.AccountID,
			EntityID:   c.ID,
			Reference:  storagefee.FreePeriodEnd(c, s.contracts.FreeDays()).Format(time.DateOnly),
			OccurredAt: now,
		})
		return nil
	})
	return batchError(failed, len(keys))
}

func (s *Scheduler) remindStalePayouts(ctx context.Context) error {
	now := s.now()
	payouts, err := s.payouts.ListPending(ctx, staleAfter, s.batch)
	if err != nil {
		return fmt.Errorf("failed to list stale payouts: %w", err)
	}

	keys := make([]string, len(payouts))
	for i, p := range payouts {
		keys[i] = fmt.Sprintf("%s:%d", domain.EntityPayout, p.ID)
	}
	failed := s.dispatch(ctx, keys, func(i int) error {
		p := payouts[i]
		claimed, err := s.actions.Claim(ctx, domain.EntityPayout, p.ID, domain.ActionStaleReminder, now)
		if err != nil || !claimed {
			return err
		}
		s.notifier.Publish(ctx, notify.Event{
			Type:       notify.EventPayoutStale,
			AccountID:  p.AccountID,
			EntityID:   p.ID,
			Amount:     p.Amount,
			Reference:  p.ReferenceID(),
			OccurredAt: now,
		})
		return nil
	})
	return batchError(failed, len(keys))
}

// reconcileBalances replays every account's log page by page and exports
// the number of drifted accounts.
func (s *Scheduler) reconcileBalances(ctx context.Context) error {
	var (
		afterID int64
		drifted atomic.Int64
		failed  int
		total   int
	)
	for {
		ids, err := s.ledger.ListAccountIDs(ctx, afterID, s.batch)
		if err != nil {
			return fmt.Errorf("failed to list accounts: %w", err)
		}
		if len(ids) == 0 {
			break
		}

		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = fmt.Sprintf("account:%d", id)
		}
		failed += s.dispatch(ctx, keys, func(i int) error {
			rec, err := s.ledger.VerifyBalance(ctx, ids[i])
			if err != nil {
				return err
			}
			if rec.Drift != 0 {
				drifted.Add(1)
				s.notifier.Publish(ctx, notify.Event{
					Type:       notify.EventBalanceDrift,
					AccountID:  rec.AccountID,
					Amount:     rec.Drift,
					OccurredAt: s.now(),
				})
			}
			return nil
		})
		total += len(ids)
		afterID = ids[len(ids)-1]
		if uint32(len(ids)) < s.batch {
			break
		}
	}

	metrics.BalanceDriftAccounts.Set(float64(drifted.Load()))
	if n := drifted.Load(); n > 0 {
		zap.L().Error("Balance reconciliation found drift", zap.Int64("accounts", n), zap.Int("checked", total))
	}
	return batchError(failed, total)
}

// dispatch runs work(i) for every key on the worker pool and waits for all
// of them. Keys already in flight from an earlier tick are skipped.
func (s *Scheduler) dispatch(ctx context.Context, keys []string, work func(i int) error) int {
	var (
		wg     sync.WaitGroup
		failed atomic.Int64
	)
	for i, key := range keys {
		if _, loaded := s.inFlight.LoadOrStore(key, struct{}{}); loaded {
			continue
		}

		wg.Add(1)
		err := s.workerPool.AddTask(ctx, func() error {
			defer wg.Done()
			defer s.inFlight.Delete(key)
			if err := work(i); err != nil {
				failed.Add(1)
				return fmt.Errorf("%s: %w", key, err)
			}
			return nil
		})
		if err != nil {
			wg.Done()
			s.inFlight.Delete(key)
			failed.Add(1)
			zap.L().Error("Failed to schedule task", zap.String("key", key), zap.Error(err))
		}
	}
	wg.Wait()
	return int(failed.Load())
}

func batchError(failed, total int) error {
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d entities failed", failed, total)
}
