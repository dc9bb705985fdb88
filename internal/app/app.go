package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/GlebRadaev/settlement/internal/config"
	"github.com/GlebRadaev/settlement/internal/handlers"
	"github.com/GlebRadaev/settlement/internal/notify"
	"github.com/GlebRadaev/settlement/internal/pg"
	"github.com/GlebRadaev/settlement/internal/repo"
	"github.com/GlebRadaev/settlement/internal/service"
	"github.com/GlebRadaev/settlement/internal/settlement"
	"github.com/GlebRadaev/settlement/pkg/clients"
	"github.com/GlebRadaev/settlement/pkg/logger"
	"github.com/GlebRadaev/settlement/pkg/workerpool"
)

const shutdownTimeout = 5 * time.Second

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg       *config.Config
	api       *handlers.Handlers
	srv       *service.Services
	repo      *repo.Repositories
	scheduler *settlement.Scheduler

	closers []func()
	errCh   chan error
	wg      sync.WaitGroup
	ready   bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}

	pool, err := getPgxpool(ctx, cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return fmt.Errorf("can't build pgx pool: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	if err := pg.RunMigrations(pool); err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return fmt.Errorf("can't run migrations: %w", err)
	}
	txManager := pg.NewTXManager(pool)

	notifyPool := workerpool.NewWorkerPool(cfg.Workers)
	schedulerPool := workerpool.NewWorkerPool(cfg.Workers)
	a.closers = append(a.closers, notifyPool.Close, schedulerPool.Close)
	notifier := notify.New(cfg.NotifyURL, clients.NewHTTPClient(), notifyPool)

	a.cfg = cfg
	a.repo = repo.New(pg.New(pool))
	a.srv, err = service.New(a.repo, txManager, notifier, cfg)
	if err != nil {
		return fmt.Errorf("can't build services: %w", err)
	}
	a.api = handlers.New(a.srv, cfg)
	a.scheduler = settlement.New(
		a.srv.CommissionService,
		a.srv.StorageService,
		a.srv.PayoutService,
		a.srv.LedgerService,
		a.repo.ActionRepo,
		notifier,
		a.newLocker(ctx),
		schedulerPool,
		cfg.SchedulerInterval,
		cfg.SchedulerBatch,
	)

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}
	a.startScheduler(ctx)

	a.ready = true
	zap.L().Info("all systems started successfully")
	return nil
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		return nil, err
	}
	return dbpool, nil
}

// newLocker picks the cross-instance Redis lock when REDIS_ADDR is set and
// reachable, otherwise the in-process one.
func (a *Application) newLocker(ctx context.Context) settlement.Locker {
	if a.cfg.RedisAddr == "" {
		zap.L().Info("redis not configured, scheduler lock is process local")
		return &settlement.LocalLocker{}
	}
	client := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		zap.L().Warn("redis unreachable, scheduler lock is process local",
			zap.String("addr", a.cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return &settlement.LocalLocker{}
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	return settlement.NewRedisLocker(client)
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:              a.cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(sCtx); err != nil {
			zap.L().Error("http server shutdown failed", zap.Error(err))
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

func (a *Application) startScheduler(ctx context.Context) {
	a.scheduler.Start(ctx)
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}

	return appErr
}
