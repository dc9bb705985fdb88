package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GlebRadaev/settlement/internal/config"
	adminhandlers "github.com/GlebRadaev/settlement/internal/handlers/admin"
	balancehandlers "github.com/GlebRadaev/settlement/internal/handlers/balance"
	ordershandlers "github.com/GlebRadaev/settlement/internal/handlers/orders"
	payoutshandlers "github.com/GlebRadaev/settlement/internal/handlers/payouts"
	"github.com/GlebRadaev/settlement/internal/metrics"
	"github.com/GlebRadaev/settlement/internal/service"
	"github.com/GlebRadaev/settlement/pkg/auth"
)

//go:generate mockgen -source=handlers.go -destination=mock_handlers.go -package=handlers

const rateLimitBurst = 40

type OrderHandler interface {
	OrderPaid(w http.ResponseWriter, r *http.Request)
	GetCommissions(w http.ResponseWriter, r *http.Request)
}

type BalanceHandler interface {
	GetBalance(w http.ResponseWriter, r *http.Request)
	GetTransactions(w http.ResponseWriter, r *http.Request)
}

type PayoutHandler interface {
	CreatePayout(w http.ResponseWriter, r *http.Request)
	GetPayouts(w http.ResponseWriter, r *http.Request)
	GetPayout(w http.ResponseWriter, r *http.Request)
}

type AdminHandler interface {
	ApprovePayout(w http.ResponseWriter, r *http.Request)
	RejectPayout(w http.ResponseWriter, r *http.Request)
	GetPendingPayouts(w http.ResponseWriter, r *http.Request)
	OpenAccount(w http.ResponseWriter, r *http.Request)
	GetAccountBalance(w http.ResponseWriter, r *http.Request)
	ReconcileAccount(w http.ResponseWriter, r *http.Request)
	CreateContract(w http.ResponseWriter, r *http.Request)
	ReleaseContract(w http.ResponseWriter, r *http.Request)
	GetAccrual(w http.ResponseWriter, r *http.Request)
	SettleContract(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	OrderHandler   OrderHandler
	BalanceHandler BalanceHandler
	PayoutHandler  PayoutHandler
	AdminHandler   AdminHandler

	jwt               auth.JWTServiceInterface
	hasher            auth.HashServiceInterface
	internalTokenHash string
	limiter           *auth.RateLimiter
}

func New(s *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		OrderHandler:   ordershandlers.New(s.CommissionService),
		BalanceHandler: balancehandlers.New(s.LedgerService, s.PayoutService),
		PayoutHandler:  payoutshandlers.New(s.PayoutService),
		AdminHandler:   adminhandlers.New(s.PayoutService, s.LedgerService, s.StorageService),

		jwt:               auth.NewJWTService(cfg.JWTSecret),
		hasher:            &auth.HashService{},
		internalTokenHash: cfg.InternalTokenHash,
		limiter:           auth.NewRateLimiter(cfg.RateLimitRPS, rateLimitBurst),
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		instrument,
	)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api/internal", func(r chi.Router) {
		r.Use(auth.InternalToken(h.hasher, h.internalTokenHash))
		r.Post("/orders/{orderNumber}/paid", h.OrderHandler.OrderPaid)
		r.Get("/orders/{orderNumber}/commissions", h.OrderHandler.GetCommissions)
	})

	r.Route("/api/user", func(r chi.Router) {
		r.Use(auth.Middleware(h.jwt), h.limiter.Middleware)
		r.Get("/balance", h.BalanceHandler.GetBalance)
		r.Get("/transactions", h.BalanceHandler.GetTransactions)
		r.Route("/payouts", func(r chi.Router) {
			r.Post("/", h.PayoutHandler.CreatePayout)
			r.Get("/", h.PayoutHandler.GetPayouts)
			r.Get("/{id}", h.PayoutHandler.GetPayout)
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(auth.Middleware(h.jwt), auth.AdminOnly)
		r.Route("/payouts", func(r chi.Router) {
			r.Get("/pending", h.AdminHandler.GetPendingPayouts)
			r.Post("/{id}/approve", h.AdminHandler.ApprovePayout)
			r.Post("/{id}/reject", h.AdminHandler.RejectPayout)
		})
		r.Route("/accounts/{id}", func(r chi.Router) {
			r.Post("/", h.AdminHandler.OpenAccount)
			r.Get("/balance", h.AdminHandler.GetAccountBalance)
			r.Get("/reconcile", h.AdminHandler.ReconcileAccount)
		})
		r.Route("/contracts", func(r chi.Router) {
			r.Post("/", h.AdminHandler.CreateContract)
			r.Post("/{id}/release", h.AdminHandler.ReleaseContract)
			r.Get("/{id}/accrual", h.AdminHandler.GetAccrual)
			r.Post("/{id}/settle", h.AdminHandler.SettleContract)
		})
	})

	return r
}

// instrument records request metrics by route pattern so path ids do not
// explode label cardinality.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				pattern = p
			}
		}
		metrics.RecordHTTPRequest(r.Method, pattern, strconv.Itoa(ww.Status()), time.Since(start).Seconds())
	})
}
