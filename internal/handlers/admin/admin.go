package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GlebRadaev/settlement/internal/domain"
	"github.com/GlebRadaev/settlement/internal/dto"
	"github.com/GlebRadaev/settlement/internal/handlers/httperr"
	"github.com/GlebRadaev/settlement/internal/service/ledgerservice"
	"github.com/GlebRadaev/settlement/internal/service/storageservice"
	"github.com/GlebRadaev/settlement/pkg/auth"
	"github.com/GlebRadaev/settlement/pkg/utils"
	"github.com/GlebRadaev/settlement/pkg/validate"
)

//go:generate mockgen -source=admin.go -destination=mock_admin.go -package=admin

const (
	defaultPendingAge   = 24 * time.Hour
	defaultPendingLimit = 100
)

type PayoutService interface {
	ApprovePayout(ctx context.Context, payoutID, adminID int64, notes string) (*domain.PayoutRequest, error)
	RejectPayout(ctx context.Context, payoutID, adminID int64, notes string) (*domain.PayoutRequest, error)
	ListPending(ctx context.Context, olderThan time.Duration, limit uint32) ([]domain.PayoutRequest, error)
}

type LedgerService interface {
	OpenAccount(ctx context.Context, accountID int64) (*domain.Account, error)
	GetBalance(ctx context.Context, accountID int64) (*domain.Account, error)
	VerifyBalance(ctx context.Context, accountID int64) (*ledgerservice.Reconciliation, error)
}

type StorageService interface {
	CreateContract(ctx context.Context, in storageservice.ContractInput) (*domain.StorageContract, error)
	ReleaseContract(ctx context.Context, contractID int64, releasedAt time.Time) (*domain.StorageContract, error)
	Quote(ctx context.Context, contractID int64, asOf time.Time) (*storageservice.Quote, error)
	Settle(ctx context.Context, contractID int64, billingPeriodEnd time.Time) (*domain.StorageFee, error)
}

type AdminHandler struct {
	payouts PayoutService
	ledger  LedgerService
	storage StorageService
	now     func() time.Time
}

func New(payouts PayoutService, ledger LedgerService, storage StorageService) *AdminHandler {
	return &AdminHandler{
		payouts: payouts,
		ledger:  ledger,
		storage: storage,
		now:     time.Now,
	}
}

var errBadID = errors.New("invalid id")

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

// decode reads an optional JSON body into dst and runs its validate tags.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
			return false
		}
	}
	if err := validate.Struct(dst); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

// ApprovePayout godoc
//
//	@Summary		Approve and complete a payout
//	@Description	Settles the seller's storage fees, then debits the payout. A payout that no longer fits the balance stays pending.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Payout id"
//	@Param			request	body		dto.ProcessPayoutRequestDTO	false	"Notes"
//	@Success		200		{object}	dto.PayoutResponseDTO
//	@Failure		402		{object}	utils.Response	"Balance below payout amount"
//	@Failure		404		{object}	utils.Response	"Unknown payout"
//	@Failure		409		{object}	utils.Response	"Payout already processed"
//	@Router			/api/admin/payouts/{id}/approve [post]
func (h *AdminHandler) ApprovePayout(w http.ResponseWriter, r *http.Request) {
	h.processPayout(w, r, h.payouts.ApprovePayout)
}

// RejectPayout godoc
//
//	@Summary		Reject a payout
//	@Description	Releases the reservation. The balance is not changed.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Payout id"
//	@Param			request	body		dto.ProcessPayoutRequestDTO	false	"Notes"
//	@Success		200		{object}	dto.PayoutResponseDTO
//	@Failure		404		{object}	utils.Response	"Unknown payout"
//	@Failure		409		{object}	utils.Response	"Payout already processed"
//	@Router			/api/admin/payouts/{id}/reject [post]
func (h *AdminHandler) RejectPayout(w http.ResponseWriter, r *http.Request) {
	h.processPayout(w, r, h.payouts.RejectPayout)
}

func (h *AdminHandler) processPayout(
	w http.ResponseWriter,
	r *http.Request,
	process func(ctx context.Context, payoutID, adminID int64, notes string) (*domain.PayoutRequest, error),
) {
	adminID, ok := auth.AccountID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	payoutID, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payout id")
		return
	}
	var req dto.ProcessPayoutRequestDTO
	if !decode(w, r, &req) {
		return
	}

	payout, err := process(context.WithoutCancel(r.Context()), payoutID, adminID, req.Notes)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewPayoutResponse(*payout))
}

// GetPendingPayouts godoc
//
//	@Summary		List payouts waiting for a decision
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			older_than	query		string	false	"Minimum age, Go duration (default 24h, 0s for all)"
//	@Param			limit		query		int		false	"Page size (default 100)"
//	@Success		200			{array}		dto.PayoutResponseDTO
//	@Failure		400			{object}	utils.Response	"Malformed query"
//	@Router			/api/admin/payouts/pending [get]
func (h *AdminHandler) GetPendingPayouts(w http.ResponseWriter, r *http.Request) {
	olderThan := defaultPendingAge
	if raw := r.URL.Query().Get("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid older_than")
			return
		}
		olderThan = d
	}
	limit := uint64(defaultPendingLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || n == 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	payouts, err := h.payouts.ListPending(r.Context(), olderThan, uint32(limit))
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	response := make([]dto.PayoutResponseDTO, len(payouts))
	for i, p := range payouts {
		response[i] = dto.NewPayoutResponse(p)
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// OpenAccount godoc
//
//	@Summary		Open a seller account
//	@Description	Idempotent; an existing account is returned unchanged.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Account id"
//	@Success		200	{object}	dto.AccountResponseDTO
//	@Router			/api/admin/accounts/{id} [post]
func (h *AdminHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	account, err := h.ledger.OpenAccount(context.WithoutCancel(r.Context()), accountID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toAccountResponse(account))
}

// GetAccountBalance godoc
//
//	@Summary		Get any account's stored balance
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Account id"
//	@Success		200	{object}	dto.AccountResponseDTO
//	@Failure		404	{object}	utils.Response	"Unknown account"
//	@Router			/api/admin/accounts/{id}/balance [get]
func (h *AdminHandler) GetAccountBalance(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	account, err := h.ledger.GetBalance(r.Context(), accountID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toAccountResponse(account))
}

// ReconcileAccount godoc
//
//	@Summary		Compare the stored balance with a replay of the ledger
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Account id"
//	@Success		200	{object}	ledgerservice.Reconciliation
//	@Failure		404	{object}	utils.Response	"Unknown account"
//	@Router			/api/admin/accounts/{id}/reconcile [get]
func (h *AdminHandler) ReconcileAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	rec, err := h.ledger.VerifyBalance(r.Context(), accountID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, rec)
}

// CreateContract godoc
//
//	@Summary		Register a storage contract
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateContractRequestDTO	true	"Contract"
//	@Success		201		{object}	dto.ContractResponseDTO
//	@Failure		422		{object}	utils.Response	"Invalid contract"
//	@Router			/api/admin/contracts [post]
func (h *AdminHandler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateContractRequestDTO
	if !decode(w, r, &req) {
		return
	}
	start, _ := time.Parse(time.DateOnly, req.StorageStartDate)

	contract, err := h.storage.CreateContract(context.WithoutCancel(r.Context()), storageservice.ContractInput{
		AccountID:          req.AccountID,
		StorageStartDate:   start,
		PalletCount:        req.PalletCount,
		FeePerPalletPerDay: req.FeePerPalletPerDay,
	})
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, toContractResponse(contract))
}

// ReleaseContract godoc
//
//	@Summary		Mark goods as released; accrual stops that day
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int								true	"Contract id"
//	@Param			request	body		dto.ReleaseContractRequestDTO	true	"Release date"
//	@Success		200		{object}	dto.ContractResponseDTO
//	@Failure		404		{object}	utils.Response	"Unknown contract"
//	@Failure		409		{object}	utils.Response	"Already released"
//	@Router			/api/admin/contracts/{id}/release [post]
func (h *AdminHandler) ReleaseContract(w http.ResponseWriter, r *http.Request) {
	contractID, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid contract id")
		return
	}
	var req dto.ReleaseContractRequestDTO
	if !decode(w, r, &req) {
		return
	}
	releasedAt, _ := time.Parse(time.DateOnly, req.ReleasedAt)

	contract, err := h.storage.ReleaseContract(context.WithoutCancel(r.Context()), contractID, releasedAt)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toContractResponse(contract))
}

// GetAccrual godoc
//
//	@Summary		Quote a contract's storage fee as of a date
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id		path		int		true	"Contract id"
//	@Param			as_of	query		string	false	"Date, YYYY-MM-DD (default today)"
//	@Success		200		{object}	storageservice.Quote
//	@Failure		404		{object}	utils.Response	"Unknown contract"
//	@Router			/api/admin/contracts/{id}/accrual [get]
func (h *AdminHandler) GetAccrual(w http.ResponseWriter, r *http.Request) {
	contractID, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid contract id")
		return
	}
	asOf := h.now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		asOf, err = time.Parse(time.DateOnly, raw)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid as_of")
			return
		}
	}

	quote, err := h.storage.Quote(r.Context(), contractID, asOf)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, quote)
}

// SettleContract godoc
//
//	@Summary		Charge a contract's fee up to a billing period end
//	@Description	Materialized once per (contract, billing period end); repeating the call returns the same fee.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int								true	"Contract id"
//	@Param			request	body		dto.SettleContractRequestDTO	true	"Billing period end"
//	@Success		200		{object}	dto.StorageFeeResponseDTO
//	@Success		204		{object}	utils.Response	"Nothing to charge"
//	@Failure		402		{object}	utils.Response	"Balance below the fee"
//	@Failure		404		{object}	utils.Response	"Unknown contract"
//	@Router			/api/admin/contracts/{id}/settle [post]
func (h *AdminHandler) SettleContract(w http.ResponseWriter, r *http.Request) {
	contractID, err := pathID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid contract id")
		return
	}
	var req dto.SettleContractRequestDTO
	if !decode(w, r, &req) {
		return
	}
	periodEnd, _ := time.Parse(time.DateOnly, req.BillingPeriodEnd)

	fee, err := h.storage.Settle(context.WithoutCancel(r.Context()), contractID, periodEnd)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	if fee == nil {
		utils.RespondWithJSON(w, http.StatusNoContent, nil)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.StorageFeeResponseDTO{
		ContractID:       fee.ContractID,
		BillingPeriodEnd: fee.BillingPeriodEnd.Format(time.DateOnly),
		DaysCharged:      fee.DaysCharged,
		Amount:           fee.Amount,
		ReferenceID:      fee.ReferenceID(),
	})
}

func toAccountResponse(a *domain.Account) dto.AccountResponseDTO {
	return dto.AccountResponseDTO{
		AccountID:      a.AccountID,
		CurrentBalance: a.CurrentBalance,
		CreatedAt:      a.CreatedAt,
	}
}

func toContractResponse(c *domain.StorageContract) dto.ContractResponseDTO {
	return dto.ContractResponseDTO{
		ID:                 c.ID,
		AccountID:          c.AccountID,
		StorageStartDate:   c.StorageStartDate.Format(time.DateOnly),
		ReleasedAt:         c.ReleasedAt,
		PalletCount:        c.PalletCount,
		FeePerPalletPerDay: c.FeePerPalletPerDay,
	}
}
