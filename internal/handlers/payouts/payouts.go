package payouts

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GlebRadaev/settlement/internal/domain"
	"github.com/GlebRadaev/settlement/internal/dto"
	"github.com/GlebRadaev/settlement/internal/handlers/httperr"
	"github.com/GlebRadaev/settlement/pkg/auth"
	"github.com/GlebRadaev/settlement/pkg/utils"
	"github.com/GlebRadaev/settlement/pkg/validate"
)

//go:generate mockgen -source=payouts.go -destination=mock_payouts.go -package=payouts

type Service interface {
	CreatePayoutRequest(ctx context.Context, accountID, amount int64, method domain.PayoutMethod) (*domain.PayoutRequest, error)
	ListPayouts(ctx context.Context, accountID int64) ([]domain.PayoutRequest, error)
	GetPayout(ctx context.Context, payoutID int64) (*domain.PayoutRequest, error)
}

type PayoutHandler struct {
	payoutService Service
}

func New(payoutService Service) *PayoutHandler {
	return &PayoutHandler{
		payoutService: payoutService,
	}
}

// CreatePayout godoc
//
//	@Summary		Request a payout
//	@Description	Reserves the amount against the available balance until an admin approves or rejects it.
//	@Tags			Payouts
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreatePayoutRequestDTO	true	"Amount in cents and payout method"
//	@Success		201		{object}	dto.PayoutResponseDTO
//	@Failure		400		{object}	utils.Response	"Malformed body"
//	@Failure		402		{object}	utils.Response	"Insufficient balance"
//	@Failure		404		{object}	utils.Response	"Account not opened"
//	@Failure		422		{object}	utils.Response	"Invalid amount or method"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/user/payouts [post]
func (h *PayoutHandler) CreatePayout(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req dto.CreatePayoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	payout, err := h.payoutService.CreatePayoutRequest(context.WithoutCancel(r.Context()), accountID, req.Amount, req.Method)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewPayoutResponse(*payout))
}

// GetPayouts godoc
//
//	@Summary		List own payout requests
//	@Tags			Payouts
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.PayoutResponseDTO
//	@Success		204	{object}	utils.Response	"No payouts"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/payouts [get]
func (h *PayoutHandler) GetPayouts(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	payouts, err := h.payoutService.ListPayouts(r.Context(), accountID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	if len(payouts) == 0 {
		utils.RespondWithJSON(w, http.StatusNoContent, nil)
		return
	}

	response := make([]dto.PayoutResponseDTO, len(payouts))
	for i, p := range payouts {
		response[i] = dto.NewPayoutResponse(p)
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// GetPayout godoc
//
//	@Summary		Get one payout request
//	@Tags			Payouts
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Payout id"
//	@Success		200	{object}	dto.PayoutResponseDTO
//	@Failure		404	{object}	utils.Response	"Unknown payout"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/payouts/{id} [get]
func (h *PayoutHandler) GetPayout(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	payoutID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payout id")
		return
	}

	payout, err := h.payoutService.GetPayout(r.Context(), payoutID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	// another seller's payout looks the same as a missing one
	if payout.AccountID != accountID {
		httperr.Respond(w, domain.NotFoundf("payout %d", payoutID))
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewPayoutResponse(*payout))
}
