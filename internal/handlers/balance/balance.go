package balance

import (
	"context"
	"net/http"
	"strconv"

	"github.com/GlebRadaev/settlement/internal/domain"
	"github.com/GlebRadaev/settlement/internal/dto"
	"github.com/GlebRadaev/settlement/internal/handlers/httperr"
	"github.com/GlebRadaev/settlement/internal/service/payoutservice"
	"github.com/GlebRadaev/settlement/pkg/auth"
	"github.com/GlebRadaev/settlement/pkg/utils"
)

//go:generate mockgen -source=balance.go -destination=mock_balance.go -package=balance

type Ledger interface {
	GetTransactionHistory(ctx context.Context, accountID int64, limit, offset int) ([]domain.Transaction, error)
}

type Payouts interface {
	Balance(ctx context.Context, accountID int64) (*payoutservice.Balance, error)
}

type BalanceHandler struct {
	ledger  Ledger
	payouts Payouts
}

func New(ledger Ledger, payouts Payouts) *BalanceHandler {
	return &BalanceHandler{
		ledger:  ledger,
		payouts: payouts,
	}
}

// GetBalance godoc
//
//	@Summary		Get current account balance
//	@Description	Current balance, the part reserved by open payout requests, and what is left to withdraw. Amounts in cents.
//	@Tags			Balance
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.BalanceResponseDTO
//	@Failure		401	{object}	utils.Response	"Account not authorized"
//	@Failure		404	{object}	utils.Response	"Account not opened"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/balance [get]
func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	balance, err := h.payouts.Balance(r.Context(), accountID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.BalanceResponseDTO{
		Current:   balance.Current,
		Reserved:  balance.Reserved,
		Available: balance.Available,
	})
}

// GetTransactions godoc
//
//	@Summary		Get transaction history
//	@Description	Ledger transactions of the account, newest first.
//	@Tags			Balance
//	@Security		BearerAuth
//	@Produce		json
//	@Param			limit	query		int	false	"Page size (default 50, max 500)"
//	@Param			offset	query		int	false	"Rows to skip"
//	@Success		200		{array}		dto.TransactionResponseDTO
//	@Success		204		{object}	utils.Response	"No transactions"
//	@Failure		400		{object}	utils.Response	"Malformed paging parameters"
//	@Failure		404		{object}	utils.Response	"Account not opened"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/user/transactions [get]
func (h *BalanceHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	txs, err := h.ledger.GetTransactionHistory(r.Context(), accountID, limit, offset)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	if len(txs) == 0 {
		utils.RespondWithJSON(w, http.StatusNoContent, nil)
		return
	}

	response := make([]dto.TransactionResponseDTO, len(txs))
	for i, tx := range txs {
		response[i] = dto.TransactionResponseDTO{
			ID:          tx.ID,
			Type:        string(tx.Type),
			Amount:      tx.Amount,
			Status:      string(tx.Status),
			ReferenceID: tx.ReferenceID,
			CreatedAt:   tx.CreatedAt,
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
