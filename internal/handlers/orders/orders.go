package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GlebRadaev/settlement/internal/domain"
	"github.com/GlebRadaev/settlement/internal/dto"
	"github.com/GlebRadaev/settlement/internal/handlers/httperr"
	"github.com/GlebRadaev/settlement/pkg/utils"
	"github.com/GlebRadaev/settlement/pkg/validate"
)

//go:generate mockgen -source=orders.go -destination=mock_orders.go -package=orders

type Service interface {
	OnOrderPaid(ctx context.Context, orderNumber string, totalAmount int64) ([]domain.CommissionRecord, error)
	ListByOrder(ctx context.Context, orderNumber string) ([]domain.CommissionRecord, error)
}

type OrderHandler struct {
	commissionService Service
}

func New(commissionService Service) *OrderHandler {
	return &OrderHandler{
		commissionService: commissionService,
	}
}

// OrderPaid godoc
//
//	@Summary		Settle commissions of a paid order
//	@Description	Called by the order module once an order is paid. Repeated calls return the same records and credit nothing twice.
//	@Tags			Internal
//	@Accept			json
//	@Produce		json
//	@Param			orderNumber	path		string					true	"Order number"
//	@Param			request		body		dto.OrderPaidRequestDTO	true	"Order total in cents"
//	@Success		200			{array}		dto.CommissionResponseDTO
//	@Failure		400			{object}	utils.Response	"Malformed body"
//	@Failure		401			{object}	utils.Response	"Missing or wrong internal token"
//	@Failure		404			{object}	utils.Response	"Unknown order"
//	@Failure		409			{object}	utils.Response	"Order not paid"
//	@Failure		422			{object}	utils.Response	"Total does not match the order"
//	@Failure		500			{object}	utils.Response	"Internal server error"
//	@Router			/api/internal/orders/{orderNumber}/paid [post]
func (h *OrderHandler) OrderPaid(w http.ResponseWriter, r *http.Request) {
	orderNumber := strings.TrimSpace(chi.URLParam(r, "orderNumber"))
	if orderNumber == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Order number is required")
		return
	}

	var req dto.OrderPaidRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// the write runs to completion even if the caller hangs up
	records, err := h.commissionService.OnOrderPaid(context.WithoutCancel(r.Context()), orderNumber, req.TotalAmount)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toResponse(records))
}

// GetCommissions godoc
//
//	@Summary		List commissions of an order
//	@Tags			Internal
//	@Produce		json
//	@Param			orderNumber	path		string	true	"Order number"
//	@Success		200			{array}		dto.CommissionResponseDTO
//	@Failure		404			{object}	utils.Response	"Unknown order"
//	@Failure		500			{object}	utils.Response	"Internal server error"
//	@Router			/api/internal/orders/{orderNumber}/commissions [get]
func (h *OrderHandler) GetCommissions(w http.ResponseWriter, r *http.Request) {
	records, err := h.commissionService.ListByOrder(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toResponse(records))
}

func toResponse(records []domain.CommissionRecord) []dto.CommissionResponseDTO {
	response := make([]dto.CommissionResponseDTO, 0, len(records))
	for _, rec := range records {
		response = append(response, dto.CommissionResponseDTO{
			OrderID:       rec.OrderID,
			BeneficiaryID: rec.BeneficiaryID,
			Program:       string(rec.Program),
			Tier:          rec.Tier,
			Rate:          rec.RateApplied.String(),
			Amount:        rec.Amount,
			Status:        string(rec.Status),
			PaidAt:        rec.PaidAt,
		})
	}
	return response
}
