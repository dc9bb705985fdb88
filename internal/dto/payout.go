package dto

import (
	"time"

	"github.com/GlebRadaev/settlement/internal/domain"
)

type CreatePayoutRequestDTO struct {
	Amount int64               `json:"amount" validate:"required,gt=0" example:"25000"`
	Method domain.PayoutMethod `json:"method"`
}

type ProcessPayoutRequestDTO struct {
	Notes string `json:"notes" validate:"max=500" example:"verified"`
}

type PayoutResponseDTO struct {
	ID          int64      `json:"id" example:"7"`
	AccountID   int64      `json:"account_id" example:"42"`
	Amount      int64      `json:"amount" example:"25000"`
	Method      string     `json:"method" example:"bank"`
	Destination string     `json:"destination" example:"****3000"`
	Status      string     `json:"status" example:"PENDING"`
	ProcessedBy *int64     `json:"processed_by,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func NewPayoutResponse(p domain.PayoutRequest) PayoutResponseDTO {
	return PayoutResponseDTO{
		ID:          p.ID,
		AccountID:   p.AccountID,
		Amount:      p.Amount,
		Method:      p.Method.Type,
		Destination: maskDestination(p.Method),
		Status:      string(p.Status),
		ProcessedBy: p.ProcessedBy,
		ProcessedAt: p.ProcessedAt,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
	}
}

// maskDestination keeps the last four characters of account numbers.
func maskDestination(m domain.PayoutMethod) string {
	var raw string
	switch m.Type {
	case domain.PayoutMethodBank:
		raw = m.IBAN
	case domain.PayoutMethodCard:
		raw = m.CardNumber
	case domain.PayoutMethodPayPal:
		return m.Email
	}
	if len(raw) <= 4 {
		return raw
	}
	return "****" + raw[len(raw)-4:]
}
