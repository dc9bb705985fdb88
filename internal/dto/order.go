package dto

import "time"

type OrderPaidRequestDTO struct {
	TotalAmount int64 `json:"total_amount" validate:"required,gt=0" example:"100000"`
}

type CommissionResponseDTO struct {
	OrderID       string     `json:"order_id" example:"2377225624"`
	BeneficiaryID int64      `json:"beneficiary_id" example:"42"`
	Program       string     `json:"program" example:"affiliate"`
	Tier          int        `json:"tier" example:"1"`
	Rate          string     `json:"rate" example:"0.03"`
	Amount        int64      `json:"amount" example:"3000"`
	Status        string     `json:"status" example:"PAID"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}
