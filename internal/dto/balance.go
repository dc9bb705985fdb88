package dto

import "time"

type BalanceResponseDTO struct {
	Current   int64 `json:"current" example:"50000"`
	Reserved  int64 `json:"reserved" example:"10000"`
	Available int64 `json:"available" example:"40000"`
}

type TransactionResponseDTO struct {
	ID          int64     `json:"id" example:"17"`
	Type        string    `json:"type" example:"COMMISSION_EARNED"`
	Amount      int64     `json:"amount" example:"3000"`
	Status      string    `json:"status" example:"COMPLETED"`
	ReferenceID string    `json:"reference_id" example:"2377225624"`
	CreatedAt   time.Time `json:"created_at" example:"2024-01-15T10:00:00Z"`
}
