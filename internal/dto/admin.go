package dto

import "time"

type AccountResponseDTO struct {
	AccountID      int64     `json:"account_id" example:"42"`
	CurrentBalance int64     `json:"current_balance" example:"50000"`
	CreatedAt      time.Time `json:"created_at"`
}

type CreateContractRequestDTO struct {
	AccountID          int64  `json:"account_id" validate:"required,gt=0" example:"42"`
	StorageStartDate   string `json:"storage_start_date" validate:"required,datetime=2006-01-02" example:"2024-01-01"`
	PalletCount        int    `json:"pallet_count" validate:"required,gt=0" example:"2"`
	FeePerPalletPerDay int64  `json:"fee_per_pallet_per_day" validate:"gte=0" example:"50"`
}

type ReleaseContractRequestDTO struct {
	ReleasedAt string `json:"released_at" validate:"required,datetime=2006-01-02" example:"2024-02-01"`
}

type SettleContractRequestDTO struct {
	BillingPeriodEnd string `json:"billing_period_end" validate:"required,datetime=2006-01-02" example:"2024-01-31"`
}

type ContractResponseDTO struct {
	ID                 int64      `json:"id" example:"3"`
	AccountID          int64      `json:"account_id" example:"42"`
	StorageStartDate   string     `json:"storage_start_date" example:"2024-01-01"`
	ReleasedAt         *time.Time `json:"released_at,omitempty"`
	PalletCount        int        `json:"pallet_count" example:"2"`
	FeePerPalletPerDay int64      `json:"fee_per_pallet_per_day" example:"50"`
}

type StorageFeeResponseDTO struct {
	ContractID       int64  `json:"contract_id" example:"3"`
	BillingPeriodEnd string `json:"billing_period_end" example:"2024-01-31"`
	DaysCharged      int    `json:"days_charged" example:"16"`
	Amount           int64  `json:"amount" example:"1600"`
	ReferenceID      string `json:"reference_id" example:"storage:3:2024-01-31"`
}
