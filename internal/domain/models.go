package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// All amounts are minor currency units (cents).

type Account struct {
	AccountID      int64     `db:"account_id"`
	CurrentBalance int64     `db:"current_balance"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type TransactionType string

const (
	TxCommissionEarned  TransactionType = "COMMISSION_EARNED"
	TxRefund            TransactionType = "REFUND"
	TxAdjustment        TransactionType = "ADJUSTMENT"
	TxPayoutRequested   TransactionType = "PAYOUT_REQUESTED"
	TxPayoutCompleted   TransactionType = "PAYOUT_COMPLETED"
	TxStorageFeeCharged TransactionType = "STORAGE_FEE_CHARGED"
)

// Sign is the direction a completed transaction of this type moves the
// balance: +1 credit, -1 debit, 0 reservation only.
func (t TransactionType) Sign() int64 {
	switch t {
	case TxCommissionEarned, TxRefund, TxAdjustment:
		return 1
	case TxPayoutCompleted, TxStorageFeeCharged:
		return -1
	default:
		return 0
	}
}

func (t TransactionType) Valid() bool {
	switch t {
	case TxCommissionEarned, TxRefund, TxAdjustment, TxPayoutRequested, TxPayoutCompleted, TxStorageFeeCharged:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TxStatusPending   TransactionStatus = "PENDING"
	TxStatusCompleted TransactionStatus = "COMPLETED"
	TxStatusCancelled TransactionStatus = "CANCELLED"
)

func (s TransactionStatus) Valid() bool {
	return s == TxStatusPending || s == TxStatusCompleted || s == TxStatusCancelled
}

type Transaction struct {
	ID          int64             `db:"id"`
	AccountID   int64             `db:"account_id"`
	Type        TransactionType   `db:"type"`
	Amount      int64             `db:"amount"`
	Status      TransactionStatus `db:"status"`
	ReferenceID string            `db:"reference_id"`
	CreatedAt   time.Time         `db:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at"`
}

// Delta is the balance change this transaction has applied.
func (t Transaction) Delta() int64 {
	if t.Status != TxStatusCompleted {
		return 0
	}
	return t.Type.Sign() * t.Amount
}

// ReplayBalance recomputes a balance from its transaction log.
func ReplayBalance(txs []Transaction) int64 {
	var balance int64
	for _, tx := range txs {
		balance += tx.Delta()
	}
	return balance
}

const OrderStatusPaid = "PAID"

type Order struct {
	ID          int64      `db:"id"`
	OrderNumber string     `db:"order_number"`
	BuyerID     int64      `db:"buyer_id"`
	TotalAmount int64      `db:"total_amount"`
	Status      string     `db:"status"`
	PaidAt      *time.Time `db:"paid_at"`
}

type Program string

const (
	ProgramReseller  Program = "reseller"
	ProgramAffiliate Program = "affiliate"
)

type CommissionStatus string

const (
	CommissionPending CommissionStatus = "PENDING"
	CommissionPaid    CommissionStatus = "PAID"
)

type CommissionRecord struct {
	ID            int64            `db:"id"`
	OrderID       string           `db:"order_id"`
	BeneficiaryID int64            `db:"beneficiary_id"`
	Program       Program          `db:"program"`
	Tier          int              `db:"tier"`
	RateApplied   decimal.Decimal  `db:"rate_applied"`
	Amount        int64            `db:"amount"`
	Status        CommissionStatus `db:"status"`
	CreatedAt     time.Time        `db:"created_at"`
	PaidAt        *time.Time       `db:"paid_at"`
}

type PayoutStatus string

const (
	PayoutPending   PayoutStatus = "PENDING"
	PayoutApproved  PayoutStatus = "APPROVED"
	PayoutCompleted PayoutStatus = "COMPLETED"
	PayoutRejected  PayoutStatus = "REJECTED"
)

var payoutTransitions = map[PayoutStatus][]PayoutStatus{
	PayoutPending:  {PayoutApproved, PayoutRejected},
	PayoutApproved: {PayoutCompleted},
}

func (s PayoutStatus) IsTerminal() bool {
	return s == PayoutCompleted || s == PayoutRejected
}

func (s PayoutStatus) CanTransition(to PayoutStatus) bool {
	for _, next := range payoutTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

const (
	PayoutMethodBank   = "bank"
	PayoutMethodPayPal = "paypal"
	PayoutMethodCard   = "card"
)

type PayoutMethod struct {
	Type       string `json:"type" validate:"required,oneof=bank paypal card"`
	HolderName string `json:"holder_name,omitempty" validate:"max=140"`
	IBAN       string `json:"iban,omitempty"`
	Email      string `json:"email,omitempty"`
	CardNumber string `json:"card_number,omitempty"`
}

type PayoutRequest struct {
	ID          int64        `db:"id"`
	AccountID   int64        `db:"account_id"`
	Amount      int64        `db:"amount"`
	Method      PayoutMethod `db:"method"`
	Status      PayoutStatus `db:"status"`
	ProcessedBy *int64       `db:"processed_by"`
	ProcessedAt *time.Time   `db:"processed_at"`
	Notes       string       `db:"notes"`
	CreatedAt   time.Time    `db:"created_at"`
}

// ReferenceID links the payout to its ledger transactions.
func (p PayoutRequest) ReferenceID() string {
	return fmt.Sprintf("payout:%d", p.ID)
}

type StorageContract struct {
	ID                 int64      `db:"id"`
	AccountID          int64      `db:"account_id"`
	StorageStartDate   time.Time  `db:"storage_start_date"`
	ReleasedAt         *time.Time `db:"released_at"`
	PalletCount        int        `db:"pallet_count"`
	FeePerPalletPerDay int64      `db:"fee_per_pallet_per_day"`
}

type StorageFee struct {
	ID               int64     `db:"id"`
	ContractID       int64     `db:"contract_id"`
	BillingPeriodEnd time.Time `db:"billing_period_end"`
	DaysCharged      int       `db:"days_charged"`
	Amount           int64     `db:"amount"`
	CreatedAt        time.Time `db:"created_at"`
}

func (f StorageFee) ReferenceID() string {
	return fmt.Sprintf("storage:%d:%s", f.ContractID, f.BillingPeriodEnd.Format(time.DateOnly))
}

const (
	EntityStorageContract = "storage_contract"
	EntityPayout          = "payout"
	EntityOrder           = "order"

	ActionFreePeriodEnding    = "free_period_ending"
	ActionStaleReminder       = "stale_reminder"
	ActionCommissionsResolved = "commissions_resolved"
)

type ActionLogEntry struct {
	ID          int64     `db:"id"`
	EntityType  string    `db:"entity_type"`
	EntityID    int64     `db:"entity_id"`
	ActionType  string    `db:"action_type"`
	PerformedAt time.Time `db:"performed_at"`
}

// FormatCents renders minor units as a decimal string, e.g. 1234 -> "12.34".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
