package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionType_Sign(t *testing.T) {
	tests := []struct {
		txType TransactionType
		sign   int64
	}{
		{TxCommissionEarned, 1},
		{TxRefund, 1},
		{TxAdjustment, 1},
		{TxPayoutRequested, 0},
		{TxPayoutCompleted, -1},
		{TxStorageFeeCharged, -1},
	}
	for _, tt := range tests {
		t.Run(string(tt.txType), func(t *testing.T) {
			assert.Equal(t, tt.sign, tt.txType.Sign())
			assert.True(t, tt.txType.Valid())
		})
	}
	assert.False(t, TransactionType("BONUS").Valid())
}

func TestReplayBalance(t *testing.T) {
	txs := []Transaction{
		{Type: TxCommissionEarned, Amount: 3000, Status: TxStatusCompleted},
		{Type: TxAdjustment, Amount: 500, Status: TxStatusCompleted},
		{Type: TxPayoutRequested, Amount: 1000, Status: TxStatusCompleted},
		{Type: TxPayoutCompleted, Amount: 1000, Status: TxStatusCompleted},
		{Type: TxStorageFeeCharged, Amount: 100, Status: TxStatusCompleted},
		{Type: TxRefund, Amount: 9999, Status: TxStatusCancelled},
		{Type: TxCommissionEarned, Amount: 7777, Status: TxStatusPending},
	}
	assert.Equal(t, int64(2400), ReplayBalance(txs))
	assert.Equal(t, int64(0), ReplayBalance(nil))
}

func TestPayoutStatus_CanTransition(t *testing.T) {
	assert.True(t, PayoutPending.CanTransition(PayoutApproved))
	assert.True(t, PayoutPending.CanTransition(PayoutRejected))
	assert.True(t, PayoutApproved.CanTransition(PayoutCompleted))
	assert.False(t, PayoutPending.CanTransition(PayoutCompleted))
	assert.False(t, PayoutApproved.CanTransition(PayoutRejected))
	assert.False(t, PayoutCompleted.CanTransition(PayoutRejected))
	assert.False(t, PayoutRejected.CanTransition(PayoutApproved))

	assert.True(t, PayoutCompleted.IsTerminal())
	assert.True(t, PayoutRejected.IsTerminal())
	assert.False(t, PayoutPending.IsTerminal())
	assert.False(t, PayoutApproved.IsTerminal())
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "12.34", FormatCents(1234))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "1000.00", FormatCents(100000))
}

func TestErrors(t *testing.T) {
	err := &InsufficientBalanceError{Available: 1234, Requested: 5000}
	assert.True(t, errors.Is(err, ErrInsufficientBalance))
	assert.Equal(t, "insufficient balance, available: 12.34, requested: 50.00", err.Error())

	verr := NewValidationError("amount", "must be at least 10.00")
	assert.True(t, errors.Is(verr, ErrValidation))
	assert.Equal(t, "amount: must be at least 10.00", verr.Error())

	assert.True(t, errors.Is(NotFoundf("account %d", 7), ErrNotFound))
	assert.True(t, errors.Is(InvalidStatef("order %s", "A1"), ErrInvalidState))
	assert.True(t, errors.Is(AlreadyProcessedf("payout %d", 1), ErrAlreadyProcessed))
}

func TestReferenceIDs(t *testing.T) {
	assert.Equal(t, "payout:42", PayoutRequest{ID: 42}.ReferenceID())
}
