package repo

import (
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	actionrepo "github.com/GlebRadaev/settlement/internal/repo/action-repo"
	commissionrepo "github.com/GlebRadaev/settlement/internal/repo/commission-repo"
	contractrepo "github.com/GlebRadaev/settlement/internal/repo/contract-repo"
	ledgerrepo "github.com/GlebRadaev/settlement/internal/repo/ledger-repo"
	orderrepo "github.com/GlebRadaev/settlement/internal/repo/order-repo"
	payoutrepo "github.com/GlebRadaev/settlement/internal/repo/payout-repo"
	referralrepo "github.com/GlebRadaev/settlement/internal/repo/referral-repo"
)

func TestNew(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	repos := New(mockDB)

	assert.IsType(t, &ledgerrepo.Repository{}, repos.LedgerRepo)
	assert.IsType(t, &commissionrepo.Repository{}, repos.CommissionRepo)
	assert.IsType(t, &orderrepo.Repository{}, repos.OrderRepo)
	assert.IsType(t, &referralrepo.Repository{}, repos.ReferralRepo)
	assert.IsType(t, &payoutrepo.Repository{}, repos.PayoutRepo)
	assert.IsType(t, &contractrepo.Repository{}, repos.ContractRepo)
	assert.IsType(t, &actionrepo.Repository{}, repos.ActionRepo)

	assert.NoError(t, mockDB.ExpectationsWereMet())
}
