package referralrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"

	"github.com/GlebRadaev/settlement/internal/domain"
)

func TestRepository_GetReferrer(t *testing.T) {
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	defer mock.Close()
	repo := New(mock)
	query := regexp.QuoteMeta(`SELECT referrer_id FROM referrals WHERE user_id = $1 AND program = $2`)
	referrer := int64(20)

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		result    *int64
	}{
		{
			name: "Referrer exists",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(int64(10), "affiliate").
					WillReturnRows(pgxmock.NewRows([]string{"referrer_id"}).AddRow(int64(20)))
			},
			result: &referrer,
		},
		{
			name: "No referrer",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(int64(10), "affiliate").WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(query).WithArgs(int64(10), "affiliate").WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.GetReferrer(context.Background(), 10, domain.ProgramAffiliate)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.result, result)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
