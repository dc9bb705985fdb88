package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret"

func TestGenerateJWT(t *testing.T) {
	jwtService := NewJWTService(testSecret)

	tests := []struct {
		name           string
		accountID      int64
		role           string
		expirationTime time.Time
	}{
		{name: "Seller token", accountID: 123, role: RoleSeller, expirationTime: time.Now().Add(time.Hour)},
		{name: "Admin token", accountID: 1, role: RoleAdmin, expirationTime: time.Now().Add(time.Hour)},
		{name: "Expired token is still signed", accountID: 123, role: RoleSeller, expirationTime: time.Now().Add(-time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwtService.GenerateJWT(tt.accountID, tt.role, tt.expirationTime)
			assert.NoError(t, err)
			assert.NotEmpty(t, token)
		})
	}
}

func TestValidateToken(t *testing.T) {
	jwtService := NewJWTService(testSecret)

	tests := []struct {
		name        string
		setup       func() string
		expectError bool
		expectRole  string
	}{
		{
			name: "Valid seller token",
			setup: func() string {
				token, _ := jwtService.GenerateJWT(123, RoleSeller, time.Now().Add(time.Hour))
				return token
			},
			expectRole: RoleSeller,
		},
		{
			name:        "Garbage",
			setup:       func() string { return "invalid.token.string" },
			expectError: true,
		},
		{
			name: "Expired token",
			setup: func() string {
				token, _ := jwtService.GenerateJWT(123, RoleSeller, time.Now().Add(-time.Hour))
				return token
			},
			expectError: true,
		},
		{
			name: "Signed with another secret",
			setup: func() string {
				token, _ := NewJWTService("other").GenerateJWT(123, RoleAdmin, time.Now().Add(time.Hour))
				return token
			},
			expectError: true,
		},
		{
			name: "Unknown role",
			setup: func() string {
				token, _ := jwtService.GenerateJWT(123, "root", time.Now().Add(time.Hour))
				return token
			},
			expectError: true,
		},
		{
			name: "Claims without account",
			setup: func() string {
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
					ExpiresAt: time.Now().Add(time.Hour).Unix(),
					Issuer:    issuer,
				})
				signed, _ := token.SignedString([]byte(testSecret))
				return signed
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := jwtService.ValidateToken(tt.setup())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, claims)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectRole, claims.Role)
				assert.Equal(t, int64(123), claims.AccountID)
			}
		})
	}
}
