package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashToken(t *testing.T) {
	hashService := &HashService{}

	tests := []struct {
		name        string
		token       string
		expectError bool
	}{
		{
			name:  "Valid token",
			token: "order-module-secret",
		},
		{
			name:        "Empty token",
			token:       "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashed, err := hashService.HashToken(tt.token)

			if tt.expectError {
				assert.Error(t, err)
				assert.Empty(t, hashed)
			} else {
				assert.NoError(t, err)
				assert.NotEqual(t, tt.token, hashed)
			}
		})
	}
}

func TestCompareToken(t *testing.T) {
	hashService := &HashService{}
	hashed, err := hashService.HashToken("order-module-secret")
	assert.NoError(t, err)

	tests := []struct {
		name        string
		hashed      string
		token       string
		expectMatch bool
	}{
		{name: "Matching token", hashed: hashed, token: "order-module-secret", expectMatch: true},
		{name: "Wrong token", hashed: hashed, token: "guess", expectMatch: false},
		{name: "No hash configured", hashed: "", token: "order-module-secret", expectMatch: false},
		{name: "No token sent", hashed: hashed, token: "", expectMatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectMatch, hashService.CompareToken(tt.hashed, tt.token))
		})
	}
}
