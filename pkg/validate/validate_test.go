package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLuna(t *testing.T) {
	tests := []struct {
		name   string
		number string
		valid  bool
	}{
		{"Valid visa test number", "4111111111111111", true},
		{"Valid with spaces", "4111 1111 1111 1111", true},
		{"Valid with dashes", "5500-0000-0000-0004", true},
		{"Bad checksum", "4111111111111112", false},
		{"Too short", "79927398713", false},
		{"Letters", "4111abcd11111111", false},
		{"Empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsLuna(tt.number))
		})
	}
}

func TestIsIBAN(t *testing.T) {
	tests := []struct {
		name  string
		iban  string
		valid bool
	}{
		{"German", "DE89370400440532013000", true},
		{"British with spaces", "GB82 WEST 1234 5698 7654 32", true},
		{"Lower case", "gb82west12345698765432", true},
		{"Wrong check digits", "DE89370400440532013001", false},
		{"Country not letters", "1289370400440532013000", false},
		{"Check digits not numeric", "DEXX370400440532013000", false},
		{"Too short", "DE8937040044", false},
		{"Punctuation", "DE89-3704-0044-0532-0130-00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsIBAN(tt.iban))
		})
	}
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("seller@example.com"))
	assert.False(t, IsEmail("seller@"))
	assert.False(t, IsEmail(""))
}

func TestStruct(t *testing.T) {
	type input struct {
		Kind string `validate:"required,oneof=a b"`
	}
	assert.NoError(t, Struct(input{Kind: "a"}))
	assert.Error(t, Struct(input{Kind: "c"}))
	assert.Error(t, Struct(input{}))
}
