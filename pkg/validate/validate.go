package validate

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = validator.New()

// Struct runs the `validate` tags of s.
func Struct(s any) error {
	return v.Struct(s)
}

func IsEmail(s string) bool {
	return v.Var(s, "required,email") == nil
}

// IsIBAN checks the country/check-digit shape and the ISO 13616 mod-97
// checksum.
func IsIBAN(s string) bool {
	iban := strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	if len(iban) < 15 || len(iban) > 34 {
		return false
	}
	for i, r := range iban {
		switch {
		case i < 2 && (r < 'A' || r > 'Z'):
			return false
		case i >= 2 && i < 4 && (r < '0' || r > '9'):
			return false
		case (r < '0' || r > '9') && (r < 'A' || r > 'Z'):
			return false
		}
	}

	rearranged := iban[4:] + iban[:4]
	remainder := 0
	for _, r := range rearranged {
		if r >= 'A' {
			n := int(r-'A') + 10
			remainder = (remainder*100 + n) % 97
			continue
		}
		remainder = (remainder*10 + int(r-'0')) % 97
	}
	return remainder == 1
}
