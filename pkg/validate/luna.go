package validate

import (
	"strings"

	"github.com/ShiraazMoollatjie/goluhn"
)

// IsLuna reports whether s is a Luhn-valid card number. Spaces and dashes
// between digit groups are ignored.
func IsLuna(s string) bool {
	number := strings.NewReplacer(" ", "", "-", "").Replace(s)
	if len(number) < 12 || len(number) > 19 {
		return false
	}
	err := goluhn.Validate(number)
	return err == nil
}
