package lifecycle

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice extracts the settlement amount from a display price.
//
// Every character other than digits, '.' and '-' is dropped ("$1,200.00"
// becomes "1200.00"). What remains is parsed as a decimal; an empty or
// malformed remainder ("1.2.3", "--5") yields zero. This is a defined
// fallback, never an error.
func ParsePrice(price string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, price)
	if cleaned == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return amount
}
