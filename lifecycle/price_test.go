package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/agency-ledger/lifecycle"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		price string
		want  string
	}{
		{"$450.00", "450"},
		{"$1,200.00", "1200"},
		{"USD 99.95", "99.95"},
		{"2500", "2500"},
		{"-$50", "-50"},
		{"", "0"},
		{"TBD", "0"},
		{"1.2.3", "0"},
		{"--5", "0"},
		{"$-", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			got := lifecycle.ParsePrice(tt.price)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
