package i18n

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{amount: "5000000", want: "5,000,000.00"},
		{amount: "12500000.5", want: "12,500,000.50"},
		{amount: "0", want: "0.00"},
		{amount: "999.999", want: "1,000.00"},
		{amount: "0.125", want: "0.13"},
		{amount: "-1500", want: "-1,500.00"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got := FormatAmount(decimal.RequireFromString(tt.amount))
			require.Equal(t, tt.want, got)
		})
	}
}
