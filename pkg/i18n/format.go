package i18n

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatAmount formats amount with thousands separators and two decimals (#,###.##).
func FormatAmount(amount decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	x := amount.Round(2)
	sign := ""
	if x.IsNegative() {
		sign = "-"
		x = x.Neg()
	}
	intPart := p.Sprintf("%v", x.IntPart())
	frac := x.StringFixed(2)
	if i := strings.IndexByte(frac, '.'); i >= 0 {
		return sign + intPart + frac[i:]
	}
	return sign + intPart + ".00"
}
