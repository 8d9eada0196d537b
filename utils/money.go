package utils

import (
	"github.com/shopspring/decimal"
)

// ReconcileEpsilon is the tolerance used when comparing a client-declared
// amount against an authoritative total. Clients round to two decimals on
// their side, so up to one cent of drift is absorbed; anything beyond that
// is a reconciliation failure, not rounding.
var ReconcileEpsilon = decimal.NewFromFloat(0.01)

// Money helpers. Every amount that is persisted or compared goes through
// decimal.Decimal; float64 only ever appears at the JSON boundary.

// MoneyFromFloat converts a client-supplied float into a decimal rounded
// to two places (minor currency units).
func MoneyFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

// MulQuantity multiplies a unit price by an integer quantity
func MulQuantity(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// SumMoney adds a list of amounts
func SumMoney(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// WithinEpsilon reports whether |a - b| <= ReconcileEpsilon
func WithinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(ReconcileEpsilon)
}

// FormatMoney renders an amount with exactly two decimal places, the form
// used in notification payloads and API responses.
func FormatMoney(a decimal.Decimal) string {
	return a.StringFixed(2)
}
