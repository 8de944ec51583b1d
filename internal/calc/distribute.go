package calc

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)

// safeDiv returns n / d, or zero when d is zero (the workbook's
// IFERROR(...; 0)).
func safeDiv(n, d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.Zero
	}
	return n.Div(d)
}

// pct converts a percent-unit rate to a fraction exactly (5 -> 0.05).
func pct(p decimal.Decimal) decimal.Decimal {
	return p.Shift(-2)
}

// Sum adds values.
func Sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// DistributionBases returns each amount's share of their sum (phase 2).
// When the sum is zero every share is zero.
func DistributionBases(amounts []decimal.Decimal) []decimal.Decimal {
	total := Sum(amounts)
	bases := make([]decimal.Decimal, len(amounts))
	for i, a := range amounts {
		bases[i] = safeDiv(a, total)
	}
	return bases
}

// Distribute spreads a quote-level amount over items by their distribution
// base. Items with a zero base get zero; shares sum to total up to the
// precision of the bases.
func Distribute(total decimal.Decimal, bases []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(bases))
	for i, b := range bases {
		shares[i] = total.Mul(b)
	}
	return shares
}
