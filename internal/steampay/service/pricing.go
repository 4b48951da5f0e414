package service

import "github.com/shopspring/decimal"

// ComputePayable converts a gross marketplace payment into the amount sent to
// the wallet: gross * rate, minus the commission, truncated down to a whole
// cent. Truncation, not rounding, so the payable amount never exceeds what
// the commission formula allows. A floor of minSend guarantees a minimum
// viable order.
func ComputePayable(gross, rate, commission, minSend decimal.Decimal) decimal.Decimal {
	payable := gross.
		Mul(rate).
		Mul(decimal.NewFromInt(1).Sub(commission)).
		Shift(2).
		Floor().
		Shift(-2)
	if payable.LessThan(minSend) {
		return minSend
	}
	return payable
}
