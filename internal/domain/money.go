package domain

import "math"

// Amounts are integers in the currency's minor unit throughout. Rounding
// happens once per derived quantity, half away from zero for positive values.

func RoundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}

// PercentOf returns round(amount * pct / 100). pct counts to two decimal
// places and the product is taken in integers, so 17.15% of 3000 is 515.
func PercentOf(amount int64, pct float64) int64 {
	basisPoints := int64(math.Round(pct * 100))
	return divRoundHalfUp(amount*basisPoints, 10000)
}

// divRoundHalfUp is floor(num/den + 1/2) for den > 0.
func divRoundHalfUp(num, den int64) int64 {
	q, r := num/den, num%den
	if r < 0 {
		q--
		r += den
	}
	if 2*r >= den {
		q++
	}
	return q
}
