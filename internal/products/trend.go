package products

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ComputeTrend expects samples ordered by capture time. With fewer than two
// samples, or a zero first price, the percentage is 0.
func ComputeTrend(samples []PriceSample) Trend {
	prices := make([]int64, len(samples))
	for i, s := range samples {
		prices[i] = s.Price
	}
	t := Trend{Prices: prices}
	if len(prices) < 2 || prices[0] == 0 {
		return t
	}

	first := decimal.NewFromInt(prices[0])
	last := decimal.NewFromInt(prices[len(prices)-1])
	// half-to-even, so 0.5 rounds to 0 and 2.5 to 2
	t.Percentage = last.Sub(first).Mul(hundred).Div(first).RoundBank(0).IntPart()
	return t
}
