// Package calculator projects payouts for a hypothetical investment at a daily rate
package calculator

import (
	"math" // Finite checks

	"github.com/shopspring/decimal" // Exact projections
)

// Projection is the expected income of an amount at a daily rate
type Projection struct {
	Amount      float64 `json:"amount"`      // Principal, negative input reads as 0
	DailyRate   float64 `json:"rate"`        // Percent per day
	Daily       float64 `json:"daily"`       // Income per day
	Weekly      float64 `json:"weekly"`      // 7 days
	Monthly     float64 `json:"monthly"`     // 30 days
	Yearly      float64 `json:"yearly"`      // 365 days
	PaybackDays int     `json:"paybackDays"` // Days until income equals the principal
}

// Project computes simple, non-compounding payouts for amount at ratePercent per day.
// Months count 30 days and years 365
func Project(amount, ratePercent float64) Projection {
	p := Projection{Amount: amount, DailyRate: ratePercent}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		p.Amount = 0
	}
	if ratePercent <= 0 {
		return p // Nothing accrues
	}
	daily := decimal.NewFromFloat(p.Amount).Mul(decimal.NewFromFloat(ratePercent)).Div(decimal.NewFromInt(100))
	p.Daily = daily.Round(2).InexactFloat64()
	p.Weekly = daily.Mul(decimal.NewFromInt(7)).Round(2).InexactFloat64()
	p.Monthly = daily.Mul(decimal.NewFromInt(30)).Round(2).InexactFloat64()
	p.Yearly = daily.Mul(decimal.NewFromInt(365)).Round(2).InexactFloat64()
	p.PaybackDays = int(decimal.NewFromInt(100).Div(decimal.NewFromFloat(ratePercent)).Ceil().IntPart())
	return p
}
