package domain

import "time" // Time conversions for the accrual timestamp

// Wallet Model
type Wallet struct {
	Balance        float64 `json:"balance"`        // Withdrawable funds
	Invested       float64 `json:"invested"`       // Principal generating daily interest
	Earnings       float64 `json:"earnings"`       // Accrued interest not yet collected
	TotalWithdrawn float64 `json:"totalWithdrawn"` // Cumulative withdrawals, never decreases
	AutoReinvest   bool    `json:"autoReinvest"`   // Fold accrued interest into the principal
	LastAccrual    int64   `json:"lastAccrual"`    // Unix milliseconds up to which interest was computed
}

// NewWallet returns a zeroed wallet whose accrual clock starts at now
func NewWallet(now time.Time) Wallet {
	return Wallet{LastAccrual: now.UnixMilli()} // Everything else is zero
}

// LastAccrualTime returns LastAccrual as a time.Time
func (w Wallet) LastAccrualTime() time.Time {
	return time.UnixMilli(w.LastAccrual) // Stored as milliseconds
}
