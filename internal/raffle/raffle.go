// Package raffle implements the scheduled sweepstake: a qualifying deposit
// earns a ticket, and the draw time drives a countdown
package raffle

import (
	"context"                   // Context for the deposit
	"errors"                    // Rejection sentinel
	"investbot/internal/domain" // Wallet model
	"time"                      // Draw schedule
)

// TicketMinimum is the smallest deposit, in rubles, that earns a ticket
const TicketMinimum = 1000.0

// ErrBelowTicketMinimum rejects deposits too small for a ticket
var ErrBelowTicketMinimum = errors.New("deposits under 1 000 RUB do not earn a ticket")

// Depositor is the part of the ledger a ticket purchase needs
type Depositor interface {
	Deposit(ctx context.Context, amount float64) (domain.Wallet, error)
}

// Draw is one scheduled sweepstake
type Draw struct {
	Title  string    `json:"title"`  // Shown on the raffle page
	DrawAt time.Time `json:"drawAt"` // Zero when nothing is scheduled
}

// Countdown is the time left until a draw
type Countdown struct {
	Days     int  `json:"days"`
	Hours    int  `json:"hours"`
	Minutes  int  `json:"minutes"`
	Seconds  int  `json:"seconds"`
	Finished bool `json:"finished"`
}

// BuyTicket deposits amount into the wallet when it qualifies for a ticket
func BuyTicket(ctx context.Context, d Depositor, amount float64) (domain.Wallet, error) {
	if amount < TicketMinimum {
		return domain.Wallet{}, ErrBelowTicketMinimum // Ledger untouched
	}
	return d.Deposit(ctx, amount)
}

// Remaining returns the countdown from now to the draw
func (d Draw) Remaining(now time.Time) Countdown {
	left := d.DrawAt.Sub(now)
	if left <= 0 {
		return Countdown{Finished: true}
	}
	secs := int(left / time.Second) // Whole seconds
	return Countdown{
		Days:    secs / 86400,
		Hours:   secs % 86400 / 3600,
		Minutes: secs % 3600 / 60,
		Seconds: secs % 60,
	}
}
