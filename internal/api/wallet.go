package api

import (
	"bytes"                      // Raw JSON inspection
	"context"                    // Context for ledger and rate calls
	"encoding/json"              // Amount decoding
	"errors"                     // Error classification
	"investbot/internal/domain"  // Domain models
	"investbot/internal/ledger"  // Wallet ledger
	"investbot/internal/metrics" // Operation counters
	"investbot/internal/money"   // Amount parsing and formatting
	"investbot/internal/raffle"  // Ticket rejections
	"investbot/internal/rates"   // Exchange rate
	"net/http"                   // HTTP status codes
	"strconv"                    // JSON number parsing

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// RawAmount is the amount as the client sent it, typed text or a JSON number
type RawAmount struct {
	text   string  // User-typed text such as "1 000,50"
	number float64 // Value of a JSON number
	isNum  bool    // Sent as a JSON number
}

// UnmarshalJSON accepts "1 000,50" as well as 1000.5 or 1e3
func (a *RawAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = RawAmount{text: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	v, err := strconv.ParseFloat(n.String(), 64) // Exponent form included
	if err != nil {
		return err
	}
	*a = RawAmount{number: v, isNum: true}
	return nil
}

// Value returns the amount rounded to cents. Text goes through the user-input normalizer, numbers do not
func (a RawAmount) Value() (float64, bool) {
	if !a.isNum {
		return money.ParseAmount(a.text)
	}
	v := money.Round(a.number)
	return v, money.ValidAmount(a.number) && money.ValidAmount(v)
}

// AmountRequest represents a deposit, withdrawal or investment request
type AmountRequest struct {
	Amount   RawAmount `json:"amount"`   // User-entered amount
	Currency string    `json:"currency"` // RUB (default) or USDT
}

// WalletView is the wallet as the UI renders it
type WalletView struct {
	Wallet       domain.Wallet        `json:"wallet"`                 // Reconciled record
	Summary      ledger.Summary       `json:"summary"`                // Derived figures
	Display      map[string]string    `json:"display"`                // Formatted amounts
	Transactions []domain.Transaction `json:"transactions,omitempty"` // Log, newest first
}

// newWalletView formats w in the requested currency
func newWalletView(l *ledger.Ledger, w domain.Wallet, cur money.Currency, rate float64) WalletView {
	s := l.Summarize(w)
	return WalletView{
		Wallet:  w,
		Summary: s,
		Display: map[string]string{
			"balance":        money.Format(w.Balance, cur, rate),        // Withdrawable
			"invested":       money.Format(w.Invested, cur, rate),       // Principal
			"earnings":       money.Format(w.Earnings, cur, rate),       // Uncollected
			"totalWithdrawn": money.Format(w.TotalWithdrawn, cur, rate), // Paid out
			"total":          money.Format(s.Total, cur, rate),          // Principal plus balance
			"dailyIncome":    money.Format(s.DailyIncome, cur, rate),    // Expected per day
			"dailyRate":      money.FormatPercent(s.Level.Current.DailyRate),
		},
	}
}

// GetWalletHandler returns the reconciled wallet
func GetWalletHandler(l *ledger.Ledger, rp *rates.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		cur := money.ParseCurrency(c.Query("currency")) // Display currency
		w := l.Read(c.Request.Context())                // Applies pending accrual
		metrics.SetInvested(w.Invested)
		c.JSON(http.StatusOK, newWalletView(l, w, cur, rp.Current()))
	}
}

// GetTransactionHistoryHandler returns the transaction log, newest first
func GetTransactionHistoryHandler(l *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		txs := l.Transactions(c.Request.Context())
		if txs == nil {
			txs = []domain.Transaction{} // Render [] rather than null
		}
		c.JSON(http.StatusOK, gin.H{"transactions": txs, "total": len(txs)})
	}
}

// amountOp is a ledger operation taking a ruble amount
type amountOp func(ctx context.Context, amount float64) (domain.Wallet, error)

// DepositHandler adds funds to the principal
func DepositHandler(l *ledger.Ledger, rp *rates.Provider) gin.HandlerFunc {
	return amountHandler("deposit", l, rp, l.Deposit)
}

// InvestHandler invests funds from the calculator
func InvestHandler(l *ledger.Ledger, rp *rates.Provider) gin.HandlerFunc {
	return amountHandler("invest", l, rp, l.Invest)
}

// WithdrawHandler withdraws funds from the balance
func WithdrawHandler(l *ledger.Ledger, rp *rates.Provider) gin.HandlerFunc {
	return amountHandler("withdraw", l, rp, l.Withdraw)
}

// RaffleTicketHandler deposits a ticket-qualifying amount
func RaffleTicketHandler(l *ledger.Ledger, rp *rates.Provider) gin.HandlerFunc {
	return amountHandler("raffle_ticket", l, rp, func(ctx context.Context, amount float64) (domain.Wallet, error) {
		return raffle.BuyTicket(ctx, l, amount)
	})
}

// amountHandler parses the request amount, converts it to rubles and applies op
func amountHandler(name string, l *ledger.Ledger, rp *rates.Provider, op amountOp) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AmountRequest // Bind JSON request to struct
		// Validate request
		if err := c.ShouldBindJSON(&req); err != nil {
			// If invalid, return bad request
			respondError(c, name, ledger.ErrInvalidAmount)
			return
		}
		amount, ok := req.Amount.Value() // Normalize user input
		if !ok {
			respondError(c, name, ledger.ErrInvalidAmount)
			return
		}
		cur := money.ParseCurrency(req.Currency)
		rate := rp.Current()
		if cur == money.USDT {
			rate = rp.Refresh(c.Request.Context(), false) // Best effort, never fails
			amount = money.ToRub(amount, cur, rate)
		}
		w, err := op(c.Request.Context(), amount)
		if err != nil {
			respondError(c, name, err)
			return
		}
		respondWallet(c, name, l, w, cur, rate)
	}
}

// CollectEarningsHandler moves earnings into the balance
func CollectEarningsHandler(l *ledger.Ledger, rp *rates.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := l.CollectEarnings(c.Request.Context())
		if err != nil {
			respondError(c, "collect", err)
			return
		}
		respondWallet(c, "collect", l, w, money.ParseCurrency(c.Query("currency")), rp.Current())
	}
}

// ReinvestHandler moves the balance into the principal
func ReinvestHandler(l *ledger.Ledger, rp *rates.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := l.ReinvestEarnings(c.Request.Context())
		if err != nil {
			respondError(c, "reinvest", err)
			return
		}
		respondWallet(c, "reinvest", l, w, money.ParseCurrency(c.Query("currency")), rp.Current())
	}
}

// ToggleAutoReinvestHandler flips the auto-reinvest flag
func ToggleAutoReinvestHandler(l *ledger.Ledger, rp *rates.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		w := l.ToggleAutoReinvest(c.Request.Context())
		respondWallet(c, "toggle_auto_reinvest", l, w, money.ParseCurrency(c.Query("currency")), rp.Current())
	}
}

// respondWallet writes the updated wallet and counts the operation
func respondWallet(c *gin.Context, op string, l *ledger.Ledger, w domain.Wallet, cur money.Currency, rate float64) {
	metrics.RecordOperation(op, "ok")
	metrics.SetInvested(w.Invested)
	c.JSON(http.StatusOK, newWalletView(l, w, cur, rate))
}

// respondError maps rejections to client errors and anything else to 500
func respondError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	outcome := "error"
	if status != http.StatusInternalServerError {
		outcome = reason(err)
	} else {
		// Log the error with context
		logrus.WithFields(logrus.Fields{
			"op":    op,          // Operation name
			"error": err.Error(), // Error message
		}).Error("Wallet operation failed")
	}
	metrics.RecordOperation(op, outcome)
	c.JSON(status, gin.H{"error": err.Error(), "code": outcome})
}

// statusFor returns the HTTP status of an operation error
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest
	case ledger.IsRejection(err), errors.Is(err, raffle.ErrBelowTicketMinimum):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// reason returns a stable machine-readable code for a rejection
func reason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrNothingToCollect):
		return "nothing_to_collect"
	case errors.Is(err, ledger.ErrNothingToReinvest):
		return "nothing_to_reinvest"
	case errors.Is(err, raffle.ErrBelowTicketMinimum):
		return "below_ticket_minimum"
	default:
		return "error"
	}
}
