package ledger

import (
	"investbot/internal/domain" // Domain models
	"investbot/internal/money"  // Cent rounding
	"strings"                   // Policy parsing
	"time"                      // Accrual period

	"github.com/shopspring/decimal" // Exact interest arithmetic
)

// Day is the accrual period
const Day = 24 * time.Hour

// AccrualPolicy decides where accrued interest goes when auto-reinvest is on
type AccrualPolicy int

const (
	// CompoundMirror credits accrued interest to earnings and also folds it into
	// the principal. This is the behavior existing wallets were built with
	CompoundMirror AccrualPolicy = iota
	// CompoundExclusive folds accrued interest into the principal only
	CompoundExclusive
)

// ParsePolicy maps a config value to an AccrualPolicy, defaulting to CompoundMirror
func ParsePolicy(s string) AccrualPolicy {
	if strings.EqualFold(strings.TrimSpace(s), "exclusive") {
		return CompoundExclusive
	}
	return CompoundMirror
}

func (p AccrualPolicy) String() string {
	if p == CompoundExclusive {
		return "exclusive"
	}
	return "mirror"
}

// Reconcile applies interest for every whole day elapsed between the wallet's
// last accrual and now. The fractional remainder of a day is carried over by
// advancing LastAccrual by whole days only. A wallet with no principal has its
// clock moved to now so idle periods never earn retroactively
func Reconcile(w domain.Wallet, now time.Time, table domain.RateTable, policy AccrualPolicy) domain.Wallet {
	nowMs := now.UnixMilli()
	if w.Invested <= 0 {
		if nowMs > w.LastAccrual {
			w.LastAccrual = nowMs
		}
		return w
	}

	days := int64(now.Sub(w.LastAccrualTime()) / Day) // Whole days only
	if days <= 0 {
		return w
	}
	advanced := w.LastAccrual + days*Day.Milliseconds() // Fraction of a day carries over

	rate := decimal.NewFromFloat(table.DailyRateFor(w.Invested))
	accrued := decimal.NewFromFloat(w.Invested).
		Mul(rate).
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromInt(days)).
		Round(2).
		InexactFloat64()
	w.LastAccrual = advanced
	if accrued <= 0 {
		return w
	}

	// Mirror keeps crediting earnings even when the interest is folded into the principal
	if !w.AutoReinvest || policy == CompoundMirror {
		w.Earnings = money.Add(w.Earnings, accrued)
	}
	if w.AutoReinvest {
		w.Invested = money.Add(w.Invested, accrued)
	}
	return w
}
