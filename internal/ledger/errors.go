package ledger

import "errors" // Sentinel errors

// Rejections returned by ledger operations. The wallet is left untouched
// whenever one of them is returned, and their messages are safe to show
var (
	ErrInvalidAmount     = errors.New("enter a valid amount")
	ErrInsufficientFunds = errors.New("insufficient funds for withdrawal")
	ErrNothingToCollect  = errors.New("no earnings to collect yet")
	ErrNothingToReinvest = errors.New("no funds to reinvest")
)

// IsRejection reports whether err is one of the ledger's business rejections
// rather than an unexpected failure
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrNothingToCollect) ||
		errors.Is(err, ErrNothingToReinvest)
}
