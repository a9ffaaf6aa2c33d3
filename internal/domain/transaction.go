package domain

// Direction tells whether money entered or left the wallet
type Direction string

const (
	DirectionIn  Direction = "in"  // Deposit, investment, collected earnings
	DirectionOut Direction = "out" // Withdrawal, reinvested balance
)

// MaxTransactions is the length cap of the transaction log
const MaxTransactions = 25

// Transaction Model
type Transaction struct {
	ID        string    `json:"id"`     // Unique, time-sortable identifier
	Title     string    `json:"title"`  // Human readable label
	Amount    float64   `json:"amount"` // Always positive
	Direction Direction `json:"type"`   // in or out
	Timestamp int64     `json:"ts"`     // Unix milliseconds
}

// PrependTransaction puts tx at the head of the log and drops entries past MaxTransactions
func PrependTransaction(log []Transaction, tx Transaction) []Transaction {
	next := make([]Transaction, 0, len(log)+1) // Fresh slice, callers keep their copy
	next = append(next, tx)                    // Newest first
	next = append(next, log...)                // Older entries after
	if len(next) > MaxTransactions {
		next = next[:MaxTransactions] // Oldest silently dropped
	}
	return next
}
