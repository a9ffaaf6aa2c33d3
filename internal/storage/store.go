// Package storage is the persistence port of the wallet engine: a small
// JSON key-value contract with in-memory, Redis and MySQL adapters
package storage

import "context" // Context for backend calls

// Keys of the persisted layout
const (
	WalletKey = "investbot.wallet.v1"   // Wallet record
	TxKey     = "investbot.txs.v1"      // Transaction log, newest first
	RateKey   = "investbot.usdtRate.v1" // USDT exchange-rate snapshot
)

// Store persists JSON-encoded values by key
type Store interface {
	// Load decodes the value stored at key into dest. found is false when the key is missing
	Load(ctx context.Context, key string, dest any) (found bool, err error)
	// Save encodes value and stores it at key, replacing any previous value
	Save(ctx context.Context, key string, value any) error
}
