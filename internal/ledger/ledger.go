// Package ledger owns the wallet record and its transaction log. Every public
// operation first reconciles pending interest, then applies its own change,
// persists the result and notifies subscribers
package ledger

import (
	"context"                    // Context for storage calls
	"crypto/rand"                // Entropy for transaction ids
	"investbot/internal/domain"  // Domain models
	"investbot/internal/money"   // Cent rounding
	"investbot/internal/storage" // Persistence port
	"sync"                       // Operation lock
	"time"                       // Clock

	"github.com/oklog/ulid/v2"   // Sortable transaction ids
	"github.com/sirupsen/logrus" // Logging library
)

// Transaction titles
const (
	TitleDeposit    = "Deposit"
	TitleWithdrawal = "Withdrawal"
	TitleInvestment = "Investment"
	TitleCollect    = "Earnings collected"
	TitleReinvest   = "Reinvest"
)

// Snapshot is what subscribers receive after a change
type Snapshot struct {
	Wallet       domain.Wallet        `json:"wallet"`
	Transactions []domain.Transaction `json:"transactions"`
}

// Summary holds figures derived from the wallet for display
type Summary struct {
	Total       float64          `json:"total"`
	Growth      float64          `json:"growth"`
	DailyIncome float64          `json:"dailyIncome"`
	Level       domain.LevelInfo `json:"level"`
}

// Option configures a Ledger
type Option func(*Ledger)

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithRateTable replaces the default tiers
func WithRateTable(t domain.RateTable) Option {
	return func(l *Ledger) { l.table = t }
}

// WithPolicy selects how auto-reinvest routes accrued interest
func WithPolicy(p AccrualPolicy) Option {
	return func(l *Ledger) { l.policy = p }
}

// WithLogger sets the logger used for storage warnings and operation events
func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Ledger) { l.log = log }
}

// Ledger is the single wallet of one application instance. It is safe for
// concurrent use; operations are serialized
type Ledger struct {
	mu      sync.Mutex             // Serializes every operation
	store   storage.Store          // Wallet and log persistence
	table   domain.RateTable       // Tiers used for accrual
	policy  AccrualPolicy          // Where auto-reinvested interest goes
	now     func() time.Time       // Clock
	log     logrus.FieldLogger     // Logger
	entropy *ulid.MonotonicEntropy // Guarded by mu

	// last known state, authoritative while the matching dirty flag is set
	wallet      *domain.Wallet
	walletDirty bool
	txs         []domain.Transaction
	txsDirty    bool

	subMu   sync.RWMutex
	subs    map[uint64]func(Snapshot) // Keyed by subscription id
	nextSub uint64
}

// New returns a Ledger persisting through store
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:   store,
		table:   domain.DefaultRateTable(),
		policy:  CompoundMirror,
		now:     time.Now,
		log:     logrus.StandardLogger(),
		entropy: ulid.Monotonic(rand.Reader, 0),
		subs:    make(map[uint64]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RateTable returns the tiers the ledger accrues with
func (l *Ledger) RateTable() domain.RateTable {
	return l.table
}

// Read returns the wallet with all pending interest applied
func (l *Ledger) Read(ctx context.Context) domain.Wallet {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// Transactions returns the log, newest first
func (l *Ledger) Transactions(ctx context.Context) []domain.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Transaction(nil), l.loadTxs(ctx)...)
}

// Snapshot returns the reconciled wallet together with its log
func (l *Ledger) Snapshot(ctx context.Context) Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.load(ctx)
	return Snapshot{Wallet: w, Transactions: append([]domain.Transaction(nil), l.loadTxs(ctx)...)}
}

// Summarize derives display figures from w
func (l *Ledger) Summarize(w domain.Wallet) Summary {
	level := l.table.ResolveLevel(w.Invested)
	s := Summary{
		Total: money.Add(w.Invested, w.Balance),
		Level: level,
	}
	if w.Invested > 0 {
		s.Growth = w.Balance / w.Invested * 100
		s.DailyIncome = money.Round(w.Invested * level.Current.DailyRate / 100)
	}
	return s
}

// Deposit adds amount to the principal
func (l *Ledger) Deposit(ctx context.Context, amount float64) (domain.Wallet, error) {
	return l.addPrincipal(ctx, "deposit", TitleDeposit, amount)
}

// Invest adds amount to the principal. It differs from Deposit only in the log label
func (l *Ledger) Invest(ctx context.Context, amount float64) (domain.Wallet, error) {
	return l.addPrincipal(ctx, "invest", TitleInvestment, amount)
}

func (l *Ledger) addPrincipal(ctx context.Context, op, title string, amount float64) (domain.Wallet, error) {
	return l.mutate(ctx, op, func(w *domain.Wallet) (*entry, error) {
		amount, err := validAmount(amount)
		if err != nil {
			return nil, err
		}
		w.Invested = money.Add(w.Invested, amount)
		return &entry{title: title, amount: amount, dir: domain.DirectionIn}, nil
	})
}

// Withdraw takes amount out of the withdrawable balance
func (l *Ledger) Withdraw(ctx context.Context, amount float64) (domain.Wallet, error) {
	return l.mutate(ctx, "withdraw", func(w *domain.Wallet) (*entry, error) {
		amount, err := validAmount(amount)
		if err != nil {
			return nil, err
		}
		if amount > w.Balance {
			return nil, ErrInsufficientFunds // Nothing has been changed yet
		}
		w.Balance = money.Sub(w.Balance, amount)
		w.TotalWithdrawn = money.Add(w.TotalWithdrawn, amount)
		return &entry{title: TitleWithdrawal, amount: amount, dir: domain.DirectionOut}, nil
	})
}

// CollectEarnings moves all accrued earnings into the balance
func (l *Ledger) CollectEarnings(ctx context.Context) (domain.Wallet, error) {
	return l.mutate(ctx, "collect", func(w *domain.Wallet) (*entry, error) {
		if w.Earnings <= 0 {
			return nil, ErrNothingToCollect
		}
		collected := w.Earnings
		w.Balance = money.Add(w.Balance, collected) // Earnings become withdrawable
		w.Earnings = 0
		return &entry{title: TitleCollect, amount: collected, dir: domain.DirectionIn}, nil
	})
}

// ReinvestEarnings moves the whole balance into the principal
func (l *Ledger) ReinvestEarnings(ctx context.Context) (domain.Wallet, error) {
	return l.mutate(ctx, "reinvest", func(w *domain.Wallet) (*entry, error) {
		if w.Balance <= 0 {
			return nil, ErrNothingToReinvest
		}
		moved := w.Balance
		w.Invested = money.Add(w.Invested, moved)
		w.Balance = 0
		return &entry{title: TitleReinvest, amount: moved, dir: domain.DirectionOut}, nil
	})
}

// ToggleAutoReinvest flips the auto-reinvest flag. It always succeeds
func (l *Ledger) ToggleAutoReinvest(ctx context.Context) domain.Wallet {
	w, _ := l.mutate(ctx, "toggle_auto_reinvest", func(w *domain.Wallet) (*entry, error) {
		w.AutoReinvest = !w.AutoReinvest
		return nil, nil // No log entry
	})
	return w
}

// Subscribe registers fn to receive a snapshot after every change and returns
// a function that removes it. Delivery order between subscribers is unspecified
func (l *Ledger) Subscribe(fn func(Snapshot)) (cancel func()) {
	l.subMu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	l.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.subMu.Lock()
			delete(l.subs, id)
			l.subMu.Unlock()
		})
	}
}

// entry is the log line an operation asks mutate to record
type entry struct {
	title  string           // Transaction title
	amount float64          // Rounded amount
	dir    domain.Direction // in or out
}

func validAmount(amount float64) (float64, error) {
	if !money.ValidAmount(amount) {
		return 0, ErrInvalidAmount
	}
	amount = money.Round(amount)
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return amount, nil
}

// mutate reconciles, applies the change, persists it, logs it and then notifies
// subscribers outside the lock
func (l *Ledger) mutate(ctx context.Context, op string, apply func(*domain.Wallet) (*entry, error)) (domain.Wallet, error) {
	l.mu.Lock()
	current := l.load(ctx)
	next := current
	e, err := apply(&next)
	if err != nil {
		l.mu.Unlock()
		l.log.WithFields(logrus.Fields{"op": op, "reason": err.Error()}).Info("Wallet operation rejected")
		return current, err
	}

	l.saveWallet(ctx, next) // Best effort
	fields := logrus.Fields{"op": op}
	var txs []domain.Transaction
	if e == nil {
		txs = l.loadTxs(ctx)
	} else {
		at := l.now()
		tx := domain.Transaction{
			ID:        ulid.MustNew(ulid.Timestamp(at), l.entropy).String(),
			Title:     e.title,
			Amount:    e.amount,
			Direction: e.dir,
			Timestamp: at.UnixMilli(),
		}
		txs = domain.PrependTransaction(l.loadTxs(ctx), tx)
		l.saveTxs(ctx, txs)
		fields["amount"] = e.amount
		fields["tx_id"] = tx.ID
	}
	snap := Snapshot{Wallet: next, Transactions: append([]domain.Transaction(nil), txs...)} // Subscribers get their own copy
	l.mu.Unlock()

	l.log.WithFields(fields).Info("Wallet operation")
	l.notify(snap)
	return next, nil
}

// notify calls every subscriber with snap
func (l *Ledger) notify(snap Snapshot) {
	l.subMu.RLock()
	subs := make([]func(Snapshot), 0, len(l.subs))
	for _, fn := range l.subs {
		subs = append(subs, fn)
	}
	l.subMu.RUnlock()
	for _, fn := range subs {
		fn(snap)
	}
}

// load reads, reconciles and, when anything changed, persists the wallet.
// Callers hold l.mu
func (l *Ledger) load(ctx context.Context) domain.Wallet {
	now := l.now()
	stored, persisted := l.readWallet(ctx, now)
	if stored.LastAccrual == 0 {
		stored.LastAccrual = now.UnixMilli()
		persisted = false
	}

	reconciled := Reconcile(stored, now, l.table, l.policy)
	if !persisted || reconciled != stored {
		l.saveWallet(ctx, reconciled)
	} else {
		l.wallet = &reconciled
	}
	return reconciled
}

// readWallet returns the stored wallet and whether it matches what is persisted.
// After a failed write the in-memory copy wins until a write succeeds
func (l *Ledger) readWallet(ctx context.Context, now time.Time) (domain.Wallet, bool) {
	if l.walletDirty && l.wallet != nil {
		return *l.wallet, false
	}
	var stored domain.Wallet
	found, err := l.store.Load(ctx, storage.WalletKey, &stored)
	if err != nil {
		l.log.WithError(err).Warn("Wallet read failed, using last known state")
		if l.wallet != nil {
			return *l.wallet, false
		}
		return domain.NewWallet(now), false
	}
	if !found {
		return domain.NewWallet(now), false
	}
	return stored, true
}

// saveWallet is best effort: a failed write is logged, never returned
func (l *Ledger) saveWallet(ctx context.Context, w domain.Wallet) {
	l.wallet = &w
	if err := l.store.Save(ctx, storage.WalletKey, w); err != nil {
		l.walletDirty = true
		l.log.WithError(err).Warn("Wallet write failed")
		return
	}
	l.walletDirty = false
}

// loadTxs returns the log, preferring the in-memory copy after a failed write
func (l *Ledger) loadTxs(ctx context.Context) []domain.Transaction {
	if l.txsDirty {
		return l.txs
	}
	var txs []domain.Transaction
	found, err := l.store.Load(ctx, storage.TxKey, &txs)
	if err != nil {
		l.log.WithError(err).Warn("Transaction log read failed, using last known state")
		return l.txs
	}
	if !found {
		txs = nil // Empty log
	}
	l.txs = txs
	return txs
}

// saveTxs is best effort like saveWallet
func (l *Ledger) saveTxs(ctx context.Context, txs []domain.Transaction) {
	l.txs = txs
	if err := l.store.Save(ctx, storage.TxKey, txs); err != nil {
		l.txsDirty = true
		l.log.WithError(err).Warn("Transaction log write failed")
		return
	}
	l.txsDirty = false
}
