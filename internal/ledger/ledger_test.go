package ledger

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investbot/internal/domain"
	"investbot/internal/storage"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// flakyStore fails every call while broken is set.
type flakyStore struct {
	*storage.MemoryStore
	broken bool
}

var errBroken = errors.New("quota exceeded")

func (s *flakyStore) Load(ctx context.Context, key string, dest any) (bool, error) {
	if s.broken {
		return false, errBroken
	}
	return s.MemoryStore.Load(ctx, key, dest)
}

func (s *flakyStore) Save(ctx context.Context, key string, value any) error {
	if s.broken {
		return errBroken
	}
	return s.MemoryStore.Save(ctx, key, value)
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newLedger(t *testing.T, opts ...Option) (*Ledger, *storage.MemoryStore, *fakeClock) {
	t.Helper()
	store := storage.NewMemoryStore()
	clock := &fakeClock{t: base}
	opts = append([]Option{WithClock(clock.Now), WithLogger(quietLogger())}, opts...)
	return New(store, opts...), store, clock
}

func TestLedger_FirstReadCreatesDefaults(t *testing.T) {
	l, store, _ := newLedger(t)

	w := l.Read(context.Background())

	assert.Equal(t, domain.NewWallet(base), w)
	_, persisted := store.Raw(storage.WalletKey)
	assert.True(t, persisted)
}

func TestLedger_ReadIsIdempotent(t *testing.T) {
	l, _, clock := newLedger(t)
	ctx := context.Background()
	_, err := l.Deposit(ctx, 10000)
	require.NoError(t, err)
	clock.Advance(Day + time.Hour)

	first := l.Read(ctx)
	second := l.Read(ctx)
	assert.Equal(t, first, second)
	assert.Equal(t, 140.0, first.Earnings)
}

func TestLedger_DepositAddsRoundedAmount(t *testing.T) {
	l, _, _ := newLedger(t)
	ctx := context.Background()

	before := l.Read(ctx)
	w, err := l.Deposit(ctx, 100.456)
	require.NoError(t, err)

	assert.Equal(t, before.Invested+100.46, w.Invested)
	assert.Equal(t, before.Balance, w.Balance)
	assert.Equal(t, before.Earnings, w.Earnings)

	txs := l.Transactions(ctx)
	require.Len(t, txs, 1)
	assert.Equal(t, TitleDeposit, txs[0].Title)
	assert.Equal(t, 100.46, txs[0].Amount)
	assert.Equal(t, domain.DirectionIn, txs[0].Direction)
	assert.Equal(t, base.UnixMilli(), txs[0].Timestamp)
	assert.NotEmpty(t, txs[0].ID)
}

func TestLedger_DepositBanksPriorAccrualFirst(t *testing.T) {
	l, _, clock := newLedger(t)
	ctx := context.Background()
	_, err := l.Deposit(ctx, 10000)
	require.NoError(t, err)

	clock.Advance(3 * Day)
	w, err := l.Deposit(ctx, 10000)
	require.NoError(t, err)

	// interest was computed at 1.4% on the old principal, not on 20000 at 1.6%
	assert.Equal(t, 420.0, w.Earnings)
	assert.Equal(t, 20000.0, w.Invested)
}

func TestLedger_InvalidAmounts(t *testing.T) {
	l, store, _ := newLedger(t)
	ctx := context.Background()
	l.Read(ctx)
	raw, _ := store.Raw(storage.WalletKey)

	for _, amount := range []float64{0, -5, 0.001, math.NaN(), math.Inf(1)} {
		_, err := l.Deposit(ctx, amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = l.Invest(ctx, amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = l.Withdraw(ctx, amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}

	after, _ := store.Raw(storage.WalletKey)
	assert.Equal(t, raw, after)
	assert.Empty(t, l.Transactions(ctx))
}

func TestLedger_WithdrawInsufficientFundsLeavesRecordUntouched(t *testing.T) {
	l, store, clock := newLedger(t)
	ctx := context.Background()
	_, err := l.Deposit(ctx, 10000)
	require.NoError(t, err)
	clock.Advance(Day)
	_, err = l.CollectEarnings(ctx)
	require.NoError(t, err)

	raw, _ := store.Raw(storage.WalletKey)
	w, err := l.Withdraw(ctx, 140.01)

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, IsRejection(err))
	assert.Equal(t, 140.0, w.Balance)
	after, _ := store.Raw(storage.WalletKey)
	assert.Equal(t, raw, after)
}

func TestLedger_Withdraw(t *testing.T) {
	l, _, clock := newLedger(t)
	ctx := context.Background()
	_, err := l.Deposit(ctx, 10000)
	require.NoError(t, err)
	clock.Advance(Day)
	_, err = l.CollectEarnings(ctx)
	require.NoError(t, err)

	w, err := l.Withdraw(ctx, 40.5)
	require.NoError(t, err)
	assert.Equal(t, 99.5, w.Balance)
	assert.Equal(t, 40.5, w.TotalWithdrawn)

	w, err = l.Withdraw(ctx, 99.5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, w.Balance)
	assert.Equal(t, 140.0, w.TotalWithdrawn)

	txs := l.Transactions(ctx)
	assert.Equal(t, TitleWithdrawal, txs[0].Title)
	assert.Equal(t, domain.DirectionOut, txs[0].Direction)
}

func TestLedger_CollectEarnings(t *testing.T) {
	l, _, clock := newLedger(t)
	ctx := context.Background()

	_, err := l.CollectEarnings(ctx)
	assert.ErrorIs(t, err, ErrNothingToCollect)

	_, err = l.Deposit(ctx, 5000)
	require.NoError(t, err)
	clock.Advance(2 * Day)

	w, err := l.CollectEarnings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 140.0, w.Balance)
	assert.Equal(t, 0.0, w.Earnings)

	txs := l.Transactions(ctx)
	assert.Equal(t, TitleCollect, txs[0].Title)
	assert.Equal(t, 140.0, txs[0].Amount)
	assert.Equal(t, domain.DirectionIn, txs[0].Direction)
}

func TestLedger_ReinvestEarnings(t *testing.T) {
	l, _, clock := newLedger(t)
	ctx := context.Background()

	_, err := l.ReinvestEarnings(ctx)
	assert.ErrorIs(t, err, ErrNothingToReinvest)

	_, err = l.Deposit(ctx, 5000)
	require.NoError(t, err)
	clock.Advance(Day)
	_, err = l.CollectEarnings(ctx)
	require.NoError(t, err)

	w, err := l.ReinvestEarnings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5070.0, w.Invested)
	assert.Equal(t, 0.0, w.Balance)

	txs := l.Transactions(ctx)
	assert.Equal(t, TitleReinvest, txs[0].Title)
	assert.Equal(t, 70.0, txs[0].Amount)
	assert.Equal(t, domain.DirectionOut, txs[0].Direction)
}

func TestLedger_ToggleAutoReinvest(t *testing.T) {
	l, _, _ := newLedger(t)
	ctx := context.Background()

	assert.True(t, l.ToggleAutoReinvest(ctx).AutoReinvest)
	assert.False(t, l.ToggleAutoReinvest(ctx).AutoReinvest)
	assert.Empty(t, l.Transactions(ctx), "toggling is not a money movement")
}

func TestLedger_AutoReinvestPolicies(t *testing.T) {
	tests := []struct {
		name         string
		policy       AccrualPolicy
		wantEarnings float64
	}{
		{"mirror", CompoundMirror, 420},
		{"exclusive", CompoundExclusive, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _, clock := newLedger(t, WithPolicy(tt.policy))
			ctx := context.Background()
			_, err := l.Deposit(ctx, 10000)
			require.NoError(t, err)
			l.ToggleAutoReinvest(ctx)
			clock.Advance(3 * Day)

			w := l.Read(ctx)
			assert.Equal(t, tt.wantEarnings, w.Earnings)
			assert.Equal(t, 10420.0, w.Invested)
		})
	}
}

func TestLedger_IdleWalletDoesNotEarnRetroactively(t *testing.T) {
	l, _, clock := newLedger(t)
	ctx := context.Background()
	l.Read(ctx)

	clock.Advance(30 * Day)
	l.Read(ctx)
	_, err := l.Deposit(ctx, 10000)
	require.NoError(t, err)

	clock.Advance(Day)
	assert.Equal(t, 140.0, l.Read(ctx).Earnings)
}

func TestLedger_TransactionLogKeepsNewest25(t *testing.T) {
	l, _, clock := newLedger(t)
	ctx := context.Background()

	for i := 1; i <= 30; i++ {
		_, err := l.Invest(ctx, float64(i))
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	txs := l.Transactions(ctx)
	require.Len(t, txs, domain.MaxTransactions)
	for i, tx := range txs {
		assert.Equal(t, float64(30-i), tx.Amount)
		assert.Equal(t, TitleInvestment, tx.Title)
	}
	ids := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		ids[tx.ID] = struct{}{}
	}
	assert.Len(t, ids, len(txs))
}

func TestLedger_MonetaryFieldsStayAtTwoDecimals(t *testing.T) {
	l, _, clock := newLedger(t)
	ctx := context.Background()

	_, err := l.Deposit(ctx, 3333.333)
	require.NoError(t, err)
	l.ToggleAutoReinvest(ctx)
	for i := 0; i < 7; i++ {
		clock.Advance(Day + 7*time.Hour)
		w := l.Read(ctx)
		for _, v := range []float64{w.Balance, w.Invested, w.Earnings, w.TotalWithdrawn} {
			assert.InDelta(t, math.Round(v*100)/100, v, 1e-9)
		}
	}
}

func TestLedger_SubscribersAreNotified(t *testing.T) {
	l, _, _ := newLedger(t)
	ctx := context.Background()

	var got []Snapshot
	cancel := l.Subscribe(func(s Snapshot) { got = append(got, s) })

	_, err := l.Deposit(ctx, 500)
	require.NoError(t, err)
	_, err = l.Withdraw(ctx, 1)
	require.Error(t, err)
	l.ToggleAutoReinvest(ctx)

	require.Len(t, got, 2, "rejected operations do not notify")
	assert.Equal(t, 500.0, got[0].Wallet.Invested)
	assert.Len(t, got[0].Transactions, 1)
	assert.True(t, got[1].Wallet.AutoReinvest)
	assert.Len(t, got[1].Transactions, 1)

	cancel()
	cancel()
	_, err = l.Deposit(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestLedger_SubscriberMayReadBack(t *testing.T) {
	l, _, _ := newLedger(t)
	ctx := context.Background()

	var invested float64
	l.Subscribe(func(Snapshot) { invested = l.Read(ctx).Invested })

	_, err := l.Deposit(ctx, 250)
	require.NoError(t, err)
	assert.Equal(t, 250.0, invested)
}

func TestLedger_StorageFailuresAreSwallowed(t *testing.T) {
	store := &flakyStore{MemoryStore: storage.NewMemoryStore()}
	clock := &fakeClock{t: base}
	l := New(store, WithClock(clock.Now), WithLogger(quietLogger()))
	ctx := context.Background()

	_, err := l.Deposit(ctx, 1000)
	require.NoError(t, err)

	store.broken = true
	w, err := l.Deposit(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, w.Invested, "in-memory state moves on")
	assert.Equal(t, 1500.0, l.Read(ctx).Invested)
	assert.Len(t, l.Transactions(ctx), 2)

	var persisted domain.Wallet
	found, err := store.MemoryStore.Load(ctx, storage.WalletKey, &persisted)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1000.0, persisted.Invested)

	store.broken = false
	_, err = l.Deposit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1501.0, l.Read(ctx).Invested)
}

func TestLedger_CorruptRecordResetsToDefaults(t *testing.T) {
	l, store, _ := newLedger(t)
	store.Put(storage.WalletKey, []byte("}{"))

	w := l.Read(context.Background())
	assert.Equal(t, domain.NewWallet(base), w)
}

func TestLedger_MissingTimestampStartsNow(t *testing.T) {
	l, store, _ := newLedger(t)
	store.Put(storage.WalletKey, []byte(`{"invested":10000}`))

	w := l.Read(context.Background())
	assert.Equal(t, base.UnixMilli(), w.LastAccrual)
	assert.Equal(t, 0.0, w.Earnings)
}

func TestLedger_Summarize(t *testing.T) {
	l, _, _ := newLedger(t)

	s := l.Summarize(domain.Wallet{Invested: 20000, Balance: 2000})
	assert.Equal(t, 22000.0, s.Total)
	assert.Equal(t, 10.0, s.Growth)
	assert.Equal(t, 320.0, s.DailyIncome)
	assert.Equal(t, 3, s.Level.Current.ID)

	empty := l.Summarize(domain.Wallet{})
	assert.Equal(t, 0.0, empty.Growth)
	assert.Equal(t, 0.0, empty.DailyIncome)
}

func TestLedger_ConcurrentDeposits(t *testing.T) {
	l, _, _ := newLedger(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.Deposit(ctx, 10)
		}()
	}
	wg.Wait()

	assert.Equal(t, 200.0, l.Read(ctx).Invested)
	assert.Len(t, l.Transactions(ctx), 20)
}
