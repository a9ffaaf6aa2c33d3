package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLevel_Boundary(t *testing.T) {
	info := DefaultRateTable().ResolveLevel(5000)

	assert.Equal(t, 5000.0, info.Current.MinInvested)
	assert.Equal(t, 1.4, info.Current.DailyRate)
	require.NotNil(t, info.Next)
	assert.Equal(t, 20000.0, info.Next.MinInvested)
	assert.Equal(t, 0.0, info.Progress)
	assert.Equal(t, 15000.0, info.Remaining)
}

func TestResolveLevel_Table(t *testing.T) {
	tests := []struct {
		name     string
		invested float64
		wantID   int
		wantNext float64
		progress float64
	}{
		{"zero", 0, 1, 5000, 0},
		{"halfway to level 2", 2500, 1, 5000, 50},
		{"just below level 3", 19999.99, 2, 20000, 99.99993333333333},
		{"level 4 quarter", 62500, 4, 100000, 25},
	}
	table := DefaultRateTable()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := table.ResolveLevel(tt.invested)
			assert.Equal(t, tt.wantID, info.Current.ID)
			require.NotNil(t, info.Next)
			assert.Equal(t, tt.wantNext, info.Next.MinInvested)
			assert.InDelta(t, tt.progress, info.Progress, 1e-9)
		})
	}
}

func TestResolveLevel_TopTier(t *testing.T) {
	for _, invested := range []float64{100000, 2_500_000} {
		info := DefaultRateTable().ResolveLevel(invested)
		assert.Equal(t, 5, info.Current.ID)
		assert.Nil(t, info.Next)
		assert.Equal(t, 100.0, info.Progress)
		assert.Equal(t, 0.0, info.Remaining)
	}
}

func TestResolveLevel_NegativeStaysOnFloor(t *testing.T) {
	info := DefaultRateTable().ResolveLevel(-10)
	assert.Equal(t, 1, info.Current.ID)
	require.NotNil(t, info.Next)
	assert.Equal(t, 2, info.Next.ID)
	assert.Equal(t, 0.0, info.Progress)
	assert.Equal(t, 5010.0, info.Remaining)
}

func TestResolveLevel_EmptyTable(t *testing.T) {
	info := RateTable{}.ResolveLevel(100)
	assert.Nil(t, info.Next)
	assert.Equal(t, 100.0, info.Progress)
}

func TestPrependTransaction_CapsAtMax(t *testing.T) {
	var log []Transaction
	for i := 0; i < 30; i++ {
		log = PrependTransaction(log, Transaction{ID: string(rune('a' + i)), Amount: float64(i + 1)})
	}
	require.Len(t, log, MaxTransactions)
	assert.Equal(t, 30.0, log[0].Amount)
	assert.Equal(t, 6.0, log[MaxTransactions-1].Amount)
}
