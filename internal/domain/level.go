package domain

import "fmt" // Display names

// Tier is a yield bracket keyed by the minimum invested amount
type Tier struct {
	ID          int     `json:"id"`   // Tier number, 1-based
	DisplayName string  `json:"name"` // Label shown to the user
	MinInvested float64 `json:"min"`  // Inclusive threshold
	DailyRate   float64 `json:"rate"` // Daily interest in percent
}

// LevelInfo is derived from the invested amount and never stored
type LevelInfo struct {
	Current   Tier    `json:"current"`   // Active tier
	Next      *Tier   `json:"next"`      // Next tier, nil at the top
	Progress  float64 `json:"progress"`  // 0..100 toward Next
	Remaining float64 `json:"remaining"` // Amount still needed to reach Next
}

// RateTable is an ordered list of tiers, ascending by MinInvested
type RateTable []Tier

// DefaultRateTable returns the five production tiers
func DefaultRateTable() RateTable {
	mins := []float64{0, 5_000, 20_000, 50_000, 100_000} // Thresholds
	rates := []float64{1.2, 1.4, 1.6, 1.8, 2.0}          // Daily percent per threshold
	table := make(RateTable, len(mins))
	for i := range mins {
		table[i] = Tier{
			ID:          i + 1,
			DisplayName: fmt.Sprintf("Level %d", i+1),
			MinInvested: mins[i],
			DailyRate:   rates[i],
		}
	}
	return table
}

// ResolveLevel finds the active tier for invested along with progress toward the next one.
// The first tier is the floor and matches any amount below the second threshold
func (t RateTable) ResolveLevel(invested float64) LevelInfo {
	if len(t) == 0 {
		return LevelInfo{Progress: 100}
	}
	idx := 0 // Floor tier unless a higher threshold is reached
	for i := range t {
		if invested >= t[i].MinInvested {
			idx = i // Greatest threshold not above invested
		}
	}
	current := t[idx]
	var next *Tier
	if idx+1 < len(t) {
		tier := t[idx+1]
		next = &tier // Tier right after the current one
	}
	info := LevelInfo{Current: current, Next: next, Progress: 100}
	if next == nil {
		return info
	}
	info.Remaining = max(0, next.MinInvested-invested)
	span := next.MinInvested - current.MinInvested
	if span > 0 {
		info.Progress = clamp((invested-current.MinInvested)/span*100, 0, 100)
	}
	return info
}

// DailyRateFor returns the daily percent of the tier that invested falls into
func (t RateTable) DailyRateFor(invested float64) float64 {
	return t.ResolveLevel(invested).Current.DailyRate
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
