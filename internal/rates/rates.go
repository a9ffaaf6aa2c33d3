// Package rates keeps the RUB price of one USDT. The price is informational:
// every failure falls back to the last known or the default rate
package rates

import (
	"context"                    // Context for the price request
	"fmt"                        // Error wrapping
	"investbot/internal/storage" // Snapshot persistence
	"io"                         // Response body
	"math"                       // Finite checks
	"net/http"                   // Price API client
	"sync"                       // Cache lock
	"time"                       // TTL

	"github.com/sirupsen/logrus"     // Logging library
	"github.com/tidwall/gjson"       // Response field extraction
	"golang.org/x/sync/singleflight" // One request per refresh burst
)

// Provider defaults
const (
	// CoinGecko USDT/RUB
	DefaultURL = "https://api.coingecko.com/api/v3/simple/price?ids=tether&vs_currencies=rub"

	DefaultRate = 95.0            // Used until the first successful fetch
	DefaultTTL  = 5 * time.Minute // Cache lifetime
)

// Snapshot is the persisted form of the rate
type Snapshot struct {
	Rate float64 `json:"rate"` // RUB per USDT
	TS   int64   `json:"ts"`   // Unix ms of the fetch
}

// Config configures a Provider. Zero values fall back to the defaults above
type Config struct {
	URL      string             // Price API endpoint
	Fallback float64            // Rate used before any fetch
	TTL      time.Duration      // Cache lifetime
	Client   *http.Client       // HTTP client, 10s timeout by default
	Now      func() time.Time   // Clock
	Logger   logrus.FieldLogger // Logger
}

// Provider serves the cached rate and refreshes it from the price API
type Provider struct {
	store    storage.Store
	url      string
	fallback float64
	ttl      time.Duration
	client   *http.Client
	now      func() time.Time
	log      logrus.FieldLogger
	group    singleflight.Group // Deduplicates concurrent refreshes

	mu   sync.RWMutex
	snap Snapshot // Zero until seeded or fetched

	subMu sync.Mutex
	subs  []func(float64)
}

// New returns a Provider seeded from the snapshot in store, if any
func New(ctx context.Context, store storage.Store, cfg Config) *Provider {
	p := &Provider{
		store:    store,
		url:      cfg.URL,
		fallback: cfg.Fallback,
		ttl:      cfg.TTL,
		client:   cfg.Client,
		now:      cfg.Now,
		log:      cfg.Logger,
	}
	if p.url == "" {
		p.url = DefaultURL
	}
	if !valid(p.fallback) {
		p.fallback = DefaultRate
	}
	if p.ttl <= 0 {
		p.ttl = DefaultTTL
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: 10 * time.Second}
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.log == nil {
		p.log = logrus.StandardLogger()
	}

	var snap Snapshot
	found, err := store.Load(ctx, storage.RateKey, &snap)
	if err != nil {
		p.log.WithError(err).Warn("Rate snapshot read failed")
	}
	if found && valid(snap.Rate) {
		p.snap = snap
	}
	return p
}

// Current returns the cached rate without touching the network
func (p *Provider) Current() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentLocked()
}

// Snapshot returns the cached rate and the time it was fetched. TS is zero when
// the rate has never been fetched
func (p *Provider) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Snapshot{Rate: p.currentLocked(), TS: p.snap.TS}
}

// currentLocked expects p.mu held
func (p *Provider) currentLocked() float64 {
	if valid(p.snap.Rate) {
		return p.snap.Rate
	}
	return p.fallback
}

// Refresh fetches a new rate when the cached one is older than the TTL, or
// always when force is set. Concurrent callers share one request. It never
// fails; on any error the current rate is returned
func (p *Provider) Refresh(ctx context.Context, force bool) float64 {
	p.mu.RLock()
	fresh := p.snap.TS != 0 && p.now().Sub(time.UnixMilli(p.snap.TS)) < p.ttl
	p.mu.RUnlock()
	if fresh && !force {
		return p.Current()
	}

	v, _, _ := p.group.Do("refresh", func() (any, error) {
		rate, err := p.fetch(ctx)
		if err != nil {
			p.log.WithError(err).Debug("Rate refresh failed, keeping current rate")
			return p.Current(), nil
		}
		p.set(ctx, rate)
		return rate, nil
	})
	return v.(float64)
}

// Subscribe registers fn to be called with every newly fetched rate
func (p *Provider) Subscribe(fn func(float64)) {
	p.subMu.Lock()
	p.subs = append(p.subs, fn)
	p.subMu.Unlock()
}

// fetch asks the price API for a new rate
func (p *Provider) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return 0, fmt.Errorf("build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("rate request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate request: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return 0, fmt.Errorf("read rate response: %w", err)
	}
	res := gjson.GetBytes(body, "tether.rub") // {"tether":{"rub":97.3}}
	if res.Type != gjson.Number || !valid(res.Float()) {
		return 0, fmt.Errorf("invalid rate in response: %q", res.Raw)
	}
	return res.Float(), nil
}

// set caches and persists rate, then notifies subscribers
func (p *Provider) set(ctx context.Context, rate float64) {
	snap := Snapshot{Rate: rate, TS: p.now().UnixMilli()}
	p.mu.Lock()
	p.snap = snap
	p.mu.Unlock()

	if err := p.store.Save(ctx, storage.RateKey, snap); err != nil {
		p.log.WithError(err).Warn("Rate snapshot write failed")
	}

	p.subMu.Lock()
	subs := append([]func(float64){}, p.subs...) // Called without the lock
	p.subMu.Unlock()
	for _, fn := range subs {
		fn(rate)
	}
}

// valid reports whether rate is a usable price
func valid(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}
