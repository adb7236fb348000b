package assistant

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"kai/internal/observability"
	"kai/internal/reminder"
)

const (
	defaultPendingSize = 1024
	defaultPendingTTL  = 15 * time.Minute
)

// draft is a low-confidence parse waiting for the user to confirm it.
type draft struct {
	parsed       *reminder.ParsedReminder
	originalText string
	storedAt     time.Time
}

// pendingDrafts holds at most one draft per user. Entries expire after ttl
// and the least recently touched user is evicted when the cache is full.
type pendingDrafts struct {
	mu    sync.Mutex
	cache *lru.Cache[string, draft]
	ttl   time.Duration
}

func newPendingDrafts(size int, ttl time.Duration, metrics *observability.MetricsCollector) *pendingDrafts {
	if size <= 0 {
		size = defaultPendingSize
	}
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	cache, err := lru.NewWithEvict[string, draft](size, func(string, draft) {
		metrics.AdjustPending(context.Background(), -1)
	})
	if err != nil {
		// lru.NewWithEvict only errors on non-positive size which we guard above.
		panic(err)
	}
	return &pendingDrafts{cache: cache, ttl: ttl}
}

// put parks d for userID, replacing any earlier draft.
func (p *pendingDrafts) put(ctx context.Context, userID string, d draft, metrics *observability.MetricsCollector) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.cache.Peek(userID); !exists {
		metrics.AdjustPending(ctx, 1)
	}
	p.cache.Add(userID, d)
}

// peek returns the live draft for userID without consuming it.
func (p *pendingDrafts) peek(userID string, now time.Time) (draft, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.liveLocked(userID, now)
}

// take removes and returns the live draft for userID.
func (p *pendingDrafts) take(userID string, now time.Time) (draft, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.liveLocked(userID, now)
	if ok {
		p.cache.Remove(userID)
	}
	return d, ok
}

func (p *pendingDrafts) liveLocked(userID string, now time.Time) (draft, bool) {
	d, ok := p.cache.Get(userID)
	if !ok {
		return draft{}, false
	}
	if now.Sub(d.storedAt) >= p.ttl {
		p.cache.Remove(userID)
		return draft{}, false
	}
	return d, true
}

func (p *pendingDrafts) len() int {
	return p.cache.Len()
}
