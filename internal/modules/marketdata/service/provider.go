package service

import (
	"context"
	"sync"
	"time"

	"captrader/internal/models"
	capital "captrader/internal/modules/capital/service"
	"captrader/internal/modules/config"
)

type cacheEntry struct {
	history   *models.PriceHistory
	fetchedAt time.Time
}

// Provider is a fetch-through cache of recent price history per symbol.
// The short TTL bounds the request rate against the broker; the streamer
// (when enabled) appends live quotes into the same entries between
// refreshes.
type Provider struct {
	broker capital.Broker
	ttl    time.Duration
	size   int

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

func NewProvider(cfg *config.Config, broker capital.Broker) *Provider {
	return &Provider{
		broker:  broker,
		ttl:     cfg.Cache.PriceTTL,
		size:    cfg.Strategy.HistorySize,
		entries: make(map[string]*cacheEntry),
	}
}

func (p *Provider) History(ctx context.Context, symbol string) (*models.PriceHistory, error) {
	p.mu.Lock()
	entry, ok := p.entries[symbol]
	if ok && time.Since(entry.fetchedAt) < p.ttl {
		h := entry.history
		p.mu.Unlock()
		return h, nil
	}
	p.mu.Unlock()

	history, err := p.broker.GetPrices(ctx, symbol, p.size)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.entries[symbol] = &cacheEntry{history: history, fetchedAt: time.Now()}
	p.mu.Unlock()
	return history, nil
}

// AppendLive feeds a streamed quote into the cached history for a symbol.
// Quotes for symbols never fetched are dropped; the next polled refresh
// rebuilds the series anyway.
func (p *Provider) AppendLive(symbol string, q models.PriceQuote) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if entry, ok := p.entries[symbol]; ok {
		entry.history.Append(q)
	}
}
