package memory

import (
	"context"
	"sync"
	"time"

	"github.com/nappernick/mcp-wrapper/pkg/cache"
)

var _ cache.Provider = (*Provider)(nil)

type entry struct {
	value   []byte
	expires time.Time
}

// Provider is an in-process cache. Expired entries are dropped lazily on
// read.
type Provider struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]entry
}

func New(ttl time.Duration) *Provider {
	return &Provider{
		ttl: ttl,

		entries: map[string]entry{},
	}
}

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[key]

	if !ok {
		return nil, false, nil
	}

	if !e.expires.IsZero() && time.Now().After(e.expires) {
		delete(p.entries, key)
		return nil, false, nil
	}

	return e.value, true, nil
}

func (p *Provider) Set(ctx context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := entry{
		value: value,
	}

	if p.ttl > 0 {
		e.expires = time.Now().Add(p.ttl)
	}

	p.entries[key] = e

	return nil
}
