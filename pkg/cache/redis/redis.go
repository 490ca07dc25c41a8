package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/nappernick/mcp-wrapper/pkg/cache"

	"github.com/redis/go-redis/v9"
)

var _ cache.Provider = (*Provider)(nil)

// Provider stores values in redis with a per-provider TTL.
type Provider struct {
	ttl time.Duration

	client *redis.Client
}

func New(url string, ttl time.Duration) (*Provider, error) {
	opts, err := redis.ParseURL(url)

	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	return &Provider{
		ttl: ttl,

		client: redis.NewClient(opts),
	}, nil
}

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := p.client.Get(ctx, key).Bytes()

	if err == redis.Nil {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	return val, true, nil
}

func (p *Provider) Set(ctx context.Context, key string, value []byte) error {
	return p.client.Set(ctx, key, value, p.ttl).Err()
}

func (p *Provider) Close() error {
	return p.client.Close()
}
