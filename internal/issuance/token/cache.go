package token

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"medcred/internal/platform/metrics"
	dErrors "medcred/pkg/domain-errors"
)

// CachingProvider serves a cached token until skew before its expiry.
// Concurrent misses share one upstream call; failures are not cached.
type CachingProvider struct {
	next    Provider
	skew    time.Duration
	now     func() time.Time
	metrics *metrics.Metrics

	group singleflight.Group
	mu    sync.RWMutex
	cur   AccessToken
}

type CacheOption func(*CachingProvider)

func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *CachingProvider) { c.now = now }
}

func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *CachingProvider) { c.metrics = m }
}

func NewCachingProvider(next Provider, skew time.Duration, opts ...CacheOption) *CachingProvider {
	c := &CachingProvider{next: next, skew: skew, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachingProvider) Token(ctx context.Context) (AccessToken, error) {
	if tok, ok := c.cached(); ok {
		c.metrics.RecordTokenCache(true)
		return tok, nil
	}
	c.metrics.RecordTokenCache(false)

	// The shared call must not die with whichever caller happened to start it.
	ch := c.group.DoChan("token", func() (any, error) {
		if tok, ok := c.cached(); ok {
			return tok, nil
		}
		tok, err := c.next.Token(context.WithoutCancel(ctx))
		if err != nil {
			return AccessToken{}, err
		}
		c.mu.Lock()
		c.cur = tok
		c.mu.Unlock()
		return tok, nil
	})

	select {
	case <-ctx.Done():
		return AccessToken{}, &dErrors.Error{Code: dErrors.CodeUpstreamTimeout, Message: "waiting for access token", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return AccessToken{}, res.Err
		}
		return res.Val.(AccessToken), nil
	}
}

// Invalidate drops the cached token, e.g. after the issuance API rejects it.
func (c *CachingProvider) Invalidate() {
	c.mu.Lock()
	c.cur = AccessToken{}
	c.mu.Unlock()
}

func (c *CachingProvider) cached() (AccessToken, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cur.FreshAt(c.now(), c.skew) {
		return c.cur, true
	}
	return AccessToken{}, false
}
