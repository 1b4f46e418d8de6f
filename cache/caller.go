package cache

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
	"k8s.io/klog/v2"
)

// DefaultMaxRetry is the number of retries after the first failed attempt.
const DefaultMaxRetry = 5

// Caller runs calls to an external service through a FIFO cache: results are cached by key, concurrent
// calls for the same key are collapsed into one, and failed calls are retried.
type Caller[V any] struct {
	// Name used in logs.
	Name string

	// MaxRetry is the number of retries after a failed attempt.
	MaxRetry int

	// OnRetry, if set, is called before each retry, typically to reset a network session.
	OnRetry func()

	cache *FIFO[V]
	group singleflight.Group
}

// NewCaller creates a Caller with a cache of the given capacity and DefaultMaxRetry retries.
func NewCaller[V any](name string, capacity int) (*Caller[V], error) {
	c, err := NewFIFO[V](capacity)
	if err != nil {
		return nil, errors.WithMessagef(err, "caller %q", name)
	}
	return &Caller[V]{Name: name, MaxRetry: DefaultMaxRetry, cache: c}, nil
}

// Cache used by the caller.
func (c *Caller[V]) Cache() *FIFO[V] { return c.cache }

// Do returns the cached value for key, or calls fn, up to 1+MaxRetry times, until it succeeds.
//
// It returns ok=false if every attempt failed or ctx was cancelled: the failure is logged and nothing
// is cached, and callers should take it as "no result" rather than as a hard error.
//
// Concurrent callers of the same key share one call to fn, run with a context detached from the
// cancellation of the caller that started it. A caller whose ctx is done stops waiting, without
// affecting the others.
func (c *Caller[V]) Do(ctx context.Context, key string, fn func(ctx context.Context) (V, error)) (value V, ok bool) {
	if v, found := c.cache.Get(key); found {
		klog.V(2).Infof("%s: cache hit for %q", c.Name, key)
		return v, true
	}
	if err := ctx.Err(); err != nil {
		klog.Warningf("%s: no result for %q: %v", c.Name, key, err)
		return value, false
	}
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if v, found := c.cache.Get(key); found {
			return v, nil
		}
		v, err := c.attempt(flightCtx, key, fn)
		if err != nil {
			return nil, err
		}
		if c.cache.Put(key, v) {
			klog.V(2).Infof("%s: cache full, evicted oldest entry", c.Name)
		}
		return v, nil
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		klog.Warningf("%s: no result for %q: %v", c.Name, key, ctx.Err())
		return value, false
	case res = <-ch:
	}
	if res.Err != nil {
		klog.Warningf("%s: no result for %q: %v", c.Name, key, res.Err)
		return value, false
	}
	if res.Shared {
		klog.V(2).Infof("%s: shared result for %q", c.Name, key)
	}
	value, _ = res.Val.(V)
	return value, true
}

func (c *Caller[V]) attempt(ctx context.Context, key string, fn func(ctx context.Context) (V, error)) (V, error) {
	var lastErr error
	for retry := 0; retry <= c.MaxRetry; retry++ {
		if retry > 0 {
			klog.Errorf("%s: request for %q failed (retry %d/%d): %v", c.Name, key, retry, c.MaxRetry, lastErr)
			if c.OnRetry != nil {
				c.OnRetry()
			}
		}
		if err := ctx.Err(); err != nil {
			var zero V
			return zero, errors.Wrap(err, "cancelled")
		}
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	var zero V
	return zero, errors.WithMessagef(lastErr, "max retry (%d) exceeded", c.MaxRetry)
}
