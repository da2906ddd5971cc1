package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/macrolens/foodengine/internal/domain"
)

// Lookup outcomes reported to an Observer
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// Observer is told the outcome of every lookup
type Observer interface {
	ObserveLookup(outcome string)
}

// ReadThrough fronts a CacheStore. Concurrent misses on one key share a
// single computation; errors and empty values are never stored; store
// failures are logged and the value is computed as if uncached.
type ReadThrough struct {
	store    domain.CacheStore
	ttl      time.Duration
	group    singleflight.Group
	observer Observer
	debug    bool
}

// NewReadThrough wraps store with entries living ttl
func NewReadThrough(store domain.CacheStore, ttl time.Duration) *ReadThrough {
	return &ReadThrough{store: store, ttl: ttl}
}

// SetObserver registers o for lookup outcomes
func (rt *ReadThrough) SetObserver(o Observer) {
	rt.observer = o
}

// SetDebug enables hit/miss logging
func (rt *ReadThrough) SetDebug(debug bool) {
	rt.debug = debug
}

// TTL returns the lifetime of stored entries
func (rt *ReadThrough) TTL() time.Duration {
	return rt.ttl
}

// GetOrCompute returns the cached value for key, or runs compute once for
// all concurrent callers and stores a non-empty result. cached reports
// whether the value came from the store.
//
// The shared computation is detached from the caller's cancellation, so a
// caller that goes away does not fail the others waiting on the same key.
func GetOrCompute[T any](ctx context.Context, rt *ReadThrough, key string, compute func(context.Context) (T, error), isEmpty func(T) bool) (value T, cached bool, err error) {
	storeHealthy := true

	data, err := rt.store.Get(ctx, key)
	switch {
	case err == nil:
		if value, ok := decode[T](key, data); ok {
			rt.observe(OutcomeHit)
			if rt.debug {
				log.Printf("[CACHE] hit %s", key)
			}
			return value, true, nil
		}
		rt.observe(OutcomeMiss)
	case errors.Is(err, domain.ErrCacheMiss):
		rt.observe(OutcomeMiss)
		if rt.debug {
			log.Printf("[CACHE] miss %s", key)
		}
	default:
		storeHealthy = false
		rt.observe(OutcomeError)
		log.Printf("[CACHE] %v", &domain.CacheError{Op: "get", Key: key, Err: err})
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := rt.group.DoChan(key, func() (interface{}, error) {
		// a flight that finished between our lookup and joining the group
		// has already stored the value
		if storeHealthy {
			if data, err := rt.store.Get(flightCtx, key); err == nil {
				if value, ok := decode[T](key, data); ok {
					return flight[T]{value: value, cached: true}, nil
				}
			}
		}

		computed, err := compute(flightCtx)
		if err != nil {
			return nil, err
		}
		if storeHealthy && !isEmpty(computed) {
			rt.put(flightCtx, key, computed)
		}
		return flight[T]{value: computed}, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, false, res.Err
		}
		f := res.Val.(flight[T])
		return f.value, f.cached, nil
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

type flight[T any] struct {
	value  T
	cached bool
}

// decode reads a stored entry. A corrupt entry is logged and treated as a
// miss.
func decode[T any](key string, data []byte) (T, bool) {
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		log.Printf("[CACHE] %v", &domain.CacheError{Op: "decode", Key: key, Err: err})
		return value, false
	}
	return value, true
}

func (rt *ReadThrough) put(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[CACHE] %v", &domain.CacheError{Op: "encode", Key: key, Err: err})
		return
	}
	if err := rt.store.Set(ctx, key, data, rt.ttl); err != nil {
		log.Printf("[CACHE] %v", &domain.CacheError{Op: "set", Key: key, Err: err})
	}
}

func (rt *ReadThrough) observe(outcome string) {
	if rt.observer != nil {
		rt.observer.ObserveLookup(outcome)
	}
}
