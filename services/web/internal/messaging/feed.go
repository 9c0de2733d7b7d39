// Package messaging keeps direct-message views current by polling the backend.
package messaging

import (
	"context"
	"sync"
	"time"

	"qanunai/internal/util"
)

// FetchFunc loads one snapshot of a feed.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Feed polls a fetch function on a fixed interval and keeps the latest
// snapshot. A failed poll keeps the previous snapshot and records the error.
type Feed[T any] struct {
	name     string
	interval time.Duration
	fetch    FetchFunc[T]

	mu        sync.RWMutex
	latest    T
	fetchedAt time.Time
	err       error

	poke   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// NewFeed builds a stopped feed.
func NewFeed[T any](name string, interval time.Duration, fetch FetchFunc[T]) *Feed[T] {
	return &Feed[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		poke:     make(chan struct{}, 1),
	}
}

// Start polls every interval until ctx ends or Stop is called. A feed that
// has never been fetched polls immediately.
func (f *Feed[T]) Start(ctx context.Context) {
	f.mu.Lock()
	if f.cancel != nil {
		f.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})
	done := f.done
	f.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		if f.FetchedAt().IsZero() {
			f.poll(ctx)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				f.poll(ctx)
			case <-f.poke:
				f.poll(ctx)
				ticker.Reset(f.interval)
			}
		}
	}()
}

// Stop ends polling and waits for an in-flight poll to return.
func (f *Feed[T]) Stop() {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Poke asks a running feed to poll now. It never blocks.
func (f *Feed[T]) Poke() {
	select {
	case f.poke <- struct{}{}:
	default:
	}
}

// Refresh polls synchronously and returns the new snapshot.
func (f *Feed[T]) Refresh(ctx context.Context) (T, error) {
	f.poll(ctx)
	return f.Latest()
}

// Latest returns the last successful snapshot and the error of the last poll, if any.
func (f *Feed[T]) Latest() (T, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.latest, f.err
}

// FetchedAt is the time of the last successful poll.
func (f *Feed[T]) FetchedAt() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fetchedAt
}

func (f *Feed[T]) poll(ctx context.Context) {
	value, err := f.fetch(ctx)
	if ctx.Err() != nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.err = err
		util.LoggerFromContext(ctx).Debug("feed poll failed", "feed", f.name, "error", err)
		return
	}
	f.latest = value
	f.fetchedAt = time.Now()
	f.err = nil
}
