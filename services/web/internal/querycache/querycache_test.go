package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetCachesWithinStaleTime(t *testing.T) {
	c := New(nil)
	var calls atomic.Int32
	load := func(context.Context) (string, error) {
		calls.Add(1)
		return "alice", nil
	}
	key := Key{Session: "s1", Kind: CurrentUser}
	for i := 0; i < 3; i++ {
		got, err := Get(context.Background(), c, key, load)
		if err != nil || got != "alice" {
			t.Fatalf("unexpected %q %v", got, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one load, got %d", calls.Load())
	}
}

func TestGetWithoutStaleTimeAlwaysLoads(t *testing.T) {
	c := New(nil)
	var calls atomic.Int32
	load := func(context.Context) (int, error) { return int(calls.Add(1)), nil }
	key := Key{Session: "s1", Kind: Documents}
	_, _ = Get(context.Background(), c, key, load)
	got, _ := Get(context.Background(), c, key, load)
	if got != 2 {
		t.Fatalf("expected fresh load, got %d", got)
	}
}

func TestGetExpires(t *testing.T) {
	c := New(map[Kind]time.Duration{ChatSuggestions: 20 * time.Millisecond})
	var calls atomic.Int32
	load := func(context.Context) (int, error) { return int(calls.Add(1)), nil }
	key := Key{Session: "s1", Kind: ChatSuggestions, ID: "0"}
	_, _ = Get(context.Background(), c, key, load)
	time.Sleep(40 * time.Millisecond)
	got, _ := Get(context.Background(), c, key, load)
	if got != 2 {
		t.Fatalf("expected reload after stale time, got %d", got)
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	c := New(nil)
	key := Key{Session: "s1", Kind: DocumentAnalysis, ID: "7"}
	fail := true
	load := func(context.Context) (string, error) {
		if fail {
			return "", errors.New("backend down")
		}
		return "ok", nil
	}
	if _, err := Get(context.Background(), c, key, load); err == nil {
		t.Fatal("expected error")
	}
	fail = false
	if got, err := Get(context.Background(), c, key, load); err != nil || got != "ok" {
		t.Fatalf("unexpected %q %v", got, err)
	}
}

func TestInvalidateIsScopedBySessionAndKind(t *testing.T) {
	c := New(nil)
	c.Set(Key{Session: "s1", Kind: DocumentAnalysis, ID: "7"}, "a7")
	c.Set(Key{Session: "s1", Kind: DocumentAnalysis, ID: "8"}, "a8")
	c.Set(Key{Session: "s1", Kind: CurrentUser}, "u1")
	c.Set(Key{Session: "s2", Kind: DocumentAnalysis, ID: "7"}, "other")

	c.Invalidate("s1", DocumentAnalysis)

	miss := func(context.Context) (string, error) { return "reloaded", nil }
	if got, _ := Get(context.Background(), c, Key{Session: "s1", Kind: DocumentAnalysis, ID: "7"}, miss); got != "reloaded" {
		t.Fatalf("s1 analysis should be invalidated, got %q", got)
	}
	if got, _ := Get(context.Background(), c, Key{Session: "s1", Kind: CurrentUser}, miss); got != "u1" {
		t.Fatalf("other kinds must survive, got %q", got)
	}
	if got, _ := Get(context.Background(), c, Key{Session: "s2", Kind: DocumentAnalysis, ID: "7"}, miss); got != "other" {
		t.Fatalf("other sessions must survive, got %q", got)
	}

	c.Forget("s2")
	if got, _ := Get(context.Background(), c, Key{Session: "s2", Kind: DocumentAnalysis, ID: "7"}, miss); got != "reloaded" {
		t.Fatalf("forgotten session should reload, got %q", got)
	}
}

func TestConcurrentLoadsShareOneCall(t *testing.T) {
	c := New(nil)
	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "user", nil
	}
	key := Key{Session: "s1", Kind: CurrentUser}
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Get(context.Background(), c, key, load)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	if calls.Load() != 1 {
		t.Fatalf("expected one load, got %d", calls.Load())
	}
}

func TestCanceledCallerDoesNotFailSharedLoad(t *testing.T) {
	c := New(nil)
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32
	load := func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		select {
		case <-release:
			return "analysis", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	key := Key{Session: "s1", Kind: DocumentAnalysis, ID: "7"}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := Get(firstCtx, c, key, load)
		firstErr <- err
	}()
	<-started

	second := make(chan string, 1)
	go func() {
		got, _ := Get(context.Background(), c, key, load)
		second <- got
	}()
	// let the second caller join the in-flight load
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled caller expected context.Canceled, got %v", err)
	}
	close(release)

	select {
	case got := <-second:
		if got != "analysis" {
			t.Fatalf("waiting caller got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiting caller never returned")
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected one shared load, got %d", n)
	}
}

func TestSharedLoadIsBounded(t *testing.T) {
	c := New(nil)
	c.loadTimeout = 20 * time.Millisecond
	_, err := Get(context.Background(), c, Key{Session: "s1", Kind: CurrentUser}, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
