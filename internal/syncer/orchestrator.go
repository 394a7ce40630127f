package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"wandergram/internal/common"
)

// The two generic cache-then-network strategies every repository composes.
// Emissions are strictly ordered cache-then-remote and every send honors
// ctx cancellation, so a caller can abandon the sequence at any emission
// boundary. Persisting a remote result is the source closure's job and
// happens before the result is emitted.

// Emission is a single result of a SyncOne sequence.
type Emission[T any] struct {
	Value     T
	Found     bool
	FromCache bool
	Err       error
}

// Page is a single result of a SyncPaged sequence.
type Page[T any] struct {
	Items     []T
	FromCache bool
	Err       error
}

// SingleSource parameterizes SyncOne for one entity.
type SingleSource[T any] struct {
	// GetCached reads the local row and classifies it against the entity TTL.
	GetCached func(ctx context.Context) (T, CacheState, error)
	// FetchRemote fetches, maps and persists the remote value, returning the
	// merged row. It must persist atomically before returning.
	FetchRemote func(ctx context.Context) (T, error)
}

// PagedSource parameterizes SyncPaged for one entity list view.
type PagedSource[T any] struct {
	// GetCached reads the local page; fresh reports whether the page is
	// recent enough to suppress the remote call.
	GetCached func(ctx context.Context) (items []T, fresh bool, err error)
	// FetchRemote fetches, maps and persists the remote page.
	FetchRemote func(ctx context.Context) ([]T, error)
}

// SyncOne serves the cached row first, then refreshes from remote when
// connectivity and freshness call for it. The caller always receives at
// least one emission unless the cache read itself fails.
func SyncOne[T any](ctx context.Context, probe common.ConnectivityProbe, src SingleSource[T]) <-chan Emission[T] {
	out := make(chan Emission[T], 2)
	go func() {
		defer close(out)

		cached, state, err := src.GetCached(ctx)
		if err != nil {
			send(ctx, out, Emission[T]{Err: fmt.Errorf("cache read failed: %w", err)})
			return
		}
		found := state != CacheMiss
		if !send(ctx, out, Emission[T]{Value: cached, Found: found, FromCache: true}) {
			return
		}
		if state == CacheFresh {
			return
		}
		if !probe.IsOnline() {
			return
		}

		remote, err := src.FetchRemote(ctx)
		if err != nil {
			if found {
				// The cached emission already served the caller.
				slog.Warn("background refresh failed", "error", err)
				return
			}
			send(ctx, out, Emission[T]{Err: err})
			return
		}
		send(ctx, out, Emission[T]{Value: remote, Found: true})
	}()
	return out
}

// SyncPaged serves the cached page first when online, or as the terminal
// emission when offline. A remote page supersedes the cache page; a failed
// refresh on top of a served cache page is swallowed.
func SyncPaged[T any](ctx context.Context, probe common.ConnectivityProbe, src PagedSource[T]) <-chan Page[T] {
	out := make(chan Page[T], 2)
	go func() {
		defer close(out)

		cached, fresh, err := src.GetCached(ctx)
		if err != nil {
			send(ctx, out, Page[T]{Items: []T{}, Err: fmt.Errorf("cache read failed: %w", err)})
			return
		}
		if !probe.IsOnline() {
			send(ctx, out, Page[T]{Items: cached, FromCache: true})
			return
		}
		if len(cached) > 0 {
			if !send(ctx, out, Page[T]{Items: cached, FromCache: true}) {
				return
			}
			if fresh {
				return
			}
		}

		remote, err := src.FetchRemote(ctx)
		if err != nil {
			if len(cached) == 0 {
				send(ctx, out, Page[T]{Items: []T{}, Err: err})
				return
			}
			slog.Warn("background page refresh failed", "error", err)
			return
		}
		if len(remote) > 0 {
			send(ctx, out, Page[T]{Items: remote})
			return
		}
		if len(cached) == 0 {
			send(ctx, out, Page[T]{Items: []T{}})
		}
	}()
	return out
}

// Latest drains a SyncOne sequence and returns the last emission. Intended
// for callers that do not render intermediate states.
func Latest[T any](ch <-chan Emission[T]) (Emission[T], bool) {
	var last Emission[T]
	got := false
	for e := range ch {
		last = e
		got = true
	}
	return last, got
}

// LatestPage drains a SyncPaged sequence and returns the last page.
func LatestPage[T any](ch <-chan Page[T]) (Page[T], bool) {
	var last Page[T]
	got := false
	for p := range ch {
		last = p
		got = true
	}
	return last, got
}

func send[T any](ctx context.Context, out chan<- T, v T) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
