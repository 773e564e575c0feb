// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/AleutianProve/services/prover/attr"
	"github.com/AleutianAI/AleutianProve/services/prover/backward"
	"github.com/AleutianAI/AleutianProve/services/prover/declstore"
	"github.com/AleutianAI/AleutianProve/services/prover/env"
)

// IndexSnapshot is one immutable build of the catalog: the loaded
// environment, the lemma index over it, and build identity.
type IndexSnapshot struct {
	Env     env.Environment
	Index   backward.Index
	BuildID string
	BuiltAt time.Time

	// Partial marks a build whose load skipped some items.
	Partial bool
}

// RegistryFactory builds the attribute registry a rebuild loads into.
// It runs once per build, so every build starts from clean attribute
// state.
type RegistryFactory func() (*attr.Registry, error)

func defaultRegistryFactory() (*attr.Registry, error) {
	reg := attr.NewRegistry()
	if err := backward.RegisterIntroAttr(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Rebuilder turns a snapshot directory into successive IndexSnapshots.
//
// # Description
//
// Rebuild calls collapse: concurrent callers share one build, and a
// rate limiter spaces successive builds so event storms cannot thrash
// the loader. Each successful build replaces the current snapshot and
// is fanned out to subscribers.
//
// # Thread Safety
//
// Safe for concurrent use.
type Rebuilder struct {
	dir     string
	factory RegistryFactory
	limiter *rate.Limiter

	group   singleflight.Group
	current atomic.Pointer[IndexSnapshot]

	mu      sync.Mutex
	subs    map[int]chan IndexSnapshot
	nextSub int
}

// RebuilderOption configures a Rebuilder.
type RebuilderOption func(*Rebuilder)

// WithRateLimit overrides the rebuild pacing.
func WithRateLimit(r rate.Limit, burst int) RebuilderOption {
	return func(rb *Rebuilder) { rb.limiter = rate.NewLimiter(r, burst) }
}

// WithRegistryFactory overrides how the attribute registry for each
// build is produced.
func WithRegistryFactory(f RegistryFactory) RebuilderOption {
	return func(rb *Rebuilder) { rb.factory = f }
}

// NewRebuilder creates a rebuilder over a snapshot directory. The
// default pacing allows one build per second with a burst of one.
func NewRebuilder(dir string, opts ...RebuilderOption) *Rebuilder {
	rb := &Rebuilder{
		dir:     dir,
		factory: defaultRegistryFactory,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		subs:    make(map[int]chan IndexSnapshot),
	}
	for _, opt := range opts {
		opt(rb)
	}
	return rb
}

// Current returns the latest snapshot, or nil before the first build.
func (rb *Rebuilder) Current() *IndexSnapshot {
	return rb.current.Load()
}

// Rebuild loads the directory and builds a fresh index snapshot.
// Concurrent calls share one build and get the same snapshot.
func (rb *Rebuilder) Rebuild(ctx context.Context) (*IndexSnapshot, error) {
	v, err, _ := rb.group.Do("rebuild", func() (interface{}, error) {
		return rb.build(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*IndexSnapshot), nil
}

func (rb *Rebuilder) build(ctx context.Context) (*IndexSnapshot, error) {
	if err := rb.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	start := time.Now()

	reg, err := rb.factory()
	if err != nil {
		return nil, fmt.Errorf("build attribute registry: %w", err)
	}

	partial := false
	e, err := declstore.LoadDir(ctx, rb.dir, reg)
	if err != nil {
		var batch *declstore.BatchError
		if !errors.As(err, &batch) {
			return nil, err
		}
		partial = true
		slog.Warn("Snapshot load skipped some items",
			"dir", rb.dir,
			"failures", len(batch.Errs),
			"first", batch.Errs[0])
	}

	idx, err := backward.Build(ctx, e, reg, env.NewCoreElaborator(e))
	if err != nil {
		return nil, err
	}

	snap := &IndexSnapshot{
		Env:     e,
		Index:   idx,
		BuildID: uuid.NewString(),
		BuiltAt: time.Now(),
		Partial: partial,
	}
	rb.current.Store(snap)
	rb.publish(*snap)

	slog.Info("Rebuilt lemma index",
		"build_id", snap.BuildID,
		"declarations", e.Len(),
		"lemmas", idx.Len(),
		"partial", partial,
		"duration", time.Since(start))
	return snap, nil
}

// Subscribe registers for future snapshots. The returned cancel
// function closes the channel; slow subscribers miss intermediate
// snapshots rather than blocking a build.
func (rb *Rebuilder) Subscribe() (<-chan IndexSnapshot, func()) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	id := rb.nextSub
	rb.nextSub++
	ch := make(chan IndexSnapshot, 1)
	rb.subs[id] = ch

	cancel := func() {
		rb.mu.Lock()
		defer rb.mu.Unlock()
		if sub, ok := rb.subs[id]; ok {
			delete(rb.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// publish fans a snapshot out without blocking on any subscriber.
func (rb *Rebuilder) publish(snap IndexSnapshot) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for _, ch := range rb.subs {
		select {
		case ch <- snap:
		default:
			// Drain the stale snapshot, then offer the new one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Handler returns a change handler that triggers a rebuild per batch.
// The context bounds rebuilds started after the handler fires.
func (rb *Rebuilder) Handler(ctx context.Context) Handler {
	return func(changes []Change) {
		slog.Info("Snapshot changes detected", "count", len(changes))
		go func() {
			if _, err := rb.Rebuild(ctx); err != nil {
				slog.Error("Rebuild after snapshot change failed", "error", err)
			}
		}()
	}
}

// Watch wires a Watcher over the rebuilder's directory and starts it.
// The caller owns the returned watcher and must Stop it.
func (rb *Rebuilder) Watch(ctx context.Context, opts *Options) (*Watcher, error) {
	w, err := NewWatcher(rb.dir, rb.Handler(ctx), opts)
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}
