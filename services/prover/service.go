// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package prover provides the Aleutian Prove HTTP service.
//
// The service exposes endpoints for:
//   - Opening proof sessions that extend the global lemma index with
//     local hypotheses by structural sharing
//   - Querying indexed lemmas by conclusion head
//   - Rebuilding the index from snapshot files, manually or via the
//     filesystem watcher
//   - Streaming rebuild and session events over a websocket
package prover

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/AleutianProve/services/prover/backward"
	"github.com/AleutianAI/AleutianProve/services/prover/config"
	"github.com/AleutianAI/AleutianProve/services/prover/env"
	"github.com/AleutianAI/AleutianProve/services/prover/expr"
	"github.com/AleutianAI/AleutianProve/services/prover/watch"
)

// ServiceConfig configures the prover service.
type ServiceConfig struct {
	// Host is the listen host. Default: 127.0.0.1
	Host string

	// Port is the HTTP server port. Default: 12270
	Port int

	// SnapshotDir is the directory holding *.json declaration
	// snapshots. Required.
	SnapshotDir string

	// WatchEnabled starts the filesystem watcher so snapshot edits
	// rebuild the index automatically. Default: true
	WatchEnabled bool

	// DebounceWindow batches rapid snapshot edits into one rebuild.
	// Default: 100ms
	DebounceWindow time.Duration

	// RebuildEvery paces successive rebuilds. Zero disables pacing.
	// Default: 1s
	RebuildEvery time.Duration

	// MaxSessions caps concurrently open proof sessions.
	// Default: 256
	MaxSessions int

	// GinMode sets the Gin framework mode: "debug", "release", "test".
	// Default: "release"
	GinMode string

	// EnableMetrics exposes the Prometheus /metrics endpoint.
	// Default: true
	EnableMetrics bool
}

// DefaultServiceConfig returns sensible defaults. SnapshotDir must
// still be set by the caller.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Host:           "127.0.0.1",
		Port:           12270,
		WatchEnabled:   true,
		DebounceWindow: 100 * time.Millisecond,
		RebuildEvery:   time.Second,
		MaxSessions:    256,
		GinMode:        "release",
		EnableMetrics:  true,
	}
}

// FromProveConfig maps the file configuration onto a ServiceConfig.
func FromProveConfig(fc config.ProveConfig) ServiceConfig {
	cfg := DefaultServiceConfig()
	cfg.Host = fc.Service.Host
	cfg.Port = fc.Service.Port
	cfg.GinMode = fc.Service.GinMode
	cfg.SnapshotDir = fc.Snapshots.Dir
	if fc.Snapshots.DebounceMS > 0 {
		cfg.DebounceWindow = time.Duration(fc.Snapshots.DebounceMS) * time.Millisecond
	}
	return cfg
}

// session is one proof attempt: the global index at open time plus the
// session's local hypotheses, extended by structural sharing.
type session struct {
	id        string
	createdAt time.Time
	buildID   string
	environ   env.Environment
	index     backward.Index
	elab      env.Elaborator
	hyps      map[string]expr.Expr
	order     []string
}

// Service is the prover service.
//
// Thread Safety:
//
//	Service is safe for concurrent use. The global snapshot is an
//	atomic pointer owned by the rebuilder; the session map is guarded
//	by an RWMutex. Session indexes are immutable values, so reads
//	never block rebuilds.
type Service struct {
	cfg       ServiceConfig
	rebuilder *watch.Rebuilder
	watcher   *watch.Watcher
	hub       *eventHub
	ready     atomic.Bool

	mu       sync.RWMutex
	sessions map[string]*session

	pumpCancel func()
}

// NewService creates the service. Start must be called before the
// service can answer queries.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.SnapshotDir == "" {
		return nil, fmt.Errorf("snapshot directory is required")
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultServiceConfig().MaxSessions
	}

	limit := rate.Inf
	if cfg.RebuildEvery > 0 {
		limit = rate.Every(cfg.RebuildEvery)
	}
	rb := watch.NewRebuilder(cfg.SnapshotDir, watch.WithRateLimit(limit, 1))

	return &Service{
		cfg:       cfg,
		rebuilder: rb,
		hub:       newEventHub(),
		sessions:  make(map[string]*session),
	}, nil
}

// Start runs the initial index build and, when enabled, the snapshot
// watcher. The service reports ready only after Start returns nil.
func (s *Service) Start(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.SnapshotDir, 0o750); err != nil {
		return fmt.Errorf("create snapshot dir %s: %w", s.cfg.SnapshotDir, err)
	}

	if _, err := s.rebuilder.Rebuild(ctx); err != nil {
		return fmt.Errorf("initial index build: %w", err)
	}

	if s.cfg.WatchEnabled {
		opts := watch.DefaultOptions()
		opts.DebounceWindow = s.cfg.DebounceWindow
		w, err := s.rebuilder.Watch(ctx, &opts)
		if err != nil {
			return fmt.Errorf("start snapshot watcher: %w", err)
		}
		s.watcher = w
	}

	snaps, cancel := s.rebuilder.Subscribe()
	s.pumpCancel = cancel
	go s.pumpRebuilds(snaps)

	s.ready.Store(true)
	slog.Info("Prover service started",
		"snapshot_dir", s.cfg.SnapshotDir,
		"watching", s.cfg.WatchEnabled)
	return nil
}

// Stop shuts down the watcher and event fanout. Open sessions stay
// readable until the process exits.
func (s *Service) Stop() {
	s.ready.Store(false)
	if s.watcher != nil {
		s.watcher.Stop()
	}
	if s.pumpCancel != nil {
		s.pumpCancel()
	}
	s.hub.close()
}

// pumpRebuilds forwards rebuilder snapshots into the event hub.
func (s *Service) pumpRebuilds(snaps <-chan watch.IndexSnapshot) {
	for snap := range snaps {
		s.hub.publish(Event{
			Type:    EventRebuild,
			Time:    snap.BuiltAt,
			BuildID: snap.BuildID,
			Lemmas:  snap.Index.Len(),
		})
	}
}

// Ready reports whether the first build has completed.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

// Snapshot returns the current global index snapshot, or nil before
// the first build.
func (s *Service) Snapshot() *watch.IndexSnapshot {
	return s.rebuilder.Current()
}

// Rebuild forces an index rebuild from the snapshot directory.
func (s *Service) Rebuild(ctx context.Context) (*RebuildResponse, error) {
	snap, err := s.rebuilder.Rebuild(ctx)
	if err != nil {
		return nil, err
	}
	return &RebuildResponse{
		BuildID:      snap.BuildID,
		BuiltAt:      snap.BuiltAt,
		Partial:      snap.Partial,
		Declarations: snap.Env.Len(),
		Lemmas:       snap.Index.Len(),
	}, nil
}

// CreateSession opens a proof session over the current global
// snapshot.
func (s *Service) CreateSession(ctx context.Context) (*SessionResponse, error) {
	snap := s.rebuilder.Current()
	if snap == nil {
		return nil, ErrNotReady
	}

	s.mu.Lock()
	if len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: limit %d", ErrTooManySessions, s.cfg.MaxSessions)
	}
	sess := &session{
		id:        uuid.NewString(),
		createdAt: time.Now(),
		buildID:   snap.BuildID,
		environ:   snap.Env,
		index:     snap.Index,
		elab:      env.NewCoreElaborator(snap.Env),
		hyps:      make(map[string]expr.Expr),
	}
	s.sessions[sess.id] = sess
	open := len(s.sessions)
	s.mu.Unlock()

	recordSessionChange(ctx, +1)
	s.hub.publish(Event{
		Type:      EventSessionCreated,
		Time:      sess.createdAt,
		SessionID: sess.id,
		BuildID:   sess.buildID,
	})
	slog.Info("Opened proof session",
		"session_id", sess.id,
		"build_id", sess.buildID,
		"open_sessions", open)

	return s.sessionResponse(sess), nil
}

// Session returns a session description.
func (s *Service) Session(id string) (*SessionResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.sessionResponse(sess), nil
}

// CloseSession discards a session. The global snapshot is unaffected.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	recordSessionChange(ctx, -1)
	s.hub.publish(Event{
		Type:      EventSessionClosed,
		Time:      time.Now(),
		SessionID: id,
	})
	return nil
}

// InsertHypothesis adds a local hypothesis to the session index. The
// hypothesis becomes retrievable under its conclusion head; a type
// with no head symbol is accepted but stays unindexed.
func (s *Service) InsertHypothesis(ctx context.Context, id, name string, typ expr.Expr) (*HypResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if _, dup := sess.hyps[name]; dup {
		return nil, fmt.Errorf("%w: %s", ErrHypothesisExists, name)
	}

	local := expr.NewLocal(expr.Name(name), typ)
	next, err := sess.index.Insert(ctx, sess.elab, local)
	if err != nil {
		return nil, fmt.Errorf("insert hypothesis %s: %w", name, err)
	}
	sess.index = next
	sess.hyps[name] = local
	sess.order = append(sess.order, name)

	recordHypothesisOp(ctx, "insert")
	resp := &HypResponse{
		SessionID:  id,
		Name:       name,
		Head:       headLabel(typ),
		LemmaCount: sess.index.Len(),
	}
	s.hub.publish(Event{
		Type:      EventHypInserted,
		Time:      time.Now(),
		SessionID: id,
		Name:      name,
	})
	return resp, nil
}

// EraseHypothesis removes a hypothesis inserted earlier, restoring the
// session's prior view.
func (s *Service) EraseHypothesis(ctx context.Context, id, name string) (*HypResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	local, ok := sess.hyps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHypothesisNotFound, name)
	}

	next, err := sess.index.Erase(ctx, sess.elab, local)
	if err != nil {
		return nil, fmt.Errorf("erase hypothesis %s: %w", name, err)
	}
	sess.index = next
	delete(sess.hyps, name)
	for i, n := range sess.order {
		if n == name {
			sess.order = append(sess.order[:i], sess.order[i+1:]...)
			break
		}
	}

	recordHypothesisOp(ctx, "erase")
	s.hub.publish(Event{
		Type:      EventHypErased,
		Time:      time.Now(),
		SessionID: id,
		Name:      name,
	})
	return &HypResponse{
		SessionID:  id,
		Name:       name,
		LemmaCount: sess.index.Len(),
	}, nil
}

// FindLemmas looks up lemmas whose conclusion head is the named
// constant, against the global snapshot or a session index.
func (s *Service) FindLemmas(ctx context.Context, sessionID, constName string) (*LemmasResponse, error) {
	idx, err := s.indexFor(sessionID)
	if err != nil {
		return nil, err
	}

	lemmas := idx.FindConst(ctx, expr.Name(constName))
	recordLemmaQuery(ctx, len(lemmas))

	resp := &LemmasResponse{
		Name:      constName,
		SessionID: sessionID,
		Lemmas:    make([]LemmaInfo, 0, len(lemmas)),
	}
	for _, l := range lemmas {
		info := LemmaInfo{Priority: l.Prio}
		if l.IsByName() {
			info.Name = l.Name.String()
		} else {
			info.Term = l.Proof.String()
		}
		resp.Lemmas = append(resp.Lemmas, info)
	}
	return resp, nil
}

// Heads lists the head buckets of the global or a session index.
func (s *Service) Heads(ctx context.Context, sessionID string) (*HeadsResponse, error) {
	idx, err := s.indexFor(sessionID)
	if err != nil {
		return nil, err
	}

	resp := &HeadsResponse{SessionID: sessionID, Heads: make([]HeadInfo, 0, idx.HeadCount())}
	for _, h := range idx.Heads() {
		resp.Heads = append(resp.Heads, HeadInfo{
			Kind:   h.Kind.String(),
			Name:   h.String(),
			ID:     h.ID,
			Lemmas: len(idx.Find(ctx, h)),
		})
	}
	return resp, nil
}

// Stats reports the current build and session counts.
func (s *Service) Stats(ctx context.Context) (*StatsResponse, error) {
	snap := s.rebuilder.Current()
	if snap == nil {
		return nil, ErrNotReady
	}

	s.mu.RLock()
	open := len(s.sessions)
	s.mu.RUnlock()

	return &StatsResponse{
		BuildID:      snap.BuildID,
		BuiltAt:      snap.BuiltAt,
		Partial:      snap.Partial,
		Declarations: snap.Env.Len(),
		Lemmas:       snap.Index.Len(),
		Heads:        snap.Index.HeadCount(),
		Sessions:     open,
	}, nil
}

// SubscribeEvents registers a websocket client with the event hub.
func (s *Service) SubscribeEvents() (<-chan Event, func()) {
	return s.hub.subscribe()
}

// SessionCount returns the number of open sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// indexFor picks the global index or a session's extended index.
// Callers must not hold s.mu.
func (s *Service) indexFor(sessionID string) (backward.Index, error) {
	if sessionID == "" {
		snap := s.rebuilder.Current()
		if snap == nil {
			return backward.New(), ErrNotReady
		}
		return snap.Index, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return backward.New(), fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess.index, nil
}

// sessionResponse renders a session. Callers hold at least a read
// lock on s.mu.
func (s *Service) sessionResponse(sess *session) *SessionResponse {
	hyps := make([]string, len(sess.order))
	copy(hyps, sess.order)
	return &SessionResponse{
		SessionID:  sess.id,
		CreatedAt:  sess.createdAt,
		BuildID:    sess.buildID,
		LemmaCount: sess.index.Len(),
		Hypotheses: hyps,
	}
}

// headLabel renders the indexable head of a hypothesis type, or ""
// when the type has no head symbol.
func headLabel(typ expr.Expr) string {
	h, ok := expr.NewHeadIndex(expr.PiBody(typ))
	if !ok {
		return ""
	}
	return h.String()
}
