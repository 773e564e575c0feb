// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prover

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AleutianAI/AleutianProve/services/prover/expr"
)

// writeLemmaSnapshot writes a one-declaration snapshot whose
// declaration carries the intro attribute and concludes in head.
func writeLemmaSnapshot(t *testing.T, dir, file, decl, head string) {
	t.Helper()
	content := fmt.Sprintf(`{
	  "format_version": "v1.0.0",
	  "declarations": [{"name": %q, "kind": "theorem", "type": {"const": %q}}],
	  "attributes": [{"attr": "intro", "decl": %q}]
	}`, decl, head, decl)
	if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// newTestService starts a service over a snapshot directory holding
// one intro lemma for head p. The watcher stays off so tests control
// every rebuild.
func newTestService(t *testing.T, mutate func(*ServiceConfig)) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	writeLemmaSnapshot(t, dir, "base.json", "alpha_intro", "p")

	cfg := DefaultServiceConfig()
	cfg.SnapshotDir = dir
	cfg.WatchEnabled = false
	cfg.RebuildEvery = 0
	if mutate != nil {
		mutate(&cfg)
	}

	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc, dir
}

func TestNewServiceRequiresSnapshotDir(t *testing.T) {
	if _, err := NewService(DefaultServiceConfig()); err == nil {
		t.Error("NewService accepted an empty snapshot dir")
	}
}

func TestServiceStartAndStats(t *testing.T) {
	svc, _ := newTestService(t, nil)

	if !svc.Ready() {
		t.Error("service not ready after Start")
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Declarations != 1 || stats.Lemmas != 1 || stats.Heads != 1 {
		t.Errorf("stats = (%d decls, %d lemmas, %d heads), want (1, 1, 1)",
			stats.Declarations, stats.Lemmas, stats.Heads)
	}
	if stats.Sessions != 0 {
		t.Errorf("open sessions = %d, want 0", stats.Sessions)
	}
	if stats.BuildID == "" {
		t.Error("stats carry no build ID")
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	created, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if created.SessionID == "" {
		t.Fatal("session has no ID")
	}
	if created.LemmaCount != 1 {
		t.Errorf("new session lemmas = %d, want 1", created.LemmaCount)
	}

	got, err := svc.Session(created.SessionID)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if got.SessionID != created.SessionID || got.BuildID != created.BuildID {
		t.Errorf("Session returned %+v, want %+v", got, created)
	}

	if err := svc.CloseSession(ctx, created.SessionID); err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}
	if _, err := svc.Session(created.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Session after close = %v, want ErrSessionNotFound", err)
	}
	if err := svc.CloseSession(ctx, created.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("double close = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionLimit(t *testing.T) {
	svc, _ := newTestService(t, func(cfg *ServiceConfig) {
		cfg.MaxSessions = 1
	})
	ctx := context.Background()

	if _, err := svc.CreateSession(ctx); err != nil {
		t.Fatalf("first CreateSession failed: %v", err)
	}
	if _, err := svc.CreateSession(ctx); !errors.Is(err, ErrTooManySessions) {
		t.Errorf("second CreateSession = %v, want ErrTooManySessions", err)
	}
}

func TestInsertAndEraseHypothesis(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	hyp, err := svc.InsertHypothesis(ctx, sess.SessionID, "h", expr.Const{Name: "p"})
	if err != nil {
		t.Fatalf("InsertHypothesis failed: %v", err)
	}
	if hyp.Head != "p" {
		t.Errorf("hypothesis head = %q, want p", hyp.Head)
	}
	if hyp.LemmaCount != 2 {
		t.Errorf("session lemmas after insert = %d, want 2", hyp.LemmaCount)
	}

	if _, err := svc.InsertHypothesis(ctx, sess.SessionID, "h", expr.Const{Name: "p"}); !errors.Is(err, ErrHypothesisExists) {
		t.Errorf("duplicate insert = %v, want ErrHypothesisExists", err)
	}

	found, err := svc.FindLemmas(ctx, sess.SessionID, "p")
	if err != nil {
		t.Fatalf("FindLemmas failed: %v", err)
	}
	if len(found.Lemmas) != 2 {
		t.Fatalf("session lemmas for p = %d, want 2", len(found.Lemmas))
	}
	// Equal priorities rank the newest entry first.
	if found.Lemmas[0].Term == "" {
		t.Error("first lemma should be the hypothesis term")
	}
	if found.Lemmas[1].Name != "alpha_intro" {
		t.Errorf("second lemma = %q, want alpha_intro", found.Lemmas[1].Name)
	}

	global, err := svc.FindLemmas(ctx, "", "p")
	if err != nil {
		t.Fatalf("global FindLemmas failed: %v", err)
	}
	if len(global.Lemmas) != 1 {
		t.Errorf("global lemmas for p = %d, want 1 (hypothesis must stay session local)", len(global.Lemmas))
	}

	erased, err := svc.EraseHypothesis(ctx, sess.SessionID, "h")
	if err != nil {
		t.Fatalf("EraseHypothesis failed: %v", err)
	}
	if erased.LemmaCount != 1 {
		t.Errorf("session lemmas after erase = %d, want 1", erased.LemmaCount)
	}
	if _, err := svc.EraseHypothesis(ctx, sess.SessionID, "h"); !errors.Is(err, ErrHypothesisNotFound) {
		t.Errorf("double erase = %v, want ErrHypothesisNotFound", err)
	}
}

func TestHeadlessHypothesisAccepted(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	hyp, err := svc.InsertHypothesis(ctx, sess.SessionID, "u", expr.Sort{Level: 0})
	if err != nil {
		t.Fatalf("headless insert failed: %v", err)
	}
	if hyp.Head != "" {
		t.Errorf("sort-typed hypothesis head = %q, want empty", hyp.Head)
	}
	if hyp.LemmaCount != 1 {
		t.Errorf("lemmas after headless insert = %d, want 1 (not indexed)", hyp.LemmaCount)
	}

	// The hypothesis is still tracked, so erase stays symmetric.
	got, err := svc.Session(sess.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Hypotheses) != 1 || got.Hypotheses[0] != "u" {
		t.Errorf("session hypotheses = %v, want [u]", got.Hypotheses)
	}
	if _, err := svc.EraseHypothesis(ctx, sess.SessionID, "u"); err != nil {
		t.Errorf("erasing a headless hypothesis failed: %v", err)
	}
}

func TestSessionIsolation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	a, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.InsertHypothesis(ctx, a.SessionID, "h", expr.Const{Name: "p"}); err != nil {
		t.Fatalf("InsertHypothesis failed: %v", err)
	}

	other, err := svc.FindLemmas(ctx, b.SessionID, "p")
	if err != nil {
		t.Fatal(err)
	}
	if len(other.Lemmas) != 1 {
		t.Errorf("sibling session lemmas = %d, want 1", len(other.Lemmas))
	}
}

func TestSessionPinnedAcrossRebuild(t *testing.T) {
	svc, dir := newTestService(t, nil)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatal(err)
	}

	writeLemmaSnapshot(t, dir, "extra.json", "beta_intro", "q")
	rebuilt, err := svc.Rebuild(ctx)
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if rebuilt.Lemmas != 2 {
		t.Fatalf("rebuilt lemmas = %d, want 2", rebuilt.Lemmas)
	}

	// The session keeps the snapshot it was opened on.
	got, err := svc.Session(sess.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if got.LemmaCount != 1 {
		t.Errorf("session lemmas after rebuild = %d, want 1", got.LemmaCount)
	}
	if got.BuildID == rebuilt.BuildID {
		t.Error("session adopted the new build")
	}

	fresh, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.LemmaCount != 2 {
		t.Errorf("fresh session lemmas = %d, want 2", fresh.LemmaCount)
	}
}

func TestFindLemmasUnknownSession(t *testing.T) {
	svc, _ := newTestService(t, nil)

	if _, err := svc.FindLemmas(context.Background(), "no-such-session", "p"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("FindLemmas = %v, want ErrSessionNotFound", err)
	}
}

func TestHeads(t *testing.T) {
	svc, _ := newTestService(t, nil)

	heads, err := svc.Heads(context.Background(), "")
	if err != nil {
		t.Fatalf("Heads failed: %v", err)
	}
	if len(heads.Heads) != 1 {
		t.Fatalf("heads = %d, want 1", len(heads.Heads))
	}
	h := heads.Heads[0]
	if h.Kind != "const" || h.Name != "p" || h.Lemmas != 1 {
		t.Errorf("head = %+v, want const p with 1 lemma", h)
	}
}

func TestEventFanout(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	events, cancel := svc.SubscribeEvents()
	defer cancel()

	sess, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.InsertHypothesis(ctx, sess.SessionID, "h", expr.Const{Name: "p"}); err != nil {
		t.Fatal(err)
	}

	want := []string{EventSessionCreated, EventHypInserted}
	for _, wantType := range want {
		select {
		case ev := <-events:
			if ev.Type != wantType {
				t.Errorf("event type = %q, want %q", ev.Type, wantType)
			}
			if ev.SessionID != sess.SessionID {
				t.Errorf("event session = %q, want %q", ev.SessionID, sess.SessionID)
			}
		case <-time.After(time.Second):
			t.Fatalf("no %s event arrived", wantType)
		}
	}
}

func TestStopClosesEventStream(t *testing.T) {
	svc, _ := newTestService(t, nil)

	events, cancel := svc.SubscribeEvents()
	defer cancel()

	svc.Stop()
	select {
	case _, ok := <-events:
		if ok {
			t.Error("event channel delivered after Stop")
		}
	case <-time.After(time.Second):
		t.Fatal("event channel not closed by Stop")
	}
	if svc.Ready() {
		t.Error("service still ready after Stop")
	}
}
