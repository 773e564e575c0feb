// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package declstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/AleutianAI/AleutianProve/services/prover/attr"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func introRegistry(t *testing.T) *attr.Registry {
	t.Helper()
	reg := attr.NewRegistry()
	if err := reg.RegisterKind("intro", nil); err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{
	  "format_version": "v1.0.0",
	  "declarations": [{"name": "alpha", "kind": "theorem", "type": {"const": "p"}}],
	  "attributes": [{"attr": "intro", "decl": "alpha"}]
	}`)
	writeFile(t, dir, "b.json", `{
	  "format_version": "v1.0.0",
	  "declarations": [{"name": "beta", "kind": "axiom", "type": {"const": "q"}}]
	}`)
	writeFile(t, dir, "broken.json", `{not json`)
	writeFile(t, dir, "notes.txt", `ignored`)

	e, err := LoadDir(context.Background(), dir, introRegistry(t))

	if e.Len() != 2 || !e.Contains("alpha") || !e.Contains("beta") {
		t.Errorf("loaded declarations = %v, want [alpha beta]", e.Names())
	}

	var batch *BatchError
	if !errors.As(err, &batch) {
		t.Fatalf("LoadDir error = %v, want a *BatchError", err)
	}
	if len(batch.Errs) != 1 {
		t.Errorf("batch size = %d, want 1: %v", len(batch.Errs), batch.Errs)
	}
	if !errors.Is(err, ErrMalformedSnapshot) {
		t.Error("broken file not surfaced as ErrMalformedSnapshot")
	}
}

func TestLoadDirClean(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "core.json", `{
	  "format_version": "v1.0.0",
	  "declarations": [{"name": "gamma", "kind": "definition", "type": {"sort": 1}}]
	}`)

	e, err := LoadDir(context.Background(), dir, introRegistry(t))
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if e.Len() != 1 || !e.Contains("gamma") {
		t.Errorf("loaded declarations = %v, want [gamma]", e.Names())
	}
}

func TestLoadDirEmpty(t *testing.T) {
	e, err := LoadDir(context.Background(), t.TempDir(), introRegistry(t))
	if err != nil {
		t.Fatalf("LoadDir on an empty dir failed: %v", err)
	}
	if e.Len() != 0 {
		t.Errorf("Len = %d, want 0", e.Len())
	}
}

func TestLoadDirMissing(t *testing.T) {
	_, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "absent"), introRegistry(t))
	if err == nil {
		t.Fatal("LoadDir on a missing dir succeeded")
	}
	var batch *BatchError
	if errors.As(err, &batch) {
		t.Error("unreadable dir misreported as a partial failure")
	}
}

func TestLoadDirOrder(t *testing.T) {
	// Files apply in lexical order, so the later file's application is
	// the more recent one and ranks first among equal priorities.
	dir := t.TempDir()
	writeFile(t, dir, "10_first.json", `{
	  "format_version": "v1.0.0",
	  "declarations": [{"name": "first", "kind": "theorem", "type": {"const": "p"}}],
	  "attributes": [{"attr": "intro", "decl": "first"}]
	}`)
	writeFile(t, dir, "20_second.json", `{
	  "format_version": "v1.0.0",
	  "declarations": [{"name": "second", "kind": "theorem", "type": {"const": "p"}}],
	  "attributes": [{"attr": "intro", "decl": "second"}]
	}`)

	reg := introRegistry(t)
	if _, err := LoadDir(context.Background(), dir, reg); err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	ranked := reg.InstancesByPriority("intro")
	if len(ranked) != 2 || ranked[0].Decl != "second" || ranked[1].Decl != "first" {
		t.Errorf("ranked instances = %v, want [second first]", ranked)
	}
}
