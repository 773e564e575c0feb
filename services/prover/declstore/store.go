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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes inside the store. Attribute keys embed the registration
// sequence so lexical iteration is application order.
const (
	declKeyPrefix = "decl/"
	attrKeyPrefix = "attr/"
)

// Config holds configuration for a catalog store.
type Config struct {
	// Path is the directory for the store's files.
	// Required unless InMemory is true.
	Path string

	// InMemory keeps the catalog off disk. Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives the embedded database's log output. If nil, that
	// output is disabled.
	Logger *slog.Logger

	// GCInterval is how often to run value log garbage collection.
	// Zero disables GC.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of discardable data before
	// GC rewrites a value log file.
	GCDiscardRatio float64
}

// DefaultConfig returns production defaults: durable writes and a
// five-minute GC cadence.
func DefaultConfig() Config {
	return Config{
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns a configuration for tests: no disk, no sync,
// no GC.
func InMemoryConfig() Config {
	return Config{
		InMemory:   true,
		SyncWrites: false,
		GCInterval: 0,
	}
}

// badgerLogger adapts slog.Logger to the embedded database's logger
// interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store is an embedded catalog of declarations and attribute
// applications, used as a warm cache between snapshot imports.
type Store struct {
	db     *badger.DB
	cfg    Config
	stopGC chan struct{}
	doneGC chan struct{}
}

// OpenStore opens a catalog store with the given configuration.
//
// # Outputs
//   - *Store: the opened store. Caller must Close it.
//   - error: non-nil if the path is missing or the database cannot
//     open.
func OpenStore(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open catalog store: %w", err)
	}

	s := &Store{db: db, cfg: cfg}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stopGC = make(chan struct{})
		s.doneGC = make(chan struct{})
		go s.runGC()
	}
	return s, nil
}

// Close stops garbage collection and closes the store.
func (s *Store) Close() error {
	if s.stopGC != nil {
		close(s.stopGC)
		<-s.doneGC
		s.stopGC = nil
	}
	return s.db.Close()
}

func (s *Store) runGC() {
	defer close(s.doneGC)

	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(s.cfg.GCDiscardRatio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				if s.cfg.Logger != nil {
					s.cfg.Logger.Warn("Catalog store GC error", "error", err)
				}
			}
		}
	}
}

// PutDecl stores one declaration, replacing any previous version.
func (s *Store) PutDecl(ctx context.Context, d SnapshotDecl) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal declaration %s: %w", d.Name, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(declKeyPrefix+d.Name), data)
	})
	if err != nil {
		return fmt.Errorf("put declaration %s: %w", d.Name, err)
	}
	return nil
}

// GetDecl looks one declaration up by name.
func (s *Store) GetDecl(ctx context.Context, name string) (SnapshotDecl, error) {
	if err := ctx.Err(); err != nil {
		return SnapshotDecl{}, err
	}
	var d SnapshotDecl
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(declKeyPrefix + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &d)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return SnapshotDecl{}, fmt.Errorf("%w: declaration %s", ErrNotFound, name)
	}
	if err != nil {
		return SnapshotDecl{}, fmt.Errorf("get declaration %s: %w", name, err)
	}
	return d, nil
}

// DeleteDecl removes one declaration. Deleting an absent name is a
// no-op.
func (s *Store) DeleteDecl(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(declKeyPrefix + name))
	})
	if err != nil {
		return fmt.Errorf("delete declaration %s: %w", name, err)
	}
	return nil
}

// IterateDecls visits stored declarations in name order and stops at
// the first error.
func (s *Store) IterateDecls(ctx context.Context, fn func(SnapshotDecl) error) error {
	return s.iteratePrefix(ctx, declKeyPrefix, func(val []byte) error {
		var d SnapshotDecl
		if err := json.Unmarshal(val, &d); err != nil {
			return fmt.Errorf("%w: stored declaration: %v", ErrMalformedSnapshot, err)
		}
		return fn(d)
	})
}

// PutAttr stores one attribute application keyed by kind, sequence,
// and declaration.
func (s *Store) PutAttr(ctx context.Context, a SnapshotAttr) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal attribute [%s] %s: %w", a.Attr, a.Decl, err)
	}
	key := fmt.Sprintf("%s%s/%020d/%s", attrKeyPrefix, a.Attr, a.Seq, a.Decl)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("put attribute [%s] %s: %w", a.Attr, a.Decl, err)
	}
	return nil
}

// IterateAttrs visits stored attribute applications in application
// order and stops at the first error.
func (s *Store) IterateAttrs(ctx context.Context, fn func(SnapshotAttr) error) error {
	return s.iteratePrefix(ctx, attrKeyPrefix, func(val []byte) error {
		var a SnapshotAttr
		if err := json.Unmarshal(val, &a); err != nil {
			return fmt.Errorf("%w: stored attribute: %v", ErrMalformedSnapshot, err)
		}
		return fn(a)
	})
}

func (s *Store) iteratePrefix(ctx context.Context, prefix string, fn func([]byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				return fn(val)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ImportSnapshot writes every declaration and attribute application
// of a snapshot into the store.
func (s *Store) ImportSnapshot(ctx context.Context, snap *Snapshot) error {
	for _, d := range snap.Declarations {
		if err := s.PutDecl(ctx, d); err != nil {
			return err
		}
	}
	for _, a := range snap.Attributes {
		if err := s.PutAttr(ctx, a); err != nil {
			return err
		}
	}
	slog.Info("Imported snapshot into catalog store",
		"declarations", len(snap.Declarations),
		"attributes", len(snap.Attributes))
	return nil
}

// ExportSnapshot reads the whole store back into a snapshot.
// Declarations come out in name order, attribute applications in
// their original application order.
func (s *Store) ExportSnapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{FormatVersion: CurrentFormatVersion}

	err := s.IterateDecls(ctx, func(d SnapshotDecl) error {
		snap.Declarations = append(snap.Declarations, d)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.IterateAttrs(ctx, func(a SnapshotAttr) error {
		snap.Attributes = append(snap.Attributes, a)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Attribute keys sort per kind; restore the global sequence.
	sort.SliceStable(snap.Attributes, func(i, j int) bool {
		return snap.Attributes[i].Seq < snap.Attributes[j].Seq
	})
	return snap, nil
}
