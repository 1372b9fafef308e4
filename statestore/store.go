// ABOUTME: Generic durable versioned JSON store with migration support.
// ABOUTME: One file, one lock; staleness-aware reload and atomic writes.

package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// Migration transforms a raw document from one schema version to the next.
// Steps receive and return the decoded JSON object; the store stamps the
// final version itself.
type Migration func(raw map[string]any) (map[string]any, error)

// fingerprint identifies the on-disk file content we last loaded. The zero
// fingerprint means "file did not exist".
type fingerprint struct {
	size    int64
	modTime time.Time
}

// Store maps a typed document to a JSON file with safe interleaved access.
// The document type must carry the schema version in a `version` JSON field.
type Store[T any] struct {
	path       string
	version    int
	migrations map[int]Migration
	newDoc     func() *T
	logger     *slog.Logger

	// sem is a one-slot semaphore used as the transaction lock so that
	// acquisition can be abandoned on context cancellation.
	sem chan struct{}

	doc *T
	fp  fingerprint

	// forceReload is set after a failed write: the in-memory document may
	// hold the failed transaction's effects and must be discarded.
	forceReload bool
}

// Open creates a store for the given path. A missing file initializes an
// empty document at the current version (persisted on first write); an
// existing file is parsed and migrated to the current version if needed,
// persisting immediately after migration.
func Open[T any](path string, version int, migrations map[int]Migration, newDoc func() *T, logger *slog.Logger) (*Store[T], error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store[T]{
		path:       path,
		version:    version,
		migrations: migrations,
		newDoc:     newDoc,
		logger:     logger.With("state_file", path),
		sem:        make(chan struct{}, 1),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the file this store persists to.
func (s *Store[T]) Path() string {
	return s.path
}

// Transact runs fn against the in-memory document under the store's
// exclusive lock, reloading from disk first if the file changed externally.
// When fn reports a change the document is persisted atomically. A failed fn
// or a failed persist leaves the destination file untouched and discards the
// in-memory copy on the next transaction.
func (s *Store[T]) Transact(ctx context.Context, fn func(doc *T) (changed bool, err error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.sem }()

	if err := s.reloadLocked(); err != nil {
		return err
	}
	changed, err := fn(s.doc)
	if err != nil {
		// fn may have mutated the document before failing; drop those
		// effects along with the error.
		s.forceReload = true
		return err
	}
	if !changed {
		return nil
	}
	// Deliberately no ctx check from here on: once a change is committed to
	// disk it must be the whole document, so the write-and-rename runs to
	// completion even if the caller has been cancelled.
	if err := s.writeLocked(); err != nil {
		s.forceReload = true
		return err
	}
	return nil
}

// View runs a read-only fn under the same lock and staleness rules as
// Transact. It never writes.
func (s *Store[T]) View(ctx context.Context, fn func(doc *T) error) error {
	return s.Transact(ctx, func(doc *T) (bool, error) {
		return false, fn(doc)
	})
}

// reloadLocked re-parses the file when its fingerprint differs from the one
// we last loaded, or when the previous transaction failed mid-write. Must be
// called with the lock held.
func (s *Store[T]) reloadLocked() error {
	if s.forceReload {
		s.logger.Warn("discarding in-memory state after failed write")
		if err := s.load(); err != nil {
			return err
		}
		s.forceReload = false
		return nil
	}
	current, err := s.stat()
	if err != nil {
		return err
	}
	if current == s.fp {
		return nil
	}
	s.logger.Info("state file changed on disk, reloading")
	return s.load()
}

// load reads and parses the file, applying schema migrations if the stored
// version is older than the current one. Missing file means a fresh empty
// document.
func (s *Store[T]) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.doc = s.newDoc()
		s.fp = fingerprint{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading state file %s: %w", s.path, err)
	}

	var envelope struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("state file %s is not valid JSON, refusing to reset it: %w", s.path, err)
	}

	migrated := false
	switch {
	case envelope.Version > s.version:
		return fmt.Errorf("state file %s has schema version %d, newer than supported version %d", s.path, envelope.Version, s.version)
	case envelope.Version < s.version:
		data, err = s.migrate(data, envelope.Version)
		if err != nil {
			return err
		}
		migrated = true
	}

	doc := s.newDoc()
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("decoding state file %s: %w", s.path, err)
	}
	s.doc = doc

	if migrated {
		s.logger.Info("migrated state file", "from_version", envelope.Version, "to_version", s.version)
		return s.writeLocked()
	}

	s.fp, err = s.stat()
	return err
}

// migrate applies the registered migration steps sequentially from the
// stored version up to the current one and returns the re-encoded document.
func (s *Store[T]) migrate(data []byte, from int) ([]byte, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("state file %s is not a JSON object: %w", s.path, err)
	}
	for v := from; v < s.version; v++ {
		step, ok := s.migrations[v]
		if !ok {
			return nil, fmt.Errorf("state file %s: no migration from schema version %d", s.path, v)
		}
		next, err := step(raw)
		if err != nil {
			return nil, fmt.Errorf("state file %s: migrating from schema version %d: %w", s.path, v, err)
		}
		raw = next
	}
	raw["version"] = s.version
	return json.Marshal(raw)
}

// writeLocked persists the in-memory document atomically: marshal, write to
// a temp file in the same directory, then rename over the destination. A
// failure at any point leaves the destination exactly as it was.
func (s *Store[T]) writeLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state for %s: %w", s.path, err)
	}
	data = append(data, '\n')

	tmp := fmt.Sprintf("%s.%s.tmp", s.path, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing state file %s: %w", s.path, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing state file %s: %w", s.path, err)
	}

	fp, err := s.stat()
	if err != nil {
		// The write itself succeeded; make sure the next transaction
		// re-reads rather than trusting a stale fingerprint.
		s.forceReload = true
		return nil
	}
	s.fp = fp
	return nil
}

// stat returns the current on-disk fingerprint, zero if the file is absent.
func (s *Store[T]) stat() (fingerprint, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return fingerprint{}, nil
	}
	if err != nil {
		return fingerprint{}, fmt.Errorf("checking state file %s: %w", s.path, err)
	}
	return fingerprint{size: info.Size(), modTime: info.ModTime()}, nil
}
