// Package filestore keeps one JSON snapshot file per source under a base directory.
package filestore

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"rssdigest/domain"
)

// maxNameLen keeps file names well below common 255-byte limits.
const maxNameLen = 200

type Store struct {
	dir    string
	atomic bool
	logger *zap.Logger
}

// New returns a store rooted at dir. With atomic set, saves go through a temp file
// and a rename so a crash never leaves a half-written snapshot behind.
func New(dir string, atomic bool, logger *zap.Logger) *Store {
	return &Store{dir: dir, atomic: atomic, logger: logger}
}

// FileName maps an address to its snapshot file name. Unpadded URL-safe base64 is
// reversible and collision-free; names that would be too long fall back to a SHA-256.
func FileName(address string) string {
	name := base64.RawURLEncoding.EncodeToString([]byte(address))
	if len(name) > maxNameLen {
		sum := sha256.Sum256([]byte(address))
		name = "sha256-" + hex.EncodeToString(sum[:])
	}
	return name + ".json"
}

// legacyFileName is the naming used by snapshots written before FileName existed.
func legacyFileName(address string) string {
	enc := base64.StdEncoding.EncodeToString([]byte(address))
	return strings.NewReplacer("/", "_", "+", "_", "=", "_").Replace(enc) + ".json"
}

func (s *Store) Path(address string) string {
	return filepath.Join(s.dir, FileName(address))
}

// Load never returns an error: an unreadable or corrupt file counts as no snapshot.
func (s *Store) Load(_ context.Context, address string) (*domain.Snapshot, bool, error) {
	log := s.logger.With(zap.String("source_url", address))

	legacy := false
	data, err := os.ReadFile(s.Path(address))
	if os.IsNotExist(err) {
		legacy = true
		data, err = os.ReadFile(filepath.Join(s.dir, legacyFileName(address)))
	}
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("snapshot unreadable, starting without history", zap.Error(err))
		}
		return nil, false, nil
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Warn("snapshot corrupt, starting without history", zap.Error(err))
		return nil, false, nil
	}
	// Legacy names are lossy; a file may belong to another source.
	if legacy && snap.SourceURL != "" && snap.SourceURL != address {
		log.Warn("legacy snapshot belongs to another source, ignoring",
			zap.String("snapshot_source_url", snap.SourceURL))
		return nil, false, nil
	}
	return &snap, true, nil
}

func (s *Store) Save(_ context.Context, address string, snap *domain.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	path := s.Path(address)
	if !s.atomic {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		return nil
	}

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	s.logger.Debug("snapshot saved", zap.String("source_url", address), zap.String("path", path))
	return nil
}
