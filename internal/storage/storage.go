// Package storage persists page fingerprints between sync runs.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store remembers the last published fingerprint of each page.
type Store interface {
	Close() error
	Fingerprint(key string) (string, bool, error)
	SaveFingerprint(key, fingerprint string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	FingerprintTTL  time.Duration
	CleanupInterval time.Duration
}

const (
	defaultFingerprintTTL  = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.FingerprintTTL <= 0 {
		opts.FingerprintTTL = defaultFingerprintTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// noopStore never remembers anything, so every page reads as changed.
type noopStore struct{}

func (noopStore) Close() error                             { return nil }
func (noopStore) Fingerprint(string) (string, bool, error) { return "", false, nil }
func (noopStore) SaveFingerprint(string, string) error     { return nil }
