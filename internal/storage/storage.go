// Package storage remembers which analyses were already announced downstream.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store tracks analysis fingerprints for a limited time.
type Store interface {
	Close() error
	Claim(key string) (bool, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	AnalysisTTL     time.Duration
	CleanupInterval time.Duration
}

const (
	defaultAnalysisTTL     = 24 * time.Hour
	defaultCleanupInterval = 6 * time.Hour
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
		store, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.AnalysisTTL <= 0 {
		opts.AnalysisTTL = defaultAnalysisTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error               { return nil }
func (noopStore) Claim(string) (bool, error) { return true, nil }
