package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage keeps a short per-URL history of fetch outcomes.

// Record is one stored fetch outcome.
type Record struct {
	Kind       string    `json:"kind"`
	Result     string    `json:"result,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	BodyBytes  int       `json:"body_bytes"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Store tracks fetch outcomes per URL.
type Store interface {
	Close() error
	Record(url string, rec Record) error
	History(url string) ([]Record, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	// HistoryTTL is how long a URL's history lives after its last record.
	HistoryTTL      time.Duration
	CleanupInterval time.Duration
	// Limit caps the records kept per URL; the oldest are dropped first.
	Limit int
}

const (
	defaultHistoryTTL      = 7 * 24 * time.Hour
	defaultCleanupInterval = 6 * time.Hour
	defaultLimit           = 20
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
	if opts.HistoryTTL <= 0 {
		opts.HistoryTTL = defaultHistoryTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                     { return nil }
func (noopStore) Record(string, Record) error      { return nil }
func (noopStore) History(string) ([]Record, error) { return nil, nil }
