// Package kv is the persistent key-value layer underneath the preferences
// store. Every backend stores opaque byte values under string keys and
// exposes a get-all read and a single-key write.
package kv

import (
	"context"
	"fmt"
	"path/filepath"

	"flow-settings/pkg/config"
)

// Store is a persistent key-value store
type Store interface {
	// GetAll returns every stored entry. Missing keys are simply absent.
	GetAll(ctx context.Context) (map[string][]byte, error)
	// Put creates or overwrites a single entry.
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Notifier is implemented by backends that several processes can share.
// The returned channel receives a signal after any process writes to the
// store and is closed once ctx is done.
type Notifier interface {
	Changes(ctx context.Context) (<-chan struct{}, error)
}

// Options selects and configures a backend
type Options struct {
	Backend       string
	Dir           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Namespace     string
}

// OptionsFromConfig maps runtime configuration to backend options
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Backend:       cfg.Backend,
		Dir:           cfg.DataDir,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		Namespace:     cfg.Namespace,
	}
}

// Open creates a Store for the configured backend
func Open(opts Options) (Store, error) {
	backend := opts.Backend
	if backend == "" {
		backend = config.BackendBadger
	}

	switch backend {
	case config.BackendBadger:
		if opts.Dir == "" {
			return nil, fmt.Errorf("badger backend requires a data directory")
		}
		return OpenBadger(filepath.Join(opts.Dir, "prefs"))
	case config.BackendSQLite:
		if opts.Dir == "" {
			return nil, fmt.Errorf("sqlite backend requires a data directory")
		}
		return OpenSQLite(filepath.Join(opts.Dir, "prefs.sqlite"))
	case config.BackendRedis:
		return OpenRedis(RedisConfig{
			Addr:      opts.RedisAddr,
			Password:  opts.RedisPassword,
			DB:        opts.RedisDB,
			Namespace: opts.Namespace,
		})
	case config.BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown kv backend: %s (supported: badger, sqlite, redis, memory)", backend)
	}
}
