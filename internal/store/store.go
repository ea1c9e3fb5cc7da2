// Package store persists whether a visitor has already completed the wizard.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/iwvelando/loan-wizard/pkg/constants"
)

// ErrEmptyVisitor is returned for operations without a visitor id.
var ErrEmptyVisitor = errors.New("visitor id is required")

// FlagStore reads and writes the single "already completed" flag of each visitor.
type FlagStore interface {
	Completed(ctx context.Context, visitorID string) (bool, error)
	MarkCompleted(ctx context.Context, visitorID string) error
	Close() error
}

// Options selects and configures a FlagStore backend.
type Options struct {
	Backend       string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// Open creates the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (FlagStore, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", constants.StoreBackendMemory:
		return NewMemoryStore(), nil
	case constants.StoreBackendSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = constants.DefaultSQLitePath
		}
		return OpenSQLite(ctx, path)
	case constants.StoreBackendRedis:
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.KeyPrefix)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", opts.Backend)
	}
}

func checkVisitor(visitorID string) error {
	if strings.TrimSpace(visitorID) == "" {
		return ErrEmptyVisitor
	}
	return nil
}

// MemoryStore keeps flags in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	done map[string]struct{}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{done: make(map[string]struct{})}
}

// Completed reports whether visitorID has submitted.
func (m *MemoryStore) Completed(_ context.Context, visitorID string) (bool, error) {
	if err := checkVisitor(visitorID); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.done[visitorID]
	return ok, nil
}

// MarkCompleted records the submission of visitorID.
func (m *MemoryStore) MarkCompleted(_ context.Context, visitorID string) error {
	if err := checkVisitor(visitorID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done[visitorID] = struct{}{}
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
