// Package stager provides the public entry point for opening a storage
// backend while keeping implementations internal.
package stager

import (
	"fmt"

	"github.com/mesh-intelligence/stager/internal/memory"
	"github.com/mesh-intelligence/stager/internal/sqlite"
	"github.com/mesh-intelligence/stager/pkg/types"
)

// NewBackend returns an unattached backend for the named implementation
// (types.BackendSQLite or types.BackendMemory).
//
// Example:
//
//	backend, err := stager.NewBackend(types.BackendSQLite)
//	err = backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".stager-db",
//	})
//	defer backend.Detach()
func NewBackend(name string) (types.Backend, error) {
	switch name {
	case types.BackendSQLite:
		return sqlite.NewBackend(), nil
	case types.BackendMemory:
		return memory.NewBackend(), nil
	case "":
		return nil, types.ErrBackendEmpty
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, name)
	}
}

// Open creates the backend named by cfg and attaches it.
func Open(cfg types.Config) (types.Backend, error) {
	b, err := NewBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}
	if err := b.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attaching %s backend: %w", cfg.Backend, err)
	}
	return b, nil
}
