package types

import "errors"

// Backend groups the entity stores behind one attach/detach lifecycle.
// Callers attach to a backend, use its stores, and detach when done.
type Backend interface {
	// Attach connects the backend to the storage described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, store operations return ErrBackendDetached.
	Detach() error

	Jobs() Store[*Job]
	Scenes() Store[*Scene]
	Assets() Store[*Asset]
	Versions() Store[*Version]
}

// Backend lifecycle errors.
var (
	ErrBackendDetached = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)
