package types

// Key addresses an entity in a Store. Parent is the owning entity's ID
// (job for scenes and assets, asset for versions, empty for jobs).
// IDs are UUID v7 and unique across a store, so lookups take the ID alone.
type Key struct {
	Parent string
	ID     string
}

// Store provides uniform CRUD operations for a single entity type.
type Store[T any] interface {
	// Get retrieves the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Get(id string) (T, error)

	// Put creates or replaces the entity stored under key.
	// Returns ErrInvalidID if key.ID is empty.
	Put(key Key, entity T) error

	// Delete removes the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Delete(id string) error

	// ListByParent returns every entity whose key has the given parent, in
	// insertion order. Returns an empty slice, not nil, when nothing matches.
	ListByParent(parent string) ([]T, error)
}

// Standard entity table names.
const (
	TableJobs     = "jobs"
	TableScenes   = "scenes"
	TableAssets   = "assets"
	TableVersions = "versions"
)

// StandardTableNames lists all table names in dependency order.
var StandardTableNames = []string{
	TableJobs,
	TableScenes,
	TableAssets,
	TableVersions,
}
