// Package sqlite implements the persistent Backend. SQLite is the query
// engine; one JSONL file per table in the data directory is the source of
// truth. Attach rebuilds the database from the JSONL files and every write
// rewrites the affected file atomically before returning.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/stager/pkg/types"
)

// DBFile is the SQLite file created in the data directory. It is rebuilt
// on every Attach.
const DBFile = "stager.db"

// Compile-time interface check.
var _ types.Backend = (*Backend)(nil)

// tableLoader is the per-table part of Attach.
type tableLoader interface {
	tableName() string
	load(tx *sql.Tx, dataDir string) error
}

// Backend implements types.Backend on SQLite plus JSONL files.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	dataDir  string
	db       *sql.DB

	jobs     *table[*types.Job]
	scenes   *table[*types.Scene]
	assets   *table[*types.Asset]
	versions *table[*types.Version]
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	b := &Backend{}
	b.jobs = newTable(b, types.TableJobs, (*types.Job).Key)
	b.scenes = newTable(b, types.TableScenes, (*types.Scene).Key)
	b.assets = newTable(b, types.TableAssets, (*types.Asset).Key)
	b.versions = newTable(b, types.TableVersions, (*types.Version).Key)
	return b
}

func (b *Backend) loaders() []tableLoader {
	return []tableLoader{b.jobs, b.scenes, b.assets, b.versions}
}

// Attach creates DataDir if needed, builds a fresh database, and loads
// every JSONL file into it. Loading is transactional.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	// The database is a cache of the JSONL files; start clean.
	dbPath := filepath.Join(dataDir, DBFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	for _, t := range b.loaders() {
		if _, err := db.Exec(schemaFor(t.tableName())); err != nil {
			db.Close()
			return fmt.Errorf("creating table %s: %w", t.tableName(), err)
		}
	}
	if err := initJSONLFiles(dataDir, b.loaders()); err != nil {
		db.Close()
		return err
	}
	if err := loadAll(db, dataDir, b.loaders()); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.dataDir = dataDir
	b.attached = true
	return nil
}

// Detach closes the database. After Detach, all operations return
// ErrBackendDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		if err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
	}
	return nil
}

func (b *Backend) Jobs() types.Store[*types.Job] { return b.jobs }
func (b *Backend) Scenes() types.Store[*types.Scene] { return b.scenes }
func (b *Backend) Assets() types.Store[*types.Asset] { return b.assets }
func (b *Backend) Versions() types.Store[*types.Version] { return b.versions }

// initJSONLFiles creates an empty JSONL file for every table that has none.
func initJSONLFiles(dataDir string, tables []tableLoader) error {
	for _, t := range tables {
		path := filepath.Join(dataDir, jsonlFile(t.tableName()))
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("checking %s: %w", path, err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}

// loadAll inserts every table's JSONL records in one transaction: either
// all load or the database stays empty.
func loadAll(db *sql.DB, dataDir string, tables []tableLoader) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tables {
		if err := t.load(tx, dataDir); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}
