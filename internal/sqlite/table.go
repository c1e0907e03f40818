package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mesh-intelligence/stager/pkg/types"
)

// table stores one entity type as JSON documents.
type table[T any] struct {
	backend *Backend
	name    string
	key     func(T) types.Key
}

func newTable[T any](b *Backend, name string, key func(T) types.Key) *table[T] {
	return &table[T]{backend: b, name: name, key: key}
}

func (t *table[T]) tableName() string { return t.name }

// Get returns the entity stored under id.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found.
func (t *table[T]) Get(id string) (T, error) {
	var zero T
	if id == "" {
		return zero, types.ErrInvalidID
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return zero, types.ErrBackendDetached
	}

	var data string
	err := t.backend.db.QueryRow("SELECT data FROM "+t.name+" WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, fmt.Errorf("%s %s: %w", t.name, id, types.ErrNotFound)
	}
	if err != nil {
		return zero, fmt.Errorf("querying %s %s: %w", t.name, id, err)
	}
	return t.decode(data)
}

// Put creates or replaces the entity under key and rewrites the table's
// JSONL file. A replaced entity keeps its original position.
func (t *table[T]) Put(key types.Key, entity T) error {
	if key.ID == "" {
		return types.ErrInvalidID
	}
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("%w: encoding %s %s: %v", types.ErrInvalidData, t.name, key.ID, err)
	}

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return types.ErrBackendDetached
	}

	_, err = t.backend.db.Exec(
		"INSERT INTO "+t.name+" (id, parent_id, seq, data) "+
			"VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM "+t.name+"), ?) "+
			"ON CONFLICT(id) DO UPDATE SET parent_id = excluded.parent_id, data = excluded.data",
		key.ID, key.Parent, string(data))
	if err != nil {
		return fmt.Errorf("writing %s %s: %w", t.name, key.ID, err)
	}
	return t.persist()
}

// Delete removes the entity stored under id and rewrites the JSONL file.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found.
func (t *table[T]) Delete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return types.ErrBackendDetached
	}

	res, err := t.backend.db.Exec("DELETE FROM "+t.name+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", t.name, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", t.name, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", t.name, id, types.ErrNotFound)
	}
	return t.persist()
}

// ListByParent returns every entity under parent in insertion order.
func (t *table[T]) ListByParent(parent string) ([]T, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrBackendDetached
	}

	rows, err := t.backend.db.Query("SELECT data FROM "+t.name+" WHERE parent_id = ? ORDER BY seq", parent)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", t.name, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", t.name, err)
		}
		e, err := t.decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (t *table[T]) decode(data string) (T, error) {
	var e T
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: decoding %s: %v", types.ErrInvalidData, t.name, err)
	}
	return e, nil
}

// persist rewrites the JSONL file from the database in insertion order.
// The caller must hold the backend write lock.
func (t *table[T]) persist() error {
	rows, err := t.backend.db.Query("SELECT data FROM " + t.name + " ORDER BY seq")
	if err != nil {
		return fmt.Errorf("reading %s for persist: %w", t.name, err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("scanning %s for persist: %w", t.name, err)
		}
		records = append(records, json.RawMessage(data))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(t.backend.dataDir, jsonlFile(t.name)), records)
}

// load inserts the table's JSONL records in file order. Lines that are not
// objects, do not decode, or lack an ID are skipped. Unknown fields are
// ignored.
func (t *table[T]) load(tx *sql.Tx, dataDir string) error {
	records, err := readJSONL(filepath.Join(dataDir, jsonlFile(t.name)))
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		"INSERT INTO " + t.name + " (id, parent_id, seq, data) VALUES (?, ?, ?, ?) " +
			"ON CONFLICT(id) DO UPDATE SET parent_id = excluded.parent_id, data = excluded.data")
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", t.name, err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if !isObject(rec) {
			continue
		}
		e, err := t.decode(string(rec))
		if err != nil {
			continue
		}
		k := t.key(e)
		if k.ID == "" {
			continue
		}
		if _, err := stmt.Exec(k.ID, k.Parent, i+1, string(rec)); err != nil {
			return fmt.Errorf("loading %s %s: %w", t.name, k.ID, err)
		}
	}
	return nil
}

func isObject(rec json.RawMessage) bool {
	for _, c := range rec {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return c == '{'
	}
	return false
}
