package sqlite

import "fmt"

// Every entity table has the same shape: the entity as a JSON document,
// keyed by id, grouped by parent_id, ordered by seq (first insertion).
const tableDDL = `CREATE TABLE IF NOT EXISTS %[1]s (
    id TEXT PRIMARY KEY,
    parent_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_parent ON %[1]s(parent_id, seq);`

func schemaFor(name string) string {
	return fmt.Sprintf(tableDDL, name)
}

// jsonlFile returns the JSONL file backing a table.
func jsonlFile(name string) string {
	return name + ".jsonl"
}
