package db

import "fmt"

// InitSchema creates a tree table, its indexes, and the shared root-id
// counter table. Safe to call on an already initialized database.
//
// The (root, lft) index backs the hierarchy scopes and the ordered fetch the
// materializer needs; (parent_id) backs orphan detection and rebuild.
func (d *DB) InitSchema(table string) error {
	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			parent_id INTEGER,
			root INTEGER,
			lft INTEGER,
			rgt INTEGER,
			level INTEGER,
			title TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_root_lft ON %[1]s(root, lft);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_parent ON %[1]s(parent_id);
		CREATE TABLE IF NOT EXISTS tree_sequence (
			name TEXT PRIMARY KEY,
			next INTEGER NOT NULL
		);
	`, table)
	if _, err := d.conn.Exec(stmt); err != nil {
		return fmt.Errorf("creating schema for %s: %w", table, err)
	}
	return nil
}
