package tree

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"canopy/arbor/internal/db"
)

var (
	// ErrNodeNotFound is returned when a query resolves to no row.
	ErrNodeNotFound = errors.New("tree: node not found")

	// ErrInvalidOperation is returned when a mutation precondition fails.
	// No writes have happened when it is returned.
	ErrInvalidOperation = errors.New("tree: invalid operation")

	// ErrRebuildStalled is returned when a rebuild pass places no rows while
	// unpositioned rows remain, which means the parent_id references cycle.
	ErrRebuildStalled = errors.New("tree: rebuild stalled")
)

// execer is the slice of database/sql shared by *sql.DB and *sql.Tx, so the
// mutation and repair primitives compose into an enclosing transaction.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Manager binds one tree table to the nested-set engine. All interval writes
// for that table go through it; use one Manager per tree table.
type Manager struct {
	db    *db.DB
	table string
}

// NewManager returns a Manager over the given table.
func NewManager(d *db.DB, table string) *Manager {
	return &Manager{db: d, table: table}
}

// Table returns the underlying table name.
func (m *Manager) Table() string {
	return m.table
}

// Get returns the node with the given pk.
func (m *Manager) Get(id int64) (*Node, error) {
	return m.Query().Filter("id = ?", id).One()
}

// Refresh re-reads the node's row in place, picking up interval changes made
// by mutations elsewhere in the tree.
func (m *Manager) Refresh(n *Node) error {
	fresh, err := m.Get(n.ID)
	if err != nil {
		return fmt.Errorf("refreshing node %d: %w", n.ID, err)
	}
	*n = *fresh
	return nil
}

// nextRootID hands out tree identifiers from a single-row counter, seeded
// past any root value already present in the table. Running it inside the
// caller's transaction serializes allocation, so two concurrent root
// creations cannot collide the way a max(root)+1 read would. Rebuild-created
// roots use root = pk, which the max() against the table accounts for.
func (m *Manager) nextRootID(tx execer) (int64, error) {
	stmt := fmt.Sprintf(`
		INSERT INTO tree_sequence (name, next)
		VALUES (?, (SELECT COALESCE(MAX(root), 0) + 1 FROM %[1]s))
		ON CONFLICT(name) DO UPDATE SET
			next = MAX(next, (SELECT COALESCE(MAX(root), 0) FROM %[1]s)) + 1
		RETURNING next
	`, m.table)
	var id int64
	if err := tx.QueryRow(stmt, m.table).Scan(&id); err != nil {
		return 0, fmt.Errorf("allocating root id: %w", err)
	}
	return id, nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
