package tree

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Query is a chainable predicate builder over the Manager's table. Filters
// compose with AND; a Query is cheap and single-use.
type Query struct {
	runner execer
	table  string
	wheres []string
	args   []any
	orders []string
	limit  int64
	err    error
}

// Query starts an unfiltered query over the tree table.
func (m *Manager) Query() *Query {
	return &Query{runner: m.db.Conn(), table: m.table}
}

// Filter adds a predicate. cond uses ? placeholders.
func (q *Query) Filter(cond string, args ...any) *Query {
	q.wheres = append(q.wheres, cond)
	q.args = append(q.args, args...)
	return q
}

// Exclude adds a negated predicate.
func (q *Query) Exclude(cond string, args ...any) *Query {
	return q.Filter("NOT ("+cond+")", args...)
}

// Order appends ordering terms, e.g. "lft ASC".
func (q *Query) Order(terms ...string) *Query {
	q.orders = append(q.orders, terms...)
	return q
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int64) *Query {
	q.limit = n
	return q
}

func (q *Query) fail(err error) *Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

func (q *Query) sql(selectList string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", selectList, q.table)
	if len(q.wheres) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.wheres, " AND "))
	}
	if len(q.orders) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(q.orders, ", "))
	}
	if q.limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.limit)
	}
	return b.String()
}

// All returns every matching node.
func (q *Query) All() ([]*Node, error) {
	if q.err != nil {
		return nil, q.err
	}
	rows, err := q.runner.Query(q.sql(nodeColumns), q.args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.table, err)
	}
	defer rows.Close()

	var nodes []*Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// One returns the single matching node, or ErrNodeNotFound.
func (q *Query) One() (*Node, error) {
	if q.err != nil {
		return nil, q.err
	}
	row := q.runner.QueryRow(q.sql(nodeColumns), q.args...)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Count returns the number of matching rows.
func (q *Query) Count() (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	var n int64
	if err := q.runner.QueryRow(q.sql("COUNT(*)"), q.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", q.table, err)
	}
	return n, nil
}

// Maps returns matching rows as column-name keyed mappings, the row shape
// BuildForest consumes.
func (q *Query) Maps() ([]map[string]any, error) {
	if q.err != nil {
		return nil, q.err
	}
	rows, err := q.runner.Query(q.sql(nodeColumns), q.args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// anchored starts a query anchored at a positioned node. Scopes built on an
// unpositioned node fail at the terminal call.
func (m *Manager) anchored(n *Node) *Query {
	q := m.Query()
	if !n.Positioned() {
		return q.fail(fmt.Errorf("%w: node %d has no tree position", ErrInvalidOperation, n.ID))
	}
	return q
}

// Descendants matches the subtree below n, ordered by lft. depth <= 0 means
// unbounded; depth 1 is the children generation only.
func (m *Manager) Descendants(n *Node, includeSelf bool, depth int64) *Query {
	c := n.Coord()
	q := m.anchored(n).
		Filter("root = ?", c.Root).
		Filter("lft >= ?", c.Lft).
		Filter("rgt <= ?", c.Rgt).
		Order("lft ASC")
	if !includeSelf {
		q = q.Exclude("id = ?", n.ID)
	}
	if depth > 0 {
		q = q.Filter("level <= ?", c.Level+depth)
	}
	return q
}

// Children matches the immediate children of n.
func (m *Manager) Children(n *Node, includeSelf bool) *Query {
	return m.Descendants(n, includeSelf, 1)
}

// Ancestors matches the chain above n, nearest first. depth <= 0 means
// unbounded; depth 1 is the parent generation only.
func (m *Manager) Ancestors(n *Node, includeSelf bool, depth int64) *Query {
	c := n.Coord()
	q := m.anchored(n).
		Filter("root = ?", c.Root).
		Filter("lft <= ?", c.Lft).
		Filter("rgt >= ?", c.Rgt).
		Order("lft DESC")
	if !includeSelf {
		q = q.Exclude("id = ?", n.ID)
	}
	if depth > 0 {
		q = q.Filter("level >= ?", c.Level-depth)
	}
	return q
}

// Parents matches the parent generation of n.
func (m *Manager) Parents(n *Node, includeSelf bool) *Query {
	return m.Ancestors(n, includeSelf, 1)
}

// Roots matches the head row of every tree in the table.
func (m *Manager) Roots() *Query {
	return m.Query().Filter("lft = 1").Order("root ASC")
}

// Parent returns n's parent node, or ErrNodeNotFound for a root.
func (m *Manager) Parent(n *Node) (*Node, error) {
	c := n.Coord()
	return m.anchored(n).
		Filter("root = ?", c.Root).
		Filter("lft < ?", c.Lft).
		Filter("rgt > ?", c.Rgt).
		Filter("level = ?", c.Level-1).
		One()
}

// PrevSibling returns the sibling immediately before n, or ErrNodeNotFound.
func (m *Manager) PrevSibling(n *Node) (*Node, error) {
	c := n.Coord()
	return m.anchored(n).
		Filter("root = ?", c.Root).
		Filter("rgt = ?", c.Lft-1).
		One()
}

// NextSibling returns the sibling immediately after n, or ErrNodeNotFound.
func (m *Manager) NextSibling(n *Node) (*Node, error) {
	c := n.Coord()
	return m.anchored(n).
		Filter("root = ?", c.Root).
		Filter("lft = ?", c.Rgt+1).
		One()
}
