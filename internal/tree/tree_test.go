package tree

import (
	"sort"
	"testing"

	"canopy/arbor/internal/db"
)

// setupManager creates an in-memory SQLite database with the tree schema.
func setupManager(t *testing.T) (*db.DB, *Manager) {
	t.Helper()
	d, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	if err := d.InitSchema("nodes"); err != nil {
		t.Fatal(err)
	}
	return d, NewManager(d, "nodes")
}

func i64(v int64) *int64 { return &v }

// insertPositioned writes a fully positioned row directly, bypassing the
// mutation engine, for fixtures that need exact coordinates.
func insertPositioned(t *testing.T, d *db.DB, id int64, parent *int64, root, lft, rgt, level int64, title string) {
	t.Helper()
	_, err := d.Conn().Exec(
		`INSERT INTO nodes (id, parent_id, root, lft, rgt, level, title, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1000, 1000)`,
		id, parent, root, lft, rgt, level, title,
	)
	if err != nil {
		t.Fatal(err)
	}
}

// insertUnpositioned writes a row with null interval fields, the state bulk
// import leaves behind for Rebuild.
func insertUnpositioned(t *testing.T, d *db.DB, id int64, parent *int64, title string) {
	t.Helper()
	_, err := d.Conn().Exec(
		`INSERT INTO nodes (id, parent_id, title, created_at, updated_at) VALUES (?, ?, ?, 1000, 1000)`,
		id, parent, title,
	)
	if err != nil {
		t.Fatal(err)
	}
}

func mustGet(t *testing.T, m *Manager, id int64) *Node {
	t.Helper()
	n, err := m.Get(id)
	if err != nil {
		t.Fatalf("Get(%d): %v", id, err)
	}
	return n
}

// wantCoord asserts a node's full coordinate.
func wantCoord(t *testing.T, m *Manager, id, lft, rgt, level, root int64) {
	t.Helper()
	n := mustGet(t, m, id)
	if !n.Positioned() {
		t.Fatalf("node %d: not positioned", id)
	}
	if n.Lft != lft || n.Rgt != rgt || n.Level != level || n.Root != root {
		t.Errorf("node %d = [%d,%d] level %d root %d, want [%d,%d] level %d root %d",
			id, n.Lft, n.Rgt, n.Level, n.Root, lft, rgt, level, root)
	}
}

type rowInfo struct {
	id     int64
	parent *int64
	root   int64
	lft    int64
	rgt    int64
	level  int64
}

func loadPositioned(t *testing.T, d *db.DB) []rowInfo {
	t.Helper()
	rows, err := d.Conn().Query(
		`SELECT id, parent_id, root, lft, rgt, level FROM nodes WHERE lft IS NOT NULL ORDER BY root, lft`)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	var out []rowInfo
	for rows.Next() {
		var r rowInfo
		if err := rows.Scan(&r.id, &r.parent, &r.root, &r.lft, &r.rgt, &r.level); err != nil {
			t.Fatal(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	return out
}

// checkInvariants verifies, for every tree in the table: the boundary
// multiset is exactly 1..2k, intervals are odd-width and properly nested,
// the head row is a level-0 parent-less node at lft 1, and each parent_id
// points at the node whose interval strictly contains the child one level up.
func checkInvariants(t *testing.T, d *db.DB) {
	t.Helper()
	all := loadPositioned(t, d)
	byID := make(map[int64]rowInfo, len(all))
	byRoot := make(map[int64][]rowInfo)
	for _, r := range all {
		byID[r.id] = r
		byRoot[r.root] = append(byRoot[r.root], r)
	}

	for root, nodes := range byRoot {
		var bounds []int64
		for _, n := range nodes {
			if n.lft >= n.rgt {
				t.Errorf("tree %d node %d: lft %d >= rgt %d", root, n.id, n.lft, n.rgt)
			}
			if (n.rgt-n.lft)%2 == 0 {
				t.Errorf("tree %d node %d: even interval [%d,%d]", root, n.id, n.lft, n.rgt)
			}
			bounds = append(bounds, n.lft, n.rgt)
		}
		sort.Slice(bounds, func(i, j int) bool { return bounds[i] < bounds[j] })
		for i, b := range bounds {
			if b != int64(i+1) {
				t.Fatalf("tree %d: boundaries not a permutation of 1..%d: %v", root, len(bounds), bounds)
			}
		}

		// nodes are in lft order already
		head := nodes[0]
		if head.lft != 1 || head.level != 0 || head.parent != nil {
			t.Errorf("tree %d: bad head row %+v", root, head)
		}
		var stack []rowInfo
		for _, n := range nodes {
			for len(stack) > 0 && stack[len(stack)-1].rgt < n.lft {
				stack = stack[:len(stack)-1]
			}
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				if !(n.lft > top.lft && n.rgt < top.rgt) {
					t.Errorf("tree %d: node %d [%d,%d] overlaps %d [%d,%d]",
						root, n.id, n.lft, n.rgt, top.id, top.lft, top.rgt)
				}
			}
			stack = append(stack, n)

			if n.parent != nil {
				p, ok := byID[*n.parent]
				if !ok {
					t.Errorf("tree %d: node %d has missing parent %d", root, n.id, *n.parent)
					continue
				}
				if p.root != n.root || !(p.lft < n.lft && n.rgt < p.rgt) {
					t.Errorf("tree %d: node %d [%d,%d] not inside parent %d [%d,%d]",
						root, n.id, n.lft, n.rgt, p.id, p.lft, p.rgt)
				}
				if p.level != n.level-1 {
					t.Errorf("tree %d: node %d level %d, parent %d level %d",
						root, n.id, n.level, p.id, p.level)
				}
			}
		}
	}
}
