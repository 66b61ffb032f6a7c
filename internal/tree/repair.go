package tree

import (
	"database/sql"
	"fmt"
)

// RepairStats reports what the detectors corrected.
type RepairStats struct {
	OrphanRootRows   int64 // rows removed because their tree head vanished
	OrphanBranchRows int64 // rows removed under a missing parent
	RootsCompacted   int   // trees whose boundaries were renumbered
}

// Repair runs the corruption detectors in fixed order inside one
// transaction: orphaned trees, orphaned branches, then interval compaction.
// Structural corruption is expected transient state after raw deletes, not
// an error.
func (m *Manager) Repair() (RepairStats, error) {
	var stats RepairStats
	err := m.db.WithTx(func(tx *sql.Tx) error {
		s, err := m.repair(tx)
		stats = s
		return err
	})
	return stats, err
}

func (m *Manager) repair(tx execer) (RepairStats, error) {
	var stats RepairStats
	var err error
	if stats.OrphanRootRows, err = m.removeOrphanTrees(tx); err != nil {
		return stats, err
	}
	if stats.OrphanBranchRows, err = m.removeOrphanBranches(tx); err != nil {
		return stats, err
	}
	if stats.RootsCompacted, err = m.compact(tx); err != nil {
		return stats, err
	}
	return stats, nil
}

// removeOrphanTrees deletes every row whose root value no longer matches a
// tree head (a parent-less positioned row). Those rows were disconnected
// when their root was deleted out from under them.
func (m *Manager) removeOrphanTrees(tx execer) (int64, error) {
	stmt := fmt.Sprintf(`
		DELETE FROM %[1]s
		WHERE root IS NOT NULL
		  AND root NOT IN (
			SELECT root FROM %[1]s WHERE parent_id IS NULL AND root IS NOT NULL
		  )
	`, m.table)
	res, err := tx.Exec(stmt)
	if err != nil {
		return 0, fmt.Errorf("removing orphaned trees: %w", err)
	}
	return res.RowsAffected()
}

// removeOrphanBranches deletes branches whose parent_id references a pk that
// no longer exists. Each dangling row is removed together with its whole
// interval. Deleting a branch can expose further dangling rows (unpositioned
// children of deleted rows), so it iterates to a fixpoint.
func (m *Manager) removeOrphanBranches(tx execer) (int64, error) {
	var total int64
	for {
		stmt := fmt.Sprintf(`
			SELECT id, root, lft, rgt FROM %[1]s c
			WHERE c.parent_id IS NOT NULL
			  AND NOT EXISTS (SELECT 1 FROM %[1]s p WHERE p.id = c.parent_id)
		`, m.table)
		rows, err := tx.Query(stmt)
		if err != nil {
			return total, fmt.Errorf("finding orphaned branches: %w", err)
		}
		type branch struct {
			id             int64
			root, lft, rgt sql.NullInt64
		}
		var dangling []branch
		for rows.Next() {
			var b branch
			if err := rows.Scan(&b.id, &b.root, &b.lft, &b.rgt); err != nil {
				rows.Close()
				return total, err
			}
			dangling = append(dangling, b)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return total, err
		}
		if len(dangling) == 0 {
			return total, nil
		}

		for _, b := range dangling {
			var res sql.Result
			if b.root.Valid && b.lft.Valid && b.rgt.Valid {
				stmt := fmt.Sprintf("DELETE FROM %s WHERE root = ? AND lft >= ? AND rgt <= ?", m.table)
				res, err = tx.Exec(stmt, b.root.Int64, b.lft.Int64, b.rgt.Int64)
			} else {
				stmt := fmt.Sprintf("DELETE FROM %s WHERE id = ?", m.table)
				res, err = tx.Exec(stmt, b.id)
			}
			if err != nil {
				return total, fmt.Errorf("removing branch under %d: %w", b.id, err)
			}
			n, _ := res.RowsAffected()
			total += n
		}
	}
}

// compact renumbers each tree's boundaries back to a contiguous 1..2k,
// preserving preorder and nesting. Any hole left by a raw delete, and any
// childless row still claiming a wider interval, collapses: everything past
// a gap of width w shifts back by w. Returns how many trees changed.
func (m *Manager) compact(tx execer) (int, error) {
	stmt := fmt.Sprintf("SELECT DISTINCT root FROM %s WHERE root IS NOT NULL ORDER BY root", m.table)
	rows, err := tx.Query(stmt)
	if err != nil {
		return 0, fmt.Errorf("listing trees: %w", err)
	}
	var roots []int64
	for rows.Next() {
		var r int64
		if err := rows.Scan(&r); err != nil {
			rows.Close()
			return 0, err
		}
		roots = append(roots, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	changed := 0
	for _, root := range roots {
		fixed, err := m.compactRoot(tx, root)
		if err != nil {
			return changed, err
		}
		if fixed {
			changed++
		}
	}
	return changed, nil
}

func (m *Manager) compactRoot(tx execer, root int64) (bool, error) {
	stmt := fmt.Sprintf(
		"SELECT id, lft, rgt FROM %s WHERE root = ? AND lft IS NOT NULL ORDER BY lft", m.table)
	rows, err := tx.Query(stmt, root)
	if err != nil {
		return false, fmt.Errorf("loading tree %d: %w", root, err)
	}
	type span struct {
		id, lft, rgt int64
	}
	var spans []span
	for rows.Next() {
		var s span
		if err := rows.Scan(&s.id, &s.lft, &s.rgt); err != nil {
			rows.Close()
			return false, err
		}
		spans = append(spans, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, err
	}
	if len(spans) == 0 {
		return false, nil
	}

	// Walk the preorder sequence with an open-ancestor stack. A row is
	// nested in the stack top while its rgt is smaller; rows are assigned
	// fresh boundaries in visit order, in ascending rgt within each close.
	newL := make([]int64, len(spans))
	newR := make([]int64, len(spans))
	var stack []int
	next := int64(1)
	for i, s := range spans {
		for len(stack) > 0 && s.rgt > spans[stack[len(stack)-1]].rgt {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			newR[top] = next
			next++
		}
		newL[i] = next
		next++
		stack = append(stack, i)
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		newR[top] = next
		next++
	}

	changed := false
	upd := fmt.Sprintf("UPDATE %s SET lft = ?, rgt = ? WHERE id = ?", m.table)
	for i, s := range spans {
		if newL[i] == s.lft && newR[i] == s.rgt {
			continue
		}
		if _, err := tx.Exec(upd, newL[i], newR[i], s.id); err != nil {
			return changed, fmt.Errorf("renumbering node %d: %w", s.id, err)
		}
		changed = true
	}
	return changed, nil
}

// PassStats reports one rebuild pass. Observational only.
type PassStats struct {
	Pass      int
	Placed    int
	Remaining int
}

// Rebuild places every unpositioned row from scratch. Parent-less rows
// become fresh trees (root = pk, lft 1, rgt 2, level 0); rows whose parent
// is already positioned are appended as its last child; the rest wait for
// the next pass. A pass that places nothing while rows remain means the
// parent references cycle, and returns ErrRebuildStalled.
func (m *Manager) Rebuild() ([]PassStats, error) {
	var passes []PassStats
	for pass := 1; ; pass++ {
		pending, err := m.pendingRows()
		if err != nil {
			return passes, err
		}
		if len(pending) == 0 {
			return passes, nil
		}

		placed := 0
		for _, id := range pending {
			ok, err := m.placeRow(id)
			if err != nil {
				return passes, err
			}
			if ok {
				placed++
			}
		}
		remaining := len(pending) - placed
		passes = append(passes, PassStats{Pass: pass, Placed: placed, Remaining: remaining})
		if remaining == 0 {
			return passes, nil
		}
		if placed == 0 {
			return passes, fmt.Errorf("%w: %d rows unplaced after pass %d", ErrRebuildStalled, remaining, pass)
		}
	}
}

// pendingRows lists unpositioned rows, parent-less first so fresh trees are
// ready before their children come around.
func (m *Manager) pendingRows() ([]int64, error) {
	stmt := fmt.Sprintf("SELECT id FROM %s WHERE lft IS NULL ORDER BY parent_id, id", m.table)
	rows, err := m.db.Conn().Query(stmt)
	if err != nil {
		return nil, fmt.Errorf("listing unpositioned rows: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// placeRow positions one row. Each placement is its own shift+set atomic
// unit. Returns false when the row must wait for a later pass.
func (m *Manager) placeRow(id int64) (bool, error) {
	placed := false
	err := m.db.WithTx(func(tx *sql.Tx) error {
		var parent sql.NullInt64
		q := fmt.Sprintf("SELECT parent_id FROM %s WHERE id = ? AND lft IS NULL", m.table)
		if err := tx.QueryRow(q, id).Scan(&parent); err != nil {
			if err == sql.ErrNoRows {
				return nil // fixed meanwhile
			}
			return err
		}

		if !parent.Valid {
			stmt := fmt.Sprintf(
				"UPDATE %s SET root = id, lft = 1, rgt = 2, level = 0 WHERE id = ?", m.table)
			if _, err := tx.Exec(stmt, id); err != nil {
				return fmt.Errorf("making root of %d: %w", id, err)
			}
			placed = true
			return nil
		}

		var root, rgt, level sql.NullInt64
		q = fmt.Sprintf("SELECT root, rgt, level FROM %s WHERE id = ?", m.table)
		err := tx.QueryRow(q, parent.Int64).Scan(&root, &rgt, &level)
		if err == sql.ErrNoRows || (err == nil && !rgt.Valid) {
			return nil // parent missing or not positioned yet; retry next pass
		}
		if err != nil {
			return err
		}

		key := rgt.Int64
		if err := m.shift(tx, key, 2, root.Int64); err != nil {
			return err
		}
		stmt := fmt.Sprintf(
			"UPDATE %s SET root = ?, lft = ?, rgt = ?, level = ? WHERE id = ?", m.table)
		if _, err := tx.Exec(stmt, root.Int64, key, key+1, level.Int64+1, id); err != nil {
			return fmt.Errorf("placing node %d: %w", id, err)
		}
		placed = true
		return nil
	})
	return placed, err
}
