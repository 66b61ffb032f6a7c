package tree

import (
	"database/sql"
	"fmt"
)

// shift opens or closes a gap: every boundary in root at or past key moves by
// delta. The only primitive that changes interval width; every higher-level
// operation is shifts plus one placement.
func (m *Manager) shift(tx execer, key, delta, root int64) error {
	stmt := fmt.Sprintf("UPDATE %s SET lft = lft + ? WHERE root = ? AND lft >= ?", m.table)
	if _, err := tx.Exec(stmt, delta, root, key); err != nil {
		return fmt.Errorf("shifting lft at %d: %w", key, err)
	}
	stmt = fmt.Sprintf("UPDATE %s SET rgt = rgt + ? WHERE root = ? AND rgt >= ?", m.table)
	if _, err := tx.Exec(stmt, delta, root, key); err != nil {
		return fmt.Errorf("shifting rgt at %d: %w", key, err)
	}
	return nil
}

// CreateRoot saves a new node as the head of a fresh tree.
func (m *Manager) CreateRoot(title string) (*Node, error) {
	now := nowMillis()
	n := NewNode(title)
	err := m.db.WithTx(func(tx *sql.Tx) error {
		rootID, err := m.nextRootID(tx)
		if err != nil {
			return err
		}
		stmt := fmt.Sprintf(
			"INSERT INTO %s (parent_id, root, lft, rgt, level, title, created_at, updated_at) VALUES (NULL, ?, 1, 2, 0, ?, ?, ?)",
			m.table)
		res, err := tx.Exec(stmt, rootID, title, now, now)
		if err != nil {
			return fmt.Errorf("inserting root: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		n.ID = id
		n.Root = rootID
		return nil
	})
	if err != nil {
		return nil, err
	}
	n.Lft, n.Rgt, n.Level = 1, 2, 0
	n.CreatedAt, n.UpdatedAt = now, now
	n.positioned = true
	return n, nil
}

// AppendTo saves n as the last child of target.
func (m *Manager) AppendTo(n, target *Node) error {
	return m.addNode(n, target, target.Rgt, 1)
}

// PrependTo saves n as the first child of target.
func (m *Manager) PrependTo(n, target *Node) error {
	return m.addNode(n, target, target.Lft+1, 1)
}

// InsertBefore saves n as the sibling immediately before target.
func (m *Manager) InsertBefore(n, target *Node) error {
	return m.addNode(n, target, target.Lft, 0)
}

// InsertAfter saves n as the sibling immediately after target.
func (m *Manager) InsertAfter(n, target *Node) error {
	return m.addNode(n, target, target.Rgt+1, 0)
}

// addNode places a new node at key in target's tree. levelDelta is 1 for a
// child placement and 0 for a sibling placement.
func (m *Manager) addNode(n, target *Node, key, levelDelta int64) error {
	if !n.IsNew() {
		return fmt.Errorf("%w: node %d is already saved", ErrInvalidOperation, n.ID)
	}
	if !target.Positioned() {
		return fmt.Errorf("%w: target %d has no tree position", ErrInvalidOperation, target.ID)
	}
	if levelDelta == 0 && target.Coord().IsRoot() {
		return fmt.Errorf("%w: cannot insert a sibling of a root", ErrInvalidOperation)
	}

	parentID := target.ID
	if levelDelta == 0 {
		parentID = *target.ParentID
	}
	now := nowMillis()

	var id int64
	err := m.db.WithTx(func(tx *sql.Tx) error {
		if err := m.shift(tx, key, 2, target.Root); err != nil {
			return err
		}
		stmt := fmt.Sprintf(
			"INSERT INTO %s (parent_id, root, lft, rgt, level, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			m.table)
		res, err := tx.Exec(stmt, parentID, target.Root, key, key+1, target.Level+levelDelta, n.Title, now, now)
		if err != nil {
			return fmt.Errorf("inserting node: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return err
	}

	n.ID = id
	n.ParentID = &parentID
	n.Root = target.Root
	n.Lft, n.Rgt = key, key+1
	n.Level = target.Level + levelDelta
	n.CreatedAt, n.UpdatedAt = now, now
	n.positioned = true
	return nil
}

// MoveAsLast relocates n (with its subtree) to be the last child of target.
func (m *Manager) MoveAsLast(n, target *Node) error {
	return m.moveNode(n, target, target.Rgt, 1)
}

// MoveAsFirst relocates n (with its subtree) to be the first child of target.
func (m *Manager) MoveAsFirst(n, target *Node) error {
	return m.moveNode(n, target, target.Lft+1, 1)
}

// MoveBefore relocates n (with its subtree) to sit immediately before target.
func (m *Manager) MoveBefore(n, target *Node) error {
	return m.moveNode(n, target, target.Lft, 0)
}

// MoveAfter relocates n (with its subtree) to sit immediately after target.
func (m *Manager) MoveAfter(n, target *Node) error {
	return m.moveNode(n, target, target.Rgt+1, 0)
}

// moveNode relocates a positioned subtree to key, possibly across trees.
// All bounds are captured before the first shift; reusing bounds read after
// a shift would corrupt the tree.
func (m *Manager) moveNode(n, target *Node, key, levelDelta int64) error {
	if n.IsNew() {
		return fmt.Errorf("%w: node is not saved", ErrInvalidOperation)
	}
	if !n.Positioned() || !target.Positioned() {
		return fmt.Errorf("%w: node has no tree position", ErrInvalidOperation)
	}
	if n.ID == target.ID {
		return fmt.Errorf("%w: node %d cannot be its own target", ErrInvalidOperation, n.ID)
	}
	if target.Coord().IsDescendantOf(n.Coord()) {
		return fmt.Errorf("%w: target %d is inside the moved subtree", ErrInvalidOperation, target.ID)
	}
	if levelDelta == 0 && target.Coord().IsRoot() {
		return fmt.Errorf("%w: cannot move next to a root", ErrInvalidOperation)
	}

	left, right, root := n.Lft, n.Rgt, n.Root
	width := right - left + 1
	levelShift := target.Level - n.Level + levelDelta
	parentID := target.ID
	if levelDelta == 0 {
		parentID = *target.ParentID
	}

	err := m.db.WithTx(func(tx *sql.Tx) error {
		if root != target.Root {
			// Cross-tree: open the gap in the target tree, carry the subtree
			// over, then close the hole left in the source tree.
			if err := m.shift(tx, key, width, target.Root); err != nil {
				return err
			}
			stmt := fmt.Sprintf(
				"UPDATE %s SET lft = lft + ?, rgt = rgt + ?, level = level + ?, root = ? WHERE root = ? AND lft >= ? AND rgt <= ?",
				m.table)
			delta := key - left
			if _, err := tx.Exec(stmt, delta, delta, levelShift, target.Root, root, left, right); err != nil {
				return fmt.Errorf("carrying subtree across trees: %w", err)
			}
			if err := m.shift(tx, right+1, -width, root); err != nil {
				return err
			}
		} else {
			if err := m.shift(tx, key, width, root); err != nil {
				return err
			}
			// The gap just opened may have shifted the subtree itself.
			l, r := left, right
			if l >= key {
				l += width
				r += width
			}
			stmt := fmt.Sprintf(
				"UPDATE %s SET level = level + ? WHERE root = ? AND lft >= ? AND rgt <= ?",
				m.table)
			if _, err := tx.Exec(stmt, levelShift, root, l, r); err != nil {
				return fmt.Errorf("adjusting levels: %w", err)
			}
			stmt = fmt.Sprintf(
				"UPDATE %s SET lft = lft + ?, rgt = rgt + ? WHERE root = ? AND lft >= ? AND rgt <= ?",
				m.table)
			if _, err := tx.Exec(stmt, key-l, key-l, root, l, r); err != nil {
				return fmt.Errorf("translating subtree: %w", err)
			}
			if err := m.shift(tx, r+1, -width, root); err != nil {
				return err
			}
		}
		stmt := fmt.Sprintf("UPDATE %s SET parent_id = ?, updated_at = ? WHERE id = ?", m.table)
		if _, err := tx.Exec(stmt, parentID, nowMillis(), n.ID); err != nil {
			return fmt.Errorf("reparenting node %d: %w", n.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return m.Refresh(n)
}

// MoveAsRoot promotes n's subtree to a fresh top-level tree with a new root
// identifier, then closes the gap left behind.
func (m *Manager) MoveAsRoot(n *Node) error {
	if n.IsNew() {
		return fmt.Errorf("%w: node is not saved", ErrInvalidOperation)
	}
	if !n.Positioned() {
		return fmt.Errorf("%w: node %d has no tree position", ErrInvalidOperation, n.ID)
	}
	if n.Coord().IsRoot() {
		return fmt.Errorf("%w: node %d is already a root", ErrInvalidOperation, n.ID)
	}

	left, right, root, level := n.Lft, n.Rgt, n.Root, n.Level
	width := right - left + 1

	err := m.db.WithTx(func(tx *sql.Tx) error {
		newRoot, err := m.nextRootID(tx)
		if err != nil {
			return err
		}
		stmt := fmt.Sprintf(
			"UPDATE %s SET lft = lft + ?, rgt = rgt + ?, level = level - ?, root = ? WHERE root = ? AND lft >= ? AND rgt <= ?",
			m.table)
		if _, err := tx.Exec(stmt, 1-left, 1-left, level, newRoot, root, left, right); err != nil {
			return fmt.Errorf("promoting subtree: %w", err)
		}
		stmt = fmt.Sprintf("UPDATE %s SET parent_id = NULL, updated_at = ? WHERE id = ?", m.table)
		if _, err := tx.Exec(stmt, nowMillis(), n.ID); err != nil {
			return fmt.Errorf("detaching node %d: %w", n.ID, err)
		}
		return m.shift(tx, right+1, -width, root)
	})
	if err != nil {
		return err
	}
	return m.Refresh(n)
}

// Delete removes n and every node inside its interval, then runs the repair
// detectors in the same transaction: the bulk delete leaves a hole with no
// compensating shift, and the compaction pass closes it.
func (m *Manager) Delete(n *Node) error {
	if n.IsNew() {
		return fmt.Errorf("%w: node is not saved", ErrInvalidOperation)
	}
	if !n.Positioned() {
		return fmt.Errorf("%w: node %d has no tree position", ErrInvalidOperation, n.ID)
	}
	left, right, root := n.Lft, n.Rgt, n.Root
	return m.db.WithTx(func(tx *sql.Tx) error {
		stmt := fmt.Sprintf("DELETE FROM %s WHERE root = ? AND lft >= ? AND rgt <= ?", m.table)
		if _, err := tx.Exec(stmt, root, left, right); err != nil {
			return fmt.Errorf("deleting subtree of %d: %w", n.ID, err)
		}
		_, err := m.repair(tx)
		return err
	})
}
