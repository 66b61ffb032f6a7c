package tree

import "database/sql"

// Node represents a row in a tree table. The interval fields (Root, Lft,
// Rgt, Level) are owned by the mutation and repair engines; they are only
// meaningful when Positioned reports true.
type Node struct {
	ID        int64  `json:"id"`
	ParentID  *int64 `json:"parent_id"`
	Root      int64  `json:"root"`
	Lft       int64  `json:"lft"`
	Rgt       int64  `json:"rgt"`
	Level     int64  `json:"level"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"created_at"` // Unix millis
	UpdatedAt int64  `json:"updated_at"` // Unix millis

	positioned bool
}

// nodeColumns is the standard column order every node query selects.
const nodeColumns = "id, parent_id, root, lft, rgt, level, title, created_at, updated_at"

// NewNode returns an unsaved node. It gains a pk and a tree position through
// one of the Manager insert operations.
func NewNode(title string) *Node {
	return &Node{Title: title}
}

// IsNew reports whether the node has not been saved yet.
func (n *Node) IsNew() bool {
	return n.ID == 0
}

// Positioned reports whether the node carries valid interval fields.
// Rows created by bulk import start unpositioned until Rebuild places them.
func (n *Node) Positioned() bool {
	return n.positioned
}

// Coord returns the node's interval coordinate. Only valid when Positioned.
func (n *Node) Coord() Coord {
	return Coord{Lft: n.Lft, Rgt: n.Rgt, Level: n.Level, Root: n.Root}
}

// scanNode scans a row into a Node. The row must have all columns of
// nodeColumns in standard order.
func scanNode(scanner interface{ Scan(dest ...any) error }) (*Node, error) {
	var n Node
	var parent, root, lft, rgt, level sql.NullInt64
	err := scanner.Scan(
		&n.ID, &parent, &root, &lft, &rgt, &level,
		&n.Title, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if parent.Valid {
		p := parent.Int64
		n.ParentID = &p
	}
	if root.Valid && lft.Valid && rgt.Valid && level.Valid {
		n.Root = root.Int64
		n.Lft = lft.Int64
		n.Rgt = rgt.Int64
		n.Level = level.Int64
		n.positioned = true
	}
	return &n, nil
}
