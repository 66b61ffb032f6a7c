package tree

// Coord is the nested-set position of a node: the interval [Lft, Rgt] inside
// the tree identified by Root, at depth Level. Roots are level 0 and always
// occupy lft 1. Root is an opaque tree identifier; callers must not assume it
// equals the root node's pk.
type Coord struct {
	Lft   int64
	Rgt   int64
	Level int64
	Root  int64
}

// IsLeaf reports whether the interval contains no other node.
func (c Coord) IsLeaf() bool {
	return c.Rgt-c.Lft == 1
}

// IsRoot reports whether the coordinate heads its tree.
func (c Coord) IsRoot() bool {
	return c.Lft == 1
}

// Width is the number of boundary slots the subtree occupies,
// twice the node count of the subtree.
func (c Coord) Width() int64 {
	return c.Rgt - c.Lft + 1
}

// IsDescendantOf reports whether c lies strictly inside other's interval
// within the same tree.
func (c Coord) IsDescendantOf(other Coord) bool {
	return c.Lft > other.Lft && c.Rgt < other.Rgt && c.Root == other.Root
}
