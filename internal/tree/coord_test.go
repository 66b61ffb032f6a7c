package tree

import "testing"

func TestCoordPredicates(t *testing.T) {
	root := Coord{Lft: 1, Rgt: 8, Level: 0, Root: 3}
	mid := Coord{Lft: 2, Rgt: 7, Level: 1, Root: 3}
	leaf := Coord{Lft: 3, Rgt: 4, Level: 2, Root: 3}
	otherTree := Coord{Lft: 2, Rgt: 3, Level: 1, Root: 4}

	tests := []struct {
		name   string
		c      Coord
		isLeaf bool
		isRoot bool
		width  int64
	}{
		{"root", root, false, true, 8},
		{"mid", mid, false, false, 6},
		{"leaf", leaf, true, false, 2},
	}
	for _, tt := range tests {
		if got := tt.c.IsLeaf(); got != tt.isLeaf {
			t.Errorf("%s: IsLeaf() = %v, want %v", tt.name, got, tt.isLeaf)
		}
		if got := tt.c.IsRoot(); got != tt.isRoot {
			t.Errorf("%s: IsRoot() = %v, want %v", tt.name, got, tt.isRoot)
		}
		if got := tt.c.Width(); got != tt.width {
			t.Errorf("%s: Width() = %d, want %d", tt.name, got, tt.width)
		}
	}

	if !leaf.IsDescendantOf(root) || !leaf.IsDescendantOf(mid) || !mid.IsDescendantOf(root) {
		t.Error("containment chain not detected")
	}
	if root.IsDescendantOf(leaf) || mid.IsDescendantOf(leaf) {
		t.Error("reversed containment detected")
	}
	if otherTree.IsDescendantOf(root) {
		t.Error("containment across trees detected")
	}
}
