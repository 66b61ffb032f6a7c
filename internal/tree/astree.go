package tree

// BuildForest nests a flat, (root, lft)-ordered sequence of row mappings
// into a forest, attaching children under childrenKey. Each row must carry a
// "level" value; (root, lft) order is preorder, so one linear pass with an
// open-ancestor stack reconstructs the full nesting without re-querying.
//
// The stack holds indices into a build arena rather than references into the
// output; the nested maps are emitted once the shape is final.
func BuildForest(rows []map[string]any, childrenKey string) []map[string]any {
	type entry struct {
		row      map[string]any
		level    int64
		children []int
	}
	arena := make([]entry, 0, len(rows))
	var tops []int
	var stack []int

	for _, row := range rows {
		lvl := rowLevel(row)
		// Anything at or below this level cannot be an ancestor.
		for len(stack) > 0 && arena[stack[len(stack)-1]].level >= lvl {
			stack = stack[:len(stack)-1]
		}
		idx := len(arena)
		arena = append(arena, entry{row: row, level: lvl})
		if len(stack) == 0 {
			tops = append(tops, idx)
		} else {
			p := stack[len(stack)-1]
			arena[p].children = append(arena[p].children, idx)
		}
		stack = append(stack, idx)
	}

	var emit func(idx int) map[string]any
	emit = func(idx int) map[string]any {
		e := arena[idx]
		if len(e.children) > 0 {
			kids := make([]map[string]any, len(e.children))
			for i, c := range e.children {
				kids[i] = emit(c)
			}
			e.row[childrenKey] = kids
		}
		return e.row
	}

	out := make([]map[string]any, len(tops))
	for i, idx := range tops {
		out[i] = emit(idx)
	}
	return out
}

func rowLevel(row map[string]any) int64 {
	switch v := row["level"].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// Forest returns every tree in the table in nested form, children under
// childrenKey.
func (m *Manager) Forest(childrenKey string) ([]map[string]any, error) {
	rows, err := m.Query().
		Filter("lft IS NOT NULL").
		Order("root ASC", "lft ASC").
		Maps()
	if err != nil {
		return nil, err
	}
	return BuildForest(rows, childrenKey), nil
}

// Subtree returns n and its descendants in nested form.
func (m *Manager) Subtree(n *Node, childrenKey string) ([]map[string]any, error) {
	rows, err := m.Descendants(n, true, 0).Maps()
	if err != nil {
		return nil, err
	}
	return BuildForest(rows, childrenKey), nil
}
