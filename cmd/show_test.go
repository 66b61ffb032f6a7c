package cmd

import "testing"

func TestRenderForest(t *testing.T) {
	forest := []map[string]any{
		{
			"id": int64(1), "lft": int64(1), "rgt": int64(6), "title": "top",
			"children": []map[string]any{
				{"id": int64(2), "lft": int64(2), "rgt": int64(3), "title": "kid"},
				{"id": int64(3), "lft": int64(4), "rgt": int64(5), "title": "kid2"},
			},
		},
	}

	got := renderForest(forest, "children")
	want := "1 [1,6] top\n  2 [2,3] kid\n  3 [4,5] kid2\n"
	if got != want {
		t.Errorf("renderForest:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderForestEmpty(t *testing.T) {
	if got := renderForest(nil, "children"); got != "" {
		t.Errorf("renderForest(nil) = %q, want empty", got)
	}
}
