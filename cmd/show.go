package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	treeJSON bool
	treeNode string
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the stored hierarchy in nested form",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, mgr, err := OpenManager()
		if err != nil {
			return err
		}
		defer d.Close()

		var forest []map[string]any
		if treeNode != "" {
			n, err := resolveNode(mgr, treeNode)
			if err != nil {
				return err
			}
			forest, err = mgr.Subtree(n, "children")
			if err != nil {
				return err
			}
		} else {
			forest, err = mgr.Forest("children")
			if err != nil {
				return err
			}
		}

		if treeJSON {
			out, err := json.MarshalIndent(forest, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}
		fmt.Print(renderForest(forest, "children"))
		return nil
	},
}

func init() {
	treeCmd.Flags().BoolVar(&treeJSON, "json", false, "Emit JSON instead of indented text")
	treeCmd.Flags().StringVar(&treeNode, "node", "", "Print only the subtree under this node id")
	rootCmd.AddCommand(treeCmd)
}

// renderForest formats a nested forest as an indented listing, one node per
// line with its id and interval.
func renderForest(forest []map[string]any, childrenKey string) string {
	var b strings.Builder
	var walk func(rows []map[string]any, depth int)
	walk = func(rows []map[string]any, depth int) {
		for _, row := range rows {
			fmt.Fprintf(&b, "%s%v [%v,%v] %v\n",
				strings.Repeat("  ", depth), row["id"], row["lft"], row["rgt"], row["title"])
			if kids, ok := row[childrenKey].([]map[string]any); ok {
				walk(kids, depth+1)
			}
		}
	}
	walk(forest, 0)
	return b.String()
}
