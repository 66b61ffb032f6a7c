package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"canopy/arbor/internal/tree"
)

var (
	addParent string
	addBefore string
	addAfter  string
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a node: a new root, or a child/sibling of an existing node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, mgr, err := OpenManager()
		if err != nil {
			return err
		}
		defer d.Close()

		title := args[0]
		switch {
		case addParent != "":
			target, err := resolveNode(mgr, addParent)
			if err != nil {
				return err
			}
			n := tree.NewNode(title)
			if err := mgr.AppendTo(n, target); err != nil {
				return err
			}
			fmt.Printf("added %d under %d [%d,%d]\n", n.ID, target.ID, n.Lft, n.Rgt)
		case addBefore != "":
			target, err := resolveNode(mgr, addBefore)
			if err != nil {
				return err
			}
			n := tree.NewNode(title)
			if err := mgr.InsertBefore(n, target); err != nil {
				return err
			}
			fmt.Printf("added %d before %d [%d,%d]\n", n.ID, target.ID, n.Lft, n.Rgt)
		case addAfter != "":
			target, err := resolveNode(mgr, addAfter)
			if err != nil {
				return err
			}
			n := tree.NewNode(title)
			if err := mgr.InsertAfter(n, target); err != nil {
				return err
			}
			fmt.Printf("added %d after %d [%d,%d]\n", n.ID, target.ID, n.Lft, n.Rgt)
		default:
			n, err := mgr.CreateRoot(title)
			if err != nil {
				return err
			}
			fmt.Printf("created root %d (tree %d)\n", n.ID, n.Root)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addParent, "parent", "", "Append as last child of this node id")
	addCmd.Flags().StringVar(&addBefore, "before", "", "Insert as sibling before this node id")
	addCmd.Flags().StringVar(&addAfter, "after", "", "Insert as sibling after this node id")
	addCmd.MarkFlagsMutuallyExclusive("parent", "before", "after")
	rootCmd.AddCommand(addCmd)
}

func resolveNode(mgr *tree.Manager, ref string) (*tree.Node, error) {
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid node id %q", ref)
	}
	return mgr.Get(id)
}
