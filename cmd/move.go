package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"canopy/arbor/internal/tree"
)

var (
	moveLastOf  string
	moveFirstOf string
	moveBefore  string
	moveAfter   string
	moveAsRoot  bool
)

var moveCmd = &cobra.Command{
	Use:   "move <id>",
	Short: "Relocate a node and its subtree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, mgr, err := OpenManager()
		if err != nil {
			return err
		}
		defer d.Close()

		n, err := resolveNode(mgr, args[0])
		if err != nil {
			return err
		}

		var op func(*tree.Node, *tree.Node) error
		var targetRef string
		switch {
		case moveAsRoot:
			if err := mgr.MoveAsRoot(n); err != nil {
				return err
			}
			fmt.Printf("promoted %d to root of tree %d\n", n.ID, n.Root)
			return nil
		case moveLastOf != "":
			op, targetRef = mgr.MoveAsLast, moveLastOf
		case moveFirstOf != "":
			op, targetRef = mgr.MoveAsFirst, moveFirstOf
		case moveBefore != "":
			op, targetRef = mgr.MoveBefore, moveBefore
		case moveAfter != "":
			op, targetRef = mgr.MoveAfter, moveAfter
		default:
			return fmt.Errorf("specify --last-of, --first-of, --before, --after, or --as-root")
		}

		target, err := resolveNode(mgr, targetRef)
		if err != nil {
			return err
		}
		if err := op(n, target); err != nil {
			return err
		}
		fmt.Printf("moved %d to [%d,%d] in tree %d\n", n.ID, n.Lft, n.Rgt, n.Root)
		return nil
	},
}

func init() {
	moveCmd.Flags().StringVar(&moveLastOf, "last-of", "", "Move as last child of this node id")
	moveCmd.Flags().StringVar(&moveFirstOf, "first-of", "", "Move as first child of this node id")
	moveCmd.Flags().StringVar(&moveBefore, "before", "", "Move as sibling before this node id")
	moveCmd.Flags().StringVar(&moveAfter, "after", "", "Move as sibling after this node id")
	moveCmd.Flags().BoolVar(&moveAsRoot, "as-root", false, "Promote to a new top-level tree")
	moveCmd.MarkFlagsMutuallyExclusive("last-of", "first-of", "before", "after", "as-root")
	rootCmd.AddCommand(moveCmd)
}
