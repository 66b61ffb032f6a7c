package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a node and its whole subtree",
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
		count, err := mgr.Descendants(n, true, 0).Count()
		if err != nil {
			return err
		}
		if err := mgr.Delete(n); err != nil {
			return err
		}
		fmt.Printf("deleted %d node(s)\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
