package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkFix bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Detect (and with --fix repair) structural corruption",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, mgr, err := OpenManager()
		if err != nil {
			return err
		}
		defer d.Close()

		if checkFix {
			stats, err := mgr.Repair()
			if err != nil {
				return err
			}
			fmt.Printf("removed %d orphaned tree row(s), %d orphaned branch row(s), compacted %d tree(s)\n",
				stats.OrphanRootRows, stats.OrphanBranchRows, stats.RootsCompacted)
			return nil
		}

		roots, err := mgr.Roots().All()
		if err != nil {
			return err
		}
		fmt.Printf("%d tree(s)\n", len(roots))
		for _, r := range roots {
			count, err := mgr.Descendants(r, true, 0).Count()
			if err != nil {
				return err
			}
			ok := r.Rgt == 2*count
			status := "ok"
			if !ok {
				status = fmt.Sprintf("INCONSISTENT (rgt %d, %d nodes)", r.Rgt, count)
			}
			fmt.Printf("  tree %d: %d node(s) %s\n", r.Root, count, status)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkFix, "fix", false, "Run the repair detectors")
	rootCmd.AddCommand(checkCmd)
}
