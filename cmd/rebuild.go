package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Place every unpositioned row from parent_id references",
	Long: `Rebuild walks rows whose interval fields are null, making parent-less
rows fresh trees and appending the rest under their parents, pass by pass
until every row is placed. Idempotent; safe to re-run after an aborted run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, mgr, err := OpenManager()
		if err != nil {
			return err
		}
		defer d.Close()

		passes, err := mgr.Rebuild()
		for _, p := range passes {
			fmt.Printf("pass %d: placed %d, remaining %d\n", p.Pass, p.Placed, p.Remaining)
		}
		if err != nil {
			return err
		}
		if len(passes) == 0 {
			fmt.Println("nothing to rebuild")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}
