package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"canopy/arbor/internal/db"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the tree table and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := dbPath
		if path == "" {
			path = ".arbor.db"
		}
		d, err := db.OpenDB(path)
		if err != nil {
			return err
		}
		defer d.Close()
		if err := d.InitSchema(tableName); err != nil {
			return err
		}
		fmt.Printf("initialized %s (table %s)\n", path, tableName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
