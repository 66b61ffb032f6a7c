package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"canopy/arbor/internal/db"
	"canopy/arbor/internal/tree"
)

var (
	dbPath    string
	tableName string
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Nested-set tree storage and maintenance",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to .arbor.db database")
	rootCmd.PersistentFlags().StringVar(&tableName, "table", "nodes", "Tree table name")
}

// DiscoverDB finds the database path using priority: env > flag > walk-up
func DiscoverDB() (string, error) {
	// 1. Environment variable
	if envPath := os.Getenv("ARBOR_DB"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	// 2. CLI flag
	if dbPath != "" {
		if _, err := os.Stat(dbPath); err == nil {
			return dbPath, nil
		}
		return "", fmt.Errorf("database not found at --db path: %s", dbPath)
	}

	// 3. Walk up from CWD
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, ".arbor.db")
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	return "", fmt.Errorf("no .arbor.db found (set ARBOR_DB, use --db, or run from a directory containing .arbor.db)")
}

// OpenManager discovers the database and binds a Manager to the tree table.
// The caller owns closing the returned DB.
func OpenManager() (*db.DB, *tree.Manager, error) {
	path, err := DiscoverDB()
	if err != nil {
		return nil, nil, err
	}
	d, err := db.OpenDB(path)
	if err != nil {
		return nil, nil, err
	}
	return d, tree.NewManager(d, tableName), nil
}
