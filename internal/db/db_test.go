package db

import (
	"database/sql"
	"errors"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestInitSchemaIdempotent(t *testing.T) {
	d := openTestDB(t)
	if err := d.InitSchema("nodes"); err != nil {
		t.Fatal(err)
	}
	if err := d.InitSchema("nodes"); err != nil {
		t.Fatalf("second InitSchema failed: %v", err)
	}

	var count int
	err := d.Conn().QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('nodes', 'tree_sequence')`,
	).Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("got %d tables, want 2", count)
	}
}

func TestWithTxCommit(t *testing.T) {
	d := openTestDB(t)
	if err := d.InitSchema("nodes"); err != nil {
		t.Fatal(err)
	}

	err := d.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO nodes (title, created_at, updated_at) VALUES ('x', 1, 1)`)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	var count int
	if err := d.Conn().QueryRow(`SELECT COUNT(*) FROM nodes`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("got %d rows, want 1", count)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	d := openTestDB(t)
	if err := d.InitSchema("nodes"); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := d.WithTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO nodes (title, created_at, updated_at) VALUES ('x', 1, 1)`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	var count int
	if err := d.Conn().QueryRow(`SELECT COUNT(*) FROM nodes`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("got %d rows after rollback, want 0", count)
	}
}
