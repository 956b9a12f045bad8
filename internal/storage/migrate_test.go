package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func TestMigrateSchemaReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "moneybuddy.db")

	first, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if first.SchemaVersion() != 1 {
		t.Errorf("schema version = %d, want 1", first.SchemaVersion())
	}
	if err := first.Set(ctx, TransactionsKey, []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if second.SchemaVersion() != 1 {
		t.Errorf("schema version after reopen = %d", second.SchemaVersion())
	}
	if v, err := second.Get(ctx, TransactionsKey); err != nil || string(v) != `[]` {
		t.Errorf("value after reopen = %q err=%v", v, err)
	}
}

func TestMigrateSchemaRefusesDirty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moneybuddy.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`UPDATE schema_migrations SET dirty = 1`); err != nil {
		t.Fatalf("mark dirty: %v", err)
	}
	db.Close()

	if _, err := NewSQLiteStore(path); !errors.Is(err, ErrDirtySchema) {
		t.Fatalf("expected ErrDirtySchema, got %v", err)
	}
}
