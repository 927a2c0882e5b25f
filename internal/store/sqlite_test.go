package store

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newSQLiteBackend(t *testing.T) *SQLiteStore {
	t.Helper()
	dsn := fmt.Sprintf("file:wayfarer_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	if err := db.AutoMigrate(&SheetRow{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	backend, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("failed to construct sqlite store: %v", err)
	}
	return backend
}

func TestSQLiteStoreAdapterContract(t *testing.T) {
	runAdapterContract(t, newSQLiteBackend(t))
}

func TestSQLiteStoreBulkDelete(t *testing.T) {
	runBulkDeleteContract(t, newSQLiteBackend(t))
}

func TestSQLiteStoreAppendPositionsSurviveDeletion(t *testing.T) {
	backend := newSQLiteBackend(t)
	if err := backend.EnsureSheet("Log", []string{"id"}); err != nil {
		t.Fatalf("failed to create sheet: %v", err)
	}
	for i := 1; i <= 3; i++ {
		if err := backend.Append("Log", Row{"id": fmt.Sprintf("r%d", i)}); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}
	if _, err := backend.DeleteRow("Log", func(row Row) bool { return row["id"] == "r2" }); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if err := backend.Append("Log", Row{"id": "r4"}); err != nil {
		t.Fatalf("failed to append after delete: %v", err)
	}
	rows, err := backend.ReadAll("Log")
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if len(rows) != 3 || rows[0]["id"] != "r1" || rows[1]["id"] != "r3" || rows[2]["id"] != "r4" {
		t.Fatalf("append order not preserved across deletion: %v", rows)
	}
}

func TestNewSQLiteStoreRequiresDatabase(t *testing.T) {
	if _, err := NewSQLiteStore(nil); err == nil {
		t.Fatalf("expected error for nil database handle")
	}
}
