package store

import "testing"

func newTestSheet(t *testing.T, backend Store) {
	t.Helper()
	if err := backend.EnsureSheet("Animals", []string{"id", "name", "legs"}); err != nil {
		t.Fatalf("failed to create sheet: %v", err)
	}
}

func appendRow(t *testing.T, backend Store, row Row) {
	t.Helper()
	if err := backend.Append("Animals", row); err != nil {
		t.Fatalf("failed to append row: %v", err)
	}
}

func byID(id string) Predicate {
	return func(row Row) bool { return row["id"] == id }
}

func runAdapterContract(t *testing.T, backend Store) {
	t.Helper()

	if _, err := backend.ReadAll("Missing"); err != ErrSheetMissing {
		t.Fatalf("expected ErrSheetMissing for unknown sheet, got %v", err)
	}

	newTestSheet(t, backend)

	rows, err := backend.ReadAll("Animals")
	if err != nil {
		t.Fatalf("unexpected error reading empty sheet: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty sheet, got %d rows", len(rows))
	}

	appendRow(t, backend, Row{"id": "a1", "name": "ant", "legs": "6", "wings": "0"})
	appendRow(t, backend, Row{"id": "a2", "name": "bee"})

	rows, err = backend.ReadAll("Animals")
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0]["id"] != "a1" || rows[1]["id"] != "a2" {
		t.Fatalf("rows out of append order: %v", rows)
	}
	if _, exists := rows[0]["wings"]; exists {
		t.Fatalf("key without a header column should be dropped on append")
	}
	if rows[1]["legs"] != "" {
		t.Fatalf("absent key should produce an empty cell, got %q", rows[1]["legs"])
	}

	updated, err := backend.UpdateCell("Animals", byID("a2"), "legs", "6")
	if err != nil || !updated {
		t.Fatalf("expected cell update to succeed, got updated=%v err=%v", updated, err)
	}
	updated, err = backend.UpdateCell("Animals", byID("nope"), "legs", "8")
	if err != nil || updated {
		t.Fatalf("update of unmatched row should report false without error, got %v %v", updated, err)
	}
	updated, err = backend.UpdateCell("Animals", byID("a1"), "antennae", "2")
	if err != nil || updated {
		t.Fatalf("update of absent column should report false without error, got %v %v", updated, err)
	}

	rows, _ = backend.ReadAll("Animals")
	if rows[1]["legs"] != "6" {
		t.Fatalf("cell write did not persist: %v", rows[1])
	}

	// The row is located once, so a cell the predicate keys on may itself be
	// overwritten without losing the rest of the write.
	updated, err = backend.UpdateRow("Animals", byID("a2"), Row{"id": "b2", "name": "beetle", "antennae": "2"})
	if err != nil || !updated {
		t.Fatalf("expected row update to succeed, got updated=%v err=%v", updated, err)
	}
	rows, _ = backend.ReadAll("Animals")
	if rows[1]["id"] != "b2" || rows[1]["name"] != "beetle" {
		t.Fatalf("row update must apply every cell even when the match key changes: %v", rows[1])
	}
	if _, exists := rows[1]["antennae"]; exists {
		t.Fatalf("key without a header column should be ignored on row update")
	}
	updated, err = backend.UpdateRow("Animals", byID("a2"), Row{"name": "gone"})
	if err != nil || updated {
		t.Fatalf("row update of unmatched row should report false without error, got %v %v", updated, err)
	}

	removed, err := backend.DeleteRow("Animals", byID("a1"))
	if err != nil || !removed {
		t.Fatalf("expected delete to succeed, got removed=%v err=%v", removed, err)
	}
	removed, err = backend.DeleteRow("Animals", byID("a1"))
	if err != nil || removed {
		t.Fatalf("second delete of same row should report false, got %v %v", removed, err)
	}
}

func runBulkDeleteContract(t *testing.T, backend Store) {
	t.Helper()
	if err := backend.EnsureSheet("Bulk", []string{"id", "group"}); err != nil {
		t.Fatalf("failed to create sheet: %v", err)
	}
	seed := []Row{
		{"id": "1", "group": "x"},
		{"id": "2", "group": "y"},
		{"id": "3", "group": "x"},
		{"id": "4", "group": "x"},
		{"id": "5", "group": "y"},
	}
	for _, row := range seed {
		if err := backend.Append("Bulk", row); err != nil {
			t.Fatalf("failed to append: %v", err)
		}
	}

	// Adjacent matches exercise the positional-shift hazard that reverse
	// iteration exists to avoid.
	deleted, err := backend.DeleteRows("Bulk", func(row Row) bool { return row["group"] == "x" })
	if err != nil {
		t.Fatalf("unexpected bulk delete error: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deletions, got %d", deleted)
	}

	rows, err := backend.ReadAll("Bulk")
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if len(rows) != 2 || rows[0]["id"] != "2" || rows[1]["id"] != "5" {
		t.Fatalf("unexpected survivors: %v", rows)
	}

	deleted, err = backend.DeleteRows("Bulk", func(row Row) bool { return row["group"] == "z" })
	if err != nil || deleted != 0 {
		t.Fatalf("zero-match bulk delete should return 0 without error, got %d %v", deleted, err)
	}
}

func TestMemoryStoreAdapterContract(t *testing.T) {
	runAdapterContract(t, NewMemoryStore())
}

func TestMemoryStoreBulkDelete(t *testing.T) {
	runBulkDeleteContract(t, NewMemoryStore())
}

func TestMemoryStoreEnsureSheetIsIdempotent(t *testing.T) {
	backend := NewMemoryStore()
	newTestSheet(t, backend)
	appendRow(t, backend, Row{"id": "a1"})

	if err := backend.EnsureSheet("Animals", []string{"other"}); err != nil {
		t.Fatalf("re-ensuring an existing sheet should not fail: %v", err)
	}
	rows, err := backend.ReadAll("Animals")
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if len(rows) != 1 || rows[0]["id"] != "a1" {
		t.Fatalf("re-ensure must leave existing data intact: %v", rows)
	}
}

func TestMemoryStoreRejectsEmptyHeader(t *testing.T) {
	backend := NewMemoryStore()
	if err := backend.EnsureSheet("Empty", nil); err != ErrEmptyHeader {
		t.Fatalf("expected ErrEmptyHeader, got %v", err)
	}
}
