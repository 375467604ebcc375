package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	db, err := OpenSQLite(filepath.Join(dir, "state", "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	if err := db.Save(ctx, SeenHandle, []byte(`{"seen_urls":[]}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := db.Load(ctx, SeenHandle)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `{"seen_urls":[]}` {
		t.Errorf("unexpected blob %q", got)
	}
}

func TestSQLiteSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)

	if err := db.Save(ctx, SettingsHandle, []byte("one")); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := db.Save(ctx, SettingsHandle, []byte("two")); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err := db.Load(ctx, SettingsHandle)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != "two" {
		t.Errorf("expected overwritten blob, got %q", got)
	}

	count, size, err := db.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 blob, got %d", count)
	}
	if size <= 0 {
		t.Errorf("expected non-zero file size, got %d", size)
	}
}

func TestSQLiteMissingHandle(t *testing.T) {
	db := testDB(t)
	_, err := db.Load(context.Background(), "nope.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteBacksSeenStore(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	seen := NewSeenStore(db, nil, nil)

	if err := seen.Record(ctx, []string{"https://a"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	set, err := seen.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !set.Contains("https://a") {
		t.Errorf("expected recorded url in %v", set.URLs())
	}
}
