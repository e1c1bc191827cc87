package database

import (
    "context"
    "database/sql"
    "testing"
    "testing/fstest"
)

func openInMemoryDB(t *testing.T) *sql.DB {
    t.Helper()
    db, err := OpenSQLite(MemoryPath)
    if err != nil {
        t.Fatalf("open sqlite: %v", err)
    }
    t.Cleanup(func() { _ = db.Close() })
    return db
}

func queryInt64(t *testing.T, db *sql.DB, q string) int64 {
    t.Helper()
    var n int64
    if err := db.QueryRow(q).Scan(&n); err != nil {
        t.Fatalf("query %q: %v", q, err)
    }
    return n
}

func TestApplyMigrationsRecordsApplied(t *testing.T) {
    db := openInMemoryDB(t)
    fsys := fstest.MapFS{
        "001_create.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE items;")},
    }
    ctx := context.Background()
    for i := 0; i < 2; i++ {
        if err := ApplyMigrations(ctx, db, fsys, ""); err != nil {
            t.Fatalf("apply migrations (run %d): %v", i, err)
        }
    }
    if n := queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"); n != 1 {
        t.Fatalf("migration rows = %d, want 1", n)
    }
    if n := queryInt64(t, db, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='items'"); n != 1 {
        t.Fatal("expected items table to exist")
    }
}

func TestApplyMigrationsDoesNotRecordFailure(t *testing.T) {
    db := openInMemoryDB(t)
    bad := fstest.MapFS{
        "001_bad.sql": &fstest.MapFile{Data: []byte("CREAT table things(id INT);")},
    }
    if err := ApplyMigrations(context.Background(), db, bad, ""); err == nil {
        t.Fatal("expected bad migration to fail")
    }
    if n := queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"); n != 0 {
        t.Fatalf("failed migration recorded %d rows", n)
    }
}

func TestMigrateEmbeddedSQLite(t *testing.T) {
    db := openInMemoryDB(t)
    ctx := context.Background()
    if err := Migrate(ctx, db, "sqlite"); err != nil {
        t.Fatalf("migrate: %v", err)
    }
    for _, table := range []string{"users", "sessions", "session_registrations", "refresh_tokens"} {
        var name string
        err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
        if err != nil {
            t.Fatalf("table %s missing: %v", table, err)
        }
    }
    if err := Migrate(ctx, db, "postgres"); err == nil {
        t.Fatal("expected error for unknown driver")
    }
}

func TestSplitStatements(t *testing.T) {
    script := ExtractUpMigration("-- +migrate Up\n-- comment\nCREATE TABLE a(x INT);\n\nCREATE INDEX i ON a(x);\n-- +migrate Down\nDROP TABLE a;")
    got := SplitStatements(script)
    if len(got) != 2 {
        t.Fatalf("statements = %q, want 2", got)
    }
    if got[0] != "CREATE TABLE a(x INT)" {
        t.Fatalf("first statement = %q", got[0])
    }
}
