package database

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(filepath.Join("..", "..", "migrations")); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

// TestMigrationsCreateSchema verifies the accounts schema exists after migrations
func TestMigrationsCreateSchema(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)

	tables := []string{"users", "child_profiles", "parent_profiles", "parent_child_links"}

	for _, table := range tables {
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		var name string
		if err := db.QueryRow(query, table).Scan(&name); err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}
}

// TestMigrationsAreIdempotent verifies running migrations twice is safe
func TestMigrationsAreIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)

	if err := db.RunMigrations(filepath.Join("..", "..", "migrations")); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
		t.Fatalf("Failed to count migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 recorded migration, got %d", count)
	}
}

// TestTransactionRollback verifies rolled-back writes do not persist
func TestTransactionRollback(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}

	_, err = tx.Exec("INSERT INTO users (role, name, username, password_hash) VALUES (?, ?, ?, ?)",
		"parent", "Test", "rollbackuser", "hashedpass")
	if err != nil {
		tx.Rollback()
		t.Fatalf("Failed to insert in transaction: %v", err)
	}

	if err := tx.Rollback(); err != nil {
		t.Fatalf("Failed to rollback transaction: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE username = ?", "rollbackuser").Scan(&count); err != nil {
		t.Fatalf("Failed to query after rollback: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 users after rollback, got %d", count)
	}
}

// TestUniqueUsernameConstraint verifies the store-level username invariant
func TestUniqueUsernameConstraint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)

	insert := "INSERT INTO users (role, name, username, password_hash) VALUES (?, ?, ?, ?)"
	if _, err := db.Exec(insert, "child", "Ana", "ana_k", "hash1"); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	_, err := db.Exec(insert, "parent", "Other", "ana_k", "hash2")
	if err == nil {
		t.Fatal("Expected duplicate username insert to fail")
	}
	if !db.Dialect.IsUniqueViolation(err) {
		t.Errorf("Expected unique violation, got %v", err)
	}
}

// TestCascadeDeleteCleansProfilesAndLinks verifies ON DELETE CASCADE semantics
func TestCascadeDeleteCleansProfilesAndLinks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)

	childID, err := db.ExecReturningID("INSERT INTO users (role, name, username, password_hash) VALUES (?, ?, ?, ?)",
		"child", "Ana", "ana_k", "hash")
	if err != nil {
		t.Fatalf("Failed to insert child user: %v", err)
	}
	parentID, err := db.ExecReturningID("INSERT INTO users (role, name, username, password_hash) VALUES (?, ?, ?, ?)",
		"parent", "Dad", "dad1", "hash")
	if err != nil {
		t.Fatalf("Failed to insert parent user: %v", err)
	}

	if _, err := db.Exec("INSERT INTO child_profiles (user_id, child_id) VALUES (?, ?)", childID, "CH-00000001"); err != nil {
		t.Fatalf("Failed to insert child profile: %v", err)
	}
	if _, err := db.Exec("INSERT INTO parent_profiles (user_id) VALUES (?)", parentID); err != nil {
		t.Fatalf("Failed to insert parent profile: %v", err)
	}
	if _, err := db.Exec("INSERT INTO parent_child_links (parent_user_id, child_user_id) VALUES (?, ?)", parentID, childID); err != nil {
		t.Fatalf("Failed to insert link: %v", err)
	}

	if _, err := db.Exec("DELETE FROM users WHERE id = ?", childID); err != nil {
		t.Fatalf("Failed to delete child user: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM child_profiles WHERE user_id = ?", childID).Scan(&count); err != nil {
		t.Fatalf("Failed to count profiles: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected child profile to cascade-delete, found %d rows", count)
	}

	if err := db.QueryRow("SELECT COUNT(*) FROM parent_child_links WHERE child_user_id = ?", childID).Scan(&count); err != nil {
		t.Fatalf("Failed to count links: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected links to cascade-delete, found %d rows", count)
	}
}

// TestForeignKeysEnforcedOnEveryConnection verifies FK enforcement is a
// property of the DSN, not of whichever pooled connection ran a pragma
func TestForeignKeysEnforcedOnEveryConnection(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()

	// Hold two distinct pooled connections at once
	conn1, err := db.DB.Conn(ctx)
	if err != nil {
		t.Fatalf("Failed to acquire connection: %v", err)
	}
	defer conn1.Close()

	conn2, err := db.DB.Conn(ctx)
	if err != nil {
		t.Fatalf("Failed to acquire connection: %v", err)
	}
	defer conn2.Close()

	var enabled int
	if err := conn1.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
		t.Fatalf("Failed to read pragma on conn1: %v", err)
	}
	if enabled != 1 {
		t.Errorf("foreign_keys on conn1 = %d, want 1", enabled)
	}
	if err := conn2.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
		t.Fatalf("Failed to read pragma on conn2: %v", err)
	}
	if enabled != 1 {
		t.Errorf("foreign_keys on conn2 = %d, want 1", enabled)
	}

	// A delete routed over the second connection must still cascade
	userID, err := db.ExecReturningID("INSERT INTO users (role, name, username, password_hash) VALUES (?, ?, ?, ?)",
		"child", "Ana", "ana_k", "hash")
	if err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}
	if _, err := db.Exec("INSERT INTO child_profiles (user_id, child_id) VALUES (?, ?)", userID, "CH-00000001"); err != nil {
		t.Fatalf("Failed to insert child profile: %v", err)
	}

	if _, err := conn2.ExecContext(ctx, "DELETE FROM users WHERE id = ?", userID); err != nil {
		t.Fatalf("Failed to delete user on conn2: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM child_profiles WHERE user_id = ?", userID).Scan(&count); err != nil {
		t.Fatalf("Failed to count profiles: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected cascade delete over second connection, found %d orphaned rows", count)
	}
}

// TestIgnoreConflictInsideTransaction verifies a constraint conflict
// handled via IgnoreConflict leaves the transaction usable
func TestIgnoreConflictInsideTransaction(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)

	userA, err := db.ExecReturningID("INSERT INTO users (role, name, username, password_hash) VALUES (?, ?, ?, ?)",
		"child", "A", "child_a", "hash")
	if err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}
	userB, err := db.ExecReturningID("INSERT INTO users (role, name, username, password_hash) VALUES (?, ?, ?, ?)",
		"child", "B", "child_b", "hash")
	if err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	insert := tx.GetDialect().IgnoreConflict("INSERT INTO child_profiles (user_id, child_id) VALUES (?, ?)")

	result, err := tx.Exec(insert, userA, "CH-AAAAAAAA")
	if err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if rows, _ := result.RowsAffected(); rows != 1 {
		t.Fatalf("Expected first insert to affect 1 row, got %d", rows)
	}

	// Same child_id for a different user: conflict, zero rows, no error
	result, err = tx.Exec(insert, userB, "CH-AAAAAAAA")
	if err != nil {
		t.Fatalf("Conflicting insert errored instead of no-op: %v", err)
	}
	if rows, _ := result.RowsAffected(); rows != 0 {
		t.Fatalf("Expected conflicting insert to affect 0 rows, got %d", rows)
	}

	// Transaction must still accept statements after the conflict
	result, err = tx.Exec(insert, userB, "CH-BBBBBBBB")
	if err != nil {
		t.Fatalf("Insert after conflict failed: %v", err)
	}
	if rows, _ := result.RowsAffected(); rows != 1 {
		t.Fatalf("Expected retry insert to affect 1 row, got %d", rows)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
}
