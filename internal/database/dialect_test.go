package database

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "sqlite3"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for SQLite")
		}
	})

	t.Run("DSN enables foreign keys for every connection", func(t *testing.T) {
		got := dialect.DSN(DialectConfig{Path: "/tmp/app.db"})
		want := "file:/tmp/app.db?_foreign_keys=on&_journal_mode=WAL"
		if got != want {
			t.Errorf("DSN() = %v, want %v", got, want)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "sqlite"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})

	t.Run("RewriteQuery keeps placeholders", func(t *testing.T) {
		query := "SELECT * FROM users WHERE id = ? AND role = ?"
		if got := dialect.RewriteQuery(query); got != query {
			t.Errorf("RewriteQuery() = %v, want %v", got, query)
		}
	})

	t.Run("IgnoreConflict", func(t *testing.T) {
		got := dialect.IgnoreConflict("INSERT INTO t (a) VALUES (?)")
		want := "INSERT OR IGNORE INTO t (a) VALUES (?)"
		if got != want {
			t.Errorf("IgnoreConflict() = %v, want %v", got, want)
		}
	})

	t.Run("IsUniqueViolation", func(t *testing.T) {
		uniqueErr := sqlite3.Error{
			Code:         sqlite3.ErrConstraint,
			ExtendedCode: sqlite3.ErrConstraintUnique,
		}
		if !dialect.IsUniqueViolation(uniqueErr) {
			t.Error("expected unique constraint error to be detected")
		}

		otherErr := sqlite3.Error{Code: sqlite3.ErrBusy}
		if dialect.IsUniqueViolation(otherErr) {
			t.Error("busy error should not count as unique violation")
		}

		if dialect.IsUniqueViolation(nil) {
			t.Error("nil should not count as unique violation")
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "postgres"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return false for PostgreSQL")
		}
	})

	t.Run("RewriteQuery numbers placeholders", func(t *testing.T) {
		got := dialect.RewriteQuery("INSERT INTO users (role, username) VALUES (?, ?)")
		want := "INSERT INTO users (role, username) VALUES ($1, $2)"
		if got != want {
			t.Errorf("RewriteQuery() = %v, want %v", got, want)
		}
	})

	t.Run("IgnoreConflict", func(t *testing.T) {
		got := dialect.IgnoreConflict("INSERT INTO t (a) VALUES (?);")
		want := "INSERT INTO t (a) VALUES (?) ON CONFLICT DO NOTHING"
		if got != want {
			t.Errorf("IgnoreConflict() = %v, want %v", got, want)
		}
	})

	t.Run("IsUniqueViolation", func(t *testing.T) {
		if !dialect.IsUniqueViolation(&pq.Error{Code: "23505"}) {
			t.Error("expected 23505 to be detected as unique violation")
		}
		if dialect.IsUniqueViolation(&pq.Error{Code: "23503"}) {
			t.Error("foreign key violation should not count as unique violation")
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "mysql"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		if !dialect.SupportsLastInsertId() {
			t.Error("SupportsLastInsertId() should return true for MySQL")
		}
	})

	t.Run("IgnoreConflict", func(t *testing.T) {
		got := dialect.IgnoreConflict("INSERT INTO t (a) VALUES (?)")
		want := "INSERT IGNORE INTO t (a) VALUES (?)"
		if got != want {
			t.Errorf("IgnoreConflict() = %v, want %v", got, want)
		}
	})

	t.Run("IsUniqueViolation", func(t *testing.T) {
		if !dialect.IsUniqueViolation(&mysql.MySQLError{Number: 1062}) {
			t.Error("expected ER_DUP_ENTRY to be detected as unique violation")
		}
		if dialect.IsUniqueViolation(&mysql.MySQLError{Number: 1452}) {
			t.Error("foreign key violation should not count as unique violation")
		}
	})
}
