package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"finlingo/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version        string                `json:"version"`
	ExportedAt     time.Time             `json:"exported_at"`
	Users          []UserBackup          `json:"users"`
	ChildProfiles  []ChildProfileBackup  `json:"child_profiles"`
	ParentProfiles []ParentProfileBackup `json:"parent_profiles"`
	Links          []LinkBackup          `json:"links"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID           int64     `json:"id"`
	Role         string    `json:"role"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ChildProfileBackup represents a child profile record for backup
type ChildProfileBackup struct {
	UserID    int64     `json:"user_id"`
	ChildID   string    `json:"child_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ParentProfileBackup represents a parent profile record for backup
type ParentProfileBackup struct {
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LinkBackup represents a parent-child link for backup
type LinkBackup struct {
	ParentUserID int64     `json:"parent_user_id"`
	ChildUserID  int64     `json:"child_user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now(),
	}

	if err := s.exportUsers(backup); err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	if err := s.exportChildProfiles(backup); err != nil {
		return fmt.Errorf("failed to export child profiles: %w", err)
	}
	if err := s.exportParentProfiles(backup); err != nil {
		return fmt.Errorf("failed to export parent profiles: %w", err)
	}
	if err := s.exportLinks(backup); err != nil {
		return fmt.Errorf("failed to export links: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Database exported successfully to %s", outputPath)
	log.Printf("Exported: %d users, %d child profiles, %d parent profiles, %d links",
		len(backup.Users), len(backup.ChildProfiles), len(backup.ParentProfiles), len(backup.Links))

	return nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a database from a backup document.
// Row IDs are preserved so profile and link references stay intact.
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	log.Println("Starting database import...")

	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	if backup.Version != "1.0" {
		return fmt.Errorf("unsupported backup version: %s", backup.Version)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, u := range backup.Users {
		query := `
			INSERT INTO users (id, role, name, username, password_hash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.Exec(query, u.ID, u.Role, u.Name, u.Username, u.PasswordHash, u.CreatedAt, u.UpdatedAt); err != nil {
			return fmt.Errorf("failed to import user %d: %w", u.ID, err)
		}
	}

	for _, p := range backup.ChildProfiles {
		query := "INSERT INTO child_profiles (user_id, child_id, created_at) VALUES (?, ?, ?)"
		if _, err := tx.Exec(query, p.UserID, p.ChildID, p.CreatedAt); err != nil {
			return fmt.Errorf("failed to import child profile for user %d: %w", p.UserID, err)
		}
	}

	for _, p := range backup.ParentProfiles {
		query := "INSERT INTO parent_profiles (user_id, created_at) VALUES (?, ?)"
		if _, err := tx.Exec(query, p.UserID, p.CreatedAt); err != nil {
			return fmt.Errorf("failed to import parent profile for user %d: %w", p.UserID, err)
		}
	}

	for _, l := range backup.Links {
		query := "INSERT INTO parent_child_links (parent_user_id, child_user_id, created_at) VALUES (?, ?, ?)"
		if _, err := tx.Exec(query, l.ParentUserID, l.ChildUserID, l.CreatedAt); err != nil {
			return fmt.Errorf("failed to import link %d->%d: %w", l.ParentUserID, l.ChildUserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	log.Printf("Imported: %d users, %d child profiles, %d parent profiles, %d links",
		len(backup.Users), len(backup.ChildProfiles), len(backup.ParentProfiles), len(backup.Links))

	return nil
}

// Clear removes all account data, link and profile rows first so the
// foreign keys to users never dangle mid-delete.
func (s *BackupService) Clear() error {
	tables := []string{"parent_child_links", "child_profiles", "parent_profiles", "users"}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range tables {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	return tx.Commit()
}

func (s *BackupService) exportUsers(backup *BackupData) error {
	rows, err := s.db.Query("SELECT id, role, name, username, password_hash, created_at, updated_at FROM users ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Role, &u.Name, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) exportChildProfiles(backup *BackupData) error {
	rows, err := s.db.Query("SELECT user_id, child_id, created_at FROM child_profiles ORDER BY user_id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p ChildProfileBackup
		if err := rows.Scan(&p.UserID, &p.ChildID, &p.CreatedAt); err != nil {
			return err
		}
		backup.ChildProfiles = append(backup.ChildProfiles, p)
	}
	return rows.Err()
}

func (s *BackupService) exportParentProfiles(backup *BackupData) error {
	rows, err := s.db.Query("SELECT user_id, created_at FROM parent_profiles ORDER BY user_id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p ParentProfileBackup
		if err := rows.Scan(&p.UserID, &p.CreatedAt); err != nil {
			return err
		}
		backup.ParentProfiles = append(backup.ParentProfiles, p)
	}
	return rows.Err()
}

func (s *BackupService) exportLinks(backup *BackupData) error {
	rows, err := s.db.Query("SELECT parent_user_id, child_user_id, created_at FROM parent_child_links ORDER BY parent_user_id, child_user_id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l LinkBackup
		if err := rows.Scan(&l.ParentUserID, &l.ChildUserID, &l.CreatedAt); err != nil {
			return err
		}
		backup.Links = append(backup.Links, l)
	}
	return rows.Err()
}
