package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"finlingo/internal/database"
	"finlingo/internal/models"
)

var (
	// ErrDuplicateUsername is returned when a username already exists
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateChildID is returned when a child identifier collides
	ErrDuplicateChildID = errors.New("child id already exists")
	// ErrNotFound is returned by lookups that miss
	ErrNotFound = errors.New("not found")
)

// AccountRepository handles database operations for users, profiles and links
type AccountRepository struct {
	db database.DBTX
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db database.DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction,
// so account creation can span multiple statements atomically.
func (r *AccountRepository) WithTx(tx *database.Tx) *AccountRepository {
	return &AccountRepository{db: tx}
}

// CreateUser inserts a new user row and returns its ID.
// A username uniqueness violation is reported as ErrDuplicateUsername.
func (r *AccountRepository) CreateUser(role, name, username, passwordHash string) (int64, error) {
	query := `
		INSERT INTO users (role, name, username, password_hash)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, role, name, username, passwordHash)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return 0, ErrDuplicateUsername
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// CreateChildProfile inserts the child profile row carrying the public
// child identifier. A collision on the identifier is reported as
// ErrDuplicateChildID without poisoning the enclosing transaction, so
// callers can retry with a fresh candidate.
func (r *AccountRepository) CreateChildProfile(userID int64, childID string) error {
	dialect := r.db.GetDialect()
	query := dialect.IgnoreConflict("INSERT INTO child_profiles (user_id, child_id) VALUES (?, ?)")

	result, err := r.db.Exec(query, userID, childID)
	if err != nil {
		return fmt.Errorf("failed to create child profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read child profile insert result: %w", err)
	}
	if rows == 0 {
		return ErrDuplicateChildID
	}
	return nil
}

// CreateParentProfile inserts the parent profile row
func (r *AccountRepository) CreateParentProfile(userID int64) error {
	query := "INSERT INTO parent_profiles (user_id) VALUES (?)"
	if _, err := r.db.Exec(query, userID); err != nil {
		return fmt.Errorf("failed to create parent profile: %w", err)
	}
	return nil
}

// FindUserIDByChildID resolves a public child identifier to the owning user ID
func (r *AccountRepository) FindUserIDByChildID(childID string) (int64, error) {
	query := "SELECT user_id FROM child_profiles WHERE child_id = ?"
	var userID int64
	err := r.db.QueryRow(query, childID).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find user by child id: %w", err)
	}
	return userID, nil
}

// LinkParentChild records a parent-child association.
// Inserting an existing pair is a silent no-op.
func (r *AccountRepository) LinkParentChild(parentUserID, childUserID int64) error {
	dialect := r.db.GetDialect()
	query := dialect.IgnoreConflict("INSERT INTO parent_child_links (parent_user_id, child_user_id) VALUES (?, ?)")

	if _, err := r.db.Exec(query, parentUserID, childUserID); err != nil {
		return fmt.Errorf("failed to link parent and child: %w", err)
	}
	return nil
}

// FindUserByUsername retrieves a user by normalized username.
// Returns (nil, nil) when no user exists.
func (r *AccountRepository) FindUserByUsername(username string) (*models.User, error) {
	query := `
		SELECT id, role, name, username, password_hash, created_at, updated_at
		FROM users
		WHERE username = ?
	`
	user := &models.User{}
	err := r.db.QueryRow(query, username).Scan(
		&user.ID,
		&user.Role,
		&user.Name,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// FindUserByID retrieves a user by ID.
// Returns (nil, nil) when no user exists.
func (r *AccountRepository) FindUserByID(id int64) (*models.User, error) {
	query := `
		SELECT id, role, name, username, password_hash, created_at, updated_at
		FROM users
		WHERE id = ?
	`
	user := &models.User{}
	err := r.db.QueryRow(query, id).Scan(
		&user.ID,
		&user.Role,
		&user.Name,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// FindChildIDByUserID retrieves the public child identifier for a child user
func (r *AccountRepository) FindChildIDByUserID(userID int64) (string, error) {
	query := "SELECT child_id FROM child_profiles WHERE user_id = ?"
	var childID string
	err := r.db.QueryRow(query, userID).Scan(&childID)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to find child id: %w", err)
	}
	return childID, nil
}

// CountLinks returns the number of link rows for a parent-child pair
func (r *AccountRepository) CountLinks(parentUserID, childUserID int64) (int, error) {
	query := "SELECT COUNT(*) FROM parent_child_links WHERE parent_user_id = ? AND child_user_id = ?"
	var count int
	if err := r.db.QueryRow(query, parentUserID, childUserID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

// ListLinkedChildren returns the child users linked to a parent
func (r *AccountRepository) ListLinkedChildren(parentUserID int64) ([]models.User, error) {
	query := `
		SELECT u.id, u.role, u.name, u.username, u.password_hash, u.created_at, u.updated_at
		FROM users u
		INNER JOIN parent_child_links l ON u.id = l.child_user_id
		WHERE l.parent_user_id = ?
		ORDER BY l.created_at ASC
	`
	rows, err := r.db.Query(query, parentUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to query linked children: %w", err)
	}
	defer rows.Close()

	var children []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID,
			&user.Role,
			&user.Name,
			&user.Username,
			&user.PasswordHash,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan linked child: %w", err)
		}
		children = append(children, user)
	}

	return children, rows.Err()
}
