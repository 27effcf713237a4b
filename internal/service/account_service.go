package service

import (
	"errors"
	"fmt"
	"strings"

	"finlingo/internal/credentials"
	"finlingo/internal/database"
	"finlingo/internal/models"
	"finlingo/internal/repository"
	"finlingo/internal/security"
	"finlingo/internal/token"
	"finlingo/internal/validation"
)

var (
	// ErrInvalidUsername is returned when a username fails normalization
	ErrInvalidUsername = errors.New("username must be 3-32 chars and only letters, numbers, _ or .")
	// ErrWeakPassword is returned when a password is too short
	ErrWeakPassword = errors.New("password must be at least 6 characters")
	// ErrUsernameTaken is returned when the username already belongs to an account
	ErrUsernameTaken = errors.New("username already exists")
	// ErrChildIDExhausted is returned when no unique child identifier
	// could be allocated within maxChildIDAttempts tries
	ErrChildIDExhausted = errors.New("failed to generate unique child id")
	// ErrInvalidChildID is returned when a supplied child identifier
	// does not resolve to any child account
	ErrInvalidChildID = errors.New("invalid child id")
	// ErrInvalidCredentials is returned for both unknown usernames and
	// wrong passwords so login does not reveal which usernames exist
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// maxChildIDAttempts bounds the child identifier collision retry loop
const maxChildIDAttempts = 10

// ChildAccount is the result of a successful child signup
type ChildAccount struct {
	ID       int64
	Role     string
	Name     string
	Username string
	ChildID  string
}

// ParentAccount is the result of a successful parent signup.
// LinkedChildUserID is nil when no child identifier was supplied.
type ParentAccount struct {
	ID                int64
	Role              string
	Name              string
	Username          string
	LinkedChildUserID *int64
}

// AccountInfo describes an authenticated principal.
// ChildID is nil for parent accounts.
type AccountInfo struct {
	ID       int64
	Role     string
	Name     string
	Username string
	ChildID  *string
}

// LoginResult carries the issued bearer token and the authenticated user
type LoginResult struct {
	Token string
	User  AccountInfo
}

// AccountService orchestrates validation, hashing, identifier generation,
// persistence and link resolution for signup and login
type AccountService struct {
	db              *database.DB
	accounts        *repository.AccountRepository
	tokens          *token.Issuer
	generateChildID func() (string, error)
}

// NewAccountService creates a new account service
func NewAccountService(db *database.DB, accounts *repository.AccountRepository, tokens *token.Issuer) *AccountService {
	return &AccountService{
		db:              db,
		accounts:        accounts,
		tokens:          tokens,
		generateChildID: credentials.GenerateChildID,
	}
}

// CreateChildAccount registers a child account. The user row and child
// profile are created in one transaction: either both appear or neither.
func (s *AccountService) CreateChildAccount(name, username, password string) (*ChildAccount, error) {
	username, err := validation.NormalizeUsername(username)
	if err != nil {
		return nil, ErrInvalidUsername
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, ErrWeakPassword
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	accounts := s.accounts.WithTx(tx)

	userID, err := accounts.CreateUser(models.RoleChild, name, username, passwordHash)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	childID, err := s.allocateChildID(accounts, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &ChildAccount{
		ID:       userID,
		Role:     models.RoleChild,
		Name:     name,
		Username: username,
		ChildID:  childID,
	}, nil
}

// allocateChildID generates public child identifiers until one inserts
// cleanly, bounded at maxChildIDAttempts. The UNIQUE constraint on
// child_profiles.child_id is the authority, so concurrent signups
// racing on the same candidate resolve in the store.
func (s *AccountService) allocateChildID(accounts *repository.AccountRepository, userID int64) (string, error) {
	for attempt := 0; attempt < maxChildIDAttempts; attempt++ {
		candidate, err := s.generateChildID()
		if err != nil {
			return "", fmt.Errorf("failed to generate child id: %w", err)
		}

		err = accounts.CreateChildProfile(userID, candidate)
		if errors.Is(err, repository.ErrDuplicateChildID) {
			continue
		}
		if err != nil {
			return "", err
		}
		return candidate, nil
	}
	return "", ErrChildIDExhausted
}

// CreateParentAccount registers a parent account, optionally linking it
// to an existing child via the child's public identifier. A bad
// identifier rolls back the whole signup: no orphaned parent survives.
func (s *AccountService) CreateParentAccount(name, username, password, childID string) (*ParentAccount, error) {
	username, err := validation.NormalizeUsername(username)
	if err != nil {
		return nil, ErrInvalidUsername
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, ErrWeakPassword
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	accounts := s.accounts.WithTx(tx)

	parentUserID, err := accounts.CreateUser(models.RoleParent, name, username, passwordHash)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	if err := accounts.CreateParentProfile(parentUserID); err != nil {
		return nil, err
	}

	var linkedChildUserID *int64
	if childID = strings.TrimSpace(childID); childID != "" {
		childUserID, err := accounts.FindUserIDByChildID(childID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidChildID
		}
		if err != nil {
			return nil, err
		}

		if err := accounts.LinkParentChild(parentUserID, childUserID); err != nil {
			return nil, err
		}
		linkedChildUserID = &childUserID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &ParentAccount{
		ID:                parentUserID,
		Role:              models.RoleParent,
		Name:              name,
		Username:          username,
		LinkedChildUserID: linkedChildUserID,
	}, nil
}

// Login authenticates a principal and issues a bearer token. Unknown
// usernames, malformed usernames and wrong passwords all surface the
// same ErrInvalidCredentials.
func (s *AccountService) Login(username, password string) (*LoginResult, error) {
	username, err := validation.NormalizeUsername(username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.accounts.FindUserByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	info, err := s.accountInfo(user)
	if err != nil {
		return nil, err
	}

	tok, err := s.tokens.Issue(user.ID, user.Role, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{Token: tok, User: *info}, nil
}

// GetAccount loads the account info for an already-authenticated user ID
func (s *AccountService) GetAccount(userID int64) (*AccountInfo, error) {
	user, err := s.accounts.FindUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	return s.accountInfo(user)
}

// LinkedChildren returns the child accounts linked to a parent
func (s *AccountService) LinkedChildren(parentUserID int64) ([]AccountInfo, error) {
	children, err := s.accounts.ListLinkedChildren(parentUserID)
	if err != nil {
		return nil, err
	}

	infos := make([]AccountInfo, 0, len(children))
	for i := range children {
		info, err := s.accountInfo(&children[i])
		if err != nil {
			return nil, err
		}
		infos = append(infos, *info)
	}
	return infos, nil
}

// accountInfo enriches a user row with the public child identifier for
// child accounts; parents keep a nil ChildID.
func (s *AccountService) accountInfo(user *models.User) (*AccountInfo, error) {
	info := &AccountInfo{
		ID:       user.ID,
		Role:     user.Role,
		Name:     user.Name,
		Username: user.Username,
	}

	if user.IsChild() {
		childID, err := s.accounts.FindChildIDByUserID(user.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if err == nil {
			info.ChildID = &childID
		}
	}

	return info, nil
}
