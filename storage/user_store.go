package storage

import (
	"os"
	"path/filepath"

	"pulmoscan/logger"
	"pulmoscan/util/common"
	"pulmoscan/util/crypto"

	"github.com/goccy/go-json"
)

// Minimum field lengths enforced at signup.
const (
	MinUsernameLen = 3
	MinPasswordLen = 6
)

// UserStore is the file-backed credential store: a mapping of username to
// account record, loaded once and rewritten in full on every insert.
type UserStore struct {
	path  string
	users map[string]*Account
}

// NewUserStore loads the store from path. If no file exists yet, the store
// is seeded with a single bootstrap doctor account so the portal is usable
// out of the box.
func NewUserStore(path string) (*UserStore, error) {
	s := &UserStore{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *UserStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s.seed()
	} else if err != nil {
		return err
	}

	raw := map[string]*Account{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	// a file holding literal null leaves the map nil
	if raw == nil {
		raw = map[string]*Account{}
	}
	for username, account := range raw {
		account.Username = username
	}
	s.users = raw
	return nil
}

// seed creates the bootstrap account with fixed demo credentials
// (admin/admin123). Change them after first login.
func (s *UserStore) seed() error {
	hash, err := crypto.HashPassword("admin123")
	if err != nil {
		return err
	}
	s.users = map[string]*Account{
		"admin": {
			Username:     "admin",
			PasswordHash: hash,
			Name:         "Dr. Admin",
			Email:        "admin@example.com",
			Role:         RoleDoctor,
		},
	}
	logger.Info("no users file found, seeded bootstrap admin account")
	return nil
}

// Create validates the signup fields, inserts the account and persists the
// full mapping. All failures wrap common.ErrValidation and carry a message
// suitable for inline form display.
func (s *UserStore) Create(username, email, name, password, confirmPassword, role string) (*Account, error) {
	if username == "" || email == "" || name == "" || password == "" || confirmPassword == "" {
		return nil, common.NewValidationError("please fill in all fields")
	}
	if len(username) < MinUsernameLen {
		return nil, common.NewValidationError("username must be at least %d characters long", MinUsernameLen)
	}
	if len(password) < MinPasswordLen {
		return nil, common.NewValidationError("password must be at least %d characters long", MinPasswordLen)
	}
	if password != confirmPassword {
		return nil, common.NewValidationError("passwords do not match")
	}
	if _, ok := s.users[username]; ok {
		return nil, common.NewValidationError("username already exists")
	}
	for _, account := range s.users {
		if account.Email == email {
			return nil, common.NewValidationError("email already registered")
		}
	}
	if role != RoleDoctor && role != RolePatient {
		role = RolePatient
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}
	account := &Account{
		Username:     username,
		PasswordHash: hash,
		Name:         name,
		Email:        email,
		Role:         role,
	}
	s.users[username] = account

	if err := s.persist(); err != nil {
		return nil, common.NewErrorf("persist users: %v", err)
	}
	return account, nil
}

// Verify returns the matched account iff the username exists and the stored
// hash verifies against password. The failure is a single generic error so
// callers cannot enumerate usernames.
func (s *UserStore) Verify(username, password string) (*Account, error) {
	account, ok := s.users[username]
	if !ok {
		return nil, common.ErrAuthentication
	}
	if !crypto.CheckPasswordHash(account.PasswordHash, password) {
		return nil, common.ErrAuthentication
	}
	return account, nil
}

// Get returns the account for username, or nil.
func (s *UserStore) Get(username string) *Account {
	return s.users[username]
}

// Count returns the number of registered accounts.
func (s *UserStore) Count() int {
	return len(s.users)
}

// persist rewrites the whole mapping to disk. Known hazard: a concurrent
// writer racing this rewrite loses its update.
func (s *UserStore) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.users, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o640)
}
