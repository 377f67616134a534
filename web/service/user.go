// Package service implements the portal's business logic on top of the
// file-backed stores.
package service

import (
	"pulmoscan/logger"
	"pulmoscan/storage"
)

// UserService wraps the credential store for the web controllers.
type UserService struct {
	store *storage.UserStore
}

func NewUserService(store *storage.UserStore) *UserService {
	return &UserService{store: store}
}

// CheckUser returns the account iff the credentials verify, nil otherwise.
func (s *UserService) CheckUser(username, password string) *storage.Account {
	account, err := s.store.Verify(username, password)
	if err != nil {
		return nil
	}
	return account
}

// Register creates a new account. The returned error wraps
// common.ErrValidation when a signup field is at fault.
func (s *UserService) Register(username, email, name, password, confirmPassword, role string) (*storage.Account, error) {
	account, err := s.store.Create(username, email, name, password, confirmPassword, role)
	if err != nil {
		return nil, err
	}
	logger.Infof("account %q created with role %s", account.Username, account.Role)
	return account, nil
}
