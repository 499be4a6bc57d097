package auth

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// User is one account known to the service.
type User struct {
	ID           string
	Username     string
	PasswordHash []byte
	Role         string
}

// UserStore is an in-memory credential store keyed by username. Accounts are
// provisioned from configuration at startup.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewUserStore creates an empty user store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*User)}
}

// HashPassword hashes a password with bcrypt at the default cost.
func HashPassword(password string) ([]byte, error) {
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// Add registers a user with a plaintext password, hashing it before storage.
func (s *UserStore) Add(id, username, password, role string) error {
	if username == "" {
		return ErrEmptyUsername
	}
	if !ValidRole(role) {
		return ErrInvalidRole
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return ErrUserExists
	}
	s.users[username] = &User{ID: id, Username: username, PasswordHash: hash, Role: role}
	return nil
}

// Authenticate verifies a username/password pair and returns the matching
// user. The error is the same whether the user is unknown or the password is
// wrong, so callers cannot probe for valid usernames.
func (s *UserStore) Authenticate(username, password string) (*User, error) {
	s.mu.RLock()
	u, ok := s.users[username]
	s.mu.RUnlock()

	if !ok {
		// Burn a comparison anyway to keep timing uniform.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	clone := *u
	return &clone, nil
}

// Lookup returns the user with the given username, or nil.
func (s *UserStore) Lookup(username string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[username]; ok {
		clone := *u
		return &clone
	}
	return nil
}

// LookupByID returns the user with the given ID, or nil.
func (s *UserStore) LookupByID(id string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			clone := *u
			return &clone
		}
	}
	return nil
}

// Count returns the number of registered users.
func (s *UserStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("graphlapse-dummy"), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return h
}()
