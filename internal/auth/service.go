// Package auth implements password credentials and opaque session tokens.
// A token is persisted on the user row and stays valid until the next login
// overwrites it; there is no logout transition and no expiry.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/wayfarerhq/wayfarer/backend/internal/ids"
	"github.com/wayfarerhq/wayfarer/backend/internal/store"
	"github.com/wayfarerhq/wayfarer/backend/internal/users"
	"go.uber.org/zap"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// login failures cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrUserExists indicates a registration against an email already present.
	ErrUserExists = errors.New("auth: user already exists")

	errMissingUsers      = errors.New("auth: user repository is required")
	errMissingSalt       = errors.New("auth: password salt is required")
	errMissingIDProvider = errors.New("auth: id provider is required")
)

// ServiceConfig describes the dependencies of the auth service. Salt is the
// configuration-supplied secret mixed into every password digest.
type ServiceConfig struct {
	Users      *users.Repository
	Salt       string
	IDProvider ids.Provider
	Logger     *zap.Logger
}

// Service performs registration, login and token resolution.
type Service struct {
	users      *users.Repository
	salt       string
	idProvider ids.Provider
	logger     *zap.Logger
}

// NewService constructs the auth service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Users == nil {
		return nil, errMissingUsers
	}
	if cfg.Salt == "" {
		return nil, errMissingSalt
	}
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:      cfg.Users,
		salt:       cfg.Salt,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// HashPassword computes the salted digest stored in the password_hash column.
func (s *Service) HashPassword(password string) string {
	digest := sha256.Sum256([]byte(s.salt + password))
	return hex.EncodeToString(digest[:])
}

// Register creates a new user from the supplied profile fields. The plaintext
// password is hashed and discarded; any password_hash supplied by the caller
// is overwritten.
func (s *Service) Register(email, password string, profile store.Row) (users.User, error) {
	existing, err := s.users.FindByEmail(email)
	if err != nil {
		return users.User{}, err
	}
	if existing != nil {
		return users.User{}, ErrUserExists
	}

	fields := store.Row{}
	for column, value := range profile {
		fields[column] = value
	}
	fields["email"] = email
	fields["password_hash"] = s.HashPassword(password)

	user, err := s.users.Create(fields)
	if err != nil {
		return users.User{}, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login verifies the credentials and, on success, issues a fresh opaque token
// that supersedes any previous session. The returned user carries the new
// token.
func (s *Service) Login(email, password string) (users.User, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return users.User{}, err
	}
	if user == nil || user.PasswordHash != s.HashPassword(password) {
		return users.User{}, ErrInvalidCredentials
	}

	token, err := s.idProvider.NewID()
	if err != nil {
		return users.User{}, err
	}
	updated, err := s.users.UpdateToken(user.ID, token)
	if err != nil {
		return users.User{}, err
	}
	if !updated {
		// The row vanished between the scan and the write; treat it the same
		// as a failed lookup.
		return users.User{}, ErrInvalidCredentials
	}

	user.AuthToken = token
	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return *user, nil
}

// Authenticate resolves an opaque token to its user. An empty or unknown
// token yields no identity and no error.
func (s *Service) Authenticate(token string) (*users.User, error) {
	return s.users.FindByToken(token)
}
