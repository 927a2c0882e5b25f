package users

import (
	"errors"
	"time"

	"github.com/wayfarerhq/wayfarer/backend/internal/ids"
	"github.com/wayfarerhq/wayfarer/backend/internal/store"
	"go.uber.org/zap"
)

var (
	errMissingStore      = errors.New("users: store is required")
	errMissingIDProvider = errors.New("users: id provider is required")
)

// RepositoryConfig describes the dependencies of the user repository.
type RepositoryConfig struct {
	Store      store.Store
	IDProvider ids.Provider
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Repository provides typed access to the Users sheet. Every lookup re-scans
// the full sheet; the repository holds no state between calls.
type Repository struct {
	store      store.Store
	idProvider ids.Provider
	clock      func() time.Time
	logger     *zap.Logger
}

// NewRepository constructs the user repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		store:      cfg.Store,
		idProvider: cfg.IDProvider,
		clock:      clock,
		logger:     logger,
	}, nil
}

// FindByEmail returns the first user whose email matches, or nil.
func (r *Repository) FindByEmail(email string) (*User, error) {
	rows, err := r.store.ReadAll(Sheet)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row["email"] == email {
			user := fromRow(row)
			return &user, nil
		}
	}
	return nil, nil
}

// FindByToken resolves a session token to its user, or nil. An empty token
// never resolves, even if a user row carries an empty auth_token cell.
func (r *Repository) FindByToken(token string) (*User, error) {
	if token == "" {
		return nil, nil
	}
	rows, err := r.store.ReadAll(Sheet)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row["auth_token"] == token {
			user := fromRow(row)
			return &user, nil
		}
	}
	return nil, nil
}

// Create appends a new user row, injecting id and timestamps. Fields without
// a matching column are dropped by the store.
func (r *Repository) Create(fields store.Row) (User, error) {
	id, err := r.idProvider.NewID()
	if err != nil {
		return User{}, err
	}
	now := r.clock().UTC().Format(time.RFC3339)
	fields["id"] = id
	fields["created_at"] = now
	fields["updated_at"] = now
	if err := r.store.Append(Sheet, fields); err != nil {
		return User{}, err
	}
	r.logger.Info("user created", zap.String("user_id", id))
	return fromRow(fields), nil
}

// UpdateToken overwrites the auth_token cell of the user row with the given
// id, superseding any previous session. It reports false when the user row
// does not exist.
func (r *Repository) UpdateToken(userID, token string) (bool, error) {
	return r.store.UpdateCell(Sheet, func(row store.Row) bool {
		return row["id"] == userID
	}, "auth_token", token)
}
