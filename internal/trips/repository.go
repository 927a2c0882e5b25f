// Package trips provides the trip and itinerary item repositories over the
// sheet store. All reads are full linear scans in storage order.
package trips

import (
	"errors"
	"time"

	"github.com/wayfarerhq/wayfarer/backend/internal/ids"
	"github.com/wayfarerhq/wayfarer/backend/internal/store"
	"go.uber.org/zap"
)

var (
	errMissingStore      = errors.New("trips: store is required")
	errMissingIDProvider = errors.New("trips: id provider is required")
)

// RepositoryConfig describes the dependencies shared by both repositories.
type RepositoryConfig struct {
	Store      store.Store
	IDProvider ids.Provider
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Repository provides typed access to the Trips sheet.
type Repository struct {
	store      store.Store
	idProvider ids.Provider
	clock      func() time.Time
	logger     *zap.Logger
}

// NewRepository constructs the trip repository.
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

// FindByOwner returns every trip owned by the given email, in storage order.
func (r *Repository) FindByOwner(ownerEmail string) ([]Trip, error) {
	rows, err := r.store.ReadAll(Sheet)
	if err != nil {
		return nil, err
	}
	owned := make([]Trip, 0)
	for _, row := range rows {
		if row["owner_id"] == ownerEmail {
			owned = append(owned, tripFromRow(row))
		}
	}
	return owned, nil
}

// FindByID returns the trip with the given id, or nil.
func (r *Repository) FindByID(tripID string) (*Trip, error) {
	rows, err := r.store.ReadAll(Sheet)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row["id"] == tripID {
			trip := tripFromRow(row)
			return &trip, nil
		}
	}
	return nil, nil
}

// Create appends a new trip row, injecting id and timestamps.
func (r *Repository) Create(fields store.Row) (Trip, error) {
	id, err := r.idProvider.NewID()
	if err != nil {
		return Trip{}, err
	}
	now := r.clock().UTC().Format(time.RFC3339)
	fields["id"] = id
	fields["created_at"] = now
	fields["updated_at"] = now
	if err := r.store.Append(Sheet, fields); err != nil {
		return Trip{}, err
	}
	r.logger.Info("trip created", zap.String("trip_id", id), zap.String("owner", fields["owner_id"]))
	return tripFromRow(fields), nil
}

// Update merges the supplied fields into the trip row in one row write. The
// id and created_at columns are protected from overwrite; updated_at is
// re-stamped with the merge. It reports false when the trip does not exist.
func (r *Repository) Update(tripID string, fields store.Row) (bool, error) {
	cells := store.Row{}
	for column, value := range fields {
		if column == "id" || column == "created_at" {
			continue
		}
		cells[column] = value
	}
	cells["updated_at"] = r.clock().UTC().Format(time.RFC3339)
	return r.store.UpdateRow(Sheet, func(row store.Row) bool {
		return row["id"] == tripID
	}, cells)
}

// Delete removes the trip row. It does not cascade; callers delete dependent
// items first.
func (r *Repository) Delete(tripID string) (bool, error) {
	return r.store.DeleteRow(Sheet, func(row store.Row) bool {
		return row["id"] == tripID
	})
}
