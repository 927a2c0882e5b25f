// Package planner exposes the command interface the transport glue calls
// into: authentication, trip CRUD with ownership authorization, and itinerary
// item maintenance. Every failure crosses the boundary as a tagged *Failure.
package planner

import (
	"errors"
	"strings"

	"github.com/wayfarerhq/wayfarer/backend/internal/auth"
	"github.com/wayfarerhq/wayfarer/backend/internal/store"
	"github.com/wayfarerhq/wayfarer/backend/internal/trips"
	"github.com/wayfarerhq/wayfarer/backend/internal/users"
	"go.uber.org/zap"
)

var (
	errMissingTrips = errors.New("planner: trip repository is required")
	errMissingItems = errors.New("planner: item repository is required")
	errMissingAuth  = errors.New("planner: auth service is required")
)

// ServiceConfig wires the repositories and auth layer into the command
// surface.
type ServiceConfig struct {
	Trips  *trips.Repository
	Items  *trips.ItemRepository
	Auth   *auth.Service
	Logger *zap.Logger
}

// Service implements the command interface.
type Service struct {
	trips  *trips.Repository
	items  *trips.ItemRepository
	auth   *auth.Service
	logger *zap.Logger
}

// TripDetails is a trip together with its ordered itinerary items.
type TripDetails struct {
	trips.Trip
	Items []trips.Item `json:"items"`
}

// NewService constructs the planner command service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Trips == nil {
		return nil, errMissingTrips
	}
	if cfg.Items == nil {
		return nil, errMissingItems
	}
	if cfg.Auth == nil {
		return nil, errMissingAuth
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		trips:  cfg.Trips,
		items:  cfg.Items,
		auth:   cfg.Auth,
		logger: logger,
	}, nil
}

// Login verifies credentials and returns the user with a freshly issued
// session token.
func (s *Service) Login(email, password string) (users.User, error) {
	user, err := s.auth.Login(email, password)
	if err != nil {
		return users.User{}, wrapRepoError(err)
	}
	return user, nil
}

// Register creates a new user account. Profile fields beyond email and
// password pass through to the user row; unknown columns are dropped.
func (s *Service) Register(email, password string, profile store.Row) (users.User, error) {
	if strings.TrimSpace(email) == "" {
		return users.User{}, validationFailed("Missing email")
	}
	if password == "" {
		return users.User{}, validationFailed("Missing password")
	}
	user, err := s.auth.Register(email, password, profile)
	if err != nil {
		return users.User{}, wrapRepoError(err)
	}
	return user, nil
}

// Authenticate resolves an opaque session token to its user. A missing
// identity is a nil user, not a failure; middleware decides what that means.
func (s *Service) Authenticate(token string) (*users.User, error) {
	user, err := s.auth.Authenticate(token)
	if err != nil {
		return nil, wrapRepoError(err)
	}
	return user, nil
}

// ListTrips returns every trip owned by the caller.
func (s *Service) ListTrips(callerEmail string) ([]trips.Trip, error) {
	if callerEmail == "" {
		return nil, unauthorized()
	}
	owned, err := s.trips.FindByOwner(callerEmail)
	if err != nil {
		return nil, wrapRepoError(err)
	}
	return owned, nil
}

// GetTrip returns the trip with its sorted items. Only the owner may read it.
func (s *Service) GetTrip(tripID, callerEmail string) (TripDetails, error) {
	if callerEmail == "" {
		return TripDetails{}, unauthorized()
	}
	if tripID == "" {
		return TripDetails{}, validationFailed("Missing trip_id")
	}
	trip, err := s.trips.FindByID(tripID)
	if err != nil {
		return TripDetails{}, wrapRepoError(err)
	}
	if trip == nil {
		return TripDetails{}, notFound("Trip not found")
	}
	if trip.OwnerID != callerEmail {
		return TripDetails{}, forbidden()
	}
	items, err := s.items.FindByTripID(tripID)
	if err != nil {
		return TripDetails{}, wrapRepoError(err)
	}
	return TripDetails{Trip: *trip, Items: items}, nil
}

// CreateTrip creates a trip owned by the caller. Any owner_id supplied in the
// payload is discarded; ownership always follows the authenticated identity.
func (s *Service) CreateTrip(fields store.Row, callerEmail string) (trips.Trip, error) {
	if callerEmail == "" {
		return trips.Trip{}, unauthorized()
	}
	if fields == nil {
		fields = store.Row{}
	}
	fields["owner_id"] = callerEmail
	trip, err := s.trips.Create(fields)
	if err != nil {
		return trips.Trip{}, wrapRepoError(err)
	}
	return trip, nil
}

// UpdateTrip merges the supplied fields into the caller's trip.
func (s *Service) UpdateTrip(tripID string, fields store.Row, callerEmail string) error {
	if callerEmail == "" {
		return unauthorized()
	}
	if tripID == "" {
		return validationFailed("Missing trip_id")
	}
	trip, err := s.trips.FindByID(tripID)
	if err != nil {
		return wrapRepoError(err)
	}
	if trip == nil {
		return notFound("Trip not found")
	}
	if trip.OwnerID != callerEmail {
		return forbidden()
	}
	updated, err := s.trips.Update(tripID, fields)
	if err != nil {
		return wrapRepoError(err)
	}
	if !updated {
		return notFound("Trip not found")
	}
	return nil
}

// DeleteTrip removes the caller's trip after cascading away its itinerary
// items. A repeat call reports NotFound rather than failing hard.
func (s *Service) DeleteTrip(tripID, callerEmail string) error {
	if callerEmail == "" {
		return unauthorized()
	}
	if tripID == "" {
		return validationFailed("Missing trip_id")
	}
	trip, err := s.trips.FindByID(tripID)
	if err != nil {
		return wrapRepoError(err)
	}
	if trip == nil {
		return notFound("Trip not found")
	}
	if trip.OwnerID != callerEmail {
		return forbidden()
	}

	cascaded, err := s.items.DeleteByTripID(tripID)
	if err != nil {
		return wrapRepoError(err)
	}
	removed, err := s.trips.Delete(tripID)
	if err != nil {
		return wrapRepoError(err)
	}
	if !removed {
		return notFound("Trip not found")
	}
	s.logger.Info("trip deleted",
		zap.String("trip_id", tripID),
		zap.Int("items_cascaded", cascaded))
	return nil
}

// AddItem appends an itinerary item. The caller must be authenticated; the
// parent trip's ownership is not verified, matching the legacy behavior.
func (s *Service) AddItem(fields store.Row, callerEmail string) (trips.Item, error) {
	if callerEmail == "" {
		return trips.Item{}, unauthorized()
	}
	if fields == nil {
		fields = store.Row{}
	}
	item, err := s.items.Create(fields)
	if err != nil {
		return trips.Item{}, wrapRepoError(err)
	}
	return item, nil
}

// UpdateItem merges fields into the item row. No ownership check is applied
// beyond the session requirement enforced at the transport layer.
func (s *Service) UpdateItem(itemID string, fields store.Row) error {
	if itemID == "" {
		return validationFailed("Missing item_id")
	}
	updated, err := s.items.Update(itemID, fields)
	if err != nil {
		return wrapRepoError(err)
	}
	if !updated {
		return notFound("Item not found")
	}
	return nil
}

// DeleteItem removes the item row. Same authorization posture as UpdateItem.
func (s *Service) DeleteItem(itemID string) error {
	if itemID == "" {
		return validationFailed("Missing item_id")
	}
	removed, err := s.items.Delete(itemID)
	if err != nil {
		return wrapRepoError(err)
	}
	if !removed {
		return notFound("Item not found")
	}
	return nil
}
