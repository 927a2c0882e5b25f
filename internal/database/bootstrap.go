package database

import (
	"github.com/wayfarerhq/wayfarer/backend/internal/store"
	"go.uber.org/zap"
)

// Sheet names used by the planner.
const (
	SheetUsers          = "Users"
	SheetTrips          = "Trips"
	SheetCollaborators  = "Trip_Collaborators"
	SheetItineraryItems = "Itinerary_Items"
	SheetChecklists     = "Checklists"
)

type sheetSchema struct {
	name   string
	header []string
}

// sheetSchemas lists every sheet with its exact header, in creation order.
// Trip_Collaborators and Checklists are reserved: their headers are created
// here but no repository binds them yet.
var sheetSchemas = []sheetSchema{
	{SheetUsers, []string{"id", "email", "password_hash", "display_name", "avatar_url", "created_at", "updated_at", "auth_token"}},
	{SheetTrips, []string{"id", "owner_id", "title", "start_date", "end_date", "destination", "cover_image_url", "privacy", "currency", "created_at", "updated_at"}},
	{SheetCollaborators, []string{"trip_id", "user_id", "role", "created_at"}},
	{SheetItineraryItems, []string{"id", "trip_id", "day_index", "order_index", "place_id", "name", "location_json", "start_time", "duration", "transport_type", "notes", "cost_estimated", "cost_actual", "created_at", "updated_at"}},
	{SheetChecklists, []string{"id", "trip_id", "category", "item_name", "is_checked", "created_at"}},
}

// Bootstrap ensures every sheet exists with its header. It is idempotent:
// existing sheets keep their data and header untouched.
func Bootstrap(backend store.Store, logger *zap.Logger) error {
	for _, schema := range sheetSchemas {
		if err := backend.EnsureSheet(schema.name, schema.header); err != nil {
			return err
		}
		if logger != nil {
			logger.Debug("sheet ensured", zap.String("sheet", schema.name))
		}
	}
	return nil
}
