package trips

import (
	"strconv"

	"github.com/wayfarerhq/wayfarer/backend/internal/store"
)

// Backing sheets.
const (
	Sheet      = "Trips"
	ItemsSheet = "Itinerary_Items"
)

// Trip is one row of the Trips sheet. OwnerID holds the owning user's email;
// ownership checks compare against the caller's email.
type Trip struct {
	ID            string `json:"id"`
	OwnerID       string `json:"owner_id"`
	Title         string `json:"title"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Destination   string `json:"destination"`
	CoverImageURL string `json:"cover_image_url"`
	Privacy       string `json:"privacy"`
	Currency      string `json:"currency"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// Item is one row of the Itinerary_Items sheet. DayIndex and OrderIndex are
// normalized to integers when written, so reads parse them unconditionally.
type Item struct {
	ID            string `json:"id"`
	TripID        string `json:"trip_id"`
	DayIndex      int    `json:"day_index"`
	OrderIndex    int    `json:"order_index"`
	PlaceID       string `json:"place_id"`
	Name          string `json:"name"`
	LocationJSON  string `json:"location_json"`
	StartTime     string `json:"start_time"`
	Duration      string `json:"duration"`
	TransportType string `json:"transport_type"`
	Notes         string `json:"notes"`
	CostEstimated string `json:"cost_estimated"`
	CostActual    string `json:"cost_actual"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func tripFromRow(row store.Row) Trip {
	return Trip{
		ID:            row["id"],
		OwnerID:       row["owner_id"],
		Title:         row["title"],
		StartDate:     row["start_date"],
		EndDate:       row["end_date"],
		Destination:   row["destination"],
		CoverImageURL: row["cover_image_url"],
		Privacy:       row["privacy"],
		Currency:      row["currency"],
		CreatedAt:     row["created_at"],
		UpdatedAt:     row["updated_at"],
	}
}

func itemFromRow(row store.Row) Item {
	day, _ := strconv.Atoi(row["day_index"])
	order, _ := strconv.Atoi(row["order_index"])
	return Item{
		ID:            row["id"],
		TripID:        row["trip_id"],
		DayIndex:      day,
		OrderIndex:    order,
		PlaceID:       row["place_id"],
		Name:          row["name"],
		LocationJSON:  row["location_json"],
		StartTime:     row["start_time"],
		Duration:      row["duration"],
		TransportType: row["transport_type"],
		Notes:         row["notes"],
		CostEstimated: row["cost_estimated"],
		CostActual:    row["cost_actual"],
		CreatedAt:     row["created_at"],
		UpdatedAt:     row["updated_at"],
	}
}
