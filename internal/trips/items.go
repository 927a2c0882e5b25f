package trips

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wayfarerhq/wayfarer/backend/internal/ids"
	"github.com/wayfarerhq/wayfarer/backend/internal/store"
	"go.uber.org/zap"
)

// ErrInvalidIndex indicates a day_index or order_index value that does not
// parse as an integer. Ordering reads compare these numerically, so bad
// values are rejected at write time instead of sorting unstably.
var ErrInvalidIndex = errors.New("trips: day_index and order_index must be integers")

// ItemRepository provides typed access to the Itinerary_Items sheet.
type ItemRepository struct {
	store      store.Store
	idProvider ids.Provider
	clock      func() time.Time
	logger     *zap.Logger
}

// NewItemRepository constructs the itinerary item repository.
func NewItemRepository(cfg RepositoryConfig) (*ItemRepository, error) {
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
	return &ItemRepository{
		store:      cfg.Store,
		idProvider: cfg.IDProvider,
		clock:      clock,
		logger:     logger,
	}, nil
}

// FindByTripID returns the trip's items sorted by (day_index, order_index)
// ascending. OrderIndex is caller-supplied and never renumbered here.
func (r *ItemRepository) FindByTripID(tripID string) ([]Item, error) {
	rows, err := r.store.ReadAll(ItemsSheet)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0)
	for _, row := range rows {
		if row["trip_id"] == tripID {
			items = append(items, itemFromRow(row))
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DayIndex == items[j].DayIndex {
			return items[i].OrderIndex < items[j].OrderIndex
		}
		return items[i].DayIndex < items[j].DayIndex
	})
	return items, nil
}

// Create appends a new item row, injecting id and timestamps. The two index
// fields are normalized to canonical integer strings; absent values become 0.
func (r *ItemRepository) Create(fields store.Row) (Item, error) {
	if err := normalizeIndexes(fields, true); err != nil {
		return Item{}, err
	}
	id, err := r.idProvider.NewID()
	if err != nil {
		return Item{}, err
	}
	now := r.clock().UTC().Format(time.RFC3339)
	fields["id"] = id
	fields["created_at"] = now
	fields["updated_at"] = now
	if err := r.store.Append(ItemsSheet, fields); err != nil {
		return Item{}, err
	}
	r.logger.Info("itinerary item created", zap.String("item_id", id), zap.String("trip_id", fields["trip_id"]))
	return itemFromRow(fields), nil
}

// Update merges the supplied fields into the item row and re-stamps
// updated_at. Unlike trip updates, no columns are protected from overwrite;
// the row is located once so even an id overwrite applies the full merge.
// It reports false when the item does not exist.
func (r *ItemRepository) Update(itemID string, fields store.Row) (bool, error) {
	if err := normalizeIndexes(fields, false); err != nil {
		return false, err
	}
	cells := store.Row{}
	for column, value := range fields {
		cells[column] = value
	}
	cells["updated_at"] = r.clock().UTC().Format(time.RFC3339)
	return r.store.UpdateRow(ItemsSheet, func(row store.Row) bool {
		return row["id"] == itemID
	}, cells)
}

// Delete removes the item row, reporting whether one existed.
func (r *ItemRepository) Delete(itemID string) (bool, error) {
	return r.store.DeleteRow(ItemsSheet, func(row store.Row) bool {
		return row["id"] == itemID
	})
}

// DeleteByTripID removes every item belonging to the trip and returns the
// count. Zero matches is a successful cascade.
func (r *ItemRepository) DeleteByTripID(tripID string) (int, error) {
	deleted, err := r.store.DeleteRows(ItemsSheet, func(row store.Row) bool {
		return row["trip_id"] == tripID
	})
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		r.logger.Info("itinerary items cascaded", zap.String("trip_id", tripID), zap.Int("deleted", deleted))
	}
	return deleted, nil
}

// normalizeIndexes rewrites day_index and order_index as canonical integer
// strings. When required, absent values default to 0; otherwise absent keys
// are left untouched so partial updates stay partial.
func normalizeIndexes(fields store.Row, required bool) error {
	for _, column := range []string{"day_index", "order_index"} {
		raw, present := fields[column]
		if !present {
			if required {
				fields[column] = "0"
			}
			continue
		}
		value, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return ErrInvalidIndex
		}
		fields[column] = strconv.Itoa(value)
	}
	return nil
}
