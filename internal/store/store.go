package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"menu-availability-backend/internal/model"
)

var (
	ErrVenueNotFound        = errors.New("venue not found")
	ErrTableNotFound        = errors.New("table not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// Store defines the interface for all database operations.
type Store interface {
	GetVenue(ctx context.Context, venueID int64) (*model.Venue, error)
	ListCategories(ctx context.Context, venueID int64) ([]model.Category, error)
	// TableCapacity returns the stored capacity of a venue's table, or 0 when it has none.
	TableCapacity(ctx context.Context, venueID, tableID int64) (int, error)

	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	PutSubscription(ctx context.Context, sub model.PushSubscription, tableIDs []int64) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForTable(ctx context.Context, tableID int64) ([]model.PushSubscription, error)
	TableLabel(ctx context.Context, tableID int64) (string, error)

	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// GetVenue loads a venue without its associations.
func (s *gormStore) GetVenue(ctx context.Context, venueID int64) (*model.Venue, error) {
	var venue model.Venue
	if err := s.db.WithContext(ctx).First(&venue, venueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVenueNotFound
		}
		return nil, fmt.Errorf("failed to fetch venue %d: %w", venueID, err)
	}
	return &venue, nil
}

// ListCategories returns every category of a venue with its items, ordered for display.
func (s *gormStore) ListCategories(ctx context.Context, venueID int64) ([]model.Category, error) {
	var categories []model.Category
	err := s.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("display_order, id")
		}).
		Where("venue_id = ?", venueID).
		Order("display_order, id").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories for venue %d: %w", venueID, err)
	}
	return categories, nil
}

func (s *gormStore) TableCapacity(ctx context.Context, venueID, tableID int64) (int, error) {
	var table model.DiningTable
	err := s.db.WithContext(ctx).
		Select("id", "capacity").
		Where("venue_id = ?", venueID).
		First(&table, tableID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrTableNotFound
		}
		return 0, fmt.Errorf("failed to fetch table %d: %w", tableID, err)
	}
	if table.Capacity == nil || *table.Capacity <= 0 {
		return 0, nil
	}
	return *table.Capacity, nil
}

func (s *gormStore) TableLabel(ctx context.Context, tableID int64) (string, error) {
	var table model.DiningTable
	if err := s.db.WithContext(ctx).Select("label").First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrTableNotFound
		}
		return "", err
	}
	return table.Label, nil
}

// GetSubscription loads a subscription with the tables it watches.
func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).Preload("Tables").First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// PutSubscription creates or replaces a subscription and the set of tables it watches.
// Unknown table ids are ignored.
func (s *gormStore) PutSubscription(ctx context.Context, sub model.PushSubscription, tableIDs []int64) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Omit("Tables").Create(&sub).Error; err != nil {
			return fmt.Errorf("upsert subscription: %w", err)
		}

		tables := []*model.DiningTable{}
		if len(tableIDs) > 0 {
			if err := tx.Find(&tables, tableIDs).Error; err != nil {
				return fmt.Errorf("load tables: %w", err)
			}
		}

		if err := tx.Model(&sub).Association("Tables").Replace(tables); err != nil {
			return fmt.Errorf("replace subscribed tables: %w", err)
		}
		return nil
	})
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM subscription_table_mapping WHERE push_subscription_endpoint = ?", endpoint).Error; err != nil {
			return fmt.Errorf("clear subscribed tables: %w", err)
		}
		return tx.Delete(&model.PushSubscription{Endpoint: endpoint}).Error
	})
}

// SubscriptionsForTable returns every subscription that watches tableID.
func (s *gormStore) SubscriptionsForTable(ctx context.Context, tableID int64) ([]model.PushSubscription, error) {
	var subscriptions []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_table_mapping stm ON stm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("stm.dining_table_id = ?", tableID).
		Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for table %d: %w", tableID, err)
	}
	return subscriptions, nil
}
