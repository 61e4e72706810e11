package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormStore_GetVenue(t *testing.T) {
	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedName     string
		expectedErr      error
		expectAnyErr     bool
	}{
		{
			name: "venue exists",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "venues" WHERE "venues"."id" = \$1 ORDER BY "venues"."id" LIMIT \$[0-9]+`).
					WithArgs(int64(1), 1).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name", "ordering_enabled"}).AddRow(1, "Harbour Kitchen", true))
			},
			expectedName: "Harbour Kitchen",
		},
		{
			name: "venue missing",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "venues"`).
					WithArgs(int64(1), 1).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name", "ordering_enabled"}))
			},
			expectedErr: ErrVenueNotFound,
		},
		{
			name: "database failure is wrapped",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "venues"`).
					WithArgs(int64(1), 1).
					WillReturnError(errors.New("connection reset"))
			},
			expectAnyErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB)
			tc.mockExpectations(mock)

			venue, err := s.GetVenue(context.Background(), 1)
			switch {
			case tc.expectedErr != nil:
				assert.ErrorIs(t, err, tc.expectedErr)
			case tc.expectAnyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrVenueNotFound)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.expectedName, venue.Name)
				assert.True(t, venue.OrderingEnabled)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_TableCapacity(t *testing.T) {
	query := `SELECT "id","capacity" FROM "dining_tables" WHERE venue_id = \$1 AND "dining_tables"."id" = \$2 ORDER BY "dining_tables"."id" LIMIT \$[0-9]+`

	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		expected         int
		expectedErr      error
	}{
		{
			name: "stored capacity",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).
					WithArgs(int64(1), int64(7), 1).
					WillReturnRows(sqlmock.NewRows([]string{"id", "capacity"}).AddRow(7, 6))
			},
			expected: 6,
		},
		{
			name: "null capacity means unset",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).
					WithArgs(int64(1), int64(7), 1).
					WillReturnRows(sqlmock.NewRows([]string{"id", "capacity"}).AddRow(7, nil))
			},
			expected: 0,
		},
		{
			name: "table belongs to another venue",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).
					WithArgs(int64(1), int64(7), 1).
					WillReturnRows(sqlmock.NewRows([]string{"id", "capacity"}))
			},
			expectedErr: ErrTableNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newTestDB(t)
			s := NewGormStore(gormDB)
			tc.mockExpectations(mock)

			capacity, err := s.TableCapacity(context.Background(), 1, 7)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, capacity)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_ListCategories(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "categories" WHERE venue_id = \$1 ORDER BY display_order, id`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "venue_id", "name", "display_order", "is_active", "schedule_type", "start_time", "end_time"}).
			AddRow(10, 3, "Breakfast", 1, true, "daily", "07:00", "11:00"))
	mock.ExpectQuery(`SELECT \* FROM "menu_items" WHERE "menu_items"."category_id" = \$1 ORDER BY display_order, id`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "category_id", "name", "price_cents", "display_order", "available"}).
			AddRow(100, 10, "Pancakes", 850, 1, true).
			AddRow(101, 10, "Granola", 600, 2, false))

	categories, err := s.ListCategories(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "daily", categories[0].ScheduleType)
	require.NotNil(t, categories[0].StartTime)
	assert.Equal(t, "07:00", *categories[0].StartTime)
	require.Len(t, categories[0].Items, 2)
	assert.False(t, categories[0].Items[1].Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SubscriptionsForTable(t *testing.T) {
	gormDB, mock := newTestDB(t)
	s := NewGormStore(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "push_subscriptions" JOIN subscription_table_mapping stm ON .* WHERE stm\.dining_table_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth"}).
			AddRow("https://push.example.com/a", "key-a", "auth-a"))

	subs, err := s.SubscriptionsForTable(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "key-a", subs[0].P256DH)
	assert.NoError(t, mock.ExpectationsWereMet())
}
