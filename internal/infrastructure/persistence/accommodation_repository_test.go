package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wishup-shore/booking-system-backend/internal/domain/accommodation"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/persistence/models"
)

func seedAccommodation(t *testing.T, repo *GormAccommodationRepository, number string, typeID int64, status accommodation.Status) *accommodation.Accommodation {
	t.Helper()
	a := &accommodation.Accommodation{
		Number:    number,
		TypeID:    typeID,
		Capacity:  2,
		Status:    status,
		Condition: accommodation.ConditionOK,
	}
	require.NoError(t, repo.Create(context.Background(), a))
	return a
}

func TestGormAccommodationRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("find by id and not found", func(t *testing.T) {
		repo := NewGormAccommodationRepository(newSQLiteTestDB(t))
		a := seedAccommodation(t, repo, "A-1", 1, accommodation.StatusAvailable)

		found, err := repo.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "A-1", found.Number)
		assert.True(t, found.IsAvailable())

		_, err = repo.FindByID(ctx, 9999)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("existing ids returns the present subset", func(t *testing.T) {
		repo := NewGormAccommodationRepository(newSQLiteTestDB(t))
		a := seedAccommodation(t, repo, "B-1", 1, accommodation.StatusAvailable)
		b := seedAccommodation(t, repo, "B-2", 1, accommodation.StatusOccupied)

		ids, err := repo.ExistingIDs(ctx, []int64{b.ID, 777, a.ID})
		require.NoError(t, err)
		assert.Equal(t, []int64{a.ID, b.ID}, ids)

		exists, err := repo.Exists(ctx, 777)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("find available filters by status and type", func(t *testing.T) {
		db := newSQLiteTestDB(t)
		require.NoError(t, db.Create(&models.AccommodationTypeModel{ID: 1, Name: "Cabin", DefaultCapacity: 4, IsActive: true}).Error)
		require.NoError(t, db.Create(&models.AccommodationTypeModel{ID: 2, Name: "Room", DefaultCapacity: 2, IsActive: true}).Error)
		repo := NewGormAccommodationRepository(db)

		c1 := seedAccommodation(t, repo, "C-1", 1, accommodation.StatusAvailable)
		seedAccommodation(t, repo, "C-2", 1, accommodation.StatusMaintenance)
		r1 := seedAccommodation(t, repo, "R-1", 2, accommodation.StatusAvailable)

		all, err := repo.FindAvailable(ctx, nil)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, c1.ID, all[0].ID)
		assert.Equal(t, r1.ID, all[1].ID)

		rooms, err := repo.FindAvailable(ctx, []int64{2})
		require.NoError(t, err)
		require.Len(t, rooms, 1)
		assert.Equal(t, r1.ID, rooms[0].ID)
	})

	t.Run("update fields", func(t *testing.T) {
		repo := NewGormAccommodationRepository(newSQLiteTestDB(t))
		a := seedAccommodation(t, repo, "D-1", 1, accommodation.StatusAvailable)

		err := repo.UpdateFields(ctx, a.ID, map[string]any{
			accommodation.FieldStatus:    accommodation.StatusMaintenance,
			accommodation.FieldCondition: accommodation.ConditionCritical,
		})
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, accommodation.StatusMaintenance, found.Status)
		assert.Equal(t, accommodation.ConditionCritical, found.Condition)

		err = repo.UpdateFields(ctx, a.ID, map[string]any{"number": "X"})
		assert.Equal(t, "INVALID_FIELD", shared.ErrorCode(err))

		err = repo.UpdateFields(ctx, 5555, map[string]any{accommodation.FieldStatus: accommodation.StatusAvailable})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
