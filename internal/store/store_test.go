package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bin-status-backend/internal/db"
	"bin-status-backend/internal/model"
)

// newTestDB opens an in-memory SQLite database limited to a single
// connection, so every query sees the same memory store.
func newTestDB(t *testing.T) *gorm.DB {
	gormDB, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

func sampleBin(key model.BinKey) *model.Bin {
	return &model.Bin{
		BinID:                key.ID,
		Location:             key.Location,
		BinType:              "general",
		MicroProcessorStatus: model.StatusOff,
		SensorStatus:         model.StatusOff,
		BinLidStatus:         model.LidClose,
		BinStatus:            model.BinInactive,
		LastUpdated:          "3/1/2026, 12:00:00 PM",
		CreatedStamp:         "3/1/2026, 12:00:00 PM",
	}
}

func TestGetMissingRecord(t *testing.T) {
	s := NewGormStore(newTestDB(t))

	_, err := s.Get(context.Background(), model.BinKey{Location: "Gym", ID: 1})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSetAndGetRoundTrip(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	key := model.BinKey{Location: "Gym", ID: 1}

	require.NoError(t, s.Set(context.Background(), sampleBin(key)))

	got, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "Gym/Bin-1", got.Path)
	assert.Equal(t, "general", got.BinType)
	assert.Equal(t, model.StatusOff, got.MicroProcessorStatus)
}

func TestSetOverwritesWholeRecord(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	key := model.BinKey{Location: "Gym", ID: 1}
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, sampleBin(key)))

	updated := sampleBin(key)
	updated.Distance = 42
	updated.MicroProcessorStatus = model.StatusOn
	require.NoError(t, s.Set(ctx, updated))

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 42.0, got.Distance)
	assert.Equal(t, model.StatusOn, got.MicroProcessorStatus)
}

func TestUpdatePatchesOnlyNamedColumns(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	key := model.BinKey{Location: "Gym", ID: 1}
	ctx := context.Background()

	bin := sampleBin(key)
	bin.Distance = 7
	bin.SensorStatus = model.StatusOn
	require.NoError(t, s.Set(ctx, bin))

	err := s.Update(ctx, key, map[string]any{
		"micro_processor_status": model.StatusOn,
		"last_updated":           "3/1/2026, 12:05:00 PM",
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOn, got.MicroProcessorStatus)
	assert.Equal(t, "3/1/2026, 12:05:00 PM", got.LastUpdated)
	assert.Equal(t, 7.0, got.Distance, "unpatched column must keep its value")
	assert.Equal(t, model.StatusOn, got.SensorStatus, "unpatched column must keep its value")
}

func TestUpdateMissingRecord(t *testing.T) {
	s := NewGormStore(newTestDB(t))

	err := s.Update(context.Background(), model.BinKey{Location: "Gym", ID: 9}, map[string]any{
		"micro_processor_status": model.StatusOn,
	})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListByLocation(t *testing.T) {
	s := NewGormStore(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, sampleBin(model.BinKey{Location: "Gym", ID: 2})))
	require.NoError(t, s.Set(ctx, sampleBin(model.BinKey{Location: "Gym", ID: 1})))
	require.NoError(t, s.Set(ctx, sampleBin(model.BinKey{Location: "Library", ID: 1})))

	gym, err := s.List(ctx, "Gym")
	require.NoError(t, err)
	require.Len(t, gym, 2)
	assert.Equal(t, 1, gym[0].BinID, "listing is ordered by bin id")
	assert.Equal(t, 2, gym[1].BinID)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
