package app

import (
	"context"
	"testing"

	"alcyxob/gym-routines/internal/config"
	"alcyxob/gym-routines/internal/notify"
	"alcyxob/gym-routines/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMemoryStore(t *testing.T) {
	store, err := OpenStore(context.Background(), logger.Nop(), config.DatabaseConfig{Driver: "Memory"}, true)
	require.NoError(t, err)
	assert.NotNil(t, store.Routines)
	assert.NotNil(t, store.Users)
	assert.NoError(t, store.Close())
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), logger.Nop(), config.DatabaseConfig{Driver: "postgres"}, false)
	assert.ErrorContains(t, err, "postgres")
}

func TestNewFileStorageDisabled(t *testing.T) {
	files, err := NewFileStorage(context.Background(), logger.Nop(), config.S3Config{})
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestNewNotifierDefaultsToLog(t *testing.T) {
	n, closeFn, err := NewNotifier(logger.Nop(), config.Config{}, nil)
	require.NoError(t, err)
	require.NoError(t, closeFn())

	multi, ok := n.(notify.Multi)
	require.True(t, ok)
	require.Len(t, multi, 1)
	assert.IsType(t, &notify.LogNotifier{}, multi[0])
}

func TestNewNotifierWithEmail(t *testing.T) {
	cfg := config.Config{Email: config.EmailConfig{ResendAPIKey: "re_test", From: "Gym <gym@example.com>"}}
	n, _, err := NewNotifier(logger.Nop(), cfg, nil)
	require.NoError(t, err)
	assert.Len(t, n.(notify.Multi), 2)
}

func TestNewServicesOverMemoryStore(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(ctx, logger.Nop(), config.DatabaseConfig{Driver: DriverMemory}, false)
	require.NoError(t, err)

	svc := NewServices(logger.Nop(), store, nil, notify.NewLogNotifier(logger.Nop()))
	group, err := svc.Catalog.CreateMuscleGroup(ctx, "Core", "Abdominales y oblicuos")
	require.NoError(t, err)
	groups, err := svc.Catalog.ListMuscleGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, group.ID, groups[0].ID)
}
