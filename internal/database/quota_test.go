package database

import (
	"context"
	"testing"

	"chmura-plikow/internal/models"

	"github.com/stretchr/testify/require"
)

func TestReserveStorage(t *testing.T) {
	userID := createTestUserForEntries(t, "user_reserve_storage")

	// Zwykła rezerwacja zwiększa zużycie i zwraca nową wartość
	used, err := testStore.ReserveStorage(context.Background(), userID, 1000)
	require.NoError(t, err)
	require.Equal(t, int64(1000), used)

	used, err = testStore.ReserveStorage(context.Background(), userID, 500)
	require.NoError(t, err)
	require.Equal(t, int64(1500), used)
}

func TestReserveStorageQuotaExceeded(t *testing.T) {
	userID := createTestUserForEntries(t, "user_reserve_over")

	// Rezerwacja przekraczająca limit odbija się bez zmiany licznika
	_, err := testStore.ReserveStorage(context.Background(), userID, models.StorageCapacityBytes+1)
	require.ErrorIs(t, err, ErrQuotaExceeded)

	used, err := testStore.GetStorageUsed(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, int64(0), used)

	// Rezerwacja dokładnie do limitu przechodzi
	used, err = testStore.ReserveStorage(context.Background(), userID, models.StorageCapacityBytes)
	require.NoError(t, err)
	require.Equal(t, models.StorageCapacityBytes, used)

	// Kolejny bajt już nie
	_, err = testStore.ReserveStorage(context.Background(), userID, 1)
	require.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestReleaseStorage(t *testing.T) {
	userID := createTestUserForEntries(t, "user_release_storage")

	_, err := testStore.ReserveStorage(context.Background(), userID, 1500)
	require.NoError(t, err)

	used, err := testStore.ReleaseStorage(context.Background(), userID, 1000)
	require.NoError(t, err)
	require.Equal(t, int64(500), used)

	// Nadmiarowe zwolnienie nie schodzi poniżej zera
	used, err = testStore.ReleaseStorage(context.Background(), userID, 10000)
	require.NoError(t, err)
	require.Equal(t, int64(0), used)
}
