package database

import (
	"context"
	"testing"

	"chmura-plikow/internal/auth"

	"github.com/stretchr/testify/require"
)

func createRandomUser(t *testing.T) {
	hashedPassword, err := auth.HashPassword("secretpassword")
	require.NoError(t, err)

	query := `INSERT INTO users (username, password_hash, display_name) VALUES ($1, $2, $3)`
	_, err = testStore.pool.Exec(context.Background(), query, "testuser", hashedPassword, "Test User")
	require.NoError(t, err)
}

func TestGetUserByUsername(t *testing.T) {
	createRandomUser(t)

	foundUser, err := testStore.GetUserByUsername(context.Background(), "testuser")

	require.NoError(t, err)
	require.NotNil(t, foundUser)

	require.Equal(t, "testuser", foundUser.Username)
	require.NotNil(t, foundUser.DisplayName)
	require.Equal(t, "Test User", *foundUser.DisplayName)
	require.NotEmpty(t, foundUser.PasswordHash)
	require.Equal(t, int64(0), foundUser.StorageUsedBytes)

	nonExistentUser, err := testStore.GetUserByUsername(context.Background(), "nonexistent")
	require.NoError(t, err)
	require.Nil(t, nonExistentUser)
}

func TestCreateUser(t *testing.T) {
	user, err := testStore.CreateUser(context.Background(), CreateUserParams{
		Username:     "created_user",
		PasswordHash: "hash",
		DisplayName:  "Created User",
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotZero(t, user.ID)
	require.Equal(t, "created_user", user.Username)

	// Zajęta nazwa użytkownika
	_, err = testStore.CreateUser(context.Background(), CreateUserParams{
		Username:     "created_user",
		PasswordHash: "hash",
		DisplayName:  "Duplicate",
	})
	require.ErrorIs(t, err, ErrUsernameTaken)
}
