package main

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-review-service/internal/store"
	"book-review-service/pkg/auth"
)

func TestCreateAdmin(t *testing.T) {
	users := store.NewMockUserStore()
	ctx := context.Background()

	admin, err := createAdmin(ctx, users, "admin", "admin123")
	require.NoError(t, err)
	require.NotNil(t, admin)

	// id назначается при создании, а не значением по умолчанию в БД
	_, err = uuid.Parse(admin.ID)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.True(t, auth.CheckPasswordHash("admin123", admin.PasswordHash))

	stored, err := users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, stored.ID)
}

func TestCreateAdminIdempotent(t *testing.T) {
	users := store.NewMockUserStore()
	ctx := context.Background()

	first, err := createAdmin(ctx, users, "admin", "admin123")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := createAdmin(ctx, users, "admin", "other-password")
	require.NoError(t, err)
	assert.Nil(t, second)

	stored, err := users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, auth.CheckPasswordHash("admin123", stored.PasswordHash))
}
