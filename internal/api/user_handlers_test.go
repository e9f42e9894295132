package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-review-service/internal/domain"
)

func TestUsersSectionIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	userToken, _ := env.userToken(t, "reader", false)

	t.Run("no token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users", "", nil)
		requireErrorBody(t, rec, http.StatusUnauthorized, "Unauthorized")
	})

	t.Run("non-admin token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/users", userToken, nil)
		requireErrorBody(t, rec, http.StatusForbidden, "Only administrators can use this operation")
	})
}

func TestListUsersOmitsPasswordHash(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.adminToken(t)
	env.userToken(t, "alice", false)

	rec := env.do(t, http.MethodGet, "/api/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	var users []domain.User
	decodeBody(t, rec, &users)
	require.Len(t, users, 2)
	// сортировка по имени: admin, затем alice
	assert.Equal(t, "admin", users[0].Username)
	assert.Equal(t, "alice", users[1].Username)
}

func TestCreateUserAsAdmin(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/api/users", adminToken, map[string]interface{}{
		"username": "operator",
		"password": "secret123",
		"is_admin": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var user domain.User
	decodeBody(t, rec, &user)
	assert.Equal(t, "operator", user.Username)
	assert.True(t, user.IsAdmin)

	t.Run("duplicate username", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/users", adminToken, map[string]interface{}{
			"username": "operator",
			"password": "secret123",
		})
		requireErrorBody(t, rec, http.StatusBadRequest, "The username has been used")
	})
}

func TestGetUserNotFound(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.adminToken(t)

	rec := env.do(t, http.MethodGet, "/api/users/00000000-0000-0000-0000-000000000000", adminToken, nil)
	requireErrorBody(t, rec, http.StatusNotFound, "The user does not exist.")
}

func TestUpdateUserGrantsAdmin(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.adminToken(t)
	_, alice := env.userToken(t, "alice", false)

	rec := env.do(t, http.MethodPut, "/api/users/"+alice.ID, adminToken, map[string]interface{}{
		"is_admin": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated domain.User
	decodeBody(t, rec, &updated)
	assert.True(t, updated.IsAdmin)
	assert.Equal(t, "alice", updated.Username) // не передано, осталось прежним
}

func TestUpdateUserRejectsEmptyUsername(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _ := env.adminToken(t)
	_, alice := env.userToken(t, "alice", false)

	rec := env.do(t, http.MethodPut, "/api/users/"+alice.ID, adminToken, map[string]interface{}{
		"username": "",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Errors []FieldError `json:"errors"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "username", body.Errors[0].Field)
	assert.Equal(t, "The username cannot be empty", body.Errors[0].Message)

	rec = env.do(t, http.MethodGet, "/api/users/"+alice.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var kept domain.User
	decodeBody(t, rec, &kept)
	assert.Equal(t, "alice", kept.Username)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	adminToken, admin := env.adminToken(t)
	_, alice := env.userToken(t, "alice", false)

	t.Run("self-delete is rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/api/users/"+admin.ID, adminToken, nil)
		requireErrorBody(t, rec, http.StatusBadRequest, "The currently logged-in user cannot be deleted")
	})

	t.Run("other user is deleted", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/api/users/"+alice.ID, adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]string
		decodeBody(t, rec, &body)
		assert.Equal(t, "The user has been successfully deleted", body["message"])

		rec = env.do(t, http.MethodGet, "/api/users/"+alice.ID, adminToken, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
