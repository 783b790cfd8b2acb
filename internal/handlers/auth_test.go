package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/models"
)

func TestAuthFlow(t *testing.T) {
	env := setupTestEnv(t)

	user, token := env.signup(t, "alice@example.com", "Alice")
	require.Equal(t, models.RoleUser, user.Role)
	require.True(t, user.IsActive)

	// Duplicate email is a conflict.
	w := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    "alice@example.com",
		"password": "password123",
		"name":     "Alice Again",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "CONFLICT", errorCode(t, w))

	// Short passwords are rejected.
	w = env.request(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    "bob@example.com",
		"password": "short",
		"name":     "Bob",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Login with the right password.
	w = env.request(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Wrong password yields the credentials code, not a generic error.
	w = env.request(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "wrongpassword",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "INVALID_CREDENTIALS", errorCode(t, w))

	// The token works against a protected route.
	w = env.request(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var me struct {
		Data struct {
			Email string `json:"email"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	require.Equal(t, "alice@example.com", me.Data.Email)

	// No token, no access.
	w = env.request(t, http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginDeactivatedUser(t *testing.T) {
	env := setupTestEnv(t)

	user, _ := env.signup(t, "gone@example.com", "Gone")
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)

	w := env.request(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "gone@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	env := setupTestEnv(t)

	user, token := env.signup(t, "carol@example.com", "Carol")

	w := env.request(t, http.MethodPut, "/api/auth/profile", token, map[string]any{
		"name":       "Carol Renamed",
		"avatar_url": "https://example.com/avatar.png",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.User
	require.NoError(t, env.db.First(&stored, user.ID).Error)
	require.Equal(t, "Carol Renamed", stored.Name)
	require.Equal(t, "https://example.com/avatar.png", stored.AvatarURL)
}
