package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/models"
)

func TestUserDirectorySearch(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.signup(t, "alice@example.com", "Alice Johnson")
	env.signup(t, "bob@example.com", "Bob Smith")
	env.signup(t, "carol@widgets.io", "Carol Jones")

	w := env.request(t, http.MethodGet, "/api/users", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, http.MethodGet, "/api/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 3)
	require.Equal(t, "Alice Johnson", list.Data[0].Name)
	require.Equal(t, "Bob Smith", list.Data[1].Name)
	require.Equal(t, "Carol Jones", list.Data[2].Name)

	// Search matches on name or email.
	w = env.request(t, http.MethodGet, "/api/users?search=Jo", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 2)

	w = env.request(t, http.MethodGet, "/api/users?search=widgets.io", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	require.Equal(t, "Carol Jones", list.Data[0].Name)
}

func TestUserProfileLookup(t *testing.T) {
	env := setupTestEnv(t)
	user, token := env.signup(t, "alice@example.com", "Alice Johnson")

	w := env.request(t, http.MethodGet, fmt.Sprintf("/api/users/%d", user.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "Alice Johnson", resp.Data.Name)
	require.Equal(t, "alice@example.com", resp.Data.Email)

	w = env.request(t, http.MethodGet, "/api/users/9999", token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserStatsVisibility(t *testing.T) {
	env := setupTestEnv(t)
	owner, ownerToken := env.signup(t, "owner@example.com", "Owner")
	watcher, watcherToken := env.signup(t, "watcher@example.com", "Watcher")

	projectID := env.createProject(t, ownerToken, "Stats Project")
	tasksPath := fmt.Sprintf("/api/projects/%d/tasks", projectID)

	overdue := time.Now().Add(-48 * time.Hour).Format(time.RFC3339)
	for _, payload := range []map[string]any{
		{"title": "Late report", "status": "todo", "assigned_to": owner.ID, "due_date": overdue},
		{"title": "In flight", "status": "doing", "assigned_to": owner.ID},
		{"title": "Shipped", "status": "done", "assigned_to": owner.ID},
	} {
		w := env.request(t, http.MethodPost, tasksPath, ownerToken, payload)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	statsPath := fmt.Sprintf("/api/users/%d/stats", owner.ID)

	w := env.request(t, http.MethodGet, statsPath, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			TotalTasks   int64 `json:"total_tasks"`
			TodoTasks    int64 `json:"todo_tasks"`
			DoingTasks   int64 `json:"doing_tasks"`
			DoneTasks    int64 `json:"done_tasks"`
			OverdueTasks int64 `json:"overdue_tasks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, int64(3), resp.Data.TotalTasks)
	require.Equal(t, int64(1), resp.Data.TodoTasks)
	require.Equal(t, int64(1), resp.Data.DoingTasks)
	require.Equal(t, int64(1), resp.Data.DoneTasks)
	require.Equal(t, int64(1), resp.Data.OverdueTasks)

	// Other users are refused unless they hold a global admin role.
	w = env.request(t, http.MethodGet, statsPath, watcherToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	env.promote(t, watcher.ID, models.RoleAdmin)
	w = env.request(t, http.MethodGet, statsPath, watcherToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
}
