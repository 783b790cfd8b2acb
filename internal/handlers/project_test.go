package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/models"
)

func TestProjectLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.signup(t, "owner@example.com", "Owner")

	projectID := env.createProject(t, token, "My Project")

	// The list reports owner permissions.
	w := env.request(t, http.MethodGet, "/api/projects", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Data []struct {
			Name      string `json:"name"`
			UserRole  string `json:"user_role"`
			CanEdit   bool   `json:"can_edit"`
			CanDelete bool   `json:"can_delete"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	require.Equal(t, "My Project", list.Data[0].Name)
	require.Equal(t, "owner", list.Data[0].UserRole)
	require.True(t, list.Data[0].CanEdit)
	require.True(t, list.Data[0].CanDelete)

	// Rename it.
	w = env.request(t, http.MethodPut, fmt.Sprintf("/api/projects/%d", projectID), token, map[string]any{
		"name":        "Renamed Project",
		"description": "now with a description",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Delete it.
	w = env.request(t, http.MethodDelete, fmt.Sprintf("/api/projects/%d", projectID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", projectID), token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjectMemberManagementRequiresGrants(t *testing.T) {
	env := setupTestEnv(t)
	_, ownerToken := env.signup(t, "owner@example.com", "Owner")
	member, memberToken := env.signup(t, "member@example.com", "Member")
	third, _ := env.signup(t, "third@example.com", "Third")

	projectID := env.createProject(t, ownerToken, "Team Project")
	membersPath := fmt.Sprintf("/api/projects/%d/members", projectID)

	w := env.request(t, http.MethodPost, membersPath, ownerToken, map[string]any{
		"email": "member@example.com",
		"role":  "member",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// A member without the edit grant cannot manage membership.
	w = env.request(t, http.MethodPost, membersPath, memberToken, map[string]any{
		"email": "third@example.com",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	// With the edit grant they can.
	w = env.request(t, http.MethodPut, fmt.Sprintf("%s/%d", membersPath, member.ID), ownerToken, map[string]any{
		"role":     "member",
		"can_edit": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodPost, membersPath, memberToken, map[string]any{
		"email": "third@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicates are a conflict.
	w = env.request(t, http.MethodPost, membersPath, ownerToken, map[string]any{
		"email": "third@example.com",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	// Removal needs the delete grant, which the member was never given.
	w = env.request(t, http.MethodDelete, fmt.Sprintf("%s/%d", membersPath, third.ID), memberToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodDelete, fmt.Sprintf("%s/%d", membersPath, third.ID), ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.ProjectMember{}).Where("project_id = ?", projectID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestProjectInviteCreatesAccount(t *testing.T) {
	env := setupTestEnv(t)
	_, ownerToken := env.signup(t, "owner@example.com", "Owner")
	projectID := env.createProject(t, ownerToken, "Hiring Project")

	w := env.request(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/members/invite", projectID), ownerToken, map[string]any{
		"email":    "fresh@example.com",
		"name":     "Fresh Hire",
		"password": "welcome12345",
		"role":     "viewer",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// The invited account can log in immediately.
	w = env.request(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "fresh@example.com",
		"password": "welcome12345",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestProjectTaskListFilters(t *testing.T) {
	env := setupTestEnv(t)
	user, token := env.signup(t, "owner@example.com", "Owner")
	projectID := env.createProject(t, token, "Busy Project")
	tasksPath := fmt.Sprintf("/api/projects/%d/tasks", projectID)

	for i, status := range []string{"todo", "doing", "done", "doing"} {
		w := env.request(t, http.MethodPost, tasksPath, token, map[string]any{
			"title":       fmt.Sprintf("Task %d", i+1),
			"status":      status,
			"assigned_to": user.ID,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.request(t, http.MethodGet, tasksPath+"?status=doing", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Tasks      []struct{ Status string }
			TotalCount int64 `json:"total_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, int64(2), resp.Data.TotalCount)
	require.Len(t, resp.Data.Tasks, 2)

	w = env.request(t, http.MethodGet, tasksPath+"?status=bogus", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodGet, tasksPath+"?limit=3", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, int64(4), resp.Data.TotalCount)
	require.Len(t, resp.Data.Tasks, 3)
}
