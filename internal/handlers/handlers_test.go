package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/permissions"
	"github.com/taskhive/taskhive/internal/realtime"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/services"
)

// testEnv wires the full route tree against an in-memory database, the same
// way the server binary does.
type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	tokens *auth.TokenManager
	hub    *realtime.Hub
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
		&models.TaskHistory{},
		&models.Comment{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	resolver := permissions.NewResolver(projectRepo)
	hub := realtime.NewHub()

	authService := services.NewAuthService(userRepo, tokens)
	userService := services.NewUserService(userRepo, taskRepo)
	projectService := services.NewProjectService(projectRepo, userRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo, hub)
	adminService := services.NewAdminService(userRepo, projectRepo, taskRepo)

	authHandler := NewAuthHandler(authService)
	userHandler := NewUserHandler(userService)
	projectHandler := NewProjectHandler(projectService, taskService)
	taskHandler := NewTaskHandler(taskService)
	adminHandler := NewAdminHandler(adminService, projectService)

	requireAuth := middleware.RequireAuth(tokens, userRepo)
	requireAdmin := middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin)
	requireSuperAdmin := middleware.RequireRole(models.RoleSuperAdmin)

	r := gin.New()

	api := r.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.GET("/me", requireAuth, authHandler.Me)
			authRoutes.PUT("/profile", requireAuth, authHandler.UpdateProfile)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", userHandler.ListUsers)
			users.GET("/:id", userHandler.GetUser)
			users.GET("/:id/stats", userHandler.UserStats)
		}

		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.GET("", projectHandler.ListProjects)
			projects.POST("", projectHandler.CreateProject)

			scoped := projects.Group("/:id")
			scoped.Use(middleware.RequireProjectAccess(resolver))
			{
				scoped.GET("", projectHandler.GetProject)
				scoped.PUT("", projectHandler.UpdateProject)
				scoped.DELETE("", projectHandler.DeleteProject)

				scoped.POST("/members", projectHandler.AddMember)
				scoped.POST("/members/invite", projectHandler.InviteMember)
				scoped.PUT("/members/:userId", projectHandler.UpdateMember)
				scoped.DELETE("/members/:userId", projectHandler.RemoveMember)

				scoped.GET("/tasks", projectHandler.ListProjectTasks)
				scoped.POST("/tasks", projectHandler.CreateTask)
			}
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			scoped := tasks.Group("/:id")
			scoped.Use(middleware.RequireTaskAccess(taskRepo, resolver))
			{
				scoped.GET("", taskHandler.GetTask)
				scoped.PATCH("", taskHandler.UpdateTask)
				scoped.DELETE("", taskHandler.DeleteTask)
				scoped.POST("/advance", taskHandler.AdvanceTask)
				scoped.GET("/history", taskHandler.TaskHistory)
				scoped.GET("/comments", taskHandler.ListComments)
				scoped.POST("/comments", taskHandler.AddComment)
				scoped.DELETE("/comments/:commentId", taskHandler.DeleteComment)
			}
		}

		admin := api.Group("/admin")
		admin.Use(requireAuth, requireAdmin)
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.PUT("/users/:id/role", adminHandler.UpdateUserRole)
			admin.PUT("/users/:id/status", requireSuperAdmin, adminHandler.SetUserStatus)
			admin.PUT("/users/:id/password", requireSuperAdmin, adminHandler.ResetUserPassword)
			admin.DELETE("/users/:id", requireSuperAdmin, adminHandler.DeleteUser)

			admin.GET("/tasks", adminHandler.ListAllTasks)
			admin.GET("/logs", adminHandler.ListTaskLogs)

			admin.GET("/projects", adminHandler.ListAllProjects)
			admin.GET("/projects/:id/members", adminHandler.ListProjectMembers)
			admin.POST("/projects/:id/members", adminHandler.AddProjectMember)
			admin.DELETE("/projects/:id/members/:userId", adminHandler.RemoveProjectMember)
		}
	}

	return &testEnv{
		db:     db,
		router: r,
		tokens: tokens,
		hub:    hub,
	}
}

// signup registers a user through the API and returns the user row and a
// valid token.
func (env *testEnv) signup(t *testing.T, email, name string) (models.User, string) {
	t.Helper()

	w := env.request(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    email,
		"password": "password123",
		"name":     name,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data struct {
			User  struct{ ID uint64 }
			Token string
		}
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	var user models.User
	require.NoError(t, env.db.First(&user, resp.Data.User.ID).Error)
	return user, resp.Data.Token
}

func (env *testEnv) promote(t *testing.T, userID uint64, role models.GlobalRole) {
	t.Helper()
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", userID).Update("role", role).Error)
}

func (env *testEnv) createProject(t *testing.T, token, name string) uint64 {
	t.Helper()

	w := env.request(t, http.MethodPost, "/api/projects", token, map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data struct{ ID uint64 }
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.ID
}

// request performs an API call. A nil body sends no payload.
func (env *testEnv) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// rawRequest performs an API call with a preassembled JSON body.
func (env *testEnv) rawRequest(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// errorCode extracts the machine-readable code from an error response.
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	return resp.Code
}
