package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive/internal/apperrors"
	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/database"
	"github.com/taskhive/taskhive/internal/handlers"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/permissions"
	"github.com/taskhive/taskhive/internal/realtime"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Diagnostic mode controls how much error detail leaves the server
	apperrors.SetDiagnostic(cfg.Diagnostic)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	// Core components
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
	resolver := permissions.NewResolver(projectRepo)
	hub := realtime.NewHub()

	// Services
	authService := services.NewAuthService(userRepo, tokens)
	userService := services.NewUserService(userRepo, taskRepo)
	projectService := services.NewProjectService(projectRepo, userRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo, hub)
	adminService := services.NewAdminService(userRepo, projectRepo, taskRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	projectHandler := handlers.NewProjectHandler(projectService, taskService)
	taskHandler := handlers.NewTaskHandler(taskService)
	adminHandler := handlers.NewAdminHandler(adminService, projectService)
	wsHandler := realtime.NewHandler(hub, cfg.CORSOrigin)

	// Initialize Gin router
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	requireAuth := middleware.RequireAuth(tokens, userRepo)
	requireAdmin := middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin)
	requireSuperAdmin := middleware.RequireRole(models.RoleSuperAdmin)

	// Health check endpoint
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "TaskHive API is running",
		})
	})

	// WebSocket endpoint for project event streams
	r.GET("/ws", requireAuth, wsHandler.Serve)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.GET("/me", requireAuth, authHandler.Me)
			authRoutes.PUT("/profile", requireAuth, authHandler.UpdateProfile)
		}

		// User directory routes
		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", userHandler.ListUsers)
			users.GET("/:id", userHandler.GetUser)
			users.GET("/:id/stats", userHandler.UserStats)
		}

		// Project routes
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

		// Task routes
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

		// Admin routes
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

	// Start server
	log.Printf("Server starting on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
