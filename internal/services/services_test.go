package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/repository"
)

// broadcastEvent records one fan-out call made by a service under test.
type broadcastEvent struct {
	projectID uint64
	event     string
	data      any
}

type recordingNotifier struct {
	events []broadcastEvent
}

func (n *recordingNotifier) Broadcast(projectID uint64, event string, data any) {
	n.events = append(n.events, broadcastEvent{projectID: projectID, event: event, data: data})
}

type serviceTestEnv struct {
	db       *gorm.DB
	notifier *recordingNotifier

	authService    *AuthService
	projectService *ProjectService
	taskService    *TaskService
	adminService   *AdminService

	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository

	owner   models.User
	editor  models.User
	viewer  models.User
	project models.Project
}

func setupServiceTestEnv(t *testing.T) *serviceTestEnv {
	t.Helper()

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

	notifier := &recordingNotifier{}
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	env := &serviceTestEnv{
		db:             db,
		notifier:       notifier,
		authService:    NewAuthService(userRepo, tokens),
		projectService: NewProjectService(projectRepo, userRepo),
		taskService:    NewTaskService(taskRepo, projectRepo, notifier),
		adminService:   NewAdminService(userRepo, projectRepo, taskRepo),
		userRepo:       userRepo,
		projectRepo:    projectRepo,
		taskRepo:       taskRepo,
	}

	env.owner = env.createUser(t, "owner@example.com", "Owner", models.RoleUser)
	env.editor = env.createUser(t, "editor@example.com", "Editor", models.RoleUser)
	env.viewer = env.createUser(t, "viewer@example.com", "Viewer", models.RoleUser)

	env.project = models.Project{Name: "Test Project", OwnerID: env.owner.ID}
	require.NoError(t, db.Create(&env.project).Error)

	require.NoError(t, db.Create(&models.ProjectMember{
		ProjectID: env.project.ID,
		UserID:    env.editor.ID,
		Role:      models.ProjectRoleMember,
		CanEdit:   true,
		CanDelete: false,
	}).Error)
	require.NoError(t, db.Create(&models.ProjectMember{
		ProjectID: env.project.ID,
		UserID:    env.viewer.ID,
		Role:      models.ProjectRoleViewer,
		CanEdit:   false,
		CanDelete: false,
	}).Error)

	return env
}

func (env *serviceTestEnv) createUser(t *testing.T, email, name string, role models.GlobalRole) models.User {
	t.Helper()

	user := models.User{
		Email:        email,
		PasswordHash: "$2a$12$unused",
		Name:         name,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, env.db.Create(&user).Error)
	return user
}

func (env *serviceTestEnv) createTask(t *testing.T, title string) models.Task {
	t.Helper()

	task := models.Task{
		Title:     title,
		Status:    models.TaskStatusTodo,
		Priority:  models.TaskPriorityMedium,
		ProjectID: env.project.ID,
		CreatedBy: env.owner.ID,
	}
	require.NoError(t, env.db.Create(&task).Error)
	return task
}

func (env *serviceTestEnv) historyCount(t *testing.T, taskID uint64) int64 {
	t.Helper()

	var count int64
	require.NoError(t, env.db.Model(&models.TaskHistory{}).Where("task_id = ?", taskID).Count(&count).Error)
	return count
}
