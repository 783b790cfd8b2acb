package services

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/taskhive/taskhive/internal/constants"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/permissions"
	"github.com/taskhive/taskhive/internal/repository"
)

var (
	ErrInvalidRole      = errors.New("invalid role")
	ErrSelfDelete       = errors.New("you cannot delete your own account")
	ErrSuperAdminDelete = errors.New("super admin accounts cannot be deleted")
	ErrSelfDeactivate   = errors.New("you cannot deactivate your own account")
	ErrSuperAdminStatus = errors.New("super admin accounts cannot be deactivated")
)

// AdminService implements the administrative user and oversight operations.
// Route-level middleware guarantees the caller holds admin or super_admin.
type AdminService struct {
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
}

// NewAdminService creates a new AdminService.
func NewAdminService(userRepo repository.UserRepository, projectRepo repository.ProjectRepository, taskRepo repository.TaskRepository) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
	}
}

// ListUsers returns all accounts, newest first.
func (s *AdminService) ListUsers() ([]models.User, error) {
	users, err := s.userRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUserRole changes a user's global role. The escalation rule is
// checked on the requested role before the target is even looked up, so a
// plain admin probing for super_admin accounts learns nothing.
func (s *AdminService) UpdateUserRole(actor models.User, targetID uint64, newRole models.GlobalRole) (*models.User, error) {
	if !newRole.IsValid() {
		return nil, ErrInvalidRole
	}

	if err := permissions.CheckRoleChange(actor.Role, "", newRole); err != nil {
		return nil, err
	}

	target, err := s.userRepo.FindByID(targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := permissions.CheckRoleChange(actor.Role, target.Role, newRole); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateRole(target.ID, newRole); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	target.Role = newRole
	return target, nil
}

// SetUserStatus activates or deactivates an account. Deactivation blocks new
// logins; tokens already issued stay valid until they expire.
func (s *AdminService) SetUserStatus(actor models.User, targetID uint64, active bool) (*models.User, error) {
	if !active && targetID == actor.ID {
		return nil, ErrSelfDeactivate
	}

	target, err := s.userRepo.FindByID(targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !active && target.Role == models.RoleSuperAdmin && actor.Role != models.RoleSuperAdmin {
		return nil, ErrSuperAdminStatus
	}

	if err := s.userRepo.UpdateActive(target.ID, active); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	target.IsActive = active
	return target, nil
}

// ResetUserPassword replaces a user's password with an admin-chosen one.
func (s *AdminService) ResetUserPassword(actor models.User, targetID uint64, newPassword string) error {
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	target, err := s.userRepo.FindByID(targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if target.Role == models.RoleSuperAdmin && actor.Role != models.RoleSuperAdmin {
		return permissions.ErrRoleEscalation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), constants.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(target.ID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// DeleteUser removes an account. Projects the user owned are handed to the
// acting admin, their memberships are deleted and their task assignments
// cleared, all atomically. The actor cannot delete themselves and
// super_admin accounts are never deletable.
func (s *AdminService) DeleteUser(actor models.User, targetID uint64) error {
	if targetID == actor.ID {
		return ErrSelfDelete
	}

	target, err := s.userRepo.FindByID(targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if target.Role == models.RoleSuperAdmin {
		return ErrSuperAdminDelete
	}

	if err := s.userRepo.DeleteWithReassignment(target.ID, actor.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return nil
}

// ListAllTasks returns tasks across every project, with filters.
func (s *AdminService) ListAllTasks(filter repository.TaskFilter) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// TaskLogs returns change history across all tasks, or for one task when
// taskID is set.
func (s *AdminService) TaskLogs(taskID *uint64) ([]models.TaskHistory, error) {
	entries, err := s.taskRepo.ListHistory(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task logs: %w", err)
	}
	return entries, nil
}

// ListAllProjects returns every project with member and task counts.
func (s *AdminService) ListAllProjects() ([]repository.ProjectSummary, error) {
	projects, err := s.projectRepo.ListAllWithCounts()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// ProjectMembers returns a project's membership list for admin oversight.
func (s *AdminService) ProjectMembers(projectID uint64) ([]models.ProjectMember, error) {
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	members, err := s.projectRepo.ListMembers(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}
