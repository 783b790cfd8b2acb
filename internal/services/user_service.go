package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/taskhive/taskhive/internal/constants"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/repository"
)

var ErrStatsForbidden = errors.New("you can only view your own statistics")

// UserService serves the user directory used for member and assignee
// selection, plus per-user task statistics.
type UserService struct {
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, taskRepo repository.TaskRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
		taskRepo: taskRepo,
	}
}

// Search returns users matching the query by name or email, capped at the
// directory limit.
func (s *UserService) Search(query string) ([]models.User, error) {
	users, err := s.userRepo.Search(query, constants.DirectoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

// Get returns a single user by ID.
func (s *UserService) Get(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// Stats returns the target user's assigned-task counts. Users can see their
// own numbers; admins can see anyone's.
func (s *UserService) Stats(actor models.User, targetID uint64) (repository.TaskStats, error) {
	if actor.ID != targetID &&
		actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin {
		return repository.TaskStats{}, ErrStatsForbidden
	}

	if _, err := s.userRepo.FindByID(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.TaskStats{}, ErrUserNotFound
		}
		return repository.TaskStats{}, fmt.Errorf("failed to find user: %w", err)
	}

	stats, err := s.taskRepo.AssigneeStats(targetID)
	if err != nil {
		return repository.TaskStats{}, fmt.Errorf("failed to load task stats: %w", err)
	}
	return stats, nil
}
