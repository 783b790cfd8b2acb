package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/taskhive/taskhive/internal/constants"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/repository"
)

var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrProjectNameEmpty   = errors.New("project name is required")
	ErrProjectNameTooLong = errors.New("project name exceeds the maximum length")
	ErrMemberExists       = errors.New("user is already a member of this project")
	ErrMemberNotFound     = errors.New("member not found in this project")
	ErrMemberIsOwner      = errors.New("the project owner cannot be added as a member")
	ErrInvalidProjectRole = errors.New("invalid project role")
)

// ProjectService handles project and membership business logic. Permission
// enforcement happens at the route level via the authorization resolver;
// this service owns the data rules.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
	}
}

// List returns the caller's projects with their effective permission on each.
func (s *ProjectService) List(userID uint64) ([]repository.ProjectWithPermission, error) {
	projects, err := s.projectRepo.ListForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Get returns a project with its owner and members.
func (s *ProjectService) Get(projectID uint64) (*models.Project, []models.ProjectMember, error) {
	project, err := s.projectRepo.FindByID(projectID, "Owner")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProjectNotFound
		}
		return nil, nil, fmt.Errorf("failed to find project: %w", err)
	}

	members, err := s.projectRepo.ListMembers(projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list members: %w", err)
	}

	return project, members, nil
}

// Create creates a project owned by the caller. A project always has exactly
// one owner.
func (s *ProjectService) Create(ownerID uint64, name, description string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if err := validateProjectText(name, description); err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
	}

	if err := s.projectRepo.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return s.projectRepo.FindByID(project.ID, "Owner")
}

// Update changes a project's name and description.
func (s *ProjectService) Update(projectID uint64, name, description string) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	name = strings.TrimSpace(name)
	if err := validateProjectText(name, description); err != nil {
		return nil, err
	}

	project.Name = name
	project.Description = description

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return s.projectRepo.FindByID(project.ID, "Owner")
}

// validateProjectText enforces the shared field length limits on the
// already-trimmed name and the description.
func validateProjectText(name, description string) error {
	if name == "" {
		return ErrProjectNameEmpty
	}
	if len(name) > constants.MaxTitleLength {
		return ErrProjectNameTooLong
	}
	if len(description) > constants.MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// Delete removes a project and everything it owns.
func (s *ProjectService) Delete(projectID uint64) error {
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
	}

	if err := s.projectRepo.Delete(projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// MemberInput holds the grant carried by a membership row.
type MemberInput struct {
	Role      models.ProjectRole
	CanEdit   bool
	CanDelete bool
}

func (in *MemberInput) validate() error {
	if in.Role == "" {
		in.Role = models.ProjectRoleMember
	}
	if !in.Role.IsValid() {
		return ErrInvalidProjectRole
	}
	return nil
}

// AddMember adds an existing user, looked up by email, to a project.
func (s *ProjectService) AddMember(projectID uint64, email string, input MemberInput) (*models.ProjectMember, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return s.addMember(project, user, input)
}

// AddMemberByID adds an existing user to a project, for admin flows that
// reference users by id.
func (s *ProjectService) AddMemberByID(projectID, userID uint64, input MemberInput) (*models.ProjectMember, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return s.addMember(project, user, input)
}

func (s *ProjectService) addMember(project *models.Project, user *models.User, input MemberInput) (*models.ProjectMember, error) {
	// The owner's rights come from the project row; a membership row for the
	// owner would be meaningless.
	if project.OwnerID == user.ID {
		return nil, ErrMemberIsOwner
	}

	if _, err := s.projectRepo.FindMember(project.ID, user.ID); err == nil {
		return nil, ErrMemberExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	member := &models.ProjectMember{
		ProjectID: project.ID,
		UserID:    user.ID,
		Role:      input.Role,
		CanEdit:   input.CanEdit,
		CanDelete: input.CanDelete,
		JoinedAt:  time.Now(),
	}

	if err := s.projectRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	member.User = *user
	return member, nil
}

// UpdateMember changes a member's role and edit/delete grants.
func (s *ProjectService) UpdateMember(projectID, userID uint64, input MemberInput) error {
	if err := input.validate(); err != nil {
		return err
	}

	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      input.Role,
		CanEdit:   input.CanEdit,
		CanDelete: input.CanDelete,
	}

	if err := s.projectRepo.UpdateMember(member); err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to update member: %w", err)
	}

	return nil
}

// RemoveMember deletes a membership row.
func (s *ProjectService) RemoveMember(projectID, userID uint64) error {
	if err := s.projectRepo.RemoveMember(projectID, userID); err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// InviteInput describes a brand-new user to create and add as a member.
type InviteInput struct {
	Email    string
	Name     string
	Password string
	Member   MemberInput
}

// InviteMember creates a new account and adds it to the project in one call.
// An existing email is a conflict: the add-member flow covers that case.
func (s *ProjectService) InviteMember(projectID uint64, input InviteInput) (*models.ProjectMember, error) {
	if err := input.Member.validate(); err != nil {
		return nil, err
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), constants.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(input.Name),
		Role:         models.RoleUser,
		IsActive:     true,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.addMember(project, user, input.Member)
}
