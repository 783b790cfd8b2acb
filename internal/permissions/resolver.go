package permissions

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/repository"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrNoProjectAccess = errors.New("no access to this project")
	ErrRoleEscalation  = errors.New("only a super admin can assign or modify the super admin role")
)

// RoleOwner is the synthetic project role reported for the owner. It never
// appears in a membership row.
const RoleOwner models.ProjectRole = "owner"

// ProjectPermission is the effective permission descriptor for a
// (user, project) pair.
type ProjectPermission struct {
	IsOwner   bool               `json:"is_owner"`
	Role      models.ProjectRole `json:"role"`
	CanEdit   bool               `json:"can_edit"`
	CanDelete bool               `json:"can_delete"`
}

// Resolver computes effective project permissions. Every route that guards a
// project goes through it; there are no ad hoc permission checks elsewhere.
type Resolver struct {
	projectRepo repository.ProjectRepository
}

func NewResolver(projectRepo repository.ProjectRepository) *Resolver {
	return &Resolver{projectRepo: projectRepo}
}

// Resolve returns the caller's effective permission on a project.
// Ownership always wins: a membership row for the owner, should one exist,
// can never reduce owner rights.
func (r *Resolver) Resolve(projectID, userID uint64) (*ProjectPermission, error) {
	project, err := r.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	if project.OwnerID == userID {
		return &ProjectPermission{
			IsOwner:   true,
			Role:      RoleOwner,
			CanEdit:   true,
			CanDelete: true,
		}, nil
	}

	member, err := r.projectRepo.FindMember(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoProjectAccess
		}
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}

	return &ProjectPermission{
		IsOwner:   false,
		Role:      member.Role,
		CanEdit:   member.CanEdit,
		CanDelete: member.CanDelete,
	}, nil
}

// CheckRoleChange enforces the global-role escalation rule: only a
// super_admin may set or unset super_admin. It is evaluated before any role
// write, independently of project membership.
func CheckRoleChange(actorRole, targetRole, newRole models.GlobalRole) error {
	if actorRole == models.RoleSuperAdmin {
		return nil
	}
	if newRole == models.RoleSuperAdmin || targetRole == models.RoleSuperAdmin {
		return ErrRoleEscalation
	}
	return nil
}
