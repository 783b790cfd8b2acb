package dto

import (
	"time"

	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/permissions"
	"github.com/taskhive/taskhive/internal/repository"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	OwnerID     uint64      `json:"owner_id"`
	Owner       *UserRefDTO `json:"owner,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ProjectWithPermissionDTO is a project annotated with the caller's
// effective permission, as returned by the project list
type ProjectWithPermissionDTO struct {
	ProjectDTO
	OwnerName string             `json:"owner_name"`
	UserRole  models.ProjectRole `json:"user_role"`
	CanEdit   bool               `json:"can_edit"`
	CanDelete bool               `json:"can_delete"`
}

// ProjectMemberDTO represents a membership row in API responses
type ProjectMemberDTO struct {
	User      UserRefDTO         `json:"user"`
	Role      models.ProjectRole `json:"role"`
	CanEdit   bool               `json:"can_edit"`
	CanDelete bool               `json:"can_delete"`
	JoinedAt  time.Time          `json:"joined_at"`
}

// ProjectDetailDTO is a project with its members and the caller's permission
type ProjectDetailDTO struct {
	ProjectDTO
	Members        []ProjectMemberDTO            `json:"members"`
	YourPermission permissions.ProjectPermission `json:"your_permission"`
}

// ProjectSummaryDTO is the admin oversight shape with aggregate counts
type ProjectSummaryDTO struct {
	ProjectDTO
	OwnerName   string `json:"owner_name"`
	OwnerEmail  string `json:"owner_email"`
	MemberCount int64  `json:"member_count"`
	TaskCount   int64  `json:"task_count"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		OwnerID:     project.OwnerID,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}

	// Include owner if preloaded
	if project.Owner.ID != 0 {
		owner := ToUserRefDTO(project.Owner)
		dto.Owner = &owner
	}

	return dto
}

// ToProjectWithPermissionDTO converts a list row to its DTO
func ToProjectWithPermissionDTO(row repository.ProjectWithPermission) ProjectWithPermissionDTO {
	return ProjectWithPermissionDTO{
		ProjectDTO: ToProjectDTO(row.Project),
		OwnerName:  row.OwnerName,
		UserRole:   row.UserRole,
		CanEdit:    row.CanEdit,
		CanDelete:  row.CanDelete,
	}
}

// ToProjectWithPermissionDTOs converts a slice of list rows
func ToProjectWithPermissionDTOs(rows []repository.ProjectWithPermission) []ProjectWithPermissionDTO {
	dtos := make([]ProjectWithPermissionDTO, len(rows))
	for i, row := range rows {
		dtos[i] = ToProjectWithPermissionDTO(row)
	}
	return dtos
}

// ToProjectMemberDTO converts a membership row to DTO
func ToProjectMemberDTO(member models.ProjectMember) ProjectMemberDTO {
	return ProjectMemberDTO{
		User:      ToUserRefDTO(member.User),
		Role:      member.Role,
		CanEdit:   member.CanEdit,
		CanDelete: member.CanDelete,
		JoinedAt:  member.JoinedAt,
	}
}

// ToProjectDetailDTO converts a project with its members to the detail shape
func ToProjectDetailDTO(project models.Project, members []models.ProjectMember, perm permissions.ProjectPermission) ProjectDetailDTO {
	memberDTOs := make([]ProjectMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToProjectMemberDTO(member)
	}

	return ProjectDetailDTO{
		ProjectDTO:     ToProjectDTO(project),
		Members:        memberDTOs,
		YourPermission: perm,
	}
}

// ToProjectSummaryDTO converts an aggregate row to its DTO
func ToProjectSummaryDTO(row repository.ProjectSummary) ProjectSummaryDTO {
	return ProjectSummaryDTO{
		ProjectDTO:  ToProjectDTO(row.Project),
		OwnerName:   row.OwnerName,
		OwnerEmail:  row.OwnerEmail,
		MemberCount: row.MemberCount,
		TaskCount:   row.TaskCount,
	}
}

// ToProjectSummaryDTOs converts a slice of aggregate rows
func ToProjectSummaryDTOs(rows []repository.ProjectSummary) []ProjectSummaryDTO {
	dtos := make([]ProjectSummaryDTO, len(rows))
	for i, row := range rows {
		dtos[i] = ToProjectSummaryDTO(row)
	}
	return dtos
}
