package models

import "time"

type ProjectRole string

const (
	ProjectRoleViewer ProjectRole = "viewer"
	ProjectRoleMember ProjectRole = "member"
	ProjectRoleAdmin  ProjectRole = "admin"
)

// IsValid reports whether the role is one of the known project roles.
func (r ProjectRole) IsValid() bool {
	switch r {
	case ProjectRoleViewer, ProjectRoleMember, ProjectRoleAdmin:
		return true
	}
	return false
}

// ProjectMember grants a non-owner user a scoped role on a project.
// The project owner never has a membership row; owner rights come from
// Project.OwnerID alone.
type ProjectMember struct {
	ProjectID uint64      `gorm:"primarykey" json:"project_id"`
	UserID    uint64      `gorm:"primarykey" json:"user_id"`
	Role      ProjectRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CanEdit   bool        `gorm:"not null;default:false" json:"can_edit"`
	CanDelete bool        `gorm:"not null;default:false" json:"can_delete"`
	JoinedAt  time.Time   `gorm:"autoCreateTime" json:"joined_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
