package repository

import (
	"errors"

	"github.com/taskhive/taskhive/internal/models"
	"gorm.io/gorm"
)

// ErrMemberNotFound is returned when a membership row does not exist.
var ErrMemberNotFound = errors.New("project repository: member not found")

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

// FindByID finds a project by ID with optional preloading
func (r *GormProjectRepository) FindByID(id uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListForUser returns projects the user owns or belongs to. The effective
// permission is resolved in SQL: ownership beats any membership row.
func (r *GormProjectRepository) ListForUser(userID uint64) ([]ProjectWithPermission, error) {
	var rows []ProjectWithPermission
	err := r.db.Model(&models.Project{}).
		Select(`projects.*, owner.name AS owner_name,
			CASE WHEN projects.owner_id = ? THEN 'owner' ELSE pm.role END AS user_role,
			CASE WHEN projects.owner_id = ? THEN TRUE ELSE pm.can_edit END AS can_edit,
			CASE WHEN projects.owner_id = ? THEN TRUE ELSE pm.can_delete END AS can_delete`,
			userID, userID, userID).
		Joins("LEFT JOIN users owner ON owner.id = projects.owner_id").
		Joins("LEFT JOIN project_members pm ON pm.project_id = projects.id AND pm.user_id = ?", userID).
		Where("projects.owner_id = ? OR pm.user_id IS NOT NULL", userID).
		Order("projects.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAllWithCounts returns every project with member and task counts
func (r *GormProjectRepository) ListAllWithCounts() ([]ProjectSummary, error) {
	var rows []ProjectSummary
	err := r.db.Model(&models.Project{}).
		Select(`projects.*, owner.name AS owner_name, owner.email AS owner_email,
			COUNT(DISTINCT pm.user_id) AS member_count,
			COUNT(DISTINCT t.id) AS task_count`).
		Joins("LEFT JOIN users owner ON owner.id = projects.owner_id").
		Joins("LEFT JOIN project_members pm ON pm.project_id = projects.id").
		Joins("LEFT JOIN tasks t ON t.project_id = projects.id").
		Group("projects.id, owner.name, owner.email").
		Order("projects.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Update saves changes to a project
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Save(project).Error
}

// Delete removes a project and everything it owns in one transaction.
func (r *GormProjectRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Model(&models.Task{}).Select("id").Where("project_id = ?", id)

		if err := tx.Where("task_id IN (?)", taskIDs).
			Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("task_id IN (?)", taskIDs).
			Delete(&models.TaskHistory{}).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", id).
			Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", id).
			Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Project{}, id).Error
	})
}

// AddMember adds a membership row
func (r *GormProjectRepository) AddMember(member *models.ProjectMember) error {
	return r.db.Create(member).Error
}

// UpdateMember saves changes to a membership row
func (r *GormProjectRepository) UpdateMember(member *models.ProjectMember) error {
	result := r.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", member.ProjectID, member.UserID).
		Updates(map[string]any{
			"role":       member.Role,
			"can_edit":   member.CanEdit,
			"can_delete": member.CanDelete,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// RemoveMember deletes a membership row
func (r *GormProjectRepository) RemoveMember(projectID, userID uint64) error {
	result := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// FindMember finds a specific membership row
func (r *GormProjectRepository) FindMember(projectID, userID uint64) (*models.ProjectMember, error) {
	var member models.ProjectMember
	if err := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of a project with their users
func (r *GormProjectRepository) ListMembers(projectID uint64) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := r.db.Preload("User").
		Where("project_id = ?", projectID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// HasAccess reports whether the user is the project owner or a member
func (r *GormProjectRepository) HasAccess(projectID, userID uint64) (bool, error) {
	var count int64
	err := r.db.Model(&models.Project{}).
		Joins("LEFT JOIN project_members pm ON pm.project_id = projects.id AND pm.user_id = ?", userID).
		Where("projects.id = ? AND (projects.owner_id = ? OR pm.user_id IS NOT NULL)", projectID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
