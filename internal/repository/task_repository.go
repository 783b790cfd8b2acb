package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/taskhive/taskhive/internal/database"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/utils"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	query := r.db.Model(&models.Task{})

	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.Task
	query = query.Preload("Creator").Preload("Assignee").
		Order("created_at DESC")
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Scopes(database.Paginate(utils.PaginationParams{
			Page:   page,
			Limit:  filter.PageSize,
			Offset: (page - 1) * filter.PageSize,
		}))
	}
	if err := query.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// UpdateWithHistory writes the staged columns and the matching audit rows
// atomically. History is part of the mutation contract: if an audit insert
// fails the field update rolls back with it.
func (r *GormTaskRepository) UpdateWithHistory(taskID uint64, fields map[string]any, history []models.TaskHistory) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).Where("id = ?", taskID).
			Updates(fields).Error; err != nil {
			return err
		}

		if len(history) > 0 {
			if err := tx.Create(&history).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Delete removes a task with its history and comments in one transaction.
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).
			Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("task_id = ?", id).
			Delete(&models.TaskHistory{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// ListHistory returns audit entries newest first, for one task or for all.
func (r *GormTaskRepository) ListHistory(taskID *uint64) ([]models.TaskHistory, error) {
	query := r.db.Preload("User").Order("created_at DESC")
	if taskID != nil {
		query = query.Where("task_id = ?", *taskID)
	}

	var entries []models.TaskHistory
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateComment appends a comment to a task
func (r *GormTaskRepository) CreateComment(comment *models.Comment) error {
	return r.db.Create(comment).Error
}

// FindComment finds a comment by ID with its author
func (r *GormTaskRepository) FindComment(id uint64) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.Preload("User").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a single comment
func (r *GormTaskRepository) DeleteComment(id uint64) error {
	return r.db.Delete(&models.Comment{}, id).Error
}

// ListComments returns a task's comments, newest first
func (r *GormTaskRepository) ListComments(taskID uint64) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at DESC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// AssigneeStats aggregates the user's assigned tasks by status in one query.
func (r *GormTaskRepository) AssigneeStats(userID uint64) (TaskStats, error) {
	var stats TaskStats
	err := r.db.Model(&models.Task{}).
		Select("COUNT(*) AS total_tasks, "+
			"COALESCE(SUM(CASE WHEN status = 'todo' THEN 1 ELSE 0 END), 0) AS todo_tasks, "+
			"COALESCE(SUM(CASE WHEN status = 'doing' THEN 1 ELSE 0 END), 0) AS doing_tasks, "+
			"COALESCE(SUM(CASE WHEN status = 'done' THEN 1 ELSE 0 END), 0) AS done_tasks, "+
			"COALESCE(SUM(CASE WHEN due_date IS NOT NULL AND due_date < ? AND status <> 'done' THEN 1 ELSE 0 END), 0) AS overdue_tasks",
			time.Now()).
		Where("assigned_to = ?", userID).
		Scan(&stats).Error
	return stats, err
}
