package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskhive/taskhive/internal/apperrors"
	"github.com/taskhive/taskhive/internal/constants"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/permissions"
	"github.com/taskhive/taskhive/internal/repository"
)

// RequireTaskAccess loads the task named by the :id route parameter, resolves
// the caller's permission on its project and stashes both in the context.
func RequireTaskAccess(tasks repository.TaskRepository, resolver *permissions.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apperrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apperrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		task, err := tasks.FindByID(taskID, "Creator", "Assignee")
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apperrors.NotFound(c, "Task not found")
			} else {
				apperrors.InternalError(c, "Failed to load task", err)
			}
			c.Abort()
			return
		}

		perm, err := resolver.Resolve(task.ProjectID, userID)
		if err != nil {
			switch {
			case errors.Is(err, permissions.ErrProjectNotFound):
				apperrors.NotFound(c, "Project not found")
			case errors.Is(err, permissions.ErrNoProjectAccess):
				apperrors.ForbiddenCode(c, apperrors.ErrCodeNoProjectAccess, "Access denied to this project")
			default:
				apperrors.InternalError(c, "Failed to check project permissions", err)
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, *task)
		c.Set(constants.ContextKeyProjectPermission, *perm)
		c.Next()
	}
}

// GetTask retrieves the task stashed by RequireTaskAccess.
func GetTask(c *gin.Context) (models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}

	task, ok := value.(models.Task)
	return task, ok
}
