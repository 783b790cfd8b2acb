package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive/internal/apperrors"
	"github.com/taskhive/taskhive/internal/constants"
	"github.com/taskhive/taskhive/internal/permissions"
)

// RequireProjectAccess resolves the caller's effective permission on the
// project named by the :id route parameter and stashes it in the context.
func RequireProjectAccess(resolver *permissions.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apperrors.BadRequest(c, "Invalid project ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apperrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		perm, err := resolver.Resolve(projectID, userID)
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

		c.Set(constants.ContextKeyProjectPermission, *perm)
		c.Next()
	}
}

// GetProjectPermission retrieves the permission descriptor stashed by
// RequireProjectAccess.
func GetProjectPermission(c *gin.Context) (permissions.ProjectPermission, bool) {
	value, exists := c.Get(constants.ContextKeyProjectPermission)
	if !exists {
		return permissions.ProjectPermission{}, false
	}

	perm, ok := value.(permissions.ProjectPermission)
	return perm, ok
}
