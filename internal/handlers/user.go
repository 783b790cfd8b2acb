package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive/internal/apperrors"
	"github.com/taskhive/taskhive/internal/dto"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers returns the user directory, optionally filtered by a search term
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.Search(c.Query("search"))
	if err != nil {
		apperrors.InternalError(c, "Failed to fetch users", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.ToUserDTOs(users),
	})
}

// GetUser returns a single user's public profile
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid user ID")
		return
	}

	user, err := h.userService.Get(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			apperrors.NotFound(c, "User not found")
			return
		}
		apperrors.InternalError(c, "Failed to fetch user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.ToUserDTO(*user),
	})
}

// UserStats returns a user's assigned-task counts
func (h *UserHandler) UserStats(c *gin.Context) {
	actor, exists := middleware.GetUser(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid user ID")
		return
	}

	stats, err := h.userService.Stats(actor, targetID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStatsForbidden):
			apperrors.Forbidden(c, "You can only view your own statistics")
		case errors.Is(err, services.ErrUserNotFound):
			apperrors.NotFound(c, "User not found")
		default:
			apperrors.InternalError(c, "Failed to fetch statistics", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}
