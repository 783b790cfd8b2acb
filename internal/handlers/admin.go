package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive/internal/apperrors"
	"github.com/taskhive/taskhive/internal/dto"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/permissions"
	"github.com/taskhive/taskhive/internal/services"
)

type AdminHandler struct {
	adminService   *services.AdminService
	projectService *services.ProjectService
}

func NewAdminHandler(adminService *services.AdminService, projectService *services.ProjectService) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		projectService: projectService,
	}
}

// ListUsers returns all accounts, newest first
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers()
	if err != nil {
		apperrors.InternalError(c, "Failed to fetch users", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.ToUserDTOs(users),
	})
}

// UpdateUserRole changes a user's global role
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	actor, targetID, ok := adminContext(c)
	if !ok {
		return
	}

	var req struct {
		Role models.GlobalRole `json:"role" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Role is required")
		return
	}

	user, err := h.adminService.UpdateUserRole(actor, targetID, req.Role)
	if err != nil {
		respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User role updated successfully",
		"data":    dto.ToUserDTO(*user),
	})
}

// SetUserStatus activates or deactivates an account
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	actor, targetID, ok := adminContext(c)
	if !ok {
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "is_active is required")
		return
	}

	user, err := h.adminService.SetUserStatus(actor, targetID, *req.IsActive)
	if err != nil {
		respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User status updated successfully",
		"data":    dto.ToUserDTO(*user),
	})
}

// ResetUserPassword replaces a user's password
func (h *AdminHandler) ResetUserPassword(c *gin.Context) {
	actor, targetID, ok := adminContext(c)
	if !ok {
		return
	}

	var req struct {
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Password is required")
		return
	}

	if err := h.adminService.ResetUserPassword(actor, targetID, req.Password); err != nil {
		respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password reset successfully",
	})
}

// DeleteUser removes an account and reassigns its projects to the actor
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, targetID, ok := adminContext(c)
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(actor, targetID); err != nil {
		respondAdminError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted successfully",
	})
}

// ListAllTasks returns tasks across every project
func (h *AdminHandler) ListAllTasks(c *gin.Context) {
	filter, params, ok := taskFilterFromQuery(c)
	if !ok {
		return
	}

	if projectStr := c.Query("project_id"); projectStr != "" {
		projectID, err := strconv.ParseUint(projectStr, 10, 64)
		if err != nil {
			apperrors.BadRequest(c, "Invalid project_id filter")
			return
		}
		filter.ProjectID = &projectID
	}

	tasks, total, err := h.adminService.ListAllTasks(filter)
	if err != nil {
		apperrors.InternalError(c, "Failed to fetch tasks", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.ToTaskListResponse(tasks, params.Page, params.Limit, total),
	})
}

// ListTaskLogs returns change history, optionally scoped to one task
func (h *AdminHandler) ListTaskLogs(c *gin.Context) {
	var taskID *uint64
	if taskStr := c.Query("task_id"); taskStr != "" {
		id, err := strconv.ParseUint(taskStr, 10, 64)
		if err != nil {
			apperrors.BadRequest(c, "Invalid task_id filter")
			return
		}
		taskID = &id
	}

	entries, err := h.adminService.TaskLogs(taskID)
	if err != nil {
		apperrors.InternalError(c, "Failed to fetch task logs", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.ToTaskHistoryDTOs(entries),
	})
}

// ListAllProjects returns every project with member and task counts
func (h *AdminHandler) ListAllProjects(c *gin.Context) {
	projects, err := h.adminService.ListAllProjects()
	if err != nil {
		apperrors.InternalError(c, "Failed to fetch projects", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.ToProjectSummaryDTOs(projects),
	})
}

// ListProjectMembers returns a project's membership list
func (h *AdminHandler) ListProjectMembers(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid project ID")
		return
	}

	members, err := h.adminService.ProjectMembers(projectID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			apperrors.NotFound(c, "Project not found")
			return
		}
		apperrors.InternalError(c, "Failed to fetch members", err)
		return
	}

	memberDTOs := make([]dto.ProjectMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = dto.ToProjectMemberDTO(member)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    memberDTOs,
	})
}

// AddProjectMember adds a user to any project, bypassing project-level checks
func (h *AdminHandler) AddProjectMember(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid project ID")
		return
	}

	var req struct {
		UserID uint64 `json:"user_id" binding:"required"`
		memberRequest
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "user_id is required")
		return
	}

	member, err := h.projectService.AddMemberByID(projectID, req.UserID, services.MemberInput{
		Role:      req.Role,
		CanEdit:   req.CanEdit,
		CanDelete: req.CanDelete,
	})
	if err != nil {
		respondMemberError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Member added successfully",
		"data":    dto.ToProjectMemberDTO(*member),
	})
}

// RemoveProjectMember removes a user from any project
func (h *AdminHandler) RemoveProjectMember(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid project ID")
		return
	}

	memberID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.projectService.RemoveMember(projectID, memberID); err != nil {
		respondMemberError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Member removed successfully",
	})
}

// adminContext pulls the acting admin and the :id route parameter.
// A false return means a response was already written.
func adminContext(c *gin.Context) (models.User, uint64, bool) {
	actor, exists := middleware.GetUser(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return models.User{}, 0, false
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid user ID")
		return models.User{}, 0, false
	}

	return actor, targetID, true
}

// respondAdminError maps admin service errors to API responses.
func respondAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		apperrors.NotFound(c, "User not found")
	case errors.Is(err, permissions.ErrRoleEscalation):
		apperrors.ForbiddenCode(c, apperrors.ErrCodeRoleEscalation, "Only a super admin can assign or modify the super admin role")
	case errors.Is(err, services.ErrInvalidRole):
		apperrors.BadRequest(c, "Invalid role")
	case errors.Is(err, services.ErrPasswordTooShort):
		apperrors.BadRequest(c, "Password must be at least 8 characters")
	case errors.Is(err, services.ErrSelfDelete):
		apperrors.BadRequest(c, "You cannot delete your own account")
	case errors.Is(err, services.ErrSelfDeactivate):
		apperrors.BadRequest(c, "You cannot deactivate your own account")
	case errors.Is(err, services.ErrSuperAdminDelete):
		apperrors.Forbidden(c, "Super admin accounts cannot be deleted")
	case errors.Is(err, services.ErrSuperAdminStatus):
		apperrors.Forbidden(c, "Super admin accounts cannot be deactivated")
	default:
		apperrors.InternalError(c, "Admin operation failed", err)
	}
}
