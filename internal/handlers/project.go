package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive/internal/apperrors"
	"github.com/taskhive/taskhive/internal/dto"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/permissions"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/services"
	"github.com/taskhive/taskhive/internal/utils"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	taskService    *services.TaskService
}

func NewProjectHandler(projectService *services.ProjectService, taskService *services.TaskService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		taskService:    taskService,
	}
}

// ListProjects returns the caller's projects with effective permissions
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	projects, err := h.projectService.List(userID)
	if err != nil {
		apperrors.InternalError(c, "Failed to fetch projects", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.ToProjectWithPermissionDTOs(projects),
	})
}

// CreateProject creates a project owned by the caller
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Project name is required")
		return
	}

	project, err := h.projectService.Create(userID, req.Name, req.Description)
	if err != nil {
		respondProjectError(c, err, "Failed to create project")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Project created successfully",
		"data":    dto.ToProjectDTO(*project),
	})
}

// GetProject returns a project with its members and the caller's permission
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, perm, ok := projectContext(c)
	if !ok {
		return
	}

	project, members, err := h.projectService.Get(projectID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			apperrors.NotFound(c, "Project not found")
			return
		}
		apperrors.InternalError(c, "Failed to fetch project", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.ToProjectDetailDTO(*project, members, perm),
	})
}

// UpdateProject changes a project's name and description
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	projectID, perm, ok := projectContext(c)
	if !ok {
		return
	}
	if !perm.CanEdit {
		apperrors.Forbidden(c, "You do not have edit permission on this project")
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Project name is required")
		return
	}

	project, err := h.projectService.Update(projectID, req.Name, req.Description)
	if err != nil {
		respondProjectError(c, err, "Failed to update project")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Project updated successfully",
		"data":    dto.ToProjectDTO(*project),
	})
}

// DeleteProject removes a project and everything it owns
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	projectID, perm, ok := projectContext(c)
	if !ok {
		return
	}
	if !perm.CanDelete {
		apperrors.Forbidden(c, "You do not have delete permission on this project")
		return
	}

	if err := h.projectService.Delete(projectID); err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			apperrors.NotFound(c, "Project not found")
			return
		}
		apperrors.InternalError(c, "Failed to delete project", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Project deleted successfully",
	})
}

type memberRequest struct {
	Role      models.ProjectRole `json:"role"`
	CanEdit   bool               `json:"can_edit"`
	CanDelete bool               `json:"can_delete"`
}

// AddMember adds an existing user to the project by email
func (h *ProjectHandler) AddMember(c *gin.Context) {
	projectID, perm, ok := projectContext(c)
	if !ok {
		return
	}
	if !perm.CanEdit {
		apperrors.Forbidden(c, "You do not have permission to manage members")
		return
	}

	var req struct {
		Email string `json:"email" binding:"required,email"`
		memberRequest
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "A valid email is required")
		return
	}

	member, err := h.projectService.AddMember(projectID, req.Email, services.MemberInput{
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

// InviteMember creates a new account and adds it to the project
func (h *ProjectHandler) InviteMember(c *gin.Context) {
	projectID, perm, ok := projectContext(c)
	if !ok {
		return
	}
	if !perm.CanEdit {
		apperrors.Forbidden(c, "You do not have permission to manage members")
		return
	}

	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Name     string `json:"name" binding:"required"`
		Password string `json:"password" binding:"required"`
		memberRequest
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Email, name and password are required")
		return
	}

	member, err := h.projectService.InviteMember(projectID, services.InviteInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Member: services.MemberInput{
			Role:      req.Role,
			CanEdit:   req.CanEdit,
			CanDelete: req.CanDelete,
		},
	})
	if err != nil {
		if errors.Is(err, services.ErrPasswordTooShort) {
			apperrors.BadRequest(c, "Password must be at least 8 characters")
			return
		}
		if errors.Is(err, services.ErrEmailTaken) {
			apperrors.Conflict(c, "Email is already registered")
			return
		}
		respondMemberError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Member invited successfully",
		"data":    dto.ToProjectMemberDTO(*member),
	})
}

// UpdateMember changes a member's role and grants
func (h *ProjectHandler) UpdateMember(c *gin.Context) {
	projectID, perm, ok := projectContext(c)
	if !ok {
		return
	}
	if !perm.CanEdit {
		apperrors.Forbidden(c, "You do not have permission to manage members")
		return
	}

	memberID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid user ID")
		return
	}

	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.projectService.UpdateMember(projectID, memberID, services.MemberInput{
		Role:      req.Role,
		CanEdit:   req.CanEdit,
		CanDelete: req.CanDelete,
	}); err != nil {
		respondMemberError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Member updated successfully",
	})
}

// RemoveMember deletes a membership row
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	projectID, perm, ok := projectContext(c)
	if !ok {
		return
	}
	if !perm.CanDelete {
		apperrors.Forbidden(c, "You do not have permission to remove members")
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

// ListProjectTasks returns the project's tasks with filters and pagination
func (h *ProjectHandler) ListProjectTasks(c *gin.Context) {
	projectID, _, ok := projectContext(c)
	if !ok {
		return
	}

	filter, params, ok := taskFilterFromQuery(c)
	if !ok {
		return
	}
	filter.ProjectID = &projectID

	tasks, total, err := h.taskService.List(filter)
	if err != nil {
		apperrors.InternalError(c, "Failed to fetch tasks", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.ToTaskListResponse(tasks, params.Page, params.Limit, total),
	})
}

// CreateTask creates a task in the project
func (h *ProjectHandler) CreateTask(c *gin.Context) {
	projectID, perm, ok := projectContext(c)
	if !ok {
		return
	}
	if !perm.CanEdit {
		apperrors.Forbidden(c, "You do not have edit permission on this project")
		return
	}

	user, exists := middleware.GetUser(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req struct {
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description"`
		Status      models.TaskStatus   `json:"status"`
		Priority    models.TaskPriority `json:"priority"`
		AssignedTo  *uint64             `json:"assigned_to"`
		DueDate     *time.Time          `json:"due_date"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Task title is required")
		return
	}

	task, err := h.taskService.Create(projectID, user, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Task created successfully",
		"data":    dto.ToTaskDTO(*task),
	})
}

// projectContext pulls the project ID and resolved permission set by
// RequireProjectAccess. A false return means a response was already written.
func projectContext(c *gin.Context) (uint64, permissions.ProjectPermission, bool) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid project ID")
		return 0, permissions.ProjectPermission{}, false
	}

	perm, exists := middleware.GetProjectPermission(c)
	if !exists {
		apperrors.InternalError(c, "Project permission not resolved", nil)
		return 0, permissions.ProjectPermission{}, false
	}

	return projectID, perm, true
}

// taskFilterFromQuery builds a task filter from status and assigned_to query
// parameters plus the standard pagination parameters.
func taskFilterFromQuery(c *gin.Context) (repository.TaskFilter, utils.PaginationParams, bool) {
	params := utils.GetPaginationParams(c)
	filter := repository.TaskFilter{
		Page:     params.Page,
		PageSize: params.Limit,
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.TaskStatus(statusStr)
		if !status.IsValid() {
			apperrors.BadRequest(c, "Invalid status filter")
			return filter, params, false
		}
		filter.Status = &status
	}

	if assignedStr := c.Query("assigned_to"); assignedStr != "" {
		assignedTo, err := strconv.ParseUint(assignedStr, 10, 64)
		if err != nil {
			apperrors.BadRequest(c, "Invalid assigned_to filter")
			return filter, params, false
		}
		filter.AssignedTo = &assignedTo
	}

	return filter, params, true
}

// respondProjectError maps project create and update errors to API responses.
func respondProjectError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		apperrors.NotFound(c, "Project not found")
	case errors.Is(err, services.ErrProjectNameEmpty):
		apperrors.BadRequest(c, "Project name is required")
	case errors.Is(err, services.ErrProjectNameTooLong):
		apperrors.BadRequest(c, "Project name must be at most 255 characters")
	case errors.Is(err, services.ErrDescriptionTooLong):
		apperrors.BadRequest(c, "Description must be at most 1000 characters")
	default:
		apperrors.InternalError(c, fallback, err)
	}
}

// respondMemberError maps membership service errors to API responses.
func respondMemberError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		apperrors.NotFound(c, "Project not found")
	case errors.Is(err, services.ErrUserNotFound):
		apperrors.NotFound(c, "User not found")
	case errors.Is(err, services.ErrMemberNotFound):
		apperrors.NotFound(c, "Member not found in this project")
	case errors.Is(err, services.ErrMemberExists):
		apperrors.Conflict(c, "User is already a member of this project")
	case errors.Is(err, services.ErrMemberIsOwner):
		apperrors.Conflict(c, "The project owner cannot be added as a member")
	case errors.Is(err, services.ErrInvalidProjectRole):
		apperrors.BadRequest(c, "Invalid project role")
	default:
		apperrors.InternalError(c, "Failed to update project members", err)
	}
}
