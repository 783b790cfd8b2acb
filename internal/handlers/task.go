package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskhive/taskhive/internal/apperrors"
	"github.com/taskhive/taskhive/internal/dto"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/permissions"
	"github.com/taskhive/taskhive/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// GetTask returns a task loaded by RequireTaskAccess
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apperrors.InternalError(c, "Task not loaded", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.ToTaskDTO(task),
	})
}

// UpdateTask applies a partial update. Fields absent from the request body
// are left untouched; an explicit null clears assigned_to or due_date.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, perm, user, ok := taskContext(c)
	if !ok {
		return
	}
	if !perm.CanEdit {
		apperrors.Forbidden(c, "You do not have edit permission on this project")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	var req struct {
		Title       *string              `json:"title"`
		Description *string              `json:"description"`
		Status      *models.TaskStatus   `json:"status"`
		Priority    *models.TaskPriority `json:"priority"`
		AssignedTo  *uint64              `json:"assigned_to"`
		DueDate     *time.Time           `json:"due_date"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	// A second pass over the raw keys distinguishes an omitted nullable
	// field from an explicit null.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}
	_, assignedToSet := raw["assigned_to"]
	_, dueDateSet := raw["due_date"]

	updated, _, err := h.taskService.Update(task.ID, user, services.TaskUpdate{
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		Priority:      req.Priority,
		AssignedTo:    req.AssignedTo,
		AssignedToSet: assignedToSet,
		DueDate:       req.DueDate,
		DueDateSet:    dueDateSet,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task updated successfully",
		"data":    dto.ToTaskDTO(*updated),
	})
}

// AdvanceTask moves a task to the next status in the cycle
func (h *TaskHandler) AdvanceTask(c *gin.Context) {
	task, perm, user, ok := taskContext(c)
	if !ok {
		return
	}
	if !perm.CanEdit {
		apperrors.Forbidden(c, "You do not have edit permission on this project")
		return
	}

	updated, err := h.taskService.Advance(task.ID, user)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task advanced successfully",
		"data":    dto.ToTaskDTO(*updated),
	})
}

// DeleteTask removes a task with its comments and history
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, perm, user, ok := taskContext(c)
	if !ok {
		return
	}
	if !perm.CanDelete {
		apperrors.Forbidden(c, "You do not have delete permission on this project")
		return
	}

	if err := h.taskService.Delete(task.ID, user); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task deleted successfully",
	})
}

// TaskHistory returns a task's change log, newest first
func (h *TaskHandler) TaskHistory(c *gin.Context) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apperrors.InternalError(c, "Task not loaded", nil)
		return
	}

	entries, err := h.taskService.History(task.ID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.ToTaskHistoryDTOs(entries),
	})
}

// ListComments returns a task's comments, newest first
func (h *TaskHandler) ListComments(c *gin.Context) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apperrors.InternalError(c, "Task not loaded", nil)
		return
	}

	comments, err := h.taskService.Comments(task.ID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dto.ToCommentDTOs(comments),
	})
}

// AddComment attaches a comment to a task
func (h *TaskHandler) AddComment(c *gin.Context) {
	task, _, user, ok := taskContext(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Comment content is required")
		return
	}

	comment, err := h.taskService.AddComment(task.ID, user, req.Content)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Comment added successfully",
		"data":    dto.ToCommentDTO(*comment),
	})
}

// DeleteComment removes a comment. Authors can delete their own; the
// project delete grant allows removing anyone's.
func (h *TaskHandler) DeleteComment(c *gin.Context) {
	task, perm, user, ok := taskContext(c)
	if !ok {
		return
	}

	commentID, err := strconv.ParseUint(c.Param("commentId"), 10, 64)
	if err != nil {
		apperrors.BadRequest(c, "Invalid comment ID")
		return
	}

	if err := h.taskService.DeleteComment(task.ID, commentID, user, perm.CanDelete); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Comment deleted successfully",
	})
}

// taskContext pulls the task, permission and user stashed by middleware.
// A false return means a response was already written.
func taskContext(c *gin.Context) (models.Task, permissions.ProjectPermission, models.User, bool) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apperrors.InternalError(c, "Task not loaded", nil)
		return models.Task{}, permissions.ProjectPermission{}, models.User{}, false
	}

	perm, exists := middleware.GetProjectPermission(c)
	if !exists {
		apperrors.InternalError(c, "Project permission not resolved", nil)
		return models.Task{}, permissions.ProjectPermission{}, models.User{}, false
	}

	user, exists := middleware.GetUser(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return models.Task{}, permissions.ProjectPermission{}, models.User{}, false
	}

	return task, perm, user, true
}

// respondTaskError maps task service errors to API responses.
func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apperrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrNoValidUpdates):
		apperrors.NoValidUpdates(c)
	case errors.Is(err, services.ErrTaskTitleEmpty):
		apperrors.BadRequest(c, "Task title is required")
	case errors.Is(err, services.ErrTitleTooLong):
		apperrors.BadRequest(c, "Title must be at most 255 characters")
	case errors.Is(err, services.ErrDescriptionTooLong):
		apperrors.BadRequest(c, "Description must be at most 1000 characters")
	case errors.Is(err, services.ErrInvalidStatus):
		apperrors.BadRequest(c, "Invalid task status")
	case errors.Is(err, services.ErrInvalidPriority):
		apperrors.BadRequest(c, "Invalid task priority")
	case errors.Is(err, services.ErrAssigneeNoAccess):
		apperrors.BadRequest(c, "Assigned user does not have access to this project")
	case errors.Is(err, services.ErrCommentEmpty):
		apperrors.BadRequest(c, "Comment content is required")
	case errors.Is(err, services.ErrCommentTooLong):
		apperrors.BadRequest(c, "Comment must be at most 500 characters")
	case errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrCommentTaskAccess):
		apperrors.NotFound(c, "Comment not found on this task")
	case errors.Is(err, services.ErrCommentNotAuthor):
		apperrors.Forbidden(c, "You can only delete your own comments")
	default:
		apperrors.InternalError(c, "Task operation failed", err)
	}
}
