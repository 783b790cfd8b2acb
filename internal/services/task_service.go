package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/taskhive/taskhive/internal/constants"
	"github.com/taskhive/taskhive/internal/models"
	"github.com/taskhive/taskhive/internal/realtime"
	"github.com/taskhive/taskhive/internal/repository"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskTitleEmpty     = errors.New("task title is required")
	ErrTitleTooLong       = errors.New("title exceeds the maximum length")
	ErrDescriptionTooLong = errors.New("description exceeds the maximum length")
	ErrNoValidUpdates     = errors.New("no valid fields to update")
	ErrAssigneeNoAccess   = errors.New("assigned user does not have access to this project")
	ErrInvalidStatus      = errors.New("invalid task status")
	ErrInvalidPriority    = errors.New("invalid task priority")
	ErrCommentEmpty       = errors.New("comment content is required")
	ErrCommentTooLong     = errors.New("comment exceeds the maximum length")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrCommentTaskAccess  = errors.New("comment does not belong to this task")
	ErrCommentNotAuthor   = errors.New("only the comment author can delete it")
)

// Notifier delivers project-scoped events to connected clients. Delivery is
// fire and forget; failures never affect the originating request.
type Notifier interface {
	Broadcast(projectID uint64, event string, data any)
}

// TaskService owns task mutation, history recording, and event fan-out.
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	notifier    Notifier
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, notifier Notifier) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		notifier:    notifier,
	}
}

// List returns tasks matching the filter plus the unpaged total.
func (s *TaskService) List(filter repository.TaskFilter) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// Get returns a task with its creator and assignee loaded.
func (s *TaskService) Get(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Creator", "Assignee")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// CreateTaskInput carries the fields accepted when creating a task.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	AssignedTo  *uint64
	DueDate     *time.Time
}

// Create creates a task in a project and announces it to the project room.
func (s *TaskService) Create(projectID uint64, creator models.User, input CreateTaskInput) (*models.Task, error) {
	if input.Title == "" {
		return nil, ErrTaskTitleEmpty
	}
	if len(input.Title) > constants.MaxTitleLength {
		return nil, ErrTitleTooLong
	}
	if len(input.Description) > constants.MaxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !input.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.IsValid() {
		return nil, ErrInvalidPriority
	}

	if input.AssignedTo != nil {
		if err := s.checkAssignee(projectID, *input.AssignedTo); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		ProjectID:   projectID,
		AssignedTo:  input.AssignedTo,
		CreatedBy:   creator.ID,
		DueDate:     input.DueDate,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	created, err := s.taskRepo.FindByID(task.ID, "Creator", "Assignee")
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.notifier.Broadcast(projectID, realtime.EventTaskCreated, map[string]any{
		"task":      created,
		"projectId": projectID,
		"createdBy": creator.Name,
	})

	return created, nil
}

// TaskUpdate carries a partial update. A nil pointer means the field was not
// supplied; AssignedToSet and DueDateSet distinguish "absent" from an
// explicit null for the two nullable columns.
type TaskUpdate struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	AssignedTo    *uint64
	AssignedToSet bool
	DueDate       *time.Time
	DueDateSet    bool
}

// FieldChange records one field transition for the task history log.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// Update applies a partial update to a task. Only fields that actually differ
// from the stored row are written, and every written field yields exactly one
// history row in the same transaction. An update that changes nothing is
// rejected with ErrNoValidUpdates.
func (s *TaskService) Update(taskID uint64, actor models.User, update TaskUpdate) (*models.Task, []FieldChange, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, fmt.Errorf("failed to find task: %w", err)
	}

	fields, changes, err := s.diff(task, update)
	if err != nil {
		return nil, nil, err
	}
	if len(fields) == 0 {
		return nil, nil, ErrNoValidUpdates
	}

	history := make([]models.TaskHistory, 0, len(changes))
	for _, ch := range changes {
		history = append(history, models.TaskHistory{
			TaskID:    task.ID,
			ChangedBy: actor.ID,
			FieldName: ch.Field,
			OldValue:  ch.Old,
			NewValue:  ch.New,
		})
	}

	if err := s.taskRepo.UpdateWithHistory(task.ID, fields, history); err != nil {
		return nil, nil, fmt.Errorf("failed to update task: %w", err)
	}

	updated, err := s.taskRepo.FindByID(task.ID, "Creator", "Assignee")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.notifier.Broadcast(task.ProjectID, realtime.EventTaskUpdated, map[string]any{
		"task":      updated,
		"projectId": task.ProjectID,
		"changedBy": actor.Name,
	})

	return updated, changes, nil
}

// diff compares the requested update against the stored row and returns the
// column map to write plus the matching history entries.
func (s *TaskService) diff(task *models.Task, update TaskUpdate) (map[string]any, []FieldChange, error) {
	fields := make(map[string]any)
	var changes []FieldChange

	record := func(field, oldVal, newVal string, value any) {
		fields[field] = value
		changes = append(changes, FieldChange{Field: field, Old: oldVal, New: newVal})
	}

	if update.Title != nil {
		if *update.Title == "" {
			return nil, nil, ErrTaskTitleEmpty
		}
		if len(*update.Title) > constants.MaxTitleLength {
			return nil, nil, ErrTitleTooLong
		}
		if *update.Title != task.Title {
			record("title", task.Title, *update.Title, *update.Title)
		}
	}
	if update.Description != nil && *update.Description != task.Description {
		if len(*update.Description) > constants.MaxDescriptionLength {
			return nil, nil, ErrDescriptionTooLong
		}
		record("description", task.Description, *update.Description, *update.Description)
	}
	if update.Status != nil {
		if !update.Status.IsValid() {
			return nil, nil, ErrInvalidStatus
		}
		if *update.Status != task.Status {
			record("status", string(task.Status), string(*update.Status), *update.Status)
		}
	}
	if update.Priority != nil {
		if !update.Priority.IsValid() {
			return nil, nil, ErrInvalidPriority
		}
		if *update.Priority != task.Priority {
			record("priority", string(task.Priority), string(*update.Priority), *update.Priority)
		}
	}
	if update.AssignedToSet && !equalUint64Ptr(update.AssignedTo, task.AssignedTo) {
		if update.AssignedTo != nil {
			if err := s.checkAssignee(task.ProjectID, *update.AssignedTo); err != nil {
				return nil, nil, err
			}
		}
		record("assigned_to", formatUint64Ptr(task.AssignedTo), formatUint64Ptr(update.AssignedTo), update.AssignedTo)
	}
	if update.DueDateSet && !equalTimePtr(update.DueDate, task.DueDate) {
		record("due_date", formatTimePtr(task.DueDate), formatTimePtr(update.DueDate), update.DueDate)
	}

	return fields, changes, nil
}

// checkAssignee verifies the assignee is the project owner or a member.
func (s *TaskService) checkAssignee(projectID, userID uint64) error {
	ok, err := s.projectRepo.HasAccess(projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to check assignee access: %w", err)
	}
	if !ok {
		return ErrAssigneeNoAccess
	}
	return nil
}

// Advance moves a task to the next status in the todo, doing, done cycle.
func (s *TaskService) Advance(taskID uint64, actor models.User) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	next := task.Status.Next()
	updated, _, err := s.Update(taskID, actor, TaskUpdate{Status: &next})
	return updated, err
}

// Delete removes a task with its comments and history, then announces the
// deletion to the project room.
func (s *TaskService) Delete(taskID uint64, actor models.User) error {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.taskRepo.Delete(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.notifier.Broadcast(task.ProjectID, realtime.EventTaskDeleted, map[string]any{
		"taskId":    task.ID,
		"projectId": task.ProjectID,
		"deletedBy": actor.Name,
	})

	return nil
}

// History returns a task's change log, newest first.
func (s *TaskService) History(taskID uint64) ([]models.TaskHistory, error) {
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	entries, err := s.taskRepo.ListHistory(&taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, nil
}

// AddComment attaches a comment to a task and announces it.
func (s *TaskService) AddComment(taskID uint64, author models.User, content string) (*models.Comment, error) {
	if content == "" {
		return nil, ErrCommentEmpty
	}
	if len(content) > constants.MaxCommentLength {
		return nil, ErrCommentTooLong
	}

	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	comment := &models.Comment{
		TaskID:  task.ID,
		UserID:  author.ID,
		Content: content,
	}

	if err := s.taskRepo.CreateComment(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	comment.User = author

	s.notifier.Broadcast(task.ProjectID, realtime.EventCommentAdded, map[string]any{
		"comment":   comment,
		"taskId":    task.ID,
		"projectId": task.ProjectID,
	})

	return comment, nil
}

// DeleteComment removes a comment from a task. Authors can delete their own
// comments; anyone else needs canDeleteAny, which the handler derives from
// the caller's delete grant on the project.
func (s *TaskService) DeleteComment(taskID, commentID uint64, actor models.User, canDeleteAny bool) error {
	comment, err := s.taskRepo.FindComment(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to find comment: %w", err)
	}

	if comment.TaskID != taskID {
		return ErrCommentTaskAccess
	}
	if comment.UserID != actor.ID && !canDeleteAny {
		return ErrCommentNotAuthor
	}

	if err := s.taskRepo.DeleteComment(comment.ID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// Comments returns a task's comments, newest first.
func (s *TaskService) Comments(taskID uint64) ([]models.Comment, error) {
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	comments, err := s.taskRepo.ListComments(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func equalUint64Ptr(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func formatUint64Ptr(v *uint64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(*v, 10)
}

func formatTimePtr(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(time.RFC3339)
}
