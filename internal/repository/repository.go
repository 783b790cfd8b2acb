package repository

import (
	"github.com/taskhive/taskhive/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// Update saves changes to an existing user
	Update(user *models.User) error

	// List returns all users, newest first
	List() ([]models.User, error)

	// Search returns up to limit users whose name or email contains the
	// query, ordered by name. An empty query returns the first limit users.
	Search(query string, limit int) ([]models.User, error)

	// UpdateRole changes a user's global role
	UpdateRole(id uint64, role models.GlobalRole) error

	// UpdateActive sets the active flag
	UpdateActive(id uint64, active bool) error

	// UpdatePassword replaces the stored password hash
	UpdatePassword(id uint64, passwordHash string) error

	// DeleteWithReassignment removes a user after transferring their owned
	// projects to newOwnerID, deleting their memberships and clearing their
	// task assignments, all in one transaction.
	DeleteWithReassignment(id, newOwnerID uint64) error
}

// ProjectRepository defines the interface for project and membership data access
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Project, error)

	// ListForUser returns projects the user owns or is a member of, along
	// with the user's effective permission on each.
	ListForUser(userID uint64) ([]ProjectWithPermission, error)

	// ListAllWithCounts returns every project with member and task counts
	ListAllWithCounts() ([]ProjectSummary, error)

	// Update saves changes to a project
	Update(project *models.Project) error

	// Delete removes a project and cascades its tasks, history, comments
	// and memberships in one transaction.
	Delete(id uint64) error

	// AddMember adds a membership row
	AddMember(member *models.ProjectMember) error

	// UpdateMember saves changes to a membership row
	UpdateMember(member *models.ProjectMember) error

	// RemoveMember deletes a membership row
	RemoveMember(projectID, userID uint64) error

	// FindMember finds a specific membership row
	FindMember(projectID, userID uint64) (*models.ProjectMember, error)

	// ListMembers lists all members of a project with their users
	ListMembers(projectID uint64) ([]models.ProjectMember, error)

	// HasAccess reports whether the user is the project owner or a member
	HasAccess(projectID, userID uint64) (bool, error)
}

// TaskRepository defines the interface for task, history and comment data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// UpdateWithHistory writes the staged field values and appends one
	// history row per change in a single transaction.
	UpdateWithHistory(taskID uint64, fields map[string]any, history []models.TaskHistory) error

	// Delete removes a task and cascades its history and comments
	Delete(id uint64) error

	// ListHistory returns the audit entries for a task, newest first.
	// A nil taskID returns entries for all tasks.
	ListHistory(taskID *uint64) ([]models.TaskHistory, error)

	// CreateComment appends a comment to a task
	CreateComment(comment *models.Comment) error

	// FindComment finds a comment by ID with its author
	FindComment(id uint64) (*models.Comment, error)

	// DeleteComment removes a single comment
	DeleteComment(id uint64) error

	// ListComments returns a task's comments, newest first
	ListComments(taskID uint64) ([]models.Comment, error)

	// AssigneeStats aggregates task counts for one assignee
	AssigneeStats(userID uint64) (TaskStats, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectID  *uint64
	Status     *models.TaskStatus
	AssignedTo *uint64
	Page       int
	PageSize   int
}

// ProjectWithPermission is a project row joined with the caller's effective
// permission, as computed in SQL for list views.
type ProjectWithPermission struct {
	models.Project
	OwnerName string             `json:"owner_name"`
	UserRole  models.ProjectRole `json:"user_role"`
	CanEdit   bool               `json:"can_edit"`
	CanDelete bool               `json:"can_delete"`
}

// TaskStats aggregates one user's assigned tasks by status. Overdue counts
// tasks with a due date in the past that are not done.
type TaskStats struct {
	TotalTasks   int64 `json:"total_tasks"`
	TodoTasks    int64 `json:"todo_tasks"`
	DoingTasks   int64 `json:"doing_tasks"`
	DoneTasks    int64 `json:"done_tasks"`
	OverdueTasks int64 `json:"overdue_tasks"`
}

// ProjectSummary is a project row with aggregate counts for admin views.
type ProjectSummary struct {
	models.Project
	OwnerName   string `json:"owner_name"`
	OwnerEmail  string `json:"owner_email"`
	MemberCount int64  `json:"member_count"`
	TaskCount   int64  `json:"task_count"`
}
