package constants

// Context keys set by middleware and read by handlers.
const (
	ContextKeyUserID            = "user_id"
	ContextKeyUser              = "user"
	ContextKeyTask              = "task"
	ContextKeyProjectPermission = "project_permission"
)

// Password rules.
const (
	MinPasswordLength = 8
	BcryptCost        = 12
)

// Pagination limits.
const (
	MinPage         = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// DirectoryLimit caps the user directory listing.
const DirectoryLimit = 50

// Field length limits enforced by the services on write.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 1000
	MaxCommentLength     = 500
)
