package repository

import (
	"github.com/taskhive/taskhive/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update saves changes to an existing user
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// List returns all users, newest first
func (r *GormUserRepository) List() ([]models.User, error) {
	var users []models.User
	if err := r.db.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Search returns up to limit users whose name or email contains the query,
// ordered by name for directory views.
func (r *GormUserRepository) Search(query string, limit int) ([]models.User, error) {
	q := r.db.Model(&models.User{})
	if query != "" {
		pattern := "%" + query + "%"
		q = q.Where("name LIKE ? OR email LIKE ?", pattern, pattern)
	}

	var users []models.User
	if err := q.Order("name ASC").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateRole changes a user's global role
func (r *GormUserRepository) UpdateRole(id uint64, role models.GlobalRole) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).
		Update("role", role).Error
}

// UpdateActive sets the active flag
func (r *GormUserRepository) UpdateActive(id uint64, active bool) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).
		Update("is_active", active).Error
}

// UpdatePassword replaces the stored password hash
func (r *GormUserRepository) UpdatePassword(id uint64, passwordHash string) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

// DeleteWithReassignment removes a user and repairs every reference in one
// transaction: owned projects move to newOwnerID, membership rows are
// deleted and task assignments are cleared. Partial completion would leave
// dangling references, so any failure rolls the whole operation back.
func (r *GormUserRepository) DeleteWithReassignment(id, newOwnerID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Project{}).Where("owner_id = ?", id).
			Update("owner_id", newOwnerID).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).
			Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Task{}).Where("assigned_to = ?", id).
			Update("assigned_to", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&models.User{}, id).Error
	})
}
