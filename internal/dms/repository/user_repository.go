package repository

import (
	"context"
	"strings"

	"github.com/planroomhq/planroom/internal/dms/entity"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

// ListActive returns active users ordered by name.
func (r *UserRepository) ListActive(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.UserStatusActive).
		Order("name ASC").
		Find(&users).Error
	return users, err
}

// Search matches name or email, case-insensitively.
func (r *UserRepository) Search(ctx context.Context, query string) ([]entity.User, error) {
	var users []entity.User
	pattern := "%" + strings.ToLower(query) + "%"
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.UserStatusActive).
		Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern).
		Order("name ASC").
		Find(&users).Error
	return users, err
}
