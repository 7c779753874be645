package repository

import (
	"context"

	"github.com/planroomhq/planroom/internal/dms/entity"
	"gorm.io/gorm"
)

// DirectoryRepository serves the small lookup tables the drawing filters key
// off: floors and sections.
type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) ListFloors(ctx context.Context, projectID string) ([]entity.Floor, error) {
	var floors []entity.Floor
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("sort_order ASC, name ASC").
		Find(&floors).Error
	return floors, err
}

func (r *DirectoryRepository) ListSections(ctx context.Context, projectID string) ([]entity.Section, error) {
	var sections []entity.Section
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("sort_order ASC, name ASC").
		Find(&sections).Error
	return sections, err
}
