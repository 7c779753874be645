package repository

import (
	"context"
	"time"

	"github.com/planroomhq/planroom/internal/dms/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CadSourceRepository struct {
	db *gorm.DB
}

func NewCadSourceRepository(db *gorm.DB) *CadSourceRepository {
	return &CadSourceRepository{db: db}
}

// FindByDrawing returns the drawing's link, or ErrNotFound if none exists.
func (r *CadSourceRepository) FindByDrawing(ctx context.Context, drawingID string) (*entity.CadSourceLink, error) {
	var link entity.CadSourceLink
	err := r.db.WithContext(ctx).First(&link, "drawing_id = ?", drawingID).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &link, nil
}

// Upsert creates the link or replaces the existing one for the drawing.
// A drawing has at most one CAD source; linking again overwrites.
func (r *CadSourceRepository) Upsert(ctx context.Context, link *entity.CadSourceLink) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "drawing_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"cad_dropbox_path": link.CadDropboxPath,
				"cad_layout_name":  link.CadLayoutName,
				"linked_by":        link.LinkedBy,
				"updated_at":       time.Now(),
			}),
		}).
		Create(link).Error
}

// DeleteByDrawing removes the link if present. Deleting a missing link is not
// an error.
func (r *CadSourceRepository) DeleteByDrawing(ctx context.Context, drawingID string) error {
	return r.db.WithContext(ctx).
		Delete(&entity.CadSourceLink{}, "drawing_id = ?", drawingID).Error
}
