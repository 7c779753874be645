package repository

import (
	"context"
	"time"

	"github.com/planroomhq/planroom/internal/dms/entity"
	"gorm.io/gorm"
)

type RevisionRepository struct {
	db *gorm.DB
}

func NewRevisionRepository(db *gorm.DB) *RevisionRepository {
	return &RevisionRepository{db: db}
}

// Append creates the revision and advances the drawing's current revision
// pointer in one transaction. The pointer update is guarded on the value the
// revision was numbered from, so two concurrent appends can never produce the
// same number: the loser's guard matches zero rows and the whole transaction
// rolls back with gorm.ErrDuplicatedKey. If fileRef is true the drawing's
// artifact reference is replaced from the revision and last_plotted_at is
// stamped.
func (r *RevisionRepository) Append(ctx context.Context, rev *entity.Revision, fileRef bool, dropboxURL string, fileSize int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rev).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"current_revision": rev.RevisionNumber,
			"updated_at":       time.Now(),
		}
		if fileRef {
			updates["dropbox_path"] = rev.DropboxPath
			updates["dropbox_url"] = dropboxURL
			updates["file_name"] = rev.FileName
			updates["file_size"] = fileSize
			updates["last_plotted_at"] = time.Now()
		}

		res := tx.Model(&entity.Drawing{}).
			Where("id = ? AND current_revision = ?", rev.DrawingID, rev.RevisionNumber-1).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrDuplicatedKey
		}
		return nil
	})
}

// ListByDrawing returns all revisions for the drawing, ascending by number.
func (r *RevisionRepository) ListByDrawing(ctx context.Context, drawingID string) ([]entity.Revision, error) {
	var revisions []entity.Revision
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("drawing_id = ?", drawingID).
		Order("revision_number ASC").
		Find(&revisions).Error
	return revisions, err
}

// MaxNumber returns the highest revision number recorded for the drawing, or
// 0 if it has none.
func (r *RevisionRepository) MaxNumber(ctx context.Context, drawingID string) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).
		Model(&entity.Revision{}).
		Select("MAX(revision_number)").
		Where("drawing_id = ?", drawingID).
		Scan(&max).Error
	if err != nil || max == nil {
		return 0, err
	}
	return *max, nil
}
