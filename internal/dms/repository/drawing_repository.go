package repository

import (
	"context"
	"strings"
	"time"

	"github.com/planroomhq/planroom/internal/dms/entity"
	"gorm.io/gorm"
)

type DrawingRepository struct {
	db *gorm.DB
}

func NewDrawingRepository(db *gorm.DB) *DrawingRepository {
	return &DrawingRepository{db: db}
}

// FindByID loads a drawing with its groupings and CAD source link.
func (r *DrawingRepository) FindByID(ctx context.Context, id string) (*entity.Drawing, error) {
	var drawing entity.Drawing
	err := r.db.WithContext(ctx).
		Preload("Floor").
		Preload("Section").
		Preload("Creator").
		Preload("CadSource").
		First(&drawing, "id = ?", id).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &drawing, nil
}

// NumberInUse reports whether a non-archived drawing in the project already
// carries the given number. Runs on whatever handle it is given so the check
// can share the creating transaction.
func (r *DrawingRepository) NumberInUse(ctx context.Context, tx *gorm.DB, projectID, number string) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).
		Model(&entity.Drawing{}).
		Where("project_id = ? AND drawing_number = ? AND status <> ?",
			projectID, number, entity.DrawingStatusArchived).
		Count(&count).Error
	return count > 0, err
}

// CreateWithInitialRevision persists the drawing and, when rev is non-nil,
// revision 1 in the same transaction. The duplicate-number pre-check catches
// the common case; two concurrent creates that both pass it are settled by
// the partial unique index on (project_id, drawing_number), which surfaces
// as gorm.ErrDuplicatedKey from the insert.
func (r *DrawingRepository) CreateWithInitialRevision(ctx context.Context, drawing *entity.Drawing, rev *entity.Revision) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inUse, err := r.NumberInUse(ctx, tx, drawing.ProjectID, drawing.DrawingNumber)
		if err != nil {
			return err
		}
		if inUse {
			return gorm.ErrDuplicatedKey
		}
		if err := tx.Create(drawing).Error; err != nil {
			return err
		}
		if rev != nil {
			if err := tx.Create(rev).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateMetadata writes only the given columns. Callers never include
// current_revision; the revision ledger owns that column, so a concurrent
// append can land between a caller's read and this write without being
// overwritten.
func (r *DrawingRepository) UpdateMetadata(ctx context.Context, id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return r.db.WithContext(ctx).
		Model(&entity.Drawing{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Archive soft-archives the drawing. Archiving an archived drawing is a no-op.
func (r *DrawingRepository) Archive(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Drawing{}).
		Where("id = ? AND status <> ?", id, entity.DrawingStatusArchived).
		Update("status", entity.DrawingStatusArchived).Error
}

// ListFilters narrows a drawing listing. All provided filters AND together.
type ListFilters struct {
	SectionID  string
	FloorID    string
	Status     string
	SearchText string
}

// List returns the project's drawings matching the filters, ordered by
// drawing number. Without an explicit status filter, archived drawings are
// excluded.
func (r *DrawingRepository) List(ctx context.Context, projectID string, f ListFilters) ([]entity.Drawing, error) {
	q := r.db.WithContext(ctx).
		Preload("Floor").
		Preload("Section").
		Where("project_id = ?", projectID)

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	} else {
		q = q.Where("status <> ?", entity.DrawingStatusArchived)
	}
	if f.SectionID != "" {
		q = q.Where("section_id = ?", f.SectionID)
	}
	if f.FloorID != "" {
		q = q.Where("floor_id = ?", f.FloorID)
	}
	if f.SearchText != "" {
		pattern := "%" + strings.ToLower(f.SearchText) + "%"
		q = q.Where("LOWER(drawing_number) LIKE ? OR LOWER(title) LIKE ?", pattern, pattern)
	}

	var drawings []entity.Drawing
	err := q.Order("drawing_number ASC").Find(&drawings).Error
	return drawings, err
}
