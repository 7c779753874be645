package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/planroomhq/planroom/internal/dms/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleState means a guarded status transition matched zero rows: the
// record was not in the expected state, or a concurrent writer got there
// first. Services translate it into an apperr.State.
var ErrStaleState = fmt.Errorf("record not in expected state")

type TransmittalRepository struct {
	db *gorm.DB
}

func NewTransmittalRepository(db *gorm.DB) *TransmittalRepository {
	return &TransmittalRepository{db: db}
}

// FindByID loads a transmittal with its items in order.
func (r *TransmittalRepository) FindByID(ctx context.Context, id string) (*entity.Transmittal, error) {
	var t entity.Transmittal
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Items.Drawing").
		Preload("Creator").
		Preload("Sender").
		First(&t, "id = ?", id).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &t, nil
}

// CreateWithItems allocates the next transmittal number and persists the
// transmittal plus its items in one transaction. The per-project sequence row
// is incremented inside the transaction, so concurrent creators serialize on
// it and numbers come out unique.
func (r *TransmittalRepository) CreateWithItems(ctx context.Context, t *entity.Transmittal, items []entity.TransmittalItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := nextSequence(tx, t.ProjectID, "transmittal")
		if err != nil {
			return err
		}
		t.TransmittalNumber = fmt.Sprintf("T-%03d", seq)

		if err := tx.Create(t).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].TransmittalID = t.ID
			items[i].SortOrder = i
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		t.Items = items
		return nil
	})
}

// nextSequence bumps and returns the named per-project counter. The blind
// upsert makes the row exist, the guarded increment locks it for the rest of
// the transaction.
func nextSequence(tx *gorm.DB, projectID, name string) (int, error) {
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.ProjectSequence{ProjectID: projectID, Name: name, Value: 0}).Error
	if err != nil {
		return 0, err
	}

	res := tx.Model(&entity.ProjectSequence{}).
		Where("project_id = ? AND name = ?", projectID, name).
		Update("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return 0, res.Error
	}

	var seq entity.ProjectSequence
	if err := tx.First(&seq, "project_id = ? AND name = ?", projectID, name).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}

// MarkSent transitions draft → sent. The update is guarded on the draft
// status so exactly one of two concurrent senders wins; the other gets
// ErrStaleState and nothing changes.
func (r *TransmittalRepository) MarkSent(ctx context.Context, id, sentBy string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&entity.Transmittal{}).
		Where("id = ? AND status = ?", id, entity.TransmittalStatusDraft).
		Updates(map[string]interface{}{
			"status":     entity.TransmittalStatusSent,
			"sent_by":    sentBy,
			"sent_at":    now,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

// TransitionStatus moves the transmittal to a new status, guarded on the set
// of states the transition is valid from.
func (r *TransmittalRepository) TransitionStatus(ctx context.Context, id, to string, from ...string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Transmittal{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

// TransmittalFilters narrows a transmittal listing.
type TransmittalFilters struct {
	Status        string
	RecipientText string
	DateFrom      *time.Time
	DateTo        *time.Time
}

// List returns the project's transmittals matching the filters, newest first.
// Date filters match sent_at when the transmittal was sent, created_at
// otherwise.
func (r *TransmittalRepository) List(ctx context.Context, projectID string, f TransmittalFilters) ([]entity.Transmittal, error) {
	q := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("project_id = ?", projectID)

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.RecipientText != "" {
		pattern := "%" + f.RecipientText + "%"
		q = q.Where("recipient_name LIKE ? OR recipient_company LIKE ? OR recipient_email LIKE ?",
			pattern, pattern, pattern)
	}
	if f.DateFrom != nil {
		q = q.Where("COALESCE(sent_at, created_at) >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("COALESCE(sent_at, created_at) <= ?", *f.DateTo)
	}

	var transmittals []entity.Transmittal
	err := q.Order("created_at DESC").Find(&transmittals).Error
	return transmittals, err
}
