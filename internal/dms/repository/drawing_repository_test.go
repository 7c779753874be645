package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/planroomhq/planroom/internal/dms/entity"
	"github.com/planroomhq/planroom/internal/dms/testutil"
	"gorm.io/gorm"
)

func seedDrawingRow(projectID, number, status string) *entity.Drawing {
	now := time.Now()
	return &entity.Drawing{
		ID:            uuid.New().String()[:32],
		ProjectID:     projectID,
		DrawingNumber: number,
		Title:         "Sheet " + number,
		Status:        status,
		CreatedBy:     "user-1",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// The partial unique index is the guard of record for drawing numbers: the
// repository pre-check can race, the index cannot.
func TestLiveNumberUniqueIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)

	if err := db.Create(seedDrawingRow("proj-001", "A-101", entity.DrawingStatusActive)).Error; err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	// A second live drawing with the same number must be rejected by the
	// database itself, no repository logic involved.
	err := db.Create(seedDrawingRow("proj-001", "A-101", entity.DrawingStatusActive)).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("Expected duplicate-key rejection from the index, got %v", err)
	}

	// Archived rows are outside the index: same number may coexist.
	if err := db.Create(seedDrawingRow("proj-001", "A-101", entity.DrawingStatusArchived)).Error; err != nil {
		t.Errorf("Archived duplicate should be allowed, got %v", err)
	}

	// Other projects are unaffected.
	if err := db.Create(seedDrawingRow("proj-002", "A-101", entity.DrawingStatusActive)).Error; err != nil {
		t.Errorf("Cross-project duplicate should be allowed, got %v", err)
	}
}

func TestCreateWithInitialRevisionDuplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewDrawingRepository(db)
	ctx := context.Background()

	if err := repo.CreateWithInitialRevision(ctx, seedDrawingRow("proj-001", "A-102", entity.DrawingStatusActive), nil); err != nil {
		t.Fatalf("First create failed: %v", err)
	}
	err := repo.CreateWithInitialRevision(ctx, seedDrawingRow("proj-001", "A-102", entity.DrawingStatusActive), nil)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("Expected gorm.ErrDuplicatedKey, got %v", err)
	}
}
