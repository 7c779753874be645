package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/planroomhq/planroom/internal/dms/apperr"
	"github.com/planroomhq/planroom/internal/dms/entity"
	"github.com/planroomhq/planroom/internal/dms/repository"
	"gorm.io/gorm"
)

// revisionRetries bounds the optimistic-append retry loop. Two writers racing
// on the same drawing resolve on the first retry; more contention than that
// on a single sheet means something is wrong upstream.
const revisionRetries = 3

// DrawingService owns the drawing registry and its revision ledger.
type DrawingService struct {
	drawingRepo  *repository.DrawingRepository
	revisionRepo *repository.RevisionRepository
	minioClient  *minio.Client
	bucketName   string
}

func NewDrawingService(drawingRepo *repository.DrawingRepository, revisionRepo *repository.RevisionRepository,
	minioClient *minio.Client, bucketName string) *DrawingService {
	return &DrawingService{
		drawingRepo:  drawingRepo,
		revisionRepo: revisionRepo,
		minioClient:  minioClient,
		bucketName:   bucketName,
	}
}

// FileRef points at a plotted artifact in the file provider.
type FileRef struct {
	DropboxPath string `json:"dropbox_path"`
	DropboxURL  string `json:"dropbox_url"`
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
}

// CreateDrawingRequest creates a drawing, optionally with revision 1.
type CreateDrawingRequest struct {
	DrawingNumber        string   `json:"drawing_number" binding:"required"`
	Title                string   `json:"title" binding:"required"`
	Discipline           string   `json:"discipline"`
	DrawingType          string   `json:"drawing_type"`
	FloorID              string   `json:"floor_id"`
	SectionID            string   `json:"section_id"`
	Scale                string   `json:"scale"`
	PaperSize            string   `json:"paper_size"`
	Description          string   `json:"description"`
	FileRef              *FileRef `json:"file_ref"`
	InitialRevisionNotes string   `json:"initial_revision_notes"`
}

// UpdateDrawingRequest patches drawing metadata. Nil fields are left alone.
// There is deliberately no way to touch the current revision from here.
type UpdateDrawingRequest struct {
	Title       *string  `json:"title"`
	Discipline  *string  `json:"discipline"`
	DrawingType *string  `json:"drawing_type"`
	FloorID     *string  `json:"floor_id"`
	SectionID   *string  `json:"section_id"`
	Scale       *string  `json:"scale"`
	PaperSize   *string  `json:"paper_size"`
	Description *string  `json:"description"`
	Status      *string  `json:"status"`
	FileRef     *FileRef `json:"file_ref"`
}

// AddRevisionRequest appends one revision to a drawing's ledger.
type AddRevisionRequest struct {
	Description string     `json:"description" binding:"required"`
	IssuedDate  *time.Time `json:"issued_date"`
	FileRef     *FileRef   `json:"file_ref"`
}

// Create registers a drawing. When InitialRevisionNotes is supplied, revision
// 1 is created atomically with it and the current revision starts at 1
// instead of 0.
func (s *DrawingService) Create(ctx context.Context, projectID, userID string, req *CreateDrawingRequest) (*entity.Drawing, error) {
	number := strings.TrimSpace(req.DrawingNumber)
	title := strings.TrimSpace(req.Title)
	if number == "" {
		return nil, apperr.Validation("drawing number is required")
	}
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	if !entity.ValidDiscipline(req.Discipline) {
		return nil, apperr.Validation("unknown discipline: " + req.Discipline)
	}
	if !entity.ValidDrawingType(req.DrawingType) {
		return nil, apperr.Validation("unknown drawing type: " + req.DrawingType)
	}

	now := time.Now()
	drawing := &entity.Drawing{
		ID:            uuid.New().String()[:32],
		ProjectID:     projectID,
		DrawingNumber: number,
		Title:         title,
		Discipline:    req.Discipline,
		DrawingType:   req.DrawingType,
		FloorID:       req.FloorID,
		SectionID:     req.SectionID,
		Scale:         req.Scale,
		PaperSize:     req.PaperSize,
		Description:   req.Description,
		Status:        entity.DrawingStatusActive,
		CreatedBy:     userID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.FileRef != nil {
		applyFileRef(drawing, req.FileRef, now)
	}

	var rev *entity.Revision
	if strings.TrimSpace(req.InitialRevisionNotes) != "" {
		drawing.CurrentRevision = 1
		rev = &entity.Revision{
			ID:             uuid.New().String()[:32],
			DrawingID:      drawing.ID,
			RevisionNumber: 1,
			Description:    req.InitialRevisionNotes,
			IssuedDate:     now,
			CreatedBy:      userID,
			CreatedAt:      now,
		}
		if req.FileRef != nil {
			rev.DropboxPath = req.FileRef.DropboxPath
			rev.FileName = req.FileRef.FileName
		}
	}

	if err := s.drawingRepo.CreateWithInitialRevision(ctx, drawing, rev); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("drawing number already in use: " + number)
		}
		return nil, err
	}
	return drawing, nil
}

// Get returns one drawing.
func (s *DrawingService) Get(ctx context.Context, id string) (*entity.Drawing, error) {
	drawing, err := s.drawingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoErr(err, "drawing not found")
	}
	return drawing, nil
}

// Update applies metadata changes without recording a revision. Only the
// patched columns are written, so current_revision stays whatever the ledger
// last set it to even if an append lands mid-update. Replacing the file
// reference restamps last_plotted_at.
func (s *DrawingService) Update(ctx context.Context, id string, req *UpdateDrawingRequest) (*entity.Drawing, error) {
	if _, err := s.drawingRepo.FindByID(ctx, id); err != nil {
		return nil, translateRepoErr(err, "drawing not found")
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, apperr.Validation("title cannot be blank")
		}
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Discipline != nil {
		if !entity.ValidDiscipline(*req.Discipline) {
			return nil, apperr.Validation("unknown discipline: " + *req.Discipline)
		}
		updates["discipline"] = *req.Discipline
	}
	if req.DrawingType != nil {
		if !entity.ValidDrawingType(*req.DrawingType) {
			return nil, apperr.Validation("unknown drawing type: " + *req.DrawingType)
		}
		updates["drawing_type"] = *req.DrawingType
	}
	if req.FloorID != nil {
		updates["floor_id"] = *req.FloorID
	}
	if req.SectionID != nil {
		updates["section_id"] = *req.SectionID
	}
	if req.Scale != nil {
		updates["scale"] = *req.Scale
	}
	if req.PaperSize != nil {
		updates["paper_size"] = *req.PaperSize
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		if !entity.ValidDrawingStatus(*req.Status) {
			return nil, apperr.Validation("unknown status: " + *req.Status)
		}
		updates["status"] = *req.Status
	}
	if req.FileRef != nil {
		updates["dropbox_path"] = req.FileRef.DropboxPath
		updates["dropbox_url"] = req.FileRef.DropboxURL
		updates["file_name"] = req.FileRef.FileName
		updates["file_size"] = req.FileRef.FileSize
		updates["last_plotted_at"] = time.Now()
	}

	if len(updates) > 0 {
		if err := s.drawingRepo.UpdateMetadata(ctx, id, updates); err != nil {
			return nil, err
		}
	}

	drawing, err := s.drawingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoErr(err, "drawing not found")
	}
	return drawing, nil
}

// Archive soft-archives the drawing. Revisions and historical transmittal
// references stay put; archiving twice is a no-op.
func (s *DrawingService) Archive(ctx context.Context, id string) error {
	if _, err := s.drawingRepo.FindByID(ctx, id); err != nil {
		return translateRepoErr(err, "drawing not found")
	}
	return s.drawingRepo.Archive(ctx, id)
}

// List returns drawings matching the filters. Archived drawings only appear
// when asked for by status.
func (s *DrawingService) List(ctx context.Context, projectID string, f repository.ListFilters) ([]entity.Drawing, error) {
	if f.Status != "" && !entity.ValidDrawingStatus(f.Status) {
		return nil, apperr.Validation("unknown status: " + f.Status)
	}
	return s.drawingRepo.List(ctx, projectID, f)
}

// AddRevision appends the next revision and advances the drawing's pointer.
// This is the only path that moves the current revision. A race with another
// append is retried with a fresh read of the pointer, so two concurrent calls
// come out as N+1 and N+2.
func (s *DrawingService) AddRevision(ctx context.Context, drawingID, userID string, req *AddRevisionRequest) (*entity.Revision, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, apperr.Validation("revision description is required")
	}

	var lastErr error
	for attempt := 0; attempt < revisionRetries; attempt++ {
		drawing, err := s.drawingRepo.FindByID(ctx, drawingID)
		if err != nil {
			return nil, translateRepoErr(err, "drawing not found")
		}

		now := time.Now()
		issued := now
		if req.IssuedDate != nil {
			issued = *req.IssuedDate
		}

		rev := &entity.Revision{
			ID:             uuid.New().String()[:32],
			DrawingID:      drawingID,
			RevisionNumber: drawing.CurrentRevision + 1,
			Description:    req.Description,
			IssuedDate:     issued,
			CreatedBy:      userID,
			CreatedAt:      now,
		}

		var dropboxURL string
		var fileSize int64
		if req.FileRef != nil {
			rev.DropboxPath = req.FileRef.DropboxPath
			rev.FileName = req.FileRef.FileName
			dropboxURL = req.FileRef.DropboxURL
			fileSize = req.FileRef.FileSize
		}

		err = s.revisionRepo.Append(ctx, rev, req.FileRef != nil, dropboxURL, fileSize)
		if err == nil {
			return rev, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		lastErr = err
	}
	return nil, apperr.Wrap(apperr.KindConflict, "concurrent revision updates on drawing "+drawingID, lastErr)
}

// ListRevisions returns the drawing's full ledger, ascending.
func (s *DrawingService) ListRevisions(ctx context.Context, drawingID string) ([]entity.Revision, error) {
	if _, err := s.drawingRepo.FindByID(ctx, drawingID); err != nil {
		return nil, translateRepoErr(err, "drawing not found")
	}
	return s.revisionRepo.ListByDrawing(ctx, drawingID)
}

// Download streams the drawing's plotted artifact from the object store.
func (s *DrawingService) Download(ctx context.Context, id string) (io.ReadCloser, *entity.Drawing, error) {
	drawing, err := s.drawingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, translateRepoErr(err, "drawing not found")
	}
	if drawing.DropboxPath == "" {
		return nil, nil, apperr.NotFound("drawing has no plotted artifact")
	}
	if s.minioClient == nil {
		return nil, nil, apperr.State("artifact store not configured")
	}

	object, err := s.minioClient.GetObject(ctx, s.bucketName, drawing.DropboxPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, err
	}
	return object, drawing, nil
}

func applyFileRef(d *entity.Drawing, ref *FileRef, now time.Time) {
	d.DropboxPath = ref.DropboxPath
	d.DropboxURL = ref.DropboxURL
	d.FileName = ref.FileName
	d.FileSize = ref.FileSize
	d.LastPlottedAt = &now
}

func translateRepoErr(err error, notFoundMsg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(notFoundMsg)
	}
	return err
}
