package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/planroomhq/planroom/internal/dms/apperr"
	"github.com/planroomhq/planroom/internal/dms/entity"
	"github.com/planroomhq/planroom/internal/dms/repository"
	"github.com/planroomhq/planroom/internal/shared/storage"
	"github.com/redis/go-redis/v9"
)

// metadataCacheTTL keeps provider metadata lookups from hammering the API
// when a whole sheet index is checked at once.
const metadataCacheTTL = 5 * time.Minute

// CadSourceService tracks the optional link from a plotted drawing back to
// its originating CAD file, and derives staleness from the two timestamps.
type CadSourceService struct {
	cadRepo     *repository.CadSourceRepository
	drawingRepo *repository.DrawingRepository
	provider    storage.Provider
	rdb         *redis.Client
	graceWindow time.Duration
}

func NewCadSourceService(cadRepo *repository.CadSourceRepository, drawingRepo *repository.DrawingRepository,
	provider storage.Provider, rdb *redis.Client, graceWindow time.Duration) *CadSourceService {
	if graceWindow <= 0 {
		graceWindow = 24 * time.Hour
	}
	return &CadSourceService{
		cadRepo:     cadRepo,
		drawingRepo: drawingRepo,
		provider:    provider,
		rdb:         rdb,
		graceWindow: graceWindow,
	}
}

// LinkRequest attaches a CAD source to a drawing.
type LinkRequest struct {
	CadDropboxPath string `json:"cad_dropbox_path" binding:"required"`
	CadLayoutName  string `json:"cad_layout_name"`
}

// FreshnessResult is the derived staleness view for one drawing.
type FreshnessResult struct {
	Status             string     `json:"status"`
	CadDropboxPath     string     `json:"cad_dropbox_path"`
	CadLayoutName      string     `json:"cad_layout_name,omitempty"`
	ExternalModifiedAt time.Time  `json:"external_modified_at"`
	LastPlottedAt      *time.Time `json:"last_plotted_at"`
}

// Link creates or replaces the drawing's single CAD source link.
func (s *CadSourceService) Link(ctx context.Context, drawingID, userID string, req *LinkRequest) (*entity.CadSourceLink, error) {
	if strings.TrimSpace(req.CadDropboxPath) == "" {
		return nil, apperr.Validation("cad_dropbox_path is required")
	}
	if _, err := s.drawingRepo.FindByID(ctx, drawingID); err != nil {
		return nil, translateRepoErr(err, "drawing not found")
	}

	now := time.Now()
	link := &entity.CadSourceLink{
		ID:             uuid.New().String()[:32],
		DrawingID:      drawingID,
		CadDropboxPath: strings.TrimSpace(req.CadDropboxPath),
		CadLayoutName:  req.CadLayoutName,
		LinkedBy:       userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.cadRepo.Upsert(ctx, link); err != nil {
		return nil, err
	}
	// The upsert may have kept the existing row's id; return what is stored.
	return s.cadRepo.FindByDrawing(ctx, drawingID)
}

// Unlink removes the drawing's CAD source link. Unlinking a drawing with no
// link is a no-op.
func (s *CadSourceService) Unlink(ctx context.Context, drawingID string) error {
	if _, err := s.drawingRepo.FindByID(ctx, drawingID); err != nil {
		return translateRepoErr(err, "drawing not found")
	}
	return s.cadRepo.DeleteByDrawing(ctx, drawingID)
}

// Freshness fetches the CAD source's last-modified from the file provider
// (cached briefly) and computes the staleness state against the drawing's
// last plot.
func (s *CadSourceService) Freshness(ctx context.Context, drawingID string) (*FreshnessResult, error) {
	drawing, err := s.drawingRepo.FindByID(ctx, drawingID)
	if err != nil {
		return nil, translateRepoErr(err, "drawing not found")
	}
	link, err := s.cadRepo.FindByDrawing(ctx, drawingID)
	if err != nil {
		return nil, translateRepoErr(err, "drawing has no CAD source link")
	}
	if s.provider == nil {
		return nil, apperr.State("file provider not configured")
	}

	meta, err := s.fileMetadata(ctx, link.CadDropboxPath)
	if err != nil {
		return nil, err
	}

	return &FreshnessResult{
		Status:             ComputeFreshness(meta.ServerModified, drawing.LastPlottedAt, s.graceWindow, time.Now()),
		CadDropboxPath:     link.CadDropboxPath,
		CadLayoutName:      link.CadLayoutName,
		ExternalModifiedAt: meta.ServerModified,
		LastPlottedAt:      drawing.LastPlottedAt,
	}, nil
}

// ComputeFreshness derives the staleness state. A source not newer than the
// last plot is up to date. A newer source inside the grace window is the
// advisory cad_modified; past the window without a re-plot it hardens into
// needs_replot. A drawing that was never plotted at all needs a plot.
func ComputeFreshness(externalModifiedAt time.Time, lastPlottedAt *time.Time, graceWindow time.Duration, now time.Time) string {
	if lastPlottedAt == nil {
		return entity.FreshnessNeedsReplot
	}
	if !externalModifiedAt.After(*lastPlottedAt) {
		return entity.FreshnessUpToDate
	}
	if now.Sub(externalModifiedAt) < graceWindow {
		return entity.FreshnessCadModified
	}
	return entity.FreshnessNeedsReplot
}

// fileMetadata reads provider metadata through a short-TTL redis cache.
func (s *CadSourceService) fileMetadata(ctx context.Context, path string) (*storage.FileMetadata, error) {
	key := "cadmeta:" + path

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var meta storage.FileMetadata
			if json.Unmarshal(cached, &meta) == nil {
				return &meta, nil
			}
		}
	}

	meta, err := s.provider.GetFileMetadata(ctx, path)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(meta); err == nil {
			s.rdb.Set(ctx, key, payload, metadataCacheTTL)
		}
	}
	return meta, nil
}
