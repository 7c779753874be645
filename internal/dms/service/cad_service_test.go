package service

import (
	"context"
	"testing"
	"time"

	"github.com/planroomhq/planroom/internal/dms/apperr"
	"github.com/planroomhq/planroom/internal/dms/entity"
	"github.com/planroomhq/planroom/internal/dms/repository"
	"github.com/planroomhq/planroom/internal/dms/testutil"
	"github.com/planroomhq/planroom/internal/shared/storage"
)

// fakeProvider serves canned metadata keyed by path.
type fakeProvider struct {
	files map[string]*storage.FileMetadata
	calls int
}

func (f *fakeProvider) ListFolder(_ context.Context, _, _ string) (*storage.Page, error) {
	return &storage.Page{}, nil
}

func (f *fakeProvider) GetFileMetadata(_ context.Context, path string) (*storage.FileMetadata, error) {
	f.calls++
	if meta, ok := f.files[path]; ok {
		return meta, nil
	}
	return nil, apperr.NotFound("path not found: " + path)
}

func setupCadTest(t *testing.T, provider storage.Provider) (*CadSourceService, *DrawingService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	drawings := NewDrawingService(repos.Drawing, repos.Revision, nil, "")
	cad := NewCadSourceService(repos.CadSource, repos.Drawing, provider, nil, 24*time.Hour)
	return cad, drawings
}

func TestComputeFreshness(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	grace := 24 * time.Hour
	plotted := now.Add(-48 * time.Hour)

	cases := []struct {
		name     string
		modified time.Time
		plotted  *time.Time
		want     string
	}{
		{"never plotted", now.Add(-time.Hour), nil, entity.FreshnessNeedsReplot},
		{"plot newer than source", plotted.Add(-time.Hour), &plotted, entity.FreshnessUpToDate},
		{"plot at source time", plotted, &plotted, entity.FreshnessUpToDate},
		{"source edited within grace", now.Add(-time.Hour), &plotted, entity.FreshnessCadModified},
		{"source edited past grace", now.Add(-25 * time.Hour), &plotted, entity.FreshnessNeedsReplot},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeFreshness(tc.modified, tc.plotted, grace, now)
			if got != tc.want {
				t.Errorf("ComputeFreshness = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestLinkReplacesExisting(t *testing.T) {
	cad, drawings := setupCadTest(t, nil)
	ctx := context.Background()

	d, _ := drawings.Create(ctx, testProject, "user-1", &CreateDrawingRequest{
		DrawingNumber: "A-101", Title: "Ground Floor Plan",
	})

	first, err := cad.Link(ctx, d.ID, "user-1", &LinkRequest{
		CadDropboxPath: "/cad/ground.dwg", CadLayoutName: "GF-PLAN",
	})
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if first.CadDropboxPath != "/cad/ground.dwg" || first.CadLayoutName != "GF-PLAN" {
		t.Errorf("Unexpected link: %+v", first)
	}

	// A second link replaces the first; at most one per drawing.
	second, err := cad.Link(ctx, d.ID, "user-2", &LinkRequest{
		CadDropboxPath: "/cad/ground-v2.dwg",
	})
	if err != nil {
		t.Fatalf("Relink failed: %v", err)
	}
	if second.CadDropboxPath != "/cad/ground-v2.dwg" {
		t.Errorf("Link not replaced: %+v", second)
	}
	if second.CadLayoutName != "" {
		t.Errorf("Old layout name leaked through: %q", second.CadLayoutName)
	}

	if _, err := cad.Link(ctx, d.ID, "user-1", &LinkRequest{CadDropboxPath: "  "}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("Expected validation error for blank path, got %v", err)
	}
	if _, err := cad.Link(ctx, "no-such-id", "user-1", &LinkRequest{CadDropboxPath: "/cad/x.dwg"}); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestUnlink(t *testing.T) {
	cad, drawings := setupCadTest(t, nil)
	ctx := context.Background()

	d, _ := drawings.Create(ctx, testProject, "user-1", &CreateDrawingRequest{
		DrawingNumber: "A-102", Title: "Second Floor Plan",
	})

	// Unlinking with no link present is a no-op.
	if err := cad.Unlink(ctx, d.ID); err != nil {
		t.Errorf("Unlink without a link should be a no-op, got %v", err)
	}

	if _, err := cad.Link(ctx, d.ID, "user-1", &LinkRequest{CadDropboxPath: "/cad/second.dwg"}); err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if err := cad.Unlink(ctx, d.ID); err != nil {
		t.Fatalf("Unlink failed: %v", err)
	}
	if _, err := cad.Freshness(ctx, d.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Freshness after unlink should be not found, got %v", err)
	}
}

func TestFreshnessAgainstProvider(t *testing.T) {
	provider := &fakeProvider{files: map[string]*storage.FileMetadata{
		"/cad/rcp.dwg": {
			Name:           "rcp.dwg",
			PathDisplay:    "/cad/rcp.dwg",
			ServerModified: time.Now().Add(-time.Hour),
		},
	}}
	cad, drawings := setupCadTest(t, provider)
	ctx := context.Background()

	d, _ := drawings.Create(ctx, testProject, "user-1", &CreateDrawingRequest{
		DrawingNumber: "A-103", Title: "RCP",
		FileRef: &FileRef{DropboxPath: "/plots/a-103.pdf", FileName: "a-103.pdf"},
	})
	if _, err := cad.Link(ctx, d.ID, "user-1", &LinkRequest{CadDropboxPath: "/cad/rcp.dwg"}); err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	// Plotted just now, source edited an hour ago: up to date.
	result, err := cad.Freshness(ctx, d.ID)
	if err != nil {
		t.Fatalf("Freshness failed: %v", err)
	}
	if result.Status != entity.FreshnessUpToDate {
		t.Errorf("Expected up_to_date, got %s", result.Status)
	}
	if result.CadDropboxPath != "/cad/rcp.dwg" || result.LastPlottedAt == nil {
		t.Errorf("Result missing link details: %+v", result)
	}

	// Source edited after the plot, within the grace window.
	provider.files["/cad/rcp.dwg"].ServerModified = time.Now().Add(time.Minute)
	result, err = cad.Freshness(ctx, d.ID)
	if err != nil {
		t.Fatalf("Freshness failed: %v", err)
	}
	if result.Status != entity.FreshnessCadModified {
		t.Errorf("Expected cad_modified, got %s", result.Status)
	}
}
