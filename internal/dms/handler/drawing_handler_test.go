package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/planroomhq/planroom/internal/dms/repository"
	"github.com/planroomhq/planroom/internal/dms/service"
	"github.com/planroomhq/planroom/internal/dms/testutil"
)

// setupAPI wires an in-memory database behind the real route layout.
func setupAPI(t *testing.T) *gin.Engine {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	svc := &service.Services{
		Drawing:     service.NewDrawingService(repos.Drawing, repos.Revision, nil, ""),
		CadSource:   service.NewCadSourceService(repos.CadSource, repos.Drawing, nil, nil, 0),
		Transmittal: service.NewTransmittalService(repos.Transmittal, repos.Drawing, nil, nil),
		User:        service.NewUserService(repos.User),
		Directory:   service.NewDirectoryService(repos.Directory),
	}
	h := NewHandlers(svc, nil)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1")

	projects := api.Group("/projects/:projectId")
	projects.GET("/drawings", h.Drawing.List)
	projects.POST("/drawings", h.Drawing.Create)
	projects.GET("/transmittals", h.Transmittal.List)
	projects.POST("/transmittals", h.Transmittal.Create)

	drawings := api.Group("/drawings/:id")
	drawings.GET("", h.Drawing.Get)
	drawings.PUT("", h.Drawing.Update)
	drawings.POST("/archive", h.Drawing.Archive)
	drawings.GET("/revisions", h.Drawing.ListRevisions)
	drawings.POST("/revisions", h.Drawing.AddRevision)
	drawings.PUT("/cad-source", h.Drawing.LinkCadSource)
	drawings.DELETE("/cad-source", h.Drawing.UnlinkCadSource)
	drawings.GET("/cad-freshness", h.Drawing.CadFreshness)

	transmittals := api.Group("/transmittals/:id")
	transmittals.GET("", h.Transmittal.Get)
	transmittals.POST("/send", h.Transmittal.Send)
	transmittals.POST("/resend", h.Transmittal.Resend)
	transmittals.POST("/acknowledge", h.Transmittal.Acknowledge)
	transmittals.POST("/cancel", h.Transmittal.Cancel)

	return r
}

func createDrawing(t *testing.T, r *gin.Engine, token string, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	w := testutil.DoRequest(r, "POST", "/api/v1/projects/proj-001/drawings", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Create drawing returned %d: %s", w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)["data"].(map[string]interface{})
}

func TestDrawingLifecycleOverHTTP(t *testing.T) {
	r := setupAPI(t)
	token := testutil.DefaultTestToken()

	created := createDrawing(t, r, token, map[string]interface{}{
		"drawing_number": "A-101",
		"title":          "Ground Floor Plan",
		"discipline":     "architectural",
		"drawing_type":   "floor_plan",
	})
	id := created["id"].(string)
	if created["current_revision"].(float64) != 0 {
		t.Errorf("New drawing should start at revision 0, got %v", created["current_revision"])
	}

	// Append the first revision.
	w := testutil.DoRequest(r, "POST", "/api/v1/drawings/"+id+"/revisions", map[string]interface{}{
		"description": "Initial issue",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("AddRevision returned %d: %s", w.Code, w.Body.String())
	}
	rev := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if rev["revision_number"].(float64) != 1 {
		t.Errorf("Expected revision 1, got %v", rev["revision_number"])
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/drawings/"+id, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Get returned %d", w.Code)
	}
	got := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if got["current_revision"].(float64) != 1 {
		t.Errorf("Pointer should be 1, got %v", got["current_revision"])
	}

	// Metadata patch leaves the pointer alone.
	w = testutil.DoRequest(r, "PUT", "/api/v1/drawings/"+id, map[string]interface{}{
		"title": "Ground Floor Plan (Rev)",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Update returned %d: %s", w.Code, w.Body.String())
	}
	got = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if got["current_revision"].(float64) != 1 {
		t.Errorf("Update moved the pointer to %v", got["current_revision"])
	}

	// Archive, then confirm the default listing hides it.
	w = testutil.DoRequest(r, "POST", "/api/v1/drawings/"+id+"/archive", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Archive returned %d", w.Code)
	}
	w = testutil.DoRequest(r, "GET", "/api/v1/projects/proj-001/drawings", nil, token)
	list := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if list["total"].(float64) != 0 {
		t.Errorf("Archived drawing still listed: %v", list)
	}

	// History survives the archive.
	w = testutil.DoRequest(r, "GET", "/api/v1/drawings/"+id+"/revisions", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("ListRevisions returned %d", w.Code)
	}
	revs := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if revs["total"].(float64) != 1 {
		t.Errorf("Expected 1 surviving revision, got %v", revs["total"])
	}
}

func TestDrawingErrorStatusCodes(t *testing.T) {
	r := setupAPI(t)
	token := testutil.DefaultTestToken()

	createDrawing(t, r, token, map[string]interface{}{
		"drawing_number": "A-101", "title": "Ground Floor Plan",
	})

	// Duplicate number in the same project: 409.
	w := testutil.DoRequest(r, "POST", "/api/v1/projects/proj-001/drawings", map[string]interface{}{
		"drawing_number": "A-101", "title": "Another Plan",
	}, token)
	if w.Code != http.StatusConflict {
		t.Errorf("Duplicate number should return 409, got %d: %s", w.Code, w.Body.String())
	}

	// Missing required fields: 400 from binding.
	w = testutil.DoRequest(r, "POST", "/api/v1/projects/proj-001/drawings", map[string]interface{}{
		"title": "No Number",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Missing number should return 400, got %d", w.Code)
	}

	// Unknown id: 404.
	w = testutil.DoRequest(r, "GET", "/api/v1/drawings/no-such-id", nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Unknown drawing should return 404, got %d", w.Code)
	}

	// No token: 401.
	w = testutil.DoRequest(r, "GET", "/api/v1/projects/proj-001/drawings", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Missing token should return 401, got %d", w.Code)
	}
}

func TestCadSourceOverHTTP(t *testing.T) {
	r := setupAPI(t)
	token := testutil.DefaultTestToken()

	created := createDrawing(t, r, token, map[string]interface{}{
		"drawing_number": "A-102", "title": "Second Floor Plan",
	})
	id := created["id"].(string)

	w := testutil.DoRequest(r, "PUT", "/api/v1/drawings/"+id+"/cad-source", map[string]interface{}{
		"cad_dropbox_path": "/cad/second.dwg",
		"cad_layout_name":  "2F-PLAN",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Link returned %d: %s", w.Code, w.Body.String())
	}
	link := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if link["cad_dropbox_path"].(string) != "/cad/second.dwg" {
		t.Errorf("Unexpected link payload: %v", link)
	}

	// No file provider configured: freshness is a 422, not a crash.
	w = testutil.DoRequest(r, "GET", "/api/v1/drawings/"+id+"/cad-freshness", nil, token)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Freshness without a provider should return 422, got %d", w.Code)
	}

	w = testutil.DoRequest(r, "DELETE", "/api/v1/drawings/"+id+"/cad-source", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Unlink returned %d", w.Code)
	}

	// Freshness on an unlinked drawing: 404.
	w = testutil.DoRequest(r, "GET", "/api/v1/drawings/"+id+"/cad-freshness", nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Freshness without a link should return 404, got %d", w.Code)
	}
}
