package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/planroomhq/planroom/internal/dms/testutil"
)

func createTransmittal(t *testing.T, r *gin.Engine, token string, items []map[string]interface{}) map[string]interface{} {
	t.Helper()
	w := testutil.DoRequest(r, "POST", "/api/v1/projects/proj-001/transmittals", map[string]interface{}{
		"recipient_name":  "GC Partners",
		"recipient_email": "site@gcpartners.example",
		"items":           items,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Create transmittal returned %d: %s", w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)["data"].(map[string]interface{})
}

func TestTransmittalLifecycleOverHTTP(t *testing.T) {
	r := setupAPI(t)
	token := testutil.DefaultTestToken()

	drawing := createDrawing(t, r, token, map[string]interface{}{
		"drawing_number": "A-101", "title": "Ground Floor Plan",
		"initial_revision_notes": "Issued",
	})
	drawingID := drawing["id"].(string)

	created := createTransmittal(t, r, token, []map[string]interface{}{
		{"drawing_id": drawingID, "purpose": "For Construction"},
	})
	id := created["id"].(string)
	if created["status"].(string) != "draft" {
		t.Errorf("New transmittal should be a draft, got %v", created["status"])
	}
	if created["transmittal_number"].(string) != "T-001" {
		t.Errorf("Expected T-001, got %v", created["transmittal_number"])
	}

	w := testutil.DoRequest(r, "POST", "/api/v1/transmittals/"+id+"/send", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Send returned %d: %s", w.Code, w.Body.String())
	}
	sent := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if sent["status"].(string) != "sent" || sent["sent_at"] == nil {
		t.Errorf("Send did not stamp the transmittal: %v", sent)
	}

	// The item keeps its revision snapshot after the drawing moves on.
	w = testutil.DoRequest(r, "POST", "/api/v1/drawings/"+drawingID+"/revisions", map[string]interface{}{
		"description": "Post-send change",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("AddRevision returned %d", w.Code)
	}
	w = testutil.DoRequest(r, "GET", "/api/v1/transmittals/"+id, nil, token)
	got := testutil.ParseResponse(w)["data"].(map[string]interface{})
	items := got["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}
	item := items[0].(map[string]interface{})
	if item["revision_number"].(float64) != 1 {
		t.Errorf("Snapshot should stay at rev 1, got %v", item["revision_number"])
	}

	w = testutil.DoRequest(r, "POST", "/api/v1/transmittals/"+id+"/acknowledge", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Acknowledge returned %d: %s", w.Code, w.Body.String())
	}
}

func TestTransmittalStateErrorsOverHTTP(t *testing.T) {
	r := setupAPI(t)
	token := testutil.DefaultTestToken()

	drawing := createDrawing(t, r, token, map[string]interface{}{
		"drawing_number": "A-102", "title": "Second Floor Plan",
	})
	drawingID := drawing["id"].(string)

	created := createTransmittal(t, r, token, []map[string]interface{}{
		{"drawing_id": drawingID},
	})
	id := created["id"].(string)

	// Cancel the draft, then try to send it: 422.
	w := testutil.DoRequest(r, "POST", "/api/v1/transmittals/"+id+"/cancel", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Cancel returned %d", w.Code)
	}
	w = testutil.DoRequest(r, "POST", "/api/v1/transmittals/"+id+"/send", nil, token)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Sending a cancelled transmittal should return 422, got %d: %s", w.Code, w.Body.String())
	}

	// Empty item list: 400.
	w = testutil.DoRequest(r, "POST", "/api/v1/projects/proj-001/transmittals", map[string]interface{}{
		"recipient_name": "GC Partners",
		"items":          []map[string]interface{}{},
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Empty items should return 400, got %d", w.Code)
	}

	// Archived drawing on a new transmittal: 422.
	w = testutil.DoRequest(r, "POST", "/api/v1/drawings/"+drawingID+"/archive", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Archive returned %d", w.Code)
	}
	w = testutil.DoRequest(r, "POST", "/api/v1/projects/proj-001/transmittals", map[string]interface{}{
		"recipient_name": "GC Partners",
		"items":          []map[string]interface{}{{"drawing_id": drawingID}},
	}, token)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Archived drawing should return 422, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/transmittals/no-such-id", nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Unknown transmittal should return 404, got %d", w.Code)
	}
}

func TestTransmittalListOverHTTP(t *testing.T) {
	r := setupAPI(t)
	token := testutil.DefaultTestToken()

	drawing := createDrawing(t, r, token, map[string]interface{}{
		"drawing_number": "A-103", "title": "Detail Sheet",
	})
	drawingID := drawing["id"].(string)

	first := createTransmittal(t, r, token, []map[string]interface{}{{"drawing_id": drawingID}})
	createTransmittal(t, r, token, []map[string]interface{}{{"drawing_id": drawingID}})
	if w := testutil.DoRequest(r, "POST", "/api/v1/transmittals/"+first["id"].(string)+"/send", nil, token); w.Code != http.StatusOK {
		t.Fatalf("Send returned %d", w.Code)
	}

	w := testutil.DoRequest(r, "GET", "/api/v1/projects/proj-001/transmittals", nil, token)
	all := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if all["total"].(float64) != 2 {
		t.Errorf("Expected 2 transmittals, got %v", all["total"])
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/projects/proj-001/transmittals?status=draft", nil, token)
	drafts := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if drafts["total"].(float64) != 1 {
		t.Errorf("Expected 1 draft, got %v", drafts["total"])
	}

	// date_to is inclusive of the whole day: a transmittal sent earlier today
	// must match date_to=today.
	today := time.Now().Format("2006-01-02")
	w = testutil.DoRequest(r, "GET", "/api/v1/projects/proj-001/transmittals?date_to="+today, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("List returned %d", w.Code)
	}
	toToday := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if toToday["total"].(float64) != 2 {
		t.Errorf("date_to=today should include today's transmittals, got %v", toToday["total"])
	}

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	w = testutil.DoRequest(r, "GET", "/api/v1/projects/proj-001/transmittals?date_from="+tomorrow, nil, token)
	fromTomorrow := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if fromTomorrow["total"].(float64) != 0 {
		t.Errorf("date_from=tomorrow should match nothing, got %v", fromTomorrow["total"])
	}

	w = testutil.DoRequest(r, "GET", "/api/v1/projects/proj-001/transmittals?date_from=bogus", nil, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Bad date filter should return 400, got %d", w.Code)
	}
}
