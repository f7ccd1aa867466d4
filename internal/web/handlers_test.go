package web

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hpungsan/pillbox/internal/config"
	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/ops"
)

func testServer(t *testing.T) (*sql.DB, http.Handler) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	srv := NewServer(database, config.DefaultConfig(), "test", "127.0.0.1", 0)
	return database, srv.Handler
}

func addMed(t *testing.T, database *sql.DB, name, notes string, times ...string) string {
	t.Helper()
	out, err := ops.Add(database, ops.AddInput{Name: name, Dosage: "81mg", Times: times, Notes: notes})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	return out.ID
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, handler http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleRoot_Redirects(t *testing.T) {
	_, handler := testServer(t)

	rec := get(t, handler, "/")
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/today" {
		t.Errorf("Location = %q, want /today", loc)
	}
}

func TestHandleToday(t *testing.T) {
	database, handler := testServer(t)
	addMed(t, database, "Aspirin", "", "08:00", "20:00")

	rec := get(t, handler, "/today")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Aspirin") {
		t.Error("medication name missing from today view")
	}
	if !strings.Contains(body, "08:00") || !strings.Contains(body, "20:00") {
		t.Error("time groups missing from today view")
	}
}

func TestHandleToggle(t *testing.T) {
	database, handler := testServer(t)
	id := addMed(t, database, "Aspirin", "", "08:00")

	rec := postForm(t, handler, "/toggle", url.Values{"id": {id}, "time": {"08:00"}})
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}

	status, err := ops.Status(database, ops.StatusInput{ID: id, Time: "08:00"})
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Status != ops.StatusTaken {
		t.Errorf("status = %q after toggle, want taken", status.Status)
	}
}

func TestHandleResolve(t *testing.T) {
	database, handler := testServer(t)
	a := addMed(t, database, "Aspirin", "", "08:00")
	b := addMed(t, database, "Metformin", "", "08:00")

	rec := postForm(t, handler, "/resolve", url.Values{"time": {"08:00"}})
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}

	for _, id := range []string{a, b} {
		status, err := ops.Status(database, ops.StatusInput{ID: id, Time: "08:00"})
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if status.Status != ops.StatusTaken {
			t.Errorf("status(%s) = %q, want taken", id, status.Status)
		}
	}
}

func TestHandleMedicationDetail_RendersMarkdown(t *testing.T) {
	database, handler := testServer(t)
	id := addMed(t, database, "Aspirin", "Take **with food**.", "08:00")

	rec := get(t, handler, "/medications/"+id)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<strong>with food</strong>") {
		t.Error("markdown notes not rendered to HTML")
	}
}

func TestHandleMedicationDetail_NotFound(t *testing.T) {
	_, handler := testServer(t)

	rec := get(t, handler, "/medications/nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleHistory(t *testing.T) {
	database, handler := testServer(t)
	id := addMed(t, database, "Aspirin", "", "08:00")
	if _, err := ops.Record(database, ops.RecordInput{ID: id, Time: "08:00", Action: "taken"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	rec := get(t, handler, "/history")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Aspirin") {
		t.Error("entry missing from history view")
	}
}

func TestHandleSettingsSave(t *testing.T) {
	database, handler := testServer(t)

	rec := postForm(t, handler, "/settings", url.Values{
		"high_contrast": {"on"},
		"text_size":     {"large"},
	})
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}

	s, err := db.GetSettings(database)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if !s.HighContrast || s.TextSize != "large" {
		t.Errorf("settings = %+v", s)
	}
	// Unchecked boxes come through as off
	if s.Sound || s.Vibration {
		t.Errorf("settings = %+v, want sound/vibration off", s)
	}

	// The saved theme shows up on the next page load
	body := get(t, handler, "/today").Body.String()
	if !strings.Contains(body, "high-contrast") || !strings.Contains(body, "text-large") {
		t.Error("body classes missing saved preferences")
	}
}

func TestErrorNegotiation_JSON(t *testing.T) {
	_, handler := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/toggle", strings.NewReader("id=nope&time=08:00"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "NOT_FOUND") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	_, handler := testServer(t)

	rec := get(t, handler, "/today")
	for _, header := range []string{"Content-Security-Policy", "X-Content-Type-Options", "X-Frame-Options"} {
		if rec.Header().Get(header) == "" {
			t.Errorf("%s header missing", header)
		}
	}
}
