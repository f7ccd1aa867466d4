package web

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/pillbox/internal/config"
	"github.com/hpungsan/pillbox/internal/db"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/ops"
	"github.com/hpungsan/pillbox/internal/settings"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// pageData builds the common template fields, loading current display
// preferences so theme changes apply on the next request.
func (h *Handlers) pageData(title, nav string) PageData {
	s, err := db.GetSettings(h.db)
	if err != nil {
		s = settings.Default()
	}
	return PageData{
		Title:    title,
		Version:  h.renderer.version,
		Nav:      nav,
		Settings: s,
	}
}

// HandleToday handles GET /today — the daily schedule view.
func (h *Handlers) HandleToday(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Due(h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "today", TodayPageData{
		PageData: h.pageData("Today", "today"),
		Day:      result.Day,
		Groups:   result.Groups,
	})
}

// HandleToggle handles POST /toggle — flip one dose slot for today.
func (h *Handlers) HandleToggle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	result, err := ops.Toggle(h.db, ops.ToggleInput{
		ID:   r.FormValue("id"),
		Time: r.FormValue("time"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/today", http.StatusFound)
}

// HandleResolve handles POST /resolve — mark a whole time group taken.
func (h *Handlers) HandleResolve(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	result, err := ops.Resolve(h.db, ops.ResolveInput{Time: r.FormValue("time")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/today", http.StatusFound)
}

// HandleMedications handles GET /medications — the medication list.
func (h *Handlers) HandleMedications(w http.ResponseWriter, r *http.Request) {
	all := parseBoolParam(r, "all")

	result, err := ops.List(h.db, ops.ListInput{All: all})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "medications", MedicationsPageData{
		PageData: h.pageData("Medications", "medications"),
		Items:    result.Items,
		All:      all,
	})
}

// HandleMedicationDetail handles GET /medications/{id} — one medication,
// with markdown notes rendered to HTML.
func (h *Handlers) HandleMedicationDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("medication ID is required"))
		return
	}

	m, err := db.GetMedication(h.db, id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if m == nil {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	item := ops.MedicationItem{
		ID:        m.ID,
		Name:      m.Name,
		Dosage:    m.Dosage,
		Times:     m.Times,
		Notes:     m.Notes,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData:   h.pageData(m.Name, "medications"),
		Medication: item,
		NotesHTML:  renderMarkdown(m.Notes),
	})
}

// HandleHistory handles GET /history — the action log.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	input := ops.HistoryInput{
		MedicationID: r.URL.Query().Get("medication_id"),
		Day:          r.URL.Query().Get("day"),
		Action:       r.URL.Query().Get("action"),
		Limit:        parseIntParam(r, "limit", ops.DefaultHistoryLimit),
		Offset:       parseIntParam(r, "offset", 0),
	}

	result, err := ops.History(h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "history", HistoryPageData{
		PageData:     h.pageData("History", "history"),
		Entries:      result.Entries,
		Pagination:   result.Pagination,
		MedicationID: input.MedicationID,
		Day:          input.Day,
		Action:       input.Action,
	})
}

// HandleSettings handles GET /settings — the preferences form.
func (h *Handlers) HandleSettings(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, "settings", SettingsPageData{
		PageData: h.pageData("Settings", "settings"),
		Saved:    parseBoolParam(r, "saved"),
	})
}

// HandleSettingsSave handles POST /settings. Checkbox forms post only the
// checked boxes, so every toggle is set explicitly from form presence.
func (h *Handlers) HandleSettingsSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	sound := r.FormValue("sound") == "on"
	vibration := r.FormValue("vibration") == "on"
	highContrast := r.FormValue("high_contrast") == "on"
	textSize := r.FormValue("text_size")

	result, err := ops.SetSettings(h.db, ops.SetSettingsInput{
		Sound:        &sound,
		Vibration:    &vibration,
		HighContrast: &highContrast,
		TextSize:     &textSize,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/settings?saved=1", http.StatusFound)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
