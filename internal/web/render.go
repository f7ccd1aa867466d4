package web

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/ops"
	"github.com/hpungsan/pillbox/internal/settings"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title    string
	Version  string
	Nav      string // active nav item: "today", "medications", "history", "settings"
	Settings settings.Settings
}

// BodyClass derives the CSS classes that apply the stored display
// preferences.
func (p PageData) BodyClass() string {
	classes := []string{"text-" + p.Settings.TextSize}
	if p.Settings.HighContrast {
		classes = append(classes, "high-contrast")
	}
	return strings.Join(classes, " ")
}

// TodayPageData is the template data for the today view.
type TodayPageData struct {
	PageData
	Day    string
	Groups []ops.DueGroup
}

// MedicationsPageData is the template data for the medication list page.
type MedicationsPageData struct {
	PageData
	Items []ops.MedicationItem
	All   bool
}

// DetailPageData is the template data for the medication detail page.
type DetailPageData struct {
	PageData
	Medication ops.MedicationItem
	NotesHTML  template.HTML
}

// HistoryPageData is the template data for the history page.
type HistoryPageData struct {
	PageData
	Entries      []ops.HistoryEntry
	Pagination   ops.Pagination
	MedicationID string
	Day          string
	Action       string
}

// SettingsPageData is the template data for the settings page.
type SettingsPageData struct {
	PageData
	Saved bool
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string) *Renderer {
	funcMap := template.FuncMap{
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
		"formatTime": formatTime,
		"formatNano": formatNano,
	}

	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"today":       "today.html",
		"medications": "medications.html",
		"detail":      "detail.html",
		"history":     "history.html",
		"settings":    "settings.html",
		"error":       "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and
// HTTP status code.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		log.Printf("template %q not found", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("template execution error: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	var pErr *errors.PillboxError
	if !stderrors.As(err, &pErr) {
		pErr = errors.NewInternal(err)
	}

	status := pErr.Status
	message := pErr.Message

	if strings.Contains(req.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"code":    string(pErr.Code),
				"message": message,
				"status":  status,
			},
		})
		return
	}

	r.renderPageStatus(w, status, "error", ErrorPageData{
		PageData: PageData{
			Title:    fmt.Sprintf("Error %d", status),
			Version:  r.version,
			Settings: settings.Default(),
		},
		StatusCode: status,
		Message:    message,
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts markdown text to HTML using goldmark.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatTime formats a Unix timestamp as "2006-01-02 15:04" local time.
func formatTime(unix int64) string {
	return time.Unix(unix, 0).Format("2006-01-02 15:04")
}

// formatNano formats a Unix nanosecond timestamp as "2006-01-02 15:04".
func formatNano(nanos int64) string {
	return time.Unix(0, nanos).Format("2006-01-02 15:04")
}
