// Package web holds the embedded HTML templates and static assets.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"math"
	"net/http"
	"time"

	"github.com/gymwatch/gymwatch/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names accepted by Render.
const (
	PageStatus = "status.html"
	PageManage = "manage.html"
	PageLogin  = "login.html"
)

// ClockFormat is the display format for session times.
const ClockFormat = "3:04 PM"

// DayFormat is the display format for session dates.
const DayFormat = "January 2, 2006"

// DateTimeLocalFormat is the value format of an HTML datetime-local input.
const DateTimeLocalFormat = "2006-01-02T15:04"

var pages = []string{PageStatus, PageManage, PageLogin}

// Renderer executes the layout with one page template.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses every page against the shared layout.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"clock":         Clock,
		"day":           func(t time.Time) string { return t.In(time.Local).Format(DayFormat) },
		"datetimeLocal": func(t time.Time) string { return t.In(time.Local).Format(DateTimeLocalFormat) },
		"minutes":       Minutes,
		"isToday":       IsToday,
		"isActive":      IsActive,
	}

	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.templates[page] = tpl
	}
	return r, nil
}

// Render writes page with the given status. The page is executed into a
// buffer first so template errors never produce half a document.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	tpl, ok := r.templates[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded assets. Mount it under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// Clock formats t as a local wall-clock time, e.g. "3:04 PM".
func Clock(t time.Time) string {
	return t.In(time.Local).Format(ClockFormat)
}

// Minutes rounds d to the nearest whole minute.
func Minutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}

// IsToday reports whether t falls on now's local calendar day.
func IsToday(t, now time.Time) bool {
	ty, tm, td := t.In(time.Local).Date()
	ny, nm, nd := now.In(time.Local).Date()
	return ty == ny && tm == nm && td == nd
}

// IsActive reports whether s contains now.
func IsActive(s *model.Session, now time.Time) bool {
	return s != nil && s.Contains(now)
}

// ParseDateTimeLocal parses a datetime-local form value in the host's zone.
func ParseDateTimeLocal(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(DateTimeLocalFormat, value, time.Local)
	if err != nil {
		// Some browsers submit seconds.
		return time.ParseInLocation(DateTimeLocalFormat+":05", value, time.Local)
	}
	return t, nil
}
