package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gymwatch/gymwatch/internal/model"
)

func TestNewRenderer_ParsesAllPages(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	for _, page := range pages {
		if _, ok := r.templates[page]; !ok {
			t.Errorf("page %s not parsed", page)
		}
	}
}

func TestRender_UnknownPage(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	rec := httptest.NewRecorder()
	if err := r.Render(rec, http.StatusOK, "missing.html", nil); err == nil {
		t.Fatal("expected error for unknown page")
	}
	if rec.Body.Len() != 0 {
		t.Error("nothing should be written for an unknown page")
	}
}

func TestRender_LoginEscapesInput(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	rec := httptest.NewRecorder()
	data := map[string]any{
		"Title":     "Login",
		"CSRFToken": "tok",
		"Email":     `"><script>alert(1)</script>`,
		"Error":     "Invalid email or password",
		"Next":      "/manage",
	}
	if err := r.Render(rec, http.StatusUnauthorized, PageLogin, data); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("email was not escaped")
	}
	if !strings.Contains(body, "Invalid email or password") {
		t.Error("error message missing")
	}
	if !strings.Contains(body, `value="tok"`) {
		t.Error("csrf token missing")
	}
}

func TestStatic_ServesAssets(t *testing.T) {
	t.Parallel()

	h := Static()
	for _, path := range []string{"/static/app.css", "/static/status.js", "/static/manage.js"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestClock(t *testing.T) {
	t.Parallel()

	got := Clock(time.Date(2024, 1, 1, 15, 4, 0, 0, time.Local))
	if got != "3:04 PM" {
		t.Errorf("Clock = %q, want 3:04 PM", got)
	}
}

func TestParseDateTimeLocal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2024-01-01T09:30", time.Date(2024, 1, 1, 9, 30, 0, 0, time.Local), false},
		{"2024-01-01T09:30:15", time.Date(2024, 1, 1, 9, 30, 15, 0, time.Local), false},
		{"", time.Time{}, false},
		{"yesterday", time.Time{}, true},
	}

	for _, tt := range tests {
		got, err := ParseDateTimeLocal(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDateTimeLocal(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !got.Equal(tt.want) {
			t.Errorf("ParseDateTimeLocal(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want int
	}{
		{90 * time.Minute, 90},
		{59*time.Minute + 45*time.Second, 60},
		{59*time.Minute + 29*time.Second, 59},
		{0, 0},
	}

	for _, tt := range tests {
		if got := Minutes(tt.in); got != tt.want {
			t.Errorf("Minutes(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestIsToday(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"start of day", time.Date(2024, 3, 10, 0, 0, 0, 0, time.Local), true},
		{"end of day", time.Date(2024, 3, 10, 23, 59, 59, 0, time.Local), true},
		{"yesterday", time.Date(2024, 3, 9, 23, 59, 0, 0, time.Local), false},
		{"tomorrow", time.Date(2024, 3, 11, 0, 0, 0, 0, time.Local), false},
		{"same day last year", time.Date(2023, 3, 10, 12, 0, 0, 0, time.Local), false},
	}

	for _, tt := range tests {
		if got := IsToday(tt.t, now); got != tt.want {
			t.Errorf("%s: IsToday = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsActive(t *testing.T) {
	t.Parallel()

	s := &model.Session{
		StartTime: time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local),
		EndTime:   time.Date(2024, 3, 10, 11, 0, 0, 0, time.Local),
	}

	if !IsActive(s, s.StartTime) || !IsActive(s, s.EndTime) {
		t.Error("bounds should be active")
	}
	if IsActive(s, s.EndTime.Add(time.Second)) {
		t.Error("after end should not be active")
	}
	if IsActive(nil, s.StartTime) {
		t.Error("nil session should not be active")
	}
}

type manageStatus struct {
	Current          *model.Session
	RemainingMinutes *int
	Danger           bool
}

type manageData struct {
	Title      string
	CSRFToken  string
	Email      string
	Status     manageStatus
	Sessions   []*model.Session
	Now        time.Time
	StartValue string
	EndValue   string
	Error      string
}

func TestRender_ManageMarksTodayAndActive(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	now := time.Date(2024, 3, 10, 10, 0, 0, 0, time.Local)
	active := &model.Session{ID: "active", StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)}
	later := &model.Session{ID: "later", StartTime: now.Add(4 * time.Hour), EndTime: now.Add(4*time.Hour + 45*time.Minute)}
	past := &model.Session{ID: "past", StartTime: now.AddDate(0, 0, -3), EndTime: now.AddDate(0, 0, -3).Add(59*time.Minute + 45*time.Second)}
	remaining := 60

	rec := httptest.NewRecorder()
	data := manageData{
		Title:    "Manage Schedule",
		Status:   manageStatus{Current: active, RemainingMinutes: &remaining},
		Sessions: []*model.Session{later, active, past},
		Now:      now,
	}
	if err := r.Render(rec, http.StatusOK, PageManage, data); err != nil {
		t.Fatalf("Render: %v", err)
	}
	body := rec.Body.String()

	if n := strings.Count(body, `<span class="chip">Today</span>`); n != 2 {
		t.Errorf("Today markers = %d, want 2", n)
	}
	if n := strings.Count(body, "Currently active"); n != 1 {
		t.Errorf("Currently active markers = %d, want 1", n)
	}
	if !strings.Contains(body, "March 10, 2024") || !strings.Contains(body, "March 7, 2024") {
		t.Error("session dates should include the year")
	}
	if !strings.Contains(body, "60 min") {
		t.Error("a 59m45s session should round to 60 min")
	}
	if !strings.Contains(body, `data-endpoint="/api/v1/status">`) {
		t.Error("current session banner should be visible")
	}
}

func TestManageScript_PollsStatus(t *testing.T) {
	t.Parallel()

	src, err := staticFS.ReadFile("static/manage.js")
	if err != nil {
		t.Fatalf("read manage.js: %v", err)
	}
	for _, want := range []string{`getElementById("current")`, "data-endpoint", "intervalMs = 60000", "setInterval(refresh, intervalMs)"} {
		if !strings.Contains(string(src), want) {
			t.Errorf("manage.js missing %q", want)
		}
	}
}
