// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package web

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/marketpanel/internal/auth"
	"github.com/tomtom215/marketpanel/internal/panel"
	"github.com/tomtom215/marketpanel/internal/websocket"
)

const testJWTSecret = "test_secret_with_at_least_32_characters_long"

type panelServer struct {
	api       *fakeAPI
	panel     *Panel
	router    chi.Router
	admin     *http.Cookie
	userToken string
}

func newPanelServer(t *testing.T, hub *websocket.Hub) *panelServer {
	t.Helper()
	manager, err := auth.NewJWTManager(testJWTSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	adminToken, _ := manager.GenerateToken("panel-admin", auth.RoleAdmin)
	userToken, _ := manager.GenerateToken("viewer", "user")

	s := newPanelServerWith(t, hub, auth.NewMiddleware(manager))
	s.admin = &http.Cookie{Name: auth.AdminCookie, Value: adminToken}
	s.userToken = userToken
	return s
}

func newPanelServerWith(t *testing.T, hub *websocket.Hub, authz Authorizer) *panelServer {
	t.Helper()
	api := newFakeAPI()
	p, err := New(api, hub, Config{SessionTTL: time.Hour, Auth: authz})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r := chi.NewRouter()
	p.Routes(r)
	return &panelServer{api: api, panel: p, router: r}
}

// do sends a request with the given cookies; nil cookies are skipped.
func (s *panelServer) do(t *testing.T, method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestPanel_ChartPages(t *testing.T) {
	t.Parallel()
	s := newPanelServer(t, nil)

	tests := []struct {
		path  string
		title string
	}{
		{"/static/index.html", "Bar chart"},
		{"/static/line.html", "Line chart"},
	}
	for _, tt := range tests {
		rec := s.do(t, http.MethodGet, tt.path, nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tt.path, rec.Code)
		}
		body := rec.Body.String()
		for _, want := range []string{tt.title, "<svg", "Europe", `id="content">`} {
			if !strings.Contains(body, want) {
				t.Errorf("%s: body missing %q", tt.path, want)
			}
		}
		if !strings.Contains(body, "disabled") {
			t.Errorf("%s: chart page list should be read-only", tt.path)
		}
		sessionCookie(t, rec)
	}
}

func TestPanel_ChartPageError(t *testing.T) {
	t.Parallel()
	s := newPanelServer(t, nil)
	s.api.chartErr = errors.New("api returned status 502")

	rec := s.do(t, http.MethodGet, "/static/index.html", nil, nil)
	body := rec.Body.String()

	if !strings.Contains(body, `class="snackbar error">api returned status 502`) {
		t.Error("error flash missing")
	}
	if !strings.Contains(body, `id="content" class="hidden"`) {
		t.Error("content region should be hidden")
	}
	if strings.Contains(body, "<svg") {
		t.Error("no chart expected")
	}
}

func TestPanel_SettingsFlow(t *testing.T) {
	t.Parallel()
	s := newPanelServer(t, nil)

	// First visit loads the default installation.
	rec := s.do(t, http.MethodGet, "/static/settings.html", nil, nil)
	cookie := sessionCookie(t, rec)
	body := rec.Body.String()
	if !strings.Contains(body, `value="MP-1" id="mp-MP-1" checked`) {
		t.Errorf("MP-1 should be checked:\n%s", body)
	}
	if strings.Contains(body, `value="MP-2" id="mp-MP-2" checked`) {
		t.Error("MP-2 should not be checked")
	}

	// Switching installation rebinds the save action.
	rec = s.do(t, http.MethodGet, "/static/settings.html?installation=42", nil, cookie, s.admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin switch status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "checked") {
		t.Error("installation 42 has no selection yet")
	}

	rec = s.do(t, http.MethodPost, "/static/settings.html", url.Values{"marketplace": {"MP-2"}}, cookie, s.admin)
	body = rec.Body.String()
	if !strings.Contains(body, panel.SettingsSavedMessage) {
		t.Errorf("saved flash missing:\n%s", body)
	}
	if !strings.Contains(body, `value="MP-2" id="mp-MP-2" checked`) {
		t.Error("MP-2 should stay checked after saving")
	}
	if got := s.api.stored("42"); len(got) != 1 || got[0] != "MP-2" {
		t.Errorf("stored(42) = %v", got)
	}
	if got := s.api.stored(""); len(got) != 1 || got[0] != "MP-1" {
		t.Errorf("default installation changed: %v", got)
	}
}

func TestPanel_SaveFailureKeepsSelection(t *testing.T) {
	t.Parallel()
	s := newPanelServer(t, nil)
	s.api.updateErr = errors.New("api returned status 500")

	cookie := sessionCookie(t, s.do(t, http.MethodGet, "/static/settings.html", nil, nil))
	rec := s.do(t, http.MethodPost, "/static/settings.html", url.Values{"marketplace": {"MP-1", "MP-2"}}, cookie)
	body := rec.Body.String()

	if !strings.Contains(body, `class="snackbar error">api returned status 500`) {
		t.Errorf("error flash missing:\n%s", body)
	}
	if !strings.Contains(body, `value="MP-2" id="mp-MP-2" checked`) {
		t.Error("user selection should survive a failed save")
	}
	if !strings.Contains(body, ">Save</button>") {
		t.Error("save button should be re-enabled")
	}
}

func TestPanel_SaveWithoutContext(t *testing.T) {
	t.Parallel()
	s := newPanelServer(t, nil)

	rec := s.do(t, http.MethodPost, "/static/settings.html", url.Values{"marketplace": {"MP-1"}}, nil)
	if !strings.Contains(rec.Body.String(), "No installation loaded yet") {
		t.Error("not-bound flash missing")
	}
	if s.api.updates != 0 {
		t.Error("nothing should be saved")
	}
}

func TestPanel_SessionReuse(t *testing.T) {
	t.Parallel()
	s := newPanelServer(t, nil)

	rec := s.do(t, http.MethodGet, "/static/settings.html", nil, nil)
	cookie := sessionCookie(t, rec)

	rec = s.do(t, http.MethodGet, "/static/settings.html", nil, cookie)
	if c := sessionCookie(t, rec); c.Value != cookie.Value {
		t.Error("existing session should not be replaced")
	}
	if s.panel.Sessions().Cache().Len() != 1 {
		t.Errorf("sessions = %d, want 1", s.panel.Sessions().Cache().Len())
	}

	// An unknown cookie gets a fresh session.
	rec = s.do(t, http.MethodGet, "/static/settings.html", nil, &http.Cookie{Name: SessionCookie, Value: "stale"})
	if c := sessionCookie(t, rec); c.Value == "stale" {
		t.Error("stale cookie reused")
	}
}

func TestPanel_WebSocketRequiresSession(t *testing.T) {
	t.Parallel()
	s := newPanelServer(t, websocket.NewHub())

	rec := s.do(t, http.MethodGet, "/ws", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestPanel_RootRedirect(t *testing.T) {
	t.Parallel()
	s := newPanelServer(t, nil)

	rec := s.do(t, http.MethodGet, "/", nil, nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/static/index.html" {
		t.Errorf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestPanel_SessionCookieSlides(t *testing.T) {
	t.Parallel()
	s := newPanelServer(t, nil)

	cookie := sessionCookie(t, s.do(t, http.MethodGet, "/static/index.html", nil))

	// Every visit re-issues the cookie with a full lifetime, so an active
	// user keeps the session past the first MaxAge.
	for _, path := range []string{"/static/line.html", "/static/settings.html"} {
		c := sessionCookie(t, s.do(t, http.MethodGet, path, nil, cookie))
		if c.Value != cookie.Value {
			t.Errorf("%s: session id changed", path)
		}
		if c.MaxAge != int(time.Hour.Seconds()) {
			t.Errorf("%s: MaxAge = %d, want %d", path, c.MaxAge, int(time.Hour.Seconds()))
		}
		if !c.HttpOnly {
			t.Errorf("%s: cookie should stay HttpOnly", path)
		}
	}
}

func TestPanel_AnonymousCannotOpenOtherInstallation(t *testing.T) {
	t.Parallel()
	s := newPanelServer(t, nil)

	rec := s.do(t, http.MethodGet, "/static/settings.html?installation=victim", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	want := "/static/login.html?next=" + url.QueryEscape("/static/settings.html?installation=victim")
	if got := rec.Header().Get("Location"); got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
	cookie := sessionCookie(t, rec)

	rec = s.do(t, http.MethodPost, "/static/settings.html", url.Values{"marketplace": {"MP-2"}}, cookie)
	if strings.Contains(rec.Body.String(), panel.SettingsSavedMessage) {
		t.Error("anonymous post reported a save")
	}
	if got := s.api.stored("victim"); len(got) != 0 {
		t.Errorf("stored(victim) = %v, want untouched", got)
	}
	if s.api.updates != 0 {
		t.Errorf("updates = %d, want 0", s.api.updates)
	}

	// A non-admin bearer header is not enough either.
	req := httptest.NewRequest(http.MethodGet, "/static/settings.html?installation=victim", nil)
	req.Header.Set("Authorization", "Bearer "+s.userToken)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("non-admin status = %d, want 303", rec.Code)
	}
}

func TestPanel_SaveOfOtherInstallationNeedsAdmin(t *testing.T) {
	t.Parallel()
	s := newPanelServer(t, nil)

	rec := s.do(t, http.MethodGet, "/static/settings.html?installation=victim", nil, s.admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d", rec.Code)
	}
	cookie := sessionCookie(t, rec)

	// The session stays bound to victim, but the admin cookie is gone.
	rec = s.do(t, http.MethodPost, "/static/settings.html", url.Values{"marketplace": {"MP-2"}}, cookie)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if got := s.api.stored("victim"); len(got) != 0 {
		t.Errorf("stored(victim) = %v, want untouched", got)
	}

	rec = s.do(t, http.MethodGet, "/static/settings.html", nil, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("reload without admin status = %d, want 303", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/static/settings.html", url.Values{"marketplace": {"MP-2"}}, cookie, s.admin)
	if got := s.api.stored("victim"); len(got) != 1 || got[0] != "MP-2" {
		t.Errorf("admin save: stored(victim) = %v, status %d", got, rec.Code)
	}
}

func TestPanel_Login(t *testing.T) {
	t.Parallel()
	s := newPanelServer(t, nil)

	tests := []struct {
		name         string
		token        string
		next         string
		wantStatus   int
		wantLocation string
	}{
		{name: "admin", token: s.admin.Value, next: "/static/settings.html?installation=42", wantStatus: http.StatusSeeOther, wantLocation: "/static/settings.html?installation=42"},
		{name: "no next", token: s.admin.Value, wantStatus: http.StatusSeeOther, wantLocation: "/static/settings.html"},
		{name: "offsite next", token: s.admin.Value, next: "//evil.example/static/", wantStatus: http.StatusSeeOther, wantLocation: "/static/settings.html"},
		{name: "absolute next", token: s.admin.Value, next: "https://evil.example/static/x", wantStatus: http.StatusSeeOther, wantLocation: "/static/settings.html"},
		{name: "non admin", token: s.userToken, wantStatus: http.StatusUnauthorized},
		{name: "garbage", token: "nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := s.do(t, http.MethodPost, "/static/login.html", url.Values{"token": {tt.token}, "next": {tt.next}})
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var admin *http.Cookie
			for _, c := range rec.Result().Cookies() {
				if c.Name == auth.AdminCookie {
					admin = c
				}
			}
			if tt.wantStatus != http.StatusSeeOther {
				if admin != nil {
					t.Error("rejected sign-in set the admin cookie")
				}
				if !strings.Contains(rec.Body.String(), "Invalid admin token") {
					t.Error("error flash missing")
				}
				return
			}
			if got := rec.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
			if admin == nil || admin.Value != tt.token || !admin.HttpOnly || admin.SameSite != http.SameSiteStrictMode {
				t.Errorf("admin cookie = %+v", admin)
			}
		})
	}
}

func TestPanel_LoginPageAndLogout(t *testing.T) {
	t.Parallel()
	s := newPanelServer(t, nil)

	rec := s.do(t, http.MethodGet, "/static/login.html?next=%2Fstatic%2Fline.html", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`name="next" value="/static/line.html"`, `type="password" name="token"`} {
		if !strings.Contains(body, want) {
			t.Errorf("login page missing %q", want)
		}
	}

	rec = s.do(t, http.MethodPost, "/static/logout.html", nil, s.admin)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("logout status = %d", rec.Code)
	}
	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.AdminCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("admin cookie not cleared")
	}
}

func TestPanel_WithoutAuthorizerOnlyDefault(t *testing.T) {
	t.Parallel()
	s := newPanelServerWith(t, nil, nil)

	rec := s.do(t, http.MethodGet, "/static/settings.html?installation=42", nil)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/static/settings.html", nil); rec.Code != http.StatusOK {
		t.Errorf("default installation status = %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/static/login.html", url.Values{"token": {"anything"}})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("login status = %d, want 503", rec.Code)
	}
}
