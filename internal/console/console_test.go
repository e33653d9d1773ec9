package console

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu        sync.Mutex
	tokens    map[string]bool
	companies []map[string]any
	nextID    int64
	accessLog [][2]int64
	meGate    chan struct{}
	forbidden bool
}

func newFakeAPI() *fakeAPI {
	api := &fakeAPI{tokens: map[string]bool{}, nextID: 1}
	for _, name := range []string{"Acme 01", "Birch 02", "Cobalt 03"} {
		api.companies = append(api.companies, map[string]any{
			"company_id":   api.nextID,
			"company_name": name,
			"tax_id":       "T" + name[len(name)-2:],
			"is_active":    true,
		})
		api.nextID++
	}
	return api
}

func reply(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func fail(w http.ResponseWriter, status int, msg string) {
	reply(w, status, map[string]any{"success": false, "msg": msg})
}

func (a *fakeAPI) signedIn(r *http.Request) bool {
	cookie, err := r.Cookie("session")
	if err != nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tokens[cookie.Value]
}

func (a *fakeAPI) revokeAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tokens = map[string]bool{}
}

func (a *fakeAPI) accessed() [][2]int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([][2]int64(nil), a.accessLog...)
}

func (a *fakeAPI) routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/users/login", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.Username != "alice" || body.Password != "s3cret-pass" {
				fail(w, http.StatusUnauthorized, "Invalid username or password")
				return
			}
			a.mu.Lock()
			token := "tok-" + time.Now().Format("150405.000000000")
			a.tokens[token] = true
			a.mu.Unlock()
			http.SetCookie(w, &http.Cookie{Name: "session", Value: token, Path: "/", HttpOnly: true})
			reply(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": 7}})
		})
		r.Post("/users/logout", func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie("session"); err == nil {
				a.mu.Lock()
				delete(a.tokens, cookie.Value)
				a.mu.Unlock()
			}
			reply(w, http.StatusOK, map[string]any{"success": true})
		})
		r.Post("/users/password-reset/confirm", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Username    string `json:"username"`
				NewPassword string `json:"newPassword"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.Username != "bob" {
				fail(w, http.StatusForbidden, "Password reset is not allowed for this account")
				return
			}
			reply(w, http.StatusOK, map[string]any{"success": true})
		})
		r.Get("/users/me", func(w http.ResponseWriter, r *http.Request) {
			if a.meGate != nil {
				<-a.meGate
			}
			if !a.signedIn(r) {
				fail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			reply(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
				"id": 7, "username": "alice", "name": "Alice Admin", "role": "admin",
			}})
		})
		r.Get("/acceso/{userID}", func(w http.ResponseWriter, r *http.Request) {
			if !a.signedIn(r) {
				fail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			reply(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]any{
				{"option_id": 1, "label": "Dashboard", "path": "/", "icon": "home"},
				{"option_id": 2, "label": "Catalogs", "icon": "folder", "children": []map[string]any{
					{"option_id": 3, "label": "Companies", "path": "/manage/companies", "icon": "building"},
				}},
			}})
		})
		r.Post("/log-acceso", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				UserID   int64 `json:"userId"`
				OptionID int64 `json:"optionId"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			a.mu.Lock()
			a.accessLog = append(a.accessLog, [2]int64{body.UserID, body.OptionID})
			a.mu.Unlock()
			reply(w, http.StatusCreated, map[string]any{"success": true})
		})
		r.Get("/companies", func(w http.ResponseWriter, r *http.Request) {
			if !a.signedIn(r) {
				fail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			a.mu.Lock()
			defer a.mu.Unlock()
			if a.forbidden {
				fail(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			reply(w, http.StatusOK, map[string]any{"success": true, "data": a.companies})
		})
		r.Post("/companies", func(w http.ResponseWriter, r *http.Request) {
			if !a.signedIn(r) {
				fail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			a.mu.Lock()
			body["company_id"] = a.nextID
			a.nextID++
			a.companies = append(a.companies, body)
			a.mu.Unlock()
			reply(w, http.StatusCreated, map[string]any{"success": true, "data": body})
		})
	})
	return r
}

type harness struct {
	api      *fakeAPI
	registry *Registry
	url      string
	browser  *http.Client
}

func newHarness(t *testing.T, api *fakeAPI) *harness {
	t.Helper()

	backendSrv := httptest.NewServer(api.routes())
	t.Cleanup(backendSrv.Close)

	registry := NewRegistry(RegistryOptions{
		BackendURL:     backendSrv.URL + "/api",
		BackendTimeout: 2 * time.Second,
		LoginRPM:       5,
	})
	srv, err := NewServer(registry, Options{})
	require.NoError(t, err)

	consoleSrv := httptest.NewServer(srv.Routes())
	t.Cleanup(consoleSrv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &harness{
		api:      api,
		registry: registry,
		url:      consoleSrv.URL,
		browser: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (h *harness) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()

	resp, err := h.browser.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (h *harness) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, h.url+path, nil)
	require.NoError(t, err)
	return h.do(t, req)
}

func (h *harness) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, h.url+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(t, req)
}

// open visits the login page so the browser gets a workspace, then waits for
// its bootstrap to settle.
func (h *harness) open(t *testing.T) *Workspace {
	t.Helper()

	resp, _ := h.get(t, "/login")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	h.registry.Wait()

	u, err := url.Parse(h.url)
	require.NoError(t, err)
	for _, c := range h.browser.Jar.Cookies(u) {
		if c.Name == "console" {
			ws, ok := h.registry.Get(c.Value)
			require.True(t, ok)
			return ws
		}
	}
	t.Fatal("workspace cookie not set")
	return nil
}

func (h *harness) signIn(t *testing.T, next string) {
	t.Helper()

	resp, _ := h.post(t, "/login", url.Values{"username": {"alice"}, "password": {"s3cret-pass"}, "next": {next}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, next, resp.Header.Get("Location"))
}

func TestGuardAndLogin(t *testing.T) {
	h := newHarness(t, newFakeAPI())
	h.open(t)

	resp, _ := h.get(t, "/manage/companies")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login?next=%2Fmanage%2Fcompanies", resp.Header.Get("Location"))

	resp, body := h.post(t, "/login", url.Values{"username": {"alice"}, "password": {"wrong-pass"}})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, body, "Invalid username or password")

	h.signIn(t, "/manage/companies")

	resp, body = h.get(t, "/manage/companies")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Acme 01")
	require.Contains(t, body, "Cobalt 03")
	require.Contains(t, body, "3 records")

	resp, body = h.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Welcome, Alice Admin")

	h.registry.Wait()
	require.ElementsMatch(t, [][2]int64{{7, 3}, {7, 1}}, h.api.accessed())

	resp, _ = h.post(t, "/logout", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = h.get(t, "/")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login?next=%2F", resp.Header.Get("Location"))
}

func TestLoadingPlaceholderWhileBootstrapping(t *testing.T) {
	api := newFakeAPI()
	api.meGate = make(chan struct{})
	h := newHarness(t, api)

	resp, body := h.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.Contains(t, body, `http-equiv="refresh"`)

	close(api.meGate)
	h.registry.Wait()

	resp, _ = h.get(t, "/")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestCreateFromListPage(t *testing.T) {
	h := newHarness(t, newFakeAPI())
	h.open(t)
	h.signIn(t, "/manage/companies")
	h.get(t, "/manage/companies")

	resp, _ := h.post(t, "/manage/companies/new", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = h.post(t, "/manage/companies/submit", url.Values{"name": {""}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body := h.get(t, "/manage/companies")
	require.Contains(t, body, "Please correct the highlighted fields.")
	require.Contains(t, body, "Name is required")

	resp, _ = h.post(t, "/manage/companies/submit", url.Values{"name": {"Globex"}, "tax_id": {"G-1"}, "active": {"true"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/manage/companies", resp.Header.Get("Location"))

	_, body = h.get(t, "/manage/companies")
	require.Contains(t, body, "Company created.")
	require.Contains(t, body, "Globex")
	require.Contains(t, body, "4 records")
	require.NotContains(t, body, `class="modal"`)
}

func TestListRefetchesWhenRevisited(t *testing.T) {
	h := newHarness(t, newFakeAPI())
	h.open(t)
	h.signIn(t, "/manage/companies")

	_, body := h.get(t, "/manage/companies")
	require.Contains(t, body, "3 records")

	h.api.mu.Lock()
	h.api.companies = append(h.api.companies, map[string]any{"company_id": int64(99), "company_name": "Dunmore 99"})
	h.api.mu.Unlock()

	h.get(t, "/")
	_, body = h.get(t, "/manage/companies")
	require.Contains(t, body, "Dunmore 99")
	require.Contains(t, body, "4 records")
}

func TestForbiddenKeepsListState(t *testing.T) {
	h := newHarness(t, newFakeAPI())
	h.open(t)
	h.signIn(t, "/manage/companies")
	h.get(t, "/manage/companies")

	resp, _ := h.post(t, "/manage/companies/filter", url.Values{"q": {"birch"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	h.api.mu.Lock()
	h.api.forbidden = true
	h.api.mu.Unlock()

	resp, body := h.post(t, "/manage/companies/refresh", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Contains(t, body, "Insufficient permissions")

	h.api.mu.Lock()
	h.api.forbidden = false
	h.api.mu.Unlock()

	resp, body = h.get(t, "/manage/companies")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `value="birch"`)
	require.Contains(t, body, "Birch 02")
	require.Contains(t, body, "1 record")
}

func TestRevokedSessionReturnsToLogin(t *testing.T) {
	h := newHarness(t, newFakeAPI())
	h.open(t)
	h.signIn(t, "/")

	h.api.revokeAll()

	resp, _ := h.get(t, "/manage/companies")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login?next=%2Fmanage%2Fcompanies", resp.Header.Get("Location"))

	resp, _ = h.get(t, "/")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestPasswordReset(t *testing.T) {
	h := newHarness(t, newFakeAPI())
	h.open(t)

	resp, body := h.post(t, "/password-reset", url.Values{"username": {"bob"}, "password": {"new-password"}, "confirm": {"other-password"}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, body, "The passwords do not match.")

	resp, body = h.post(t, "/password-reset", url.Values{"username": {"alice"}, "password": {"new-password"}, "confirm": {"new-password"}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, body, "Password reset is not allowed for this account")

	resp, _ = h.post(t, "/password-reset", url.Values{"username": {"bob"}, "password": {"new-password"}, "confirm": {"new-password"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login?reset=1", resp.Header.Get("Location"))

	_, body = h.get(t, "/login?reset=1")
	require.Contains(t, body, "Password updated. Please sign in.")
}

func TestMenuRoutes(t *testing.T) {
	h := newHarness(t, newFakeAPI())
	ws := h.open(t)
	h.signIn(t, "/")

	resp, _ := h.post(t, "/menu/toggle/2", url.Values{"return": {"/manage/companies"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/manage/companies", resp.Header.Get("Location"))
	require.True(t, ws.Expansion.IsExpanded(2))

	resp, _ = h.post(t, "/menu/panel", url.Values{"return": {"//evil.example"}})
	require.Equal(t, "/", resp.Header.Get("Location"))
	require.True(t, ws.Navigator.PanelOpen())

	resp, _ = h.get(t, "/menu/go?to=%2Fmanage%2Fcompanies%2F")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/manage/companies", resp.Header.Get("Location"))
	require.False(t, ws.Navigator.PanelOpen())

	resp, _ = h.get(t, "/manage/unknown")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLoginThrottledPerWorkspace(t *testing.T) {
	h := newHarness(t, newFakeAPI())
	h.open(t)

	form := url.Values{"username": {"alice"}, "password": {"wrong-pass"}}
	for range 5 {
		resp, _ := h.post(t, "/login", form)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, body := h.post(t, "/login", form)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Contains(t, body, "Too many sign-in attempts")
}

func TestRegistrySweep(t *testing.T) {
	registry := NewRegistry(RegistryOptions{BackendURL: "http://127.0.0.1:1/api", BackendTimeout: 100 * time.Millisecond, IdleTTL: time.Hour})

	ws, err := registry.Create()
	require.NoError(t, err)
	registry.Wait()
	require.Equal(t, 1, registry.Len())

	require.Zero(t, registry.Sweep(time.Now().Add(30*time.Minute)))
	require.Equal(t, 1, registry.Sweep(time.Now().Add(2*time.Hour)))
	require.Zero(t, registry.Len())

	_, ok := registry.Get(ws.ID)
	require.False(t, ok)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, newFakeAPI())

	resp, body := h.get(t, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `"status":"ok"`)
}
