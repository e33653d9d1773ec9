package console

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-admin-console/internal/crud"
	"go-admin-console/internal/entity"
	"go-admin-console/internal/guard"
	"go-admin-console/internal/menu"
	"go-admin-console/internal/session"
)

const minPasswordLength = 8

type loginData struct {
	Username string
	Next     string
	Error    string
	Info     string
}

type resetData struct {
	Username string
	Error    string
}

type dashboardData struct {
	Reachable []session.MenuNode
}

type listData struct {
	View   crud.View
	Fields []entity.Field
	Form   []entity.Field
}

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	ws, _ := workspaceFrom(r.Context())
	next := guard.SafeNext(r.URL.Query().Get("next"), "/")

	if ws.Store.Snapshot().Authenticated() {
		seeOther(w, r, next)
		return
	}

	data := loginData{Next: next}
	if r.URL.Query().Get("reset") == "1" {
		data.Info = "Password updated. Please sign in."
	}
	s.views.render(w, http.StatusOK, "login", pageData{Title: "Sign in", Data: data})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	ws, _ := workspaceFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		s.views.render(w, http.StatusBadRequest, "login", pageData{Title: "Sign in", Data: loginData{Error: "Invalid form submission."}})
		return
	}

	data := loginData{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Next:     guard.SafeNext(r.PostFormValue("next"), "/"),
	}
	password := r.PostFormValue("password")

	if data.Username == "" || password == "" {
		data.Error = "Username and password are required."
		s.views.render(w, http.StatusUnprocessableEntity, "login", pageData{Title: "Sign in", Data: data})
		return
	}

	if !ws.AllowLogin() {
		data.Error = "Too many sign-in attempts. Please wait a moment."
		s.views.render(w, http.StatusTooManyRequests, "login", pageData{Title: "Sign in", Data: data})
		return
	}

	result := ws.Store.Login(r.Context(), data.Username, password)
	if !result.Success {
		data.Error = result.Message
		s.views.render(w, http.StatusUnauthorized, "login", pageData{Title: "Sign in", Data: data})
		return
	}

	seeOther(w, r, data.Next)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	ws, _ := workspaceFrom(r.Context())
	ws.Store.Logout(r.Context())
	seeOther(w, r, loginPath)
}

func (s *Server) resetForm(w http.ResponseWriter, r *http.Request) {
	data := resetData{Username: strings.TrimSpace(r.URL.Query().Get("username"))}
	s.views.render(w, http.StatusOK, "reset", pageData{Title: "Reset password", Data: data})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	ws, _ := workspaceFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		s.views.render(w, http.StatusBadRequest, "reset", pageData{Title: "Reset password", Data: resetData{Error: "Invalid form submission."}})
		return
	}

	data := resetData{Username: strings.TrimSpace(r.PostFormValue("username"))}
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("confirm")

	switch {
	case data.Username == "" || password == "":
		data.Error = "Username and new password are required."
	case len([]rune(password)) < minPasswordLength:
		data.Error = "The new password must be at least 8 characters."
	case password != confirm:
		data.Error = "The passwords do not match."
	}
	if data.Error != "" {
		s.views.render(w, http.StatusUnprocessableEntity, "reset", pageData{Title: "Reset password", Data: data})
		return
	}

	result := ws.Store.ConfirmPasswordReset(r.Context(), data.Username, password)
	if !result.Success {
		data.Error = result.Message
		s.views.render(w, http.StatusUnprocessableEntity, "reset", pageData{Title: "Reset password", Data: data})
		return
	}

	seeOther(w, r, loginPath+"?reset=1")
}

// chrome builds the shared page frame and records the visit for the access
// log.
func (s *Server) chrome(r *http.Request, ws *Workspace, title string) pageData {
	snap, _ := guard.SessionFromContext(r.Context())
	location := r.URL.Path

	matched, ok := menu.Match(snap.Entries, location)
	ws.Tracker.Observe(snap.Identity, matched, ok)

	return pageData{
		Title:     title,
		Identity:  snap.Identity,
		Menu:      menu.Build(snap.Entries, location, ws.Expansion),
		PanelOpen: ws.Navigator.PanelOpen(),
		Location:  r.URL.RequestURI(),
	}
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	ws, _ := workspaceFrom(r.Context())
	page := s.chrome(r, ws, "Dashboard")

	snap, _ := guard.SessionFromContext(r.Context())
	page.Data = dashboardData{Reachable: menu.Reachable(snap.Entries)}
	s.views.render(w, http.StatusOK, "dashboard", page)
}

func (s *Server) listPage(w http.ResponseWriter, r *http.Request) {
	ws, _ := workspaceFrom(r.Context())
	def, ok := entity.Lookup(chi.URLParam(r, "entity"))
	if !ok {
		s.notFound(w, r, ws)
		return
	}

	ctrl := ws.Controller(def)
	if err := ctrl.Mount(r.Context()); err != nil && s.recoverAuth(w, r, ws, err, r.URL.RequestURI()) {
		return
	}

	page := s.chrome(r, ws, def.Title)
	page.Data = listData{View: ctrl.View(), Fields: def.Fields, Form: def.Editable()}
	s.views.render(w, http.StatusOK, "list", page)
}

func (s *Server) listAction(w http.ResponseWriter, r *http.Request) {
	ws, _ := workspaceFrom(r.Context())
	def, ok := entity.Lookup(chi.URLParam(r, "entity"))
	if !ok {
		s.notFound(w, r, ws)
		return
	}
	back := "/manage/" + def.Name

	if err := r.ParseForm(); err != nil {
		seeOther(w, r, back)
		return
	}

	ctrl := ws.Controller(def)
	err := s.apply(r.Context(), ctrl, chi.URLParam(r, "action"), r.PostForm, def)
	if err != nil && s.recoverAuth(w, r, ws, err, back) {
		return
	}
	ctrl.Retain()
	seeOther(w, r, back)
}

// apply runs one list-page action. Failures other than authorization are
// already queued as notices by the controller.
func (s *Server) apply(ctx context.Context, ctrl *crud.Controller, action string, form url.Values, def entity.Definition) error {
	switch action {
	case "filter":
		ctrl.SetFilter(form.Get("q"))
	case "sort":
		ctrl.SortBy(form.Get("key"))
	case "page":
		page, err := strconv.Atoi(form.Get("page"))
		if err != nil {
			return nil
		}
		ctrl.SetPage(page)
	case "refresh":
		return ctrl.Fetch(ctx)
	case "new":
		ctrl.OpenCreate()
	case "edit":
		id, err := strconv.ParseInt(form.Get("id"), 10, 64)
		if err != nil {
			return nil
		}
		return ctrl.OpenEdit(id)
	case "close":
		ctrl.CloseModal()
	case "submit":
		values := make(map[string]string, len(def.Fields))
		for _, f := range def.Editable() {
			values[f.Name] = form.Get(f.Name)
		}
		return ctrl.Submit(ctx, values)
	case "delete":
		id, err := strconv.ParseInt(form.Get("id"), 10, 64)
		if err != nil {
			return nil
		}
		return ctrl.RequestDelete(id)
	case "confirm-delete":
		return ctrl.ConfirmDelete(ctx)
	case "cancel-delete":
		ctrl.CancelDelete()
	case "dismiss":
		ctrl.Dismiss(form.Get("notice"))
	}
	return nil
}

// recoverAuth handles a rejected credential by revalidating the session. A
// session that is gone sends the browser to the login view; one that is
// still valid means the user lacks access to this resource, and its list
// state is kept.
func (s *Server) recoverAuth(w http.ResponseWriter, r *http.Request, ws *Workspace, err error, target string) bool {
	if !crud.IsUnauthorized(err) {
		return false
	}

	if !ws.Store.Revalidate(r.Context()) {
		seeOther(w, r, loginPath+"?"+url.Values{"next": {target}}.Encode())
		return true
	}

	page := s.chrome(r, ws, "Access denied")
	page.Data = crud.MessageFor(err, "You do not have access to this page.")
	s.views.render(w, http.StatusForbidden, "notfound", page)
	return true
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request, ws *Workspace) {
	page := s.chrome(r, ws, "Not found")
	page.Data = "The page you requested does not exist."
	s.views.render(w, http.StatusNotFound, "notfound", page)
}

func (s *Server) toggleMenu(w http.ResponseWriter, r *http.Request) {
	ws, _ := workspaceFrom(r.Context())
	if id, err := strconv.ParseInt(chi.URLParam(r, "optionID"), 10, 64); err == nil {
		ws.Expansion.Toggle(id)
	}
	seeOther(w, r, guard.SafeNext(r.FormValue("return"), "/"))
}

func (s *Server) togglePanel(w http.ResponseWriter, r *http.Request) {
	ws, _ := workspaceFrom(r.Context())
	ws.Navigator.TogglePanel()
	seeOther(w, r, guard.SafeNext(r.FormValue("return"), "/"))
}

func (s *Server) navigate(w http.ResponseWriter, r *http.Request) {
	ws, _ := workspaceFrom(r.Context())
	target := ws.Navigator.Navigate(guard.SafeNext(r.URL.Query().Get("to"), "/"))
	seeOther(w, r, target)
}
