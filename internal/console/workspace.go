package console

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"go-admin-console/internal/backend"
	"go-admin-console/internal/crud"
	"go-admin-console/internal/entity"
	"go-admin-console/internal/menu"
	"go-admin-console/internal/session"
)

// Workspace is everything one browser owns: its backend credential, its
// session and the UI state of the menu and list pages.
type Workspace struct {
	ID        string
	Store     *session.Store
	Client    *backend.Client
	Navigator *menu.Navigator
	Expansion *menu.Expansion
	Tracker   *menu.Tracker

	login *rate.Limiter

	mu       sync.Mutex
	lastSeen time.Time
}

// Controller returns the list controller for def. Controllers live in the
// session's transient storage, so they are dropped whenever the session is
// cleared.
func (w *Workspace) Controller(def entity.Definition) *crud.Controller {
	v := w.Store.LoadOrStore("list:"+def.Name, func() any {
		return crud.NewController(def, w.Client)
	})
	return v.(*crud.Controller)
}

// AllowLogin reports whether another login attempt may be made now.
func (w *Workspace) AllowLogin() bool {
	return w.login.Allow()
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return now.Sub(w.lastSeen)
}

type RegistryOptions struct {
	BackendURL     string
	BackendTimeout time.Duration
	IdleTTL        time.Duration
	LoginRPM       int
}

// Registry tracks the live workspaces by id.
type Registry struct {
	opts RegistryOptions

	mu    sync.Mutex
	items map[string]*Workspace
	wg    sync.WaitGroup
}

func NewRegistry(opts RegistryOptions) *Registry {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 2 * time.Hour
	}
	if opts.LoginRPM <= 0 {
		opts.LoginRPM = 10
	}

	return &Registry{opts: opts, items: map[string]*Workspace{}}
}

// Get returns a live workspace and marks it as seen.
func (r *Registry) Get(id string) (*Workspace, bool) {
	r.mu.Lock()
	ws, ok := r.items[id]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}

	ws.touch(time.Now())
	return ws, true
}

// Create opens a workspace and starts bootstrapping its session in the
// background. Until bootstrap settles the guard shows the loading page.
func (r *Registry) Create() (*Workspace, error) {
	client, err := backend.New(r.opts.BackendURL, r.opts.BackendTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	ws := &Workspace{
		ID:        uuid.NewString(),
		Store:     session.NewStore(client),
		Client:    client,
		Navigator: &menu.Navigator{},
		Expansion: menu.NewExpansion(),
		Tracker:   menu.NewTracker(client, r.opts.BackendTimeout),
		login:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(r.opts.LoginRPM)), r.opts.LoginRPM),
		lastSeen:  time.Now(),
	}

	r.mu.Lock()
	r.items[ws.ID] = ws
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ws.Store.Bootstrap(context.Background())
	}()

	slog.Debug("workspace created", "workspace_id", ws.ID)
	return ws, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Wait blocks until pending bootstraps and access logs finish.
func (r *Registry) Wait() {
	r.wg.Wait()

	r.mu.Lock()
	items := make([]*Workspace, 0, len(r.items))
	for _, ws := range r.items {
		items = append(items, ws)
	}
	r.mu.Unlock()

	for _, ws := range items {
		ws.Tracker.Wait()
	}
}

// Sweep drops workspaces idle for longer than the configured TTL. Signed-in
// workspaces are logged out so the backend revokes their session.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	var expired []*Workspace
	for id, ws := range r.items {
		if ws.idleSince(now) > r.opts.IdleTTL {
			expired = append(expired, ws)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()

	for _, ws := range expired {
		if ws.Store.Snapshot().Authenticated() {
			ctx, cancel := context.WithTimeout(context.Background(), r.opts.BackendTimeout)
			ws.Store.Logout(ctx)
			cancel()
		}
		ws.Tracker.Wait()
	}

	if len(expired) > 0 {
		slog.Info("idle workspaces removed", "count", len(expired))
	}
	return len(expired)
}

// StartSweeper runs Sweep on interval until ctx is cancelled.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}
