// Package crud implements the list/table controller shared by every
// management page: fetch, filter, sort, paginate, mutate and refetch.
package crud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"go-admin-console/internal/entity"
)

// Gateway is the REST surface a controller needs. Rows are raw server
// objects keyed by column name.
type Gateway interface {
	List(ctx context.Context, endpoint string) ([]map[string]any, error)
	Create(ctx context.Context, endpoint string, payload map[string]any) error
	Update(ctx context.Context, endpoint string, id int64, payload map[string]any) error
	Delete(ctx context.Context, endpoint string, id int64) error
}

var (
	ErrClosed        = errors.New("controller closed")
	ErrModalClosed   = errors.New("no form is open")
	ErrInvalidForm   = errors.New("form has invalid fields")
	ErrNoDelete      = errors.New("no record selected for deletion")
	ErrUnknownRecord = errors.New("record not found")
)

type ModalMode string

const (
	ModalClosed ModalMode = ""
	ModalCreate ModalMode = "create"
	ModalEdit   ModalMode = "edit"
)

type Modal struct {
	Mode      ModalMode
	EditingID int64
	Values    map[string]string
	Errors    map[string]string
}

func (m Modal) Open() bool { return m.Mode != ModalClosed }

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

type Notice struct {
	ID      string
	Kind    NoticeKind
	Message string
}

const maxNotices = 5

// RowKey identifies an in-flight per-row action.
type RowKey struct {
	Action string
	ID     int64
}

const ActionDelete = "delete"

// View is an immutable snapshot of everything a page renders.
type View struct {
	Definition     entity.Definition
	Rows           []Record
	Total          int
	Filter         string
	SortKey        string
	SortDir        Direction
	Page           int
	TotalPages     int
	ShowPagination bool
	Fetching       bool
	Submitting     bool
	RowBusy        map[RowKey]bool
	PendingDelete  Record
	Modal          Modal
	Notices        []Notice
}

type Controller struct {
	def entity.Definition
	gw  Gateway

	mu            sync.Mutex
	items         []Record
	filter        string
	sortKey       string
	sortDir       Direction
	page          int
	mounted       bool
	retained      bool
	closed        bool
	fetching      bool
	submitting    bool
	rowBusy       map[RowKey]bool
	pendingDelete Record
	modal         Modal
	notices       []Notice
}

func NewController(def entity.Definition, gw Gateway) *Controller {
	return &Controller{
		def:     def,
		gw:      gw,
		items:   []Record{},
		sortKey: def.KeyField().Name,
		sortDir: Asc,
		page:    1,
		rowBusy: map[RowKey]bool{},
	}
}

func (c *Controller) Definition() entity.Definition { return c.def }

// Mount is called every time the list page is shown and refetches the
// collection. Filter, sort and page survive the refetch. A render that
// directly follows one of the page's own actions keeps the current items
// (see Retain).
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.retained && c.mounted {
		c.retained = false
		c.mu.Unlock()
		return nil
	}
	c.retained = false
	c.mu.Unlock()
	return c.Fetch(ctx)
}

// Retain marks the next Mount as a continuation of the current page, so the
// redirect after a page action does not fetch again.
func (c *Controller) Retain() {
	c.mu.Lock()
	c.retained = true
	c.mu.Unlock()
}

// Fetch replaces items with the server collection. On failure the previous
// items are kept and an error notice is queued.
func (c *Controller) Fetch(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.fetching = true
	c.mu.Unlock()

	items, err := c.load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.fetching = false
	c.mounted = true
	if err != nil {
		c.noticeLocked(NoticeError, MessageFor(err, fmt.Sprintf("Could not load %s.", lower(c.def.Title))))
		return err
	}

	c.items = items
	c.clampLocked()
	return nil
}

func (c *Controller) load(ctx context.Context) ([]Record, error) {
	rows, err := c.gw.List(ctx, c.def.Endpoint())
	if err != nil {
		return nil, err
	}

	items, err := NormalizeAll(c.def, rows)
	if err != nil {
		slog.Warn("discarding malformed collection", "resource", c.def.Name, "error", err)
		return nil, err
	}
	return items, nil
}

func (c *Controller) SetFilter(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.filter = text
	c.page = 1
}

// SortBy re-sorts on a column. The active column toggles direction; a new
// column starts ascending. Unknown or unsortable columns are ignored.
func (c *Controller) SortBy(key string) {
	field, ok := c.def.Field(key)
	if !ok || !field.Sortable {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sortKey == key {
		c.sortDir = c.sortDir.Toggle()
	} else {
		c.sortKey = key
		c.sortDir = Asc
	}
	c.page = 1
}

func (c *Controller) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.page = page
	c.clampLocked()
}

func (c *Controller) OpenCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.modal = Modal{Mode: ModalCreate, Values: map[string]string{}, Errors: map[string]string{}}
}

func (c *Controller) OpenEdit(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.findLocked(id)
	if rec == nil {
		return ErrUnknownRecord
	}

	c.modal = Modal{Mode: ModalEdit, EditingID: id, Values: FormValues(c.def, rec), Errors: map[string]string{}}
	return nil
}

func (c *Controller) CloseModal() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.modal = Modal{}
}

// Submit posts (create) or puts (edit) the open form, then refetches. The
// modal closes only on success.
func (c *Controller) Submit(ctx context.Context, values map[string]string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.modal.Open() {
		c.mu.Unlock()
		return ErrModalClosed
	}
	mode, id := c.modal.Mode, c.modal.EditingID
	c.modal.Values = maps.Clone(values)
	c.modal.Errors = map[string]string{}

	payload, problems := BuildPayload(c.def, values)
	if len(problems) > 0 {
		c.modal.Errors = problems
		c.noticeLocked(NoticeError, "Please correct the highlighted fields.")
		c.mu.Unlock()
		return ErrInvalidForm
	}
	c.submitting = true
	c.mu.Unlock()

	var err error
	if mode == ModalCreate {
		err = c.gw.Create(ctx, c.def.Endpoint(), payload)
	} else {
		err = c.gw.Update(ctx, c.def.Endpoint(), id, payload)
	}

	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return ErrClosed
		}
		c.submitting = false
		c.noticeLocked(NoticeError, MessageFor(err, fmt.Sprintf("Could not save %s.", lower(c.def.Singular))))
		return err
	}

	items, fetchErr := c.load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.submitting = false
	c.applyRefetchLocked(items, fetchErr)

	verb := "created"
	if mode == ModalEdit {
		verb = "updated"
	}
	c.noticeLocked(NoticeSuccess, fmt.Sprintf("%s %s.", c.def.Singular, verb))
	c.modal = Modal{}
	return nil
}

// RequestDelete selects the record awaiting confirmation.
func (c *Controller) RequestDelete(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec := c.findLocked(id)
	if rec == nil {
		return ErrUnknownRecord
	}
	c.pendingDelete = rec
	return nil
}

func (c *Controller) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pendingDelete = nil
}

// ConfirmDelete deletes the pending record and refetches. The pending target
// and the row flag are cleared whatever the outcome.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	target := c.pendingDelete
	if target == nil {
		c.mu.Unlock()
		return ErrNoDelete
	}
	row := RowKey{Action: ActionDelete, ID: target.Key(c.def)}
	c.rowBusy[row] = true
	c.mu.Unlock()

	err := c.gw.Delete(ctx, c.def.Endpoint(), row.ID)

	var (
		items    []Record
		fetchErr error
	)
	if err == nil {
		items, fetchErr = c.load(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	delete(c.rowBusy, row)
	c.pendingDelete = nil

	if err != nil {
		c.noticeLocked(NoticeError, MessageFor(err, fmt.Sprintf("Could not delete %s.", lower(c.def.Singular))))
		return err
	}

	c.applyRefetchLocked(items, fetchErr)
	c.noticeLocked(NoticeSuccess, fmt.Sprintf("%s %q deleted.", c.def.Singular, target.Text(c.def.DisplayField().Name)))
	return nil
}

func (c *Controller) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.notices = slices.DeleteFunc(c.notices, func(n Notice) bool { return n.ID == id })
}

// Close marks the controller unmounted; results that arrive later are
// dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	derived := c.derivedLocked()
	totalPages := TotalPages(len(derived), c.def.PageSize)

	return View{
		Definition:     c.def,
		Rows:           slices.Clone(Paginate(derived, c.page, c.def.PageSize)),
		Total:          len(derived),
		Filter:         c.filter,
		SortKey:        c.sortKey,
		SortDir:        c.sortDir,
		Page:           c.page,
		TotalPages:     totalPages,
		ShowPagination: totalPages > 1,
		Fetching:       c.fetching,
		Submitting:     c.submitting,
		RowBusy:        maps.Clone(c.rowBusy),
		PendingDelete:  c.pendingDelete,
		Modal: Modal{
			Mode:      c.modal.Mode,
			EditingID: c.modal.EditingID,
			Values:    maps.Clone(c.modal.Values),
			Errors:    maps.Clone(c.modal.Errors),
		},
		Notices: slices.Clone(c.notices),
	}
}

func (c *Controller) derivedLocked() []Record {
	return Sort(Filter(c.items, c.filter, c.def.SearchFields()), c.sortKey, c.sortDir)
}

func (c *Controller) applyRefetchLocked(items []Record, err error) {
	if err != nil {
		c.noticeLocked(NoticeError, MessageFor(err, fmt.Sprintf("Could not reload %s.", lower(c.def.Title))))
		return
	}
	c.items = items
	c.clampLocked()
}

func (c *Controller) clampLocked() {
	total := len(Filter(c.items, c.filter, c.def.SearchFields()))
	c.page = ClampPage(c.page, TotalPages(total, c.def.PageSize))
}

func (c *Controller) findLocked(id int64) Record {
	for _, rec := range c.items {
		if rec.Key(c.def) == id {
			return rec
		}
	}
	return nil
}

func (c *Controller) noticeLocked(kind NoticeKind, message string) {
	c.notices = append(c.notices, Notice{ID: uuid.NewString(), Kind: kind, Message: message})
	if len(c.notices) > maxNotices {
		c.notices = c.notices[len(c.notices)-maxNotices:]
	}
}
