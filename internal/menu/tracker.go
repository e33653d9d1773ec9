package menu

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go-admin-console/internal/session"
)

type AccessLogger interface {
	LogAccess(ctx context.Context, userID int64, optionID int64) error
}

// Tracker fires an access-log request whenever the matched entry changes.
// Requests are fire-and-forget: failures are logged and never retried.
type Tracker struct {
	logger  AccessLogger
	timeout time.Duration

	mu   sync.Mutex
	last visit
	seen bool
	wg   sync.WaitGroup
}

type visit struct {
	userID   int64
	optionID int64
}

func NewTracker(logger AccessLogger, timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Tracker{logger: logger, timeout: timeout}
}

// Observe records the entry matched for the current location and reports
// whether an access-log request was fired. An unmatched location or a missing
// identity forgets the previous entry, so returning to it logs again.
func (t *Tracker) Observe(identity *session.Identity, matched session.MenuNode, ok bool) bool {
	t.mu.Lock()
	if identity == nil || !identity.HasUserID() || !ok {
		t.seen = false
		t.mu.Unlock()
		return false
	}

	current := visit{userID: identity.ID, optionID: matched.OptionID}
	if t.seen && t.last == current {
		t.mu.Unlock()
		return false
	}
	t.last, t.seen = current, true
	t.mu.Unlock()

	userID, optionID := identity.ID, matched.OptionID
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		if err := t.logger.LogAccess(ctx, userID, optionID); err != nil {
			slog.Warn("access log failed", "user_id", userID, "option_id", optionID, "error", err)
		}
	}()
	return true
}

// Wait blocks until in-flight access-log requests finish.
func (t *Tracker) Wait() {
	t.wg.Wait()
}
