package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
)

// cursor is the server-side state of one scan: its ordering, page size, and
// the sort key of the last hit returned.
type cursor struct {
	mu       sync.Mutex
	sort     []string
	size     int
	after    []string
	deadline time.Time
}

// cursorRegistry holds leased cursors. The LRU bounds how many are open and
// drops any left idle past maxLease; each cursor also carries its own
// deadline so shorter leases lapse on time.
type cursorRegistry struct {
	cache    *expirable.LRU[string, *cursor]
	maxLease time.Duration
	now      func() time.Time
}

func newCursorRegistry(maxCursors int, maxLease time.Duration, logger *slog.Logger) *cursorRegistry {
	onEvict := func(id string, _ *cursor) {
		logger.Debug("cursor_released", slog.String("cursor_id", id))
	}
	return &cursorRegistry{
		cache:    expirable.NewLRU[string, *cursor](maxCursors, onEvict, maxLease),
		maxLease: maxLease,
		now:      time.Now,
	}
}

func (r *cursorRegistry) clamp(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > r.maxLease {
		return r.maxLease
	}
	return ttl
}

// open registers c under a new ID with a lease of ttl.
func (r *cursorRegistry) open(c *cursor, ttl time.Duration) string {
	id := uuid.NewString()
	c.deadline = r.now().Add(r.clamp(ttl))
	r.cache.Add(id, c)
	return id
}

// lease returns the cursor for id and renews its lease. A missing or
// lapsed cursor is a cursor-expired error.
func (r *cursorRegistry) lease(id string, ttl time.Duration) (*cursor, error) {
	c, ok := r.cache.Get(id)
	if !ok {
		return nil, cursorExpired(id)
	}
	now := r.now()
	if now.After(c.deadline) {
		r.cache.Remove(id)
		return nil, cursorExpired(id)
	}
	c.deadline = now.Add(r.clamp(ttl))
	r.cache.Add(id, c)
	return c, nil
}

func (r *cursorRegistry) release(id string) {
	r.cache.Remove(id)
}

func (r *cursorRegistry) purge() {
	r.cache.Purge()
}

func (r *cursorRegistry) count() int {
	return r.cache.Len()
}

func cursorExpired(id string) error {
	return bmerrors.New(bmerrors.ErrCodeCursorExpired, "cursor expired or unknown", nil).
		WithDetail("cursor_id", id).
		WithSuggestion("Restart the export")
}
