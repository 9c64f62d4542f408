package selector

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

// Thumbnailer produces thumbnails for a batch of file URIs. Implementations
// deliver results asynchronously through the done callback they were built
// with, as a URI → thumbnail path mapping.
type Thumbnailer interface {
	ThumbnailFiles(ctx context.Context, uris []string) error
}

// ThumbnailBatcher collects entries that lack a valid thumbnail and requests
// them from a Thumbnailer in coalesced batches. Every Observe restarts a
// single debounce timer; only when no new entries arrive within the window
// does the pending set get flushed as one request. This bounds request
// volume during fast scrolling while keeping latency low once the listing
// settles.
type ThumbnailBatcher struct {
	mu          sync.Mutex
	thumbnailer Thumbnailer
	window      time.Duration
	pending     map[string]*Entry
	timer       *time.Timer
	ctx         context.Context
	cancel      context.CancelFunc
	applied     func(*Entry)
}

// NewThumbnailBatcher creates a batcher flushing to t after window of
// quiescence (the default window when zero). applied is invoked for every
// entry whose thumbnail got resolved; it may be nil.
func NewThumbnailBatcher(t Thumbnailer, window time.Duration, applied func(*Entry)) *ThumbnailBatcher {
	if window <= 0 {
		window = thumbnailDebounceWindow
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ThumbnailBatcher{
		thumbnailer: t,
		window:      window,
		pending:     make(map[string]*Entry),
		ctx:         ctx,
		cancel:      cancel,
		applied:     applied,
	}
}

// SetThumbnailer swaps the thumbnailing backend. A nil backend disables
// flushing; observed entries keep accumulating.
func (b *ThumbnailBatcher) SetThumbnailer(t Thumbnailer) {
	b.mu.Lock()
	b.thumbnailer = t
	b.mu.Unlock()
}

// SetWindow changes the debounce window for subsequent cycles.
func (b *ThumbnailBatcher) SetWindow(window time.Duration) {
	if window <= 0 {
		window = thumbnailDebounceWindow
	}
	b.mu.Lock()
	b.window = window
	b.mu.Unlock()
}

// Observe registers an entry as it becomes visible. Entries that already
// have a valid thumbnail are ignored. A stale pending entry for the same URI
// is overwritten. The validity check happens under the batcher lock, the
// same guard Results writes the thumbnail fields under, so re-observing
// while a batch result lands is safe.
func (b *ThumbnailBatcher) Observe(e *Entry) {
	if e == nil {
		return
	}

	b.mu.Lock()
	if e.ThumbnailValid {
		b.mu.Unlock()
		return
	}
	b.pending[e.URI] = e
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.window, b.flush)
	b.mu.Unlock()
}

// flush snapshots the pending keys and issues one batched request. The
// pending set is not cleared here: entries are only removed once results
// arrive, so a failed request does not silently drop them.
func (b *ThumbnailBatcher) flush() {
	b.mu.Lock()
	b.timer = nil
	t := b.thumbnailer
	ctx := b.ctx
	uris := make([]string, 0, len(b.pending))
	for uri := range b.pending {
		uris = append(uris, uri)
	}
	b.mu.Unlock()

	if t == nil || len(uris) == 0 {
		return
	}

	err := t.ThumbnailFiles(ctx, uris)
	if err == nil || ctx.Err() != nil {
		return
	}
	// The thumbnailing service is optional infrastructure. Its absence is
	// a normal outcome; anything else is logged and never surfaces.
	if !isServiceUnknown(err) {
		logger.Warn().Err(err).Int("uris", len(uris)).Msg("thumbnail request failed")
	}
}

// Results applies a batch result. Keys not in the pending set are no-ops, so
// duplicate or late results are harmless. Pending keys absent from the
// result stay pending for the next cycle.
func (b *ThumbnailBatcher) Results(thumbnails map[string]string) {
	var ready []*Entry

	b.mu.Lock()
	for uri, path := range thumbnails {
		e, ok := b.pending[uri]
		if !ok || path == "" {
			continue
		}
		delete(b.pending, uri)
		e.ThumbnailPath = path
		e.ThumbnailValid = true
		ready = append(ready, e)
	}
	applied := b.applied
	b.mu.Unlock()

	if applied == nil {
		return
	}
	for _, e := range ready {
		applied(e)
	}
}

// Cancel aborts any outstanding request and clears pending state. Results
// arriving afterwards are dropped. The batcher stays usable; the next
// Observe starts a fresh cycle.
func (b *ThumbnailBatcher) Cancel() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.cancel()
	b.ctx, b.cancel = context.WithCancel(context.Background())
	b.pending = make(map[string]*Entry)
	b.mu.Unlock()
}

// PendingCount reports how many entries await a thumbnail.
func (b *ThumbnailBatcher) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func isServiceUnknown(err error) bool {
	var derr dbus.Error
	if errors.As(err, &derr) {
		return derr.Name == "org.freedesktop.DBus.Error.ServiceUnknown"
	}
	return false
}
