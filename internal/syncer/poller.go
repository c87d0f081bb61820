package syncer

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Edura-Academy/edura-sub002/internal/models"
)

// DefaultPollInterval is the fixed delay between incremental fetches of an
// open conversation view.
const DefaultPollInterval = 3 * time.Second

// FetchFunc fetches the since-cursor batch for a conversation.
type FetchFunc func(ctx context.Context, afterSeq int64) ([]models.Message, error)

// Poller keeps one open conversation view consistent with server state by
// polling at a fixed interval and merging each batch. One Poller exists per
// open view; pollers for different viewers interact only through the store.
// Cancel the context to stop it when the view closes.
type Poller struct {
	interval time.Duration
	fetch    FetchFunc
	onChange func(View)

	mu   sync.RWMutex
	view View
}

// NewPoller builds a Poller starting from the given view (typically seeded
// from a History load). onChange is invoked after every merge that added
// messages — the caller uses it to refresh list state; it may be nil.
func NewPoller(interval time.Duration, seed View, fetch FetchFunc, onChange func(View)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		interval: interval,
		fetch:    fetch,
		onChange: onChange,
		view:     seed,
	}
}

// View returns a snapshot of the current merged view.
func (p *Poller) View() View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view
}

// Run polls until ctx is cancelled. A failed tick leaves the cursor and
// merged messages exactly as they were; the next tick retries with the same
// cursor, which is safe because merging is idempotent.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	p.mu.RLock()
	cursor := p.view.Cursor
	p.mu.RUnlock()

	batch, err := p.fetch(ctx, cursor)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("sync poll failed, retrying next tick: %v", err)
		}
		return
	}
	if len(batch) == 0 {
		return
	}
	// A result that lands after cancellation is discarded by the caller's
	// context; merging it anyway would also be harmless.
	if ctx.Err() != nil {
		return
	}

	p.mu.Lock()
	before := len(p.view.Messages)
	p.view = Merge(p.view, batch)
	changed := len(p.view.Messages) > before
	updated := p.view
	p.mu.Unlock()

	if changed && p.onChange != nil {
		p.onChange(updated)
	}
}
