// Package poller implements the fixed-interval thread refresh the viewer is
// built on. Each tick fetches the full message list and replaces the previous
// snapshot; there is no incremental diffing. Responses are sequence-numbered
// so a slow, older response can never overwrite a newer one.
package poller

import (
	"context"
	"sync"
	"time"

	"sanctuary-live/internal/domain"
	"sanctuary-live/internal/logger"
)

// DefaultInterval is the poll period applied uniformly to all thread kinds
const DefaultInterval = 3 * time.Second

// FetchFunc retrieves the current full message list for one thread
type FetchFunc func(ctx context.Context) ([]domain.Message, error)

// Snapshot is the result of one poll tick. When Err is set, Messages is nil
// and the previous snapshot remains authoritative — errors never partially
// apply.
type Snapshot struct {
	Messages []domain.Message
	Seq      uint64
	Err      error
}

// Poller repeatedly fetches one thread on a fixed interval. Exactly one
// Poller runs per mounted thread view; switching tab or stream stops it.
type Poller struct {
	interval time.Duration
	fetch    FetchFunc
	logger   *logger.Logger

	mu      sync.Mutex
	seq     uint64 // last dispatched request
	applied uint64 // last applied response
	cancel  context.CancelFunc
	done    chan struct{}
	refresh chan struct{}
	updates chan Snapshot
}

// New creates a Poller. A non-positive interval falls back to DefaultInterval.
func New(interval time.Duration, fetch FetchFunc, log *logger.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logger.Default()
	}
	return &Poller{
		interval: interval,
		fetch:    fetch,
		logger:   log,
		refresh:  make(chan struct{}, 1),
		updates:  make(chan Snapshot, 16),
	}
}

// Updates delivers snapshots in application order. The channel stays open
// across Stop so a consumer draining it never races a close; consumers that
// need a hard cutoff compare Snapshot.Seq.
func (p *Poller) Updates() <-chan Snapshot {
	return p.updates
}

// Start begins polling. The first fetch is dispatched immediately, then one
// per interval. Start is a no-op if the poller is already running.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.mu.Unlock()

	go p.run(ctx)
}

// Refresh requests one out-of-band fetch, used right after a successful POST
// so the sender sees their own message without waiting for the next tick.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
		// A refresh is already pending; one fetch covers both.
	}
}

// Stop cancels polling. Any fetch still in flight is discarded when it
// completes. Stop is idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.dispatch(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.dispatch(ctx)
		case <-p.refresh:
			p.dispatch(ctx)
		}
	}
}

// dispatch issues one fetch without waiting for it. Overlapping fetches are
// possible (a slow response racing the next tick); the sequence guard keeps
// only the newest result.
func (p *Poller) dispatch(ctx context.Context) {
	p.mu.Lock()
	p.seq++
	n := p.seq
	p.mu.Unlock()

	go func() {
		messages, err := p.fetch(ctx)
		if ctx.Err() != nil {
			return
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			// Errors never advance the applied sequence: the previous list
			// stays authoritative and the next tick retries naturally.
			p.publish(Snapshot{Seq: n, Err: err})
			return
		}
		if n <= p.applied {
			p.logger.Debug("discarding stale poll response", map[string]interface{}{
				"seq":     n,
				"applied": p.applied,
			})
			return
		}
		p.applied = n
		p.publish(Snapshot{Messages: messages, Seq: n})
	}()
}

// publish delivers a snapshot without blocking; the list is refetched in
// full every tick, so a dropped snapshot is superseded by the next one.
// Callers hold p.mu, which keeps sends ordered by sequence.
func (p *Poller) publish(snap Snapshot) {
	select {
	case p.updates <- snap:
	default:
		p.logger.Warn("snapshot dropped, consumer lagging", map[string]interface{}{
			"seq": snap.Seq,
		})
	}
}
