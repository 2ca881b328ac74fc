// Package viewer orchestrates the livestream watch session: which stream is
// active, which thread tab is mounted, the polled message lists, and the
// reaction and posting actions. It owns all view state; the terminal UI only
// renders events emitted from here.
package viewer

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"sanctuary-live/internal/api"
	"sanctuary-live/internal/domain"
	"sanctuary-live/internal/logger"
	"sanctuary-live/internal/poller"

	"github.com/oklog/ulid/v2"
)

// Backend is the slice of the API client the viewer uses
type Backend interface {
	ActiveStreams(ctx context.Context) ([]domain.Stream, error)
	Stream(ctx context.Context, id string) (domain.Stream, error)
	LikeStream(ctx context.Context, id string) error
	Comments(ctx context.Context, streamID string) ([]domain.Message, error)
	PostComment(ctx context.Context, req api.CommentRequest) error
	ChatMessages(ctx context.Context, streamID string, kind domain.MessageKind) ([]domain.Message, error)
	PostChatMessage(ctx context.Context, req api.ChatMessageRequest) error
	ReactToMessage(ctx context.Context, messageID string, category domain.ReactionCategory) error
	SubmitStreamReaction(ctx context.Context, req api.StreamReactionRequest) error
}

// IdentityProvider yields the identity attached to submissions
type IdentityProvider interface {
	Current() domain.Identity
}

// EventKind discriminates viewer events
type EventKind int

const (
	// EventStreams carries a refreshed stream list
	EventStreams EventKind = iota
	// EventStreamSelected carries the newly active stream
	EventStreamSelected
	// EventThread carries a replaced message list for one kind
	EventThread
	// EventError carries a transient error for the status line
	EventError
)

// Event is a state-change notification for the UI
type Event struct {
	Kind       EventKind
	Streams    []domain.Stream
	Stream     *domain.Stream
	ThreadKind domain.MessageKind
	Messages   []domain.Message
	Err        error
}

// Viewer holds one watch session's state
type Viewer struct {
	backend  Backend
	identity IdentityProvider
	logger   *logger.Logger
	interval time.Duration
	entropy  *ulid.MonotonicEntropy

	mu            sync.Mutex
	streams       []domain.Stream
	active        *domain.Stream
	tab           domain.MessageKind
	threads       map[domain.MessageKind][]domain.Message
	current       *poller.Poller
	consumeCancel context.CancelFunc

	events chan Event
}

// New creates a Viewer. The comments tab is mounted by default.
func New(backend Backend, identity IdentityProvider, interval time.Duration, log *logger.Logger) *Viewer {
	if log == nil {
		log = logger.Default()
	}
	if interval <= 0 {
		interval = poller.DefaultInterval
	}
	return &Viewer{
		backend:  backend,
		identity: identity,
		logger:   log,
		interval: interval,
		entropy:  ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		tab:      domain.KindComment,
		threads:  make(map[domain.MessageKind][]domain.Message),
		events:   make(chan Event, 64),
	}
}

// Events delivers state-change notifications. The channel is never closed;
// stop reading after Close.
func (v *Viewer) Events() <-chan Event {
	return v.events
}

// LoadStreams fetches the streams administrators currently expose
func (v *Viewer) LoadStreams(ctx context.Context) ([]domain.Stream, error) {
	streams, err := v.backend.ActiveStreams(ctx)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.streams = streams
	v.mu.Unlock()

	v.emit(Event{Kind: EventStreams, Streams: streams})
	return streams, nil
}

// Select makes the stream with the given id active: all pollers stop, all
// three thread lists clear, the stream's current state is refetched, and
// polling restarts for the mounted tab only.
func (v *Viewer) Select(ctx context.Context, streamID string) error {
	v.stopPolling()

	v.mu.Lock()
	v.threads = make(map[domain.MessageKind][]domain.Message)
	var selected *domain.Stream
	for i := range v.streams {
		if v.streams[i].ID == streamID {
			s := v.streams[i]
			selected = &s
			break
		}
	}
	v.mu.Unlock()

	// One fetch for fresh like and reaction counts. A failure here is
	// tolerated: the list record still renders.
	fresh, err := v.backend.Stream(ctx, streamID)
	if err == nil {
		selected = &fresh
	} else if selected == nil {
		return err
	} else {
		v.logger.Warn("stream detail refresh failed", map[string]interface{}{
			"stream_id": streamID,
			"error":     err.Error(),
		})
	}

	v.mu.Lock()
	v.active = selected
	tab := v.tab
	v.mu.Unlock()

	v.startPolling(tab)
	v.emit(Event{Kind: EventStreamSelected, Stream: selected})
	return nil
}

// SetTab mounts a different thread tab. The previous tab's poller stops and
// the new tab starts polling; lists of unmounted tabs are kept as-is.
func (v *Viewer) SetTab(kind domain.MessageKind) {
	if !kind.Valid() {
		return
	}

	v.mu.Lock()
	if v.tab == kind {
		v.mu.Unlock()
		return
	}
	v.tab = kind
	hasStream := v.active != nil
	v.mu.Unlock()

	v.stopPolling()
	if hasStream {
		v.startPolling(kind)
	}
}

// Tab returns the mounted thread tab
func (v *Viewer) Tab() domain.MessageKind {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tab
}

// ActiveStream returns a copy of the active stream, or nil
func (v *Viewer) ActiveStream() *domain.Stream {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.active == nil {
		return nil
	}
	s := *v.active
	return &s
}

// Thread returns a copy of the given kind's current message list
func (v *Viewer) Thread(kind domain.MessageKind) []domain.Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.Message(nil), v.threads[kind]...)
}

// PostMessage submits a message to the mounted tab's thread. The identity
// gate runs before any network call. A local placeholder shows the message
// immediately; the forced refresh after the POST replaces it with the
// server's copy.
func (v *Viewer) PostMessage(ctx context.Context, body string) error {
	identity := v.identity.Current()
	if !identity.CanPost() {
		return domain.NewUserMessageError(domain.ErrIdentityRequired, "Please enter your name and email first")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.NewUserMessageError(domain.ErrInvalidInput, "Message can't be empty")
	}

	v.mu.Lock()
	if v.active == nil {
		v.mu.Unlock()
		return domain.ErrNoStreamSelected
	}
	streamID := v.active.ID
	kind := v.tab
	placeholder := domain.Message{
		ID:          "local-" + ulid.MustNew(ulid.Timestamp(time.Now()), v.entropy).String(),
		StreamID:    streamID,
		AuthorName:  identity.Name,
		AuthorEmail: identity.Email,
		Body:        body,
		CreatedAt:   time.Now(),
		Kind:        kind,
	}
	v.threads[kind] = append(v.threads[kind], placeholder)
	messages := append([]domain.Message(nil), v.threads[kind]...)
	current := v.current
	v.mu.Unlock()

	v.emit(Event{Kind: EventThread, ThreadKind: kind, Messages: messages})

	var err error
	if kind == domain.KindComment {
		err = v.backend.PostComment(ctx, api.CommentRequest{
			StreamID:    streamID,
			AuthorName:  identity.Name,
			AuthorEmail: identity.Email,
			Body:        body,
		})
	} else {
		err = v.backend.PostChatMessage(ctx, api.ChatMessageRequest{
			StreamID:    streamID,
			MessageType: string(kind),
			AuthorName:  identity.Name,
			AuthorEmail: identity.Email,
			Body:        body,
		})
	}
	if err != nil {
		return err
	}

	// One out-of-band fetch so the sender's message round-trips without
	// waiting for the next tick.
	if current != nil {
		current.Refresh()
	}
	return nil
}

// React submits one stream-level reaction. Displayed stream counts are not
// optimistically bumped; they refresh when the stream is reselected.
func (v *Viewer) React(ctx context.Context, category domain.ReactionCategory) error {
	identity := v.identity.Current()
	if !identity.CanPost() {
		return domain.NewUserMessageError(domain.ErrIdentityRequired, "Please enter your name and email first")
	}
	if !category.Valid() {
		return domain.NewUserMessageError(domain.ErrInvalidInput, "Unknown reaction")
	}

	v.mu.Lock()
	if v.active == nil {
		v.mu.Unlock()
		return domain.ErrNoStreamSelected
	}
	streamID := v.active.ID
	v.mu.Unlock()

	return v.backend.SubmitStreamReaction(ctx, api.StreamReactionRequest{
		StreamID: streamID,
		Category: string(category),
		Name:     identity.Name,
		Email:    identity.Email,
	})
}

// ReactToMessage adds one reaction to a message in the mounted thread. The
// local count is bumped immediately and kept even if the call fails — a
// reaction tally is not worth a rollback.
func (v *Viewer) ReactToMessage(ctx context.Context, messageID string, category domain.ReactionCategory) error {
	identity := v.identity.Current()
	if !identity.CanPost() {
		return domain.NewUserMessageError(domain.ErrIdentityRequired, "Please enter your name and email first")
	}
	if !category.Valid() {
		return domain.NewUserMessageError(domain.ErrInvalidInput, "Unknown reaction")
	}

	v.mu.Lock()
	kind := v.tab
	bumped := false
	for i := range v.threads[kind] {
		if v.threads[kind][i].ID == messageID {
			counts := v.threads[kind][i].Reactions.Clone()
			if counts == nil {
				counts = domain.ReactionCounts{}
			}
			counts[category]++
			v.threads[kind][i].Reactions = counts
			bumped = true
			break
		}
	}
	var messages []domain.Message
	if bumped {
		messages = append([]domain.Message(nil), v.threads[kind]...)
	}
	v.mu.Unlock()

	if bumped {
		v.emit(Event{Kind: EventThread, ThreadKind: kind, Messages: messages})
	}

	return v.backend.ReactToMessage(ctx, messageID, category)
}

// Like increments the active stream's like count, optimistically bumping
// the local copy
func (v *Viewer) Like(ctx context.Context) error {
	v.mu.Lock()
	if v.active == nil {
		v.mu.Unlock()
		return domain.ErrNoStreamSelected
	}
	streamID := v.active.ID
	v.active.LikeCount++
	v.mu.Unlock()

	return v.backend.LikeStream(ctx, streamID)
}

// Close stops polling. Events already queued may still be read afterwards.
func (v *Viewer) Close() {
	v.stopPolling()
}

// startPolling mounts a poller for the given kind on the active stream
func (v *Viewer) startPolling(kind domain.MessageKind) {
	v.mu.Lock()
	if v.active == nil || v.current != nil {
		v.mu.Unlock()
		return
	}
	streamID := v.active.ID

	fetch := func(ctx context.Context) ([]domain.Message, error) {
		if kind == domain.KindComment {
			return v.backend.Comments(ctx, streamID)
		}
		return v.backend.ChatMessages(ctx, streamID, kind)
	}

	p := poller.New(v.interval, fetch, v.logger)
	ctx, cancel := context.WithCancel(context.Background())
	v.current = p
	v.consumeCancel = cancel
	v.mu.Unlock()

	p.Start(ctx)
	go v.consume(ctx, p, kind)
}

// stopPolling cancels the mounted poller, if any, and waits for it to halt
func (v *Viewer) stopPolling() {
	v.mu.Lock()
	p := v.current
	cancel := v.consumeCancel
	v.current = nil
	v.consumeCancel = nil
	v.mu.Unlock()

	if p != nil {
		p.Stop()
	}
	if cancel != nil {
		cancel()
	}
}

// consume applies snapshots from one poller for as long as it stays mounted
func (v *Viewer) consume(ctx context.Context, p *poller.Poller, kind domain.MessageKind) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-p.Updates():
			if snap.Err != nil {
				v.emit(Event{Kind: EventError, ThreadKind: kind, Err: snap.Err})
				continue
			}

			sorted := sortMessages(snap.Messages)

			v.mu.Lock()
			if v.current != p {
				// A stream or tab switch unmounted this poller while the
				// snapshot was in flight.
				v.mu.Unlock()
				return
			}
			v.threads[kind] = sorted
			messages := append([]domain.Message(nil), sorted...)
			v.mu.Unlock()

			v.emit(Event{Kind: EventThread, ThreadKind: kind, Messages: messages})
		}
	}
}

// sortMessages orders a thread by creation time, oldest first, so the
// display never reorders between polls regardless of backend ordering.
// Ties break by id for stability.
func sortMessages(messages []domain.Message) []domain.Message {
	sorted := append([]domain.Message(nil), messages...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

// emit delivers an event without blocking; the UI rerenders from current
// state, so a dropped event is repaired by the next one
func (v *Viewer) emit(event Event) {
	select {
	case v.events <- event:
	default:
		v.logger.Debug("viewer event dropped", map[string]interface{}{
			"kind": int(event.Kind),
		})
	}
}
