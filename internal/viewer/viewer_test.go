package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"sanctuary-live/internal/api"
	"sanctuary-live/internal/domain"
	"sanctuary-live/internal/embed"
	"sanctuary-live/internal/logger"
)

type stubIdentity struct {
	identity domain.Identity
}

func (s stubIdentity) Current() domain.Identity { return s.identity }

func guestIdentity() stubIdentity {
	return stubIdentity{identity: domain.Identity{
		Kind:  domain.IdentityGuest,
		Name:  "Jane",
		Email: "jane@example.com",
	}}
}

type mockBackend struct {
	mu sync.Mutex

	streams  []domain.Stream
	comments map[string][]domain.Message
	chats    map[string][]domain.Message

	commentFetches  []string
	chatFetches     []string
	postedComments  []api.CommentRequest
	postedChats     []api.ChatMessageRequest
	msgReactions    []string
	streamReactions []api.StreamReactionRequest
	likes           []string
	calls           int

	reactErr error
}

func newMockBackend(streams ...domain.Stream) *mockBackend {
	return &mockBackend{
		streams:  streams,
		comments: make(map[string][]domain.Message),
		chats:    make(map[string][]domain.Message),
	}
}

func (m *mockBackend) ActiveStreams(ctx context.Context) ([]domain.Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return append([]domain.Stream(nil), m.streams...), nil
}

func (m *mockBackend) Stream(ctx context.Context, id string) (domain.Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, s := range m.streams {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Stream{}, domain.ErrNotFound
}

func (m *mockBackend) LikeStream(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.likes = append(m.likes, id)
	return nil
}

func (m *mockBackend) Comments(ctx context.Context, streamID string) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.commentFetches = append(m.commentFetches, streamID)
	return append([]domain.Message(nil), m.comments[streamID]...), nil
}

func (m *mockBackend) PostComment(ctx context.Context, req api.CommentRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.postedComments = append(m.postedComments, req)
	return nil
}

func (m *mockBackend) ChatMessages(ctx context.Context, streamID string, kind domain.MessageKind) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.chatFetches = append(m.chatFetches, streamID)
	return append([]domain.Message(nil), m.chats[streamID]...), nil
}

func (m *mockBackend) PostChatMessage(ctx context.Context, req api.ChatMessageRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.postedChats = append(m.postedChats, req)
	return nil
}

func (m *mockBackend) ReactToMessage(ctx context.Context, messageID string, category domain.ReactionCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.reactErr != nil {
		return m.reactErr
	}
	m.msgReactions = append(m.msgReactions, messageID)
	return nil
}

func (m *mockBackend) SubmitStreamReaction(ctx context.Context, req api.StreamReactionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.streamReactions = append(m.streamReactions, req)
	return nil
}

func (m *mockBackend) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockBackend) fetchesFor(streamID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range m.commentFetches {
		if id == streamID {
			n++
		}
	}
	for _, id := range m.chatFetches {
		if id == streamID {
			n++
		}
	}
	return n
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter(logger.LevelError, discard{})
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestViewer_AnonymousCannotPost(t *testing.T) {
	backend := newMockBackend(domain.Stream{ID: "s1"})
	v := New(backend, stubIdentity{identity: domain.Anonymous()}, time.Hour, testLogger())
	defer v.Close()

	err := v.PostMessage(context.Background(), "hello")
	if !errors.Is(err, domain.ErrIdentityRequired) {
		t.Fatalf("expected ErrIdentityRequired, got %v", err)
	}
	if got := domain.UserMessage(err); got != "Please enter your name and email first" {
		t.Errorf("unexpected user message %q", got)
	}
	if err := v.React(context.Background(), domain.ReactionAmen); !errors.Is(err, domain.ErrIdentityRequired) {
		t.Fatalf("expected ErrIdentityRequired from React, got %v", err)
	}
	if err := v.ReactToMessage(context.Background(), "m1", domain.ReactionAmen); !errors.Is(err, domain.ErrIdentityRequired) {
		t.Fatalf("expected ErrIdentityRequired from ReactToMessage, got %v", err)
	}

	if n := backend.callCount(); n != 0 {
		t.Errorf("identity gate should run before any network call, got %d calls", n)
	}
}

func TestViewer_PostRequiresStreamAndBody(t *testing.T) {
	backend := newMockBackend()
	v := New(backend, guestIdentity(), time.Hour, testLogger())
	defer v.Close()

	if err := v.PostMessage(context.Background(), "hello"); !errors.Is(err, domain.ErrNoStreamSelected) {
		t.Fatalf("expected ErrNoStreamSelected, got %v", err)
	}
	if err := v.PostMessage(context.Background(), "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank body, got %v", err)
	}
}

func TestViewer_PostRoutesByTab(t *testing.T) {
	backend := newMockBackend(domain.Stream{ID: "s1", IsActive: true})
	v := New(backend, guestIdentity(), time.Hour, testLogger())
	defer v.Close()

	if _, err := v.LoadStreams(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := v.Select(context.Background(), "s1"); err != nil {
		t.Fatal(err)
	}

	if err := v.PostMessage(context.Background(), "a comment"); err != nil {
		t.Fatal(err)
	}

	v.SetTab(domain.KindPrayer)
	if err := v.PostMessage(context.Background(), "a prayer"); err != nil {
		t.Fatal(err)
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.postedComments) != 1 || backend.postedComments[0].Body != "a comment" {
		t.Errorf("expected one posted comment, got %+v", backend.postedComments)
	}
	if len(backend.postedChats) != 1 {
		t.Fatalf("expected one posted chat message, got %+v", backend.postedChats)
	}
	if backend.postedChats[0].MessageType != string(domain.KindPrayer) {
		t.Errorf("messageType = %q, want %q", backend.postedChats[0].MessageType, domain.KindPrayer)
	}
	if backend.postedChats[0].AuthorName != "Jane" || backend.postedChats[0].AuthorEmail != "jane@example.com" {
		t.Errorf("identity not attached: %+v", backend.postedChats[0])
	}
}

func TestViewer_PostShowsPlaceholderImmediately(t *testing.T) {
	backend := newMockBackend(domain.Stream{ID: "s1"})
	v := New(backend, guestIdentity(), time.Hour, testLogger())
	defer v.Close()

	if _, err := v.LoadStreams(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := v.Select(context.Background(), "s1"); err != nil {
		t.Fatal(err)
	}
	if err := v.PostMessage(context.Background(), "Amen!"); err != nil {
		t.Fatal(err)
	}

	thread := v.Thread(domain.KindComment)
	found := false
	for _, m := range thread {
		if m.Body == "Amen!" && m.AuthorName == "Jane" {
			found = true
		}
	}
	if !found {
		t.Errorf("posted message not visible in thread: %+v", thread)
	}
}

func TestViewer_ThreadsStayIsolated(t *testing.T) {
	backend := newMockBackend(domain.Stream{ID: "s1"})
	backend.comments["s1"] = []domain.Message{{ID: "c1", Body: "welcome", Kind: domain.KindComment}}
	backend.chats["s1"] = []domain.Message{{ID: "h1", Body: "hi all", Kind: domain.KindChat}}

	v := New(backend, guestIdentity(), 20*time.Millisecond, testLogger())
	defer v.Close()

	if _, err := v.LoadStreams(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := v.Select(context.Background(), "s1"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, time.Second, func() bool { return len(v.Thread(domain.KindComment)) == 1 })

	v.SetTab(domain.KindChat)
	waitFor(t, time.Second, func() bool { return len(v.Thread(domain.KindChat)) == 1 })

	comments := v.Thread(domain.KindComment)
	chats := v.Thread(domain.KindChat)
	if len(comments) != 1 || comments[0].ID != "c1" {
		t.Errorf("comment thread polluted: %+v", comments)
	}
	if len(chats) != 1 || chats[0].ID != "h1" {
		t.Errorf("chat thread polluted: %+v", chats)
	}
}

func TestViewer_SelectStopsPollingOldStream(t *testing.T) {
	backend := newMockBackend(domain.Stream{ID: "a"}, domain.Stream{ID: "b"})
	interval := 20 * time.Millisecond

	v := New(backend, guestIdentity(), interval, testLogger())
	defer v.Close()

	if _, err := v.LoadStreams(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := v.Select(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, time.Second, func() bool { return backend.fetchesFor("a") >= 2 })

	if err := v.Select(context.Background(), "b"); err != nil {
		t.Fatal(err)
	}
	// Let any in-flight fetch for the old stream settle.
	time.Sleep(2 * interval)
	before := backend.fetchesFor("a")

	time.Sleep(5 * interval)
	if after := backend.fetchesFor("a"); after != before {
		t.Errorf("old stream still polled after switch: %d fetches grew to %d", before, after)
	}
	if backend.fetchesFor("b") == 0 {
		t.Error("new stream never polled")
	}
}

func TestViewer_SelectClearsThreads(t *testing.T) {
	backend := newMockBackend(domain.Stream{ID: "a"}, domain.Stream{ID: "b"})
	backend.comments["a"] = []domain.Message{{ID: "c1", Body: "old"}}

	v := New(backend, guestIdentity(), 20*time.Millisecond, testLogger())
	defer v.Close()

	if _, err := v.LoadStreams(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := v.Select(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, time.Second, func() bool { return len(v.Thread(domain.KindComment)) == 1 })

	if err := v.Select(context.Background(), "b"); err != nil {
		t.Fatal(err)
	}
	// Stream b has no comments, so the only acceptable states after the
	// switch are empty (cleared) and empty (polled).
	waitFor(t, time.Second, func() bool { return backend.fetchesFor("b") >= 1 })
	if got := v.Thread(domain.KindComment); len(got) != 0 {
		t.Errorf("thread not cleared on stream switch: %+v", got)
	}
}

func TestViewer_MessageReactionKeptOnFailure(t *testing.T) {
	backend := newMockBackend(domain.Stream{ID: "s1"})
	backend.comments["s1"] = []domain.Message{{ID: "m1", Body: "hello"}}
	backend.reactErr = errors.New("boom")

	v := New(backend, guestIdentity(), 20*time.Millisecond, testLogger())
	defer v.Close()

	if _, err := v.LoadStreams(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := v.Select(context.Background(), "s1"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, time.Second, func() bool { return len(v.Thread(domain.KindComment)) == 1 })
	v.Close()

	err := v.ReactToMessage(context.Background(), "m1", domain.ReactionFire)
	if err == nil {
		t.Fatal("expected error from backend")
	}

	thread := v.Thread(domain.KindComment)
	if got := thread[0].Reactions[domain.ReactionFire]; got != 1 {
		t.Errorf("optimistic reaction count = %d, want 1 (kept despite failure)", got)
	}
}

func TestViewer_StreamReactionCarriesIdentity(t *testing.T) {
	backend := newMockBackend(domain.Stream{ID: "s1"})
	v := New(backend, guestIdentity(), time.Hour, testLogger())
	defer v.Close()

	if _, err := v.LoadStreams(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := v.Select(context.Background(), "s1"); err != nil {
		t.Fatal(err)
	}
	if err := v.React(context.Background(), domain.ReactionPraise); err != nil {
		t.Fatal(err)
	}
	if err := v.React(context.Background(), "sparkle"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown category, got %v", err)
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.streamReactions) != 1 {
		t.Fatalf("expected exactly one stream reaction, got %d", len(backend.streamReactions))
	}
	got := backend.streamReactions[0]
	if got.StreamID != "s1" || got.Category != string(domain.ReactionPraise) || got.Name != "Jane" {
		t.Errorf("unexpected reaction payload: %+v", got)
	}
}

func TestViewer_LikeBumpsLocalCount(t *testing.T) {
	backend := newMockBackend(domain.Stream{ID: "s1", LikeCount: 3})
	v := New(backend, guestIdentity(), time.Hour, testLogger())
	defer v.Close()

	if _, err := v.LoadStreams(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := v.Select(context.Background(), "s1"); err != nil {
		t.Fatal(err)
	}
	if err := v.Like(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := v.ActiveStream().LikeCount; got != 4 {
		t.Errorf("LikeCount = %d, want 4", got)
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.likes) != 1 || backend.likes[0] != "s1" {
		t.Errorf("unexpected like calls: %+v", backend.likes)
	}
}

func TestSortMessages(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in := []domain.Message{
		{ID: "b", CreatedAt: base.Add(time.Minute)},
		{ID: "c", CreatedAt: base},
		{ID: "a", CreatedAt: base},
	}

	got := sortMessages(in)
	want := []string{"a", "c", "b"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order = [%s %s %s], want %v", got[0].ID, got[1].ID, got[2].ID, want)
		}
	}
	if in[0].ID != "b" {
		t.Error("input slice mutated")
	}
}

// The full path: resolve a short-link stream, post a comment as a guest, and
// see it round-trip through the polled thread.
func TestViewer_WatchAndPostEndToEnd(t *testing.T) {
	var mu sync.Mutex
	var comments []map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/streams/active":
			fmt.Fprint(w, `[{"id":"s1","title":"Sunday Service","streamType":"youtube","streamUrl":"https://youtu.be/abc123","isLive":true,"isActive":true}]`)
		case r.URL.Path == "/stream/s1":
			fmt.Fprint(w, `{"id":"s1","title":"Sunday Service","streamType":"youtube","streamUrl":"https://youtu.be/abc123","isLive":true,"isActive":true,"likeCount":7}`)
		case r.URL.Path == "/comment" && r.Method == http.MethodPost:
			var req map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			mu.Lock()
			req["id"] = fmt.Sprintf("c%d", len(comments)+1)
			req["createdAt"] = time.Now().UTC().Format(time.RFC3339)
			comments = append(comments, req)
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
		case r.URL.Path == "/comments/s1":
			mu.Lock()
			defer mu.Unlock()
			if err := json.NewEncoder(w).Encode(comments); err != nil {
				t.Error(err)
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := api.New(server.URL, testLogger())
	v := New(client, guestIdentity(), time.Hour, testLogger())
	defer v.Close()

	streams, err := v.LoadStreams(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(streams) != 1 {
		t.Fatalf("expected one stream, got %d", len(streams))
	}
	if got := embed.Resolve(streams[0]); got != "https://www.youtube.com/embed/abc123" {
		t.Errorf("embed url = %q", got)
	}

	if err := v.Select(context.Background(), "s1"); err != nil {
		t.Fatal(err)
	}
	if got := v.ActiveStream().LikeCount; got != 7 {
		t.Errorf("stream detail not refetched, LikeCount = %d", got)
	}

	if err := v.PostMessage(context.Background(), "Amen!"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, 2*time.Second, func() bool {
		for _, m := range v.Thread(domain.KindComment) {
			if m.Body == "Amen!" && m.AuthorName == "Jane" && !strings.HasPrefix(m.ID, "local-") {
				return true
			}
		}
		return false
	})
}
