package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sjawhar/interview-minutes/internal/catalog"
	"github.com/sjawhar/interview-minutes/internal/interview"
	"github.com/sjawhar/interview-minutes/internal/ledger"
	"github.com/sjawhar/interview-minutes/internal/storage"
)

type storeMock struct {
	mu      sync.Mutex
	created []string
	status  map[string]string
	err     error
}

func newStoreMock() *storeMock {
	return &storeMock{status: map[string]string{}}
}

func (s *storeMock) CreateSession(_ context.Context, id, _ string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, id)
	s.status[id] = storage.SessionActive
	return s.err
}

func (s *storeMock) EndSession(_ context.Context, id, status string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[id] = status
	return s.err
}

type hubMock struct {
	mu     sync.Mutex
	events []string
}

func (h *hubMock) record(event string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *hubMock) BroadcastSessionStarted(_, _ string) { h.record("started") }
func (h *hubMock) BroadcastAnswerRecorded(_, _ string, _ interview.Outcome) {
	h.record("answer")
}
func (h *hubMock) BroadcastSessionCompleted(_, _ string) { h.record("completed") }
func (h *hubMock) BroadcastSessionReset(_, _ string)     { h.record("reset") }

type templatesMock map[string]*catalog.Template

func (t templatesMock) Template(name string) (*catalog.Template, error) {
	tmpl, ok := t[name]
	if !ok {
		return nil, catalog.ErrTemplateNotFound
	}
	return tmpl, nil
}

func newTestManager(t *testing.T) (*Manager, *storeMock, *hubMock) {
	t.Helper()
	tmpl, err := catalog.NewTemplate("ippan", []catalog.Question{
		{ID: 1, Text: "Q1", Category: "A"},
		{ID: 2, Text: "Q2", Category: "B"},
	})
	if err != nil {
		t.Fatalf("NewTemplate failed: %v", err)
	}

	factory := func(sessionID string, tmpl *catalog.Template, l *ledger.Ledger) *interview.Orchestrator {
		return interview.New(tmpl, l,
			interview.TranscriberFunc(func(context.Context, []byte) (string, error) { return "hello", nil }),
			interview.SummarizerFunc(func(context.Context, string) (string, error) { return "short", nil }),
			interview.WithSessionID(sessionID),
		)
	}

	store := newStoreMock()
	hub := &hubMock{}
	return NewManager(templatesMock{"ippan": tmpl}, factory, store, hub), store, hub
}

func TestGetCreatesSessionOnce(t *testing.T) {
	m, store, hub := newTestManager(t)
	ctx := context.Background()

	first, err := m.Get(ctx, "ippan")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	second, err := m.Get(ctx, "ippan")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if first != second {
		t.Fatal("expected the same session on repeated Get")
	}
	if len(store.created) != 1 || store.created[0] != first.ID {
		t.Fatalf("expected one stored session, got %v", store.created)
	}
	if len(hub.events) != 1 || hub.events[0] != "started" {
		t.Fatalf("unexpected events %v", hub.events)
	}
	if _, ok := m.Current("ippan"); !ok {
		t.Fatal("expected current session")
	}
}

func TestGetUnknownTemplate(t *testing.T) {
	m, _, _ := newTestManager(t)
	if _, err := m.Get(context.Background(), "missing"); !errors.Is(err, catalog.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
	if _, ok := m.Current("missing"); ok {
		t.Fatal("expected no session for unknown template")
	}
}

func TestAnswerCompletesSessionOnLastQuestion(t *testing.T) {
	m, store, hub := newTestManager(t)
	ctx := context.Background()

	out, sess, err := m.Answer(ctx, "ippan", 1, []byte("a"))
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if out.IsLast || sess.Complete() {
		t.Fatal("session should not be complete after the first question")
	}

	out, sess, err = m.Answer(ctx, "ippan", 2, []byte("b"))
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !out.IsLast || !sess.Complete() {
		t.Fatal("expected session complete after the last question")
	}
	if store.status[sess.ID] != storage.SessionCompleted {
		t.Fatalf("expected stored status completed, got %q", store.status[sess.ID])
	}

	if _, _, err := m.Answer(ctx, "ippan", 2, []byte("again")); err != nil {
		t.Fatalf("re-answer failed: %v", err)
	}

	completed := 0
	for _, e := range hub.events {
		if e == "completed" {
			completed++
		}
	}
	if completed != 1 {
		t.Fatalf("expected a single completed event, got %v", hub.events)
	}

	snap := sess.Snapshot()
	if snap.Answered != 2 || snap.Total != 2 || !snap.Complete || len(snap.Summaries) != 2 {
		t.Fatalf("unexpected snapshot %#v", snap)
	}
}

func TestAnswerUnknownQuestion(t *testing.T) {
	m, _, hub := newTestManager(t)
	_, _, err := m.Answer(context.Background(), "ippan", 9, nil)
	if !errors.Is(err, catalog.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
	for _, e := range hub.events {
		if e == "answer" {
			t.Fatal("no answer event expected for unknown question")
		}
	}
}

func TestResetStartsFreshLedger(t *testing.T) {
	m, store, hub := newTestManager(t)
	ctx := context.Background()

	_, old, err := m.Answer(ctx, "ippan", 1, nil)
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	fresh, err := m.Reset(ctx, "ippan")
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if fresh.ID == old.ID {
		t.Fatal("expected a new session id")
	}
	if fresh.Ledger.Len() != 0 {
		t.Fatalf("expected empty ledger, got %d entries", fresh.Ledger.Len())
	}
	if old.Ledger.Len() != 1 {
		t.Fatal("old session ledger must be untouched")
	}
	if store.status[old.ID] != storage.SessionReset {
		t.Fatalf("expected old session reset, got %q", store.status[old.ID])
	}
	current, _ := m.Current("ippan")
	if current != fresh {
		t.Fatal("expected reset session to be current")
	}

	want := []string{"started", "answer", "reset", "started"}
	if len(hub.events) != len(want) {
		t.Fatalf("expected events %v, got %v", want, hub.events)
	}
	for i := range want {
		if hub.events[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, hub.events)
		}
	}
}

func TestStoreFailuresAreNotFatal(t *testing.T) {
	m, store, _ := newTestManager(t)
	store.err = errors.New("db closed")

	if _, _, err := m.Answer(context.Background(), "ippan", 2, nil); err != nil {
		t.Fatalf("store errors must not fail answers: %v", err)
	}
}

func TestEmptyTemplateIsComplete(t *testing.T) {
	tmpl, err := catalog.NewTemplate("empty", nil)
	if err != nil {
		t.Fatalf("NewTemplate failed: %v", err)
	}
	sess := &Session{Template: tmpl, Ledger: ledger.New()}
	if !sess.Complete() {
		t.Fatal("expected empty template session complete")
	}
}
