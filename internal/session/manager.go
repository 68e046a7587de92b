package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sjawhar/interview-minutes/internal/catalog"
	"github.com/sjawhar/interview-minutes/internal/interview"
	"github.com/sjawhar/interview-minutes/internal/ledger"
	"github.com/sjawhar/interview-minutes/internal/storage"
)

// Manager keeps one live session per interview template. Sessions are
// created on first use and replaced on reset.
type Manager struct {
	templates Templates
	factory   OrchestratorFactory
	store     Store
	hub       EventBroadcaster
	now       func() time.Time

	mu        sync.Mutex
	sessions  map[string]*Session
	completed map[string]bool
}

func NewManager(templates Templates, factory OrchestratorFactory, store Store, hub EventBroadcaster) *Manager {
	return &Manager{
		templates: templates,
		factory:   factory,
		store:     store,
		hub:       hub,
		now:       time.Now,
		sessions:  make(map[string]*Session),
		completed: make(map[string]bool),
	}
}

// Get returns the live session for a template, starting one if needed.
func (m *Manager) Get(ctx context.Context, template string) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[template]
	m.mu.Unlock()
	if ok {
		return sess, nil
	}

	tmpl, err := m.templates.Template(template)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if sess, ok := m.sessions[template]; ok {
		m.mu.Unlock()
		return sess, nil
	}
	sess = m.newSession(tmpl)
	m.sessions[template] = sess
	m.mu.Unlock()

	m.started(ctx, sess)
	return sess, nil
}

// Reset ends the current session of a template, if any, and starts a fresh one
// with an empty ledger. The template is re-read so edits take effect.
func (m *Manager) Reset(ctx context.Context, template string) (*Session, error) {
	tmpl, err := m.templates.Template(template)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	old := m.sessions[template]
	sess := m.newSession(tmpl)
	m.sessions[template] = sess
	if old != nil {
		delete(m.completed, old.ID)
	}
	m.mu.Unlock()

	if old != nil {
		m.end(ctx, old, storage.SessionReset)
		if m.hub != nil {
			m.hub.BroadcastSessionReset(template, old.ID)
		}
	}
	m.started(ctx, sess)
	return sess, nil
}

// Answer runs one answer through the session's orchestrator. The session is
// marked completed the first time its last question is summarized.
func (m *Manager) Answer(ctx context.Context, template string, questionID int, audio []byte) (interview.Outcome, *Session, error) {
	sess, err := m.Get(ctx, template)
	if err != nil {
		return interview.Outcome{}, nil, err
	}

	outcome, err := sess.Orchestrator.AnswerQuestion(ctx, questionID, audio)
	if err != nil {
		return interview.Outcome{}, sess, err
	}
	if m.hub != nil {
		m.hub.BroadcastAnswerRecorded(template, sess.ID, outcome)
	}

	if sess.Complete() && m.markCompleted(sess.ID) {
		m.end(ctx, sess, storage.SessionCompleted)
		if m.hub != nil {
			m.hub.BroadcastSessionCompleted(template, sess.ID)
		}
	}
	return outcome, sess, nil
}

// Current returns the live session without starting one.
func (m *Manager) Current(template string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[template]
	return sess, ok
}

func (m *Manager) newSession(tmpl *catalog.Template) *Session {
	id := uuid.NewString()
	l := ledger.New()
	return &Session{
		ID:           id,
		Template:     tmpl,
		Ledger:       l,
		StartedAt:    m.now().UTC(),
		Orchestrator: m.factory(id, tmpl, l),
	}
}

func (m *Manager) markCompleted(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completed[id] {
		return false
	}
	m.completed[id] = true
	return true
}

func (m *Manager) started(ctx context.Context, sess *Session) {
	if m.store != nil {
		if err := m.store.CreateSession(ctx, sess.ID, sess.Template.Name, sess.StartedAt); err != nil {
			slog.Warn("session: record start failed", "session", sess.ID, "error", err)
		}
	}
	slog.Info("session: started", "template", sess.Template.Name, "session", sess.ID)
	if m.hub != nil {
		m.hub.BroadcastSessionStarted(sess.Template.Name, sess.ID)
	}
}

func (m *Manager) end(ctx context.Context, sess *Session, status string) {
	if m.store != nil {
		if err := m.store.EndSession(ctx, sess.ID, status, m.now().UTC()); err != nil {
			slog.Warn("session: record end failed", "session", sess.ID, "status", status, "error", err)
		}
	}
	slog.Info("session: ended", "template", sess.Template.Name, "session", sess.ID, "status", status)
}
