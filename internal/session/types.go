package session

import (
	"context"
	"time"

	"github.com/sjawhar/interview-minutes/internal/catalog"
	"github.com/sjawhar/interview-minutes/internal/interview"
	"github.com/sjawhar/interview-minutes/internal/ledger"
)

type Store interface {
	CreateSession(ctx context.Context, id, template string, startedAt time.Time) error
	EndSession(ctx context.Context, id, status string, endedAt time.Time) error
}

type Templates interface {
	Template(name string) (*catalog.Template, error)
}

type EventBroadcaster interface {
	BroadcastSessionStarted(template, sessionID string)
	BroadcastAnswerRecorded(template, sessionID string, outcome interview.Outcome)
	BroadcastSessionCompleted(template, sessionID string)
	BroadcastSessionReset(template, sessionID string)
}

// OrchestratorFactory wires the providers for a new session.
type OrchestratorFactory func(sessionID string, tmpl *catalog.Template, l *ledger.Ledger) *interview.Orchestrator

// Snapshot is the client-facing view of a session.
type Snapshot struct {
	ID        string           `json:"id"`
	Template  string           `json:"template"`
	Title     string           `json:"title"`
	StartedAt time.Time        `json:"started_at"`
	Answered  int              `json:"answered"`
	Total     int              `json:"total"`
	Complete  bool             `json:"complete"`
	Summaries []ledger.Summary `json:"summaries"`
}
