package session

import (
	"time"

	"github.com/sjawhar/interview-minutes/internal/catalog"
	"github.com/sjawhar/interview-minutes/internal/interview"
	"github.com/sjawhar/interview-minutes/internal/ledger"
)

// Session is one run through a template. It owns its ledger.
type Session struct {
	ID           string
	Template     *catalog.Template
	Ledger       *ledger.Ledger
	StartedAt    time.Time
	Orchestrator *interview.Orchestrator
}

// Complete reports whether the last question has a recorded summary. An empty
// template is complete from the start.
func (s *Session) Complete() bool {
	last, ok := s.Template.Last()
	if !ok {
		return true
	}
	_, answered := s.Ledger.Get(last.ID)
	return answered
}

func (s *Session) Snapshot() Snapshot {
	summaries := s.Ledger.AllOrderedByID()
	return Snapshot{
		ID:        s.ID,
		Template:  s.Template.Name,
		Title:     s.Template.Title,
		StartedAt: s.StartedAt,
		Answered:  len(summaries),
		Total:     s.Template.Len(),
		Complete:  s.Complete(),
		Summaries: summaries,
	}
}
