package ledger

import (
	"sort"
	"sync"
	"time"
)

// Summary is the short per-question summary produced after an answer.
type Summary struct {
	QuestionID   int    `json:"question_id"`
	QuestionText string `json:"question_text"`
	SummaryText  string `json:"summary_text"`
	Category     string `json:"category"`
}

// Ledger is an in-memory store of summaries keyed by question id. Recording an
// id that already exists replaces the previous entry.
type Ledger struct {
	mu        sync.RWMutex
	summaries map[int]Summary
}

func New() *Ledger {
	return &Ledger{summaries: make(map[int]Summary)}
}

func (l *Ledger) Record(s Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.summaries[s.QuestionID] = s
}

func (l *Ledger) Get(questionID int) (Summary, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.summaries[questionID]
	return s, ok
}

// AllOrderedByID returns every summary sorted ascending by question id.
func (l *Ledger) AllOrderedByID() []Summary {
	l.mu.RLock()
	out := make([]Summary, 0, len(l.summaries))
	for _, s := range l.summaries {
		out = append(out, s)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}

// ByCategory filters summaries by category. Order is unspecified.
func (l *Ledger) ByCategory(category string) []Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Summary
	for _, s := range l.summaries {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// Snapshot copies the ledger into a map the caller may keep.
func (l *Ledger) Snapshot() map[int]Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[int]Summary, len(l.summaries))
	for id, s := range l.summaries {
		out[id] = s
	}
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.summaries)
}

// Transcript is the raw recognised text of one answer, kept alongside the
// summary when an archive is configured.
type Transcript struct {
	SessionID    string    `json:"session_id"`
	Template     string    `json:"template"`
	QuestionID   int       `json:"question_id"`
	QuestionText string    `json:"question_text"`
	RawText      string    `json:"raw_text"`
	CapturedAt   time.Time `json:"captured_at"`
}
