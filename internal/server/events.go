package server

import (
	"time"

	"github.com/sjawhar/interview-minutes/internal/interview"
)

const eventVersion = 1

type Event struct {
	Type      string    `json:"type"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func newEvent(eventType string, now time.Time) Event {
	return Event{Type: eventType, Version: eventVersion, Timestamp: now.UTC()}
}

type ConnectionEvent struct {
	Event
	Templates []string `json:"templates"`
}

type SessionEvent struct {
	Event
	Template  string `json:"template"`
	SessionID string `json:"session_id"`
}

type AnswerRecordedEvent struct {
	Event
	Template  string            `json:"template"`
	SessionID string            `json:"session_id"`
	Outcome   interview.Outcome `json:"outcome"`
}

type DocumentCompiledEvent struct {
	Event
	Template     string `json:"template"`
	SessionID    string `json:"session_id,omitempty"`
	DocumentID   string `json:"document_id"`
	Path         string `json:"path"`
	RemoteID     string `json:"remote_id,omitempty"`
	Consolidated bool   `json:"consolidated"`
}
