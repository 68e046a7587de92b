package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sjawhar/interview-minutes/internal/catalog"
	"github.com/sjawhar/interview-minutes/internal/ledger"
)

const (
	// TranscriptionFailedText replaces the transcript when speech recognition fails.
	TranscriptionFailedText = "(speech recognition failed)"
	// SummaryFailedText replaces the per-answer summary when generation fails.
	SummaryFailedText = "(summary generation failed)"
)

const answerPromptFormat = `Summarize the following interview answer concisely for the meeting minutes.
Use bullet points or one to two sentences.

Question: %s
Answer: %s

Summary:`

// Outcome is the result of answering one question. NextQuestionID and
// NextQuestionText are both nil exactly when there is no successor.
type Outcome struct {
	QuestionID       int     `json:"question_id"`
	Transcript       string  `json:"transcript"`
	SummaryText      string  `json:"summary"`
	NextQuestionID   *int    `json:"next_question_id"`
	NextQuestionText *string `json:"next_question_text"`
	IsLast           bool    `json:"is_last"`
}

// Orchestrator runs the answer workflow for one template against one ledger.
type Orchestrator struct {
	template    *catalog.Template
	ledger      *ledger.Ledger
	transcriber Transcriber
	summarizer  Summarizer
	synthesizer Synthesizer
	archive     TranscriptArchive
	report      FailureReporter
	sessionID   string
	now         func() time.Time
}

type Option func(*Orchestrator)

// WithSynthesizer enables question read-out. Without one, audio is empty.
func WithSynthesizer(s Synthesizer) Option {
	return func(o *Orchestrator) { o.synthesizer = s }
}

func WithArchive(a TranscriptArchive) Option {
	return func(o *Orchestrator) { o.archive = a }
}

func WithFailureReporter(r FailureReporter) Option {
	return func(o *Orchestrator) { o.report = r }
}

// WithSessionID tags archived transcripts.
func WithSessionID(id string) Option {
	return func(o *Orchestrator) { o.sessionID = id }
}

func New(tmpl *catalog.Template, l *ledger.Ledger, t Transcriber, s Summarizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		template:    tmpl,
		ledger:      l,
		transcriber: t,
		summarizer:  s,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Template() *catalog.Template {
	return o.template
}

func (o *Orchestrator) Ledger() *ledger.Ledger {
	return o.ledger
}

// AnswerQuestion transcribes and summarizes an answer, records it, and points
// at the next question. Only catalog.ErrQuestionNotFound is returned; provider
// failures become placeholder text.
func (o *Orchestrator) AnswerQuestion(ctx context.Context, questionID int, audio []byte) (Outcome, error) {
	q, err := o.template.Lookup(questionID)
	if err != nil {
		return Outcome{}, err
	}

	transcript, err := o.transcriber.Transcribe(ctx, audio)
	if err != nil {
		o.failed("transcribe", questionID, err)
		transcript = TranscriptionFailedText
	}

	summaryText, err := o.summarizer.Summarize(ctx, AnswerPrompt(q.Text, transcript))
	if err == nil && strings.TrimSpace(summaryText) == "" {
		err = errors.New("empty summary")
	}
	if err != nil {
		o.failed("summarize", questionID, err)
		summaryText = SummaryFailedText
	}

	o.ledger.Record(ledger.Summary{
		QuestionID:   q.ID,
		QuestionText: q.Text,
		SummaryText:  summaryText,
		Category:     q.Category,
	})
	o.archiveTranscript(ctx, q, transcript)

	out := Outcome{
		QuestionID:  q.ID,
		Transcript:  transcript,
		SummaryText: summaryText,
		IsLast:      o.template.IsLast(q.ID),
	}
	if next, ok := o.template.Next(q.ID); ok {
		out.NextQuestionID = &next.ID
		out.NextQuestionText = &next.Text
	}
	return out, nil
}

// SynthesizeQuestionAudio reads a question aloud. Synthesis failures yield
// empty audio; only catalog.ErrQuestionNotFound is returned.
func (o *Orchestrator) SynthesizeQuestionAudio(ctx context.Context, questionID int) ([]byte, error) {
	q, err := o.template.Lookup(questionID)
	if err != nil {
		return nil, err
	}
	if o.synthesizer == nil {
		return []byte{}, nil
	}

	audio, err := o.synthesizer.Synthesize(ctx, q.Text)
	if err != nil {
		o.failed("synthesize", questionID, err)
		return []byte{}, nil
	}
	return audio, nil
}

// AnswerPrompt builds the per-answer summarization prompt.
func AnswerPrompt(question, answer string) string {
	return fmt.Sprintf(answerPromptFormat, question, answer)
}

func (o *Orchestrator) archiveTranscript(ctx context.Context, q catalog.Question, raw string) {
	if o.archive == nil {
		return
	}
	err := o.archive.SaveTranscript(ctx, ledger.Transcript{
		SessionID:    o.sessionID,
		Template:     o.template.Name,
		QuestionID:   q.ID,
		QuestionText: q.Text,
		RawText:      raw,
		CapturedAt:   o.now().UTC(),
	})
	if err != nil {
		slog.Warn("interview: archive transcript failed", "template", o.template.Name, "question", q.ID, "error", err)
	}
}

func (o *Orchestrator) failed(op string, questionID int, err error) {
	slog.Warn("interview: provider failed, using placeholder",
		"op", op, "template", o.template.Name, "question", questionID, "error", err)
	if o.report != nil {
		o.report(op, err)
	}
}
