package interview

import (
	"context"

	"github.com/sjawhar/interview-minutes/internal/ledger"
)

// Transcriber converts recorded answer audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Summarizer generates free-form text for a prompt.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Synthesizer reads text aloud.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type TranscriptArchive interface {
	SaveTranscript(ctx context.Context, t ledger.Transcript) error
}

// FailureReporter is told about provider failures that were replaced by a
// placeholder. op names the failing capability.
type FailureReporter func(op string, err error)

// SummarizerFunc adapts a plain function to Summarizer.
type SummarizerFunc func(ctx context.Context, prompt string) (string, error)

func (f SummarizerFunc) Summarize(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// TranscriberFunc adapts a plain function to Transcriber.
type TranscriberFunc func(ctx context.Context, audio []byte) (string, error)

func (f TranscriberFunc) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return f(ctx, audio)
}
