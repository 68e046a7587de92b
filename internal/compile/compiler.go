package compile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sjawhar/interview-minutes/internal/catalog"
	"github.com/sjawhar/interview-minutes/internal/interview"
	"github.com/sjawhar/interview-minutes/internal/ledger"
)

// ErrEmptyBatch is returned when there are no answers to compile.
var ErrEmptyBatch = errors.New("answer batch is empty")

// DefaultInstructions are used when a template has no summary_prompt.
const DefaultInstructions = `You are taking formal meeting minutes. Using the interview answers below, write the minutes in this structure:

## Basic information
- Date:
- Participants:
- Location:

## Agenda

## Discussion

## Decisions

## Next actions

Use "## " for section headings and "- " for bullet points. Do not use any other markup.`

const defaultTitle = "Interview minutes"

type Answer struct {
	Transcript string `json:"transcript"`
}

// AnswerBatch maps question ids to their answers.
type AnswerBatch map[int]Answer

// Publisher uploads a finished document somewhere outside the process and
// returns a remote identifier.
type Publisher interface {
	Publish(ctx context.Context, path string) (string, error)
}

type Options struct {
	// OutputPath overrides the generated file name.
	OutputPath string
	// Summaries are per-question summaries used by the fallback rendering.
	// Missing entries fall back to the batch transcript.
	Summaries map[int]ledger.Summary
}

type Result struct {
	ID           string   `json:"id"`
	Path         string   `json:"path"`
	RemoteID     string   `json:"remote_id,omitempty"`
	Consolidated bool     `json:"consolidated"`
	Questions    int      `json:"questions"`
	Document     Document `json:"-"`
}

type Compiler struct {
	summarizer interview.Summarizer
	outputDir  string
	publisher  Publisher
	report     interview.FailureReporter
	now        func() time.Time
}

type Option func(*Compiler)

func WithPublisher(p Publisher) Option {
	return func(c *Compiler) { c.publisher = p }
}

func WithFailureReporter(r interview.FailureReporter) Option {
	return func(c *Compiler) { c.report = r }
}

func New(summarizer interview.Summarizer, outputDir string, opts ...Option) *Compiler {
	c := &Compiler{summarizer: summarizer, outputDir: outputDir, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile merges a batch of answers into one minutes document with a single
// summarization call, falling back to a category-grouped rendering when that
// call yields nothing usable.
func (c *Compiler) Compile(ctx context.Context, batch AnswerBatch, tmpl *catalog.Template, opts Options) (Result, error) {
	if len(batch) == 0 {
		return Result{}, ErrEmptyBatch
	}

	ids := make([]int, 0, len(batch))
	for id := range batch {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	now := c.now()
	title := tmpl.Title
	if title == "" {
		title = defaultTitle
	}

	res := Result{ID: uuid.NewString()}

	text, err := c.summarizer.Summarize(ctx, ConsolidationPrompt(tmpl, batch, ids))
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty consolidated text")
	}
	if err != nil {
		slog.Warn("compile: consolidation failed, using fallback", "template", tmpl.Name, "error", err)
		if c.report != nil {
			c.report("consolidate", err)
		}
		res.Document = FallbackDocument(title, fallbackSummaries(tmpl, batch, ids, opts.Summaries), now)
	} else {
		res.Document = Document{Title: title, Blocks: ParseBlocks(text)}
		res.Consolidated = true
	}

	for _, id := range ids {
		if _, ok := tmpl.Question(id); ok {
			res.Questions++
		}
	}

	res.Path = opts.OutputPath
	if res.Path == "" {
		res.Path = filepath.Join(c.outputDir, fmt.Sprintf("minutes_%s_%s.docx", now.Format("20060102_150405"), res.ID[:8]))
	}
	if err := writeDocx(res.Document, res.Path); err != nil {
		return Result{}, fmt.Errorf("write minutes: %w", err)
	}

	if c.publisher != nil {
		remoteID, err := c.publisher.Publish(ctx, res.Path)
		if err != nil {
			slog.Warn("compile: publish failed", "path", res.Path, "error", err)
		} else {
			res.RemoteID = remoteID
		}
	}

	slog.Info("compile: minutes written", "template", tmpl.Name, "path", res.Path, "consolidated", res.Consolidated)
	return res, nil
}

// ConsolidationPrompt builds the single prompt for a batch. ids must be the
// batch keys in the order the answers should appear.
func ConsolidationPrompt(tmpl *catalog.Template, batch AnswerBatch, ids []int) string {
	var buf strings.Builder
	for _, id := range ids {
		q, ok := tmpl.Question(id)
		if !ok {
			continue
		}
		transcript := strings.TrimSpace(batch[id].Transcript)
		if transcript == "" {
			continue
		}
		fmt.Fprintf(&buf, "[%s] %s\nAnswer: %s\n\n", q.Category, q.Text, transcript)
	}

	instructions := tmpl.SummaryInstructions
	if strings.TrimSpace(instructions) == "" {
		instructions = DefaultInstructions
	}
	return instructions + "\n\n" + buf.String()
}

func fallbackSummaries(tmpl *catalog.Template, batch AnswerBatch, ids []int, known map[int]ledger.Summary) []ledger.Summary {
	out := make([]ledger.Summary, 0, len(ids))
	for _, id := range ids {
		q, ok := tmpl.Question(id)
		if !ok {
			continue
		}
		text := strings.TrimSpace(batch[id].Transcript)
		if s, ok := known[id]; ok && strings.TrimSpace(s.SummaryText) != "" {
			text = s.SummaryText
		}
		if text == "" {
			text = "(no answer)"
		}
		out = append(out, ledger.Summary{QuestionID: q.ID, QuestionText: q.Text, SummaryText: text, Category: q.Category})
	}
	return out
}
