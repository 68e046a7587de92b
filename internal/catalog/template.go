package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Question struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// Template is one interview variant: an ordered question list plus optional
// consolidation instructions for the minutes document. It is immutable after
// loading.
type Template struct {
	Name                string
	Title               string
	SummaryInstructions string

	questions []Question
	index     map[int]int
}

type templateFile struct {
	Title         string         `yaml:"title"`
	SummaryPrompt string         `yaml:"summary_prompt"`
	Questions     []questionFile `yaml:"questions"`
}

type questionFile struct {
	ID       *int    `yaml:"id"`
	Text     *string `yaml:"text"`
	Category *string `yaml:"category"`
}

// NewTemplate builds a template from questions already in load order.
func NewTemplate(name string, questions []Question) (*Template, error) {
	t := &Template{
		Name:      name,
		questions: make([]Question, 0, len(questions)),
		index:     make(map[int]int, len(questions)),
	}
	for _, q := range questions {
		if _, dup := t.index[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %d", q.ID)
		}
		t.index[q.ID] = len(t.questions)
		t.questions = append(t.questions, q)
	}
	return t, nil
}

// Load reads a template from a JSON or YAML file. The template name is the
// file name without extension and without a leading "config_".
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Source: path, Err: err}
	}
	t, err := Parse(NameFromPath(path), data)
	if err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.Source = path
		}
		return nil, err
	}
	return t, nil
}

// Parse decodes a template document. JSON sources are accepted because they
// are valid YAML.
func Parse(name string, data []byte) (*Template, error) {
	var raw templateFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigurationError{Source: name, Err: fmt.Errorf("parse: %w", err)}
	}
	if raw.Questions == nil {
		return nil, &ConfigurationError{Source: name, Err: errors.New("questions list is required")}
	}

	questions := make([]Question, 0, len(raw.Questions))
	for i, q := range raw.Questions {
		switch {
		case q.ID == nil:
			return nil, &ConfigurationError{Source: name, Err: fmt.Errorf("question %d: id is required", i)}
		case q.Text == nil || strings.TrimSpace(*q.Text) == "":
			return nil, &ConfigurationError{Source: name, Err: fmt.Errorf("question %d: text is required", *q.ID)}
		case q.Category == nil || strings.TrimSpace(*q.Category) == "":
			return nil, &ConfigurationError{Source: name, Err: fmt.Errorf("question %d: category is required", *q.ID)}
		}
		questions = append(questions, Question{ID: *q.ID, Text: *q.Text, Category: *q.Category})
	}

	t, err := NewTemplate(name, questions)
	if err != nil {
		return nil, &ConfigurationError{Source: name, Err: err}
	}
	t.Title = raw.Title
	t.SummaryInstructions = raw.SummaryPrompt
	return t, nil
}

// NameFromPath derives a template name from its file path.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimPrefix(base, "config_")
}

// Questions returns a copy of the questions in load order.
func (t *Template) Questions() []Question {
	return append([]Question(nil), t.questions...)
}

func (t *Template) Len() int {
	return len(t.questions)
}

func (t *Template) Question(id int) (Question, bool) {
	i, ok := t.index[id]
	if !ok {
		return Question{}, false
	}
	return t.questions[i], true
}

// Lookup is Question with an error result for callers that surface not-found.
func (t *Template) Lookup(id int) (Question, error) {
	q, ok := t.Question(id)
	if !ok {
		return Question{}, fmt.Errorf("%w: %d", ErrQuestionNotFound, id)
	}
	return q, nil
}

// Next returns the question following id in load order. Unknown ids and the
// last id have no successor.
func (t *Template) Next(id int) (Question, bool) {
	i, ok := t.index[id]
	if !ok || i >= len(t.questions)-1 {
		return Question{}, false
	}
	return t.questions[i+1], true
}

// IsLast reports whether id is the final question. An empty template treats
// every id as last.
func (t *Template) IsLast(id int) bool {
	if len(t.questions) == 0 {
		return true
	}
	return t.questions[len(t.questions)-1].ID == id
}

// Last returns the final question in load order.
func (t *Template) Last() (Question, bool) {
	if len(t.questions) == 0 {
		return Question{}, false
	}
	return t.questions[len(t.questions)-1], true
}
