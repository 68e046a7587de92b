package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/sjawhar/interview-minutes/internal/llm"
)

const systemPromptFormat = `You write meeting minutes from interview answers. Respond in %s.
Keep wording factual and concise. Do not invent details that are not in the answers.`

type ClientFactory func(provider, model string) (llm.Client, error)

// Summarizer sends prompts to one model under a fixed minutes-taking system
// prompt. It does not retry.
type Summarizer struct {
	client llm.Client
	system string
}

// New resolves a "provider/model" reference through factory.
func New(model, language string, factory ClientFactory) (*Summarizer, error) {
	provider, name, err := llm.ParseModel(model)
	if err != nil {
		return nil, err
	}

	client, err := factory(provider, name)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	return NewWithClient(client, language), nil
}

func NewWithClient(client llm.Client, language string) *Summarizer {
	return &Summarizer{client: client, system: SystemPrompt(language)}
}

func SystemPrompt(language string) string {
	if strings.TrimSpace(language) == "" {
		language = "en"
	}
	return fmt.Sprintf(systemPromptFormat, llm.LanguageName(language))
}

func (s *Summarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	text, err := s.client.Generate(ctx, llm.Request{System: s.system, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return text, nil
}
