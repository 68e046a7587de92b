package transcribe

import (
	"context"
	"errors"
	"fmt"

	"github.com/sjawhar/interview-minutes/internal/llm"
)

const transcribePromptFormat = `Transcribe this audio recording accurately in %s.
Output only the transcribed text, without commentary or timestamps.`

// LLM transcribes by sending audio inline to a multimodal model.
type LLM struct {
	client llm.Client
	prompt string
}

func NewLLM(client llm.Client, language string) *LLM {
	if language == "" {
		language = "en"
	}
	return &LLM{client: client, prompt: fmt.Sprintf(transcribePromptFormat, llm.LanguageName(language))}
}

func (t *LLM) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("transcribe: empty audio")
	}

	text, err := t.client.Generate(ctx, llm.Request{Prompt: t.prompt, Audio: audio, AudioMIME: DetectMIME(audio)})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return text, nil
}
