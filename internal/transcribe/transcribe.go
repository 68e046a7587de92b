package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/sjawhar/interview-minutes/internal/llm"
)

const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderDeepgram = "deepgram"
)

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type Config struct {
	Provider string
	Model    string
	Language string
	APIKey   string
	// BaseURL overrides the provider endpoint.
	BaseURL string
}

// New builds the transcriber for cfg.Provider.
func New(cfg Config) (Transcriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("transcription provider %s: api key is required", cfg.Provider)
	}

	switch cfg.Provider {
	case ProviderGemini:
		model := cfg.Model
		if model == "" {
			model = "gemini-2.5-flash"
		}
		var opts []llm.Option
		if cfg.BaseURL != "" {
			opts = append(opts, llm.WithBaseURL(cfg.BaseURL))
		}
		client, err := llm.NewClient(llm.ProviderGemini, cfg.APIKey, model, opts...)
		if err != nil {
			return nil, err
		}
		return NewLLM(client, cfg.Language), nil
	case ProviderOpenAI:
		return NewWhisper(cfg), nil
	case ProviderDeepgram:
		return NewDeepgram(cfg), nil
	default:
		return nil, fmt.Errorf("unknown transcription provider %q: supported providers are gemini, openai, deepgram", cfg.Provider)
	}
}

// DetectMIME sniffs the container format of recorded audio. Browsers record
// WebM by default, so unknown data is reported as WebM.
func DetectMIME(audio []byte) string {
	switch {
	case bytes.HasPrefix(audio, []byte("RIFF")):
		return "audio/wav"
	case bytes.HasPrefix(audio, []byte("OggS")):
		return "audio/ogg"
	case bytes.HasPrefix(audio, []byte("fLaC")):
		return "audio/flac"
	case bytes.HasPrefix(audio, []byte("ID3")), len(audio) > 1 && audio[0] == 0xFF && audio[1]&0xE0 == 0xE0:
		return "audio/mpeg"
	case len(audio) > 8 && string(audio[4:8]) == "ftyp":
		return "audio/mp4"
	default:
		return "audio/webm"
	}
}

func extensionFor(mime string) string {
	ext := strings.TrimPrefix(mime, "audio/")
	switch ext {
	case "mpeg":
		return "mp3"
	case "mp4":
		return "m4a"
	}
	return ext
}
