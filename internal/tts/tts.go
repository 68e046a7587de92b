package tts

import (
	"context"
	"fmt"
)

const (
	ProviderNone       = "none"
	ProviderOpenAI     = "openai"
	ProviderElevenLabs = "elevenlabs"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Config struct {
	Provider string
	Voice    string
	Model    string
	APIKey   string
	BaseURL  string
}

// New builds the synthesizer for cfg.Provider. The "none" provider returns a
// nil synthesizer and no error.
func New(cfg Config) (Synthesizer, error) {
	switch cfg.Provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderOpenAI, ProviderElevenLabs:
	default:
		return nil, fmt.Errorf("unknown synthesis provider %q: supported providers are none, openai, elevenlabs", cfg.Provider)
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("synthesis provider %s: api key is required", cfg.Provider)
	}
	if cfg.Provider == ProviderOpenAI {
		return NewOpenAI(cfg), nil
	}
	return NewElevenLabs(cfg), nil
}
