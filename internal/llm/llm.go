package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const defaultMaxTokens = 4096

// ErrAudioUnsupported is returned by providers that cannot take audio input.
var ErrAudioUnsupported = errors.New("audio input not supported")

// Request is a single-turn generation request. Audio is sent inline next to
// the prompt for providers that accept it.
type Request struct {
	System    string
	Prompt    string
	Audio     []byte
	AudioMIME string
}

type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type Option func(*clientOptions)

type clientOptions struct {
	baseURL   string
	maxTokens int
}

func WithBaseURL(url string) Option {
	return func(o *clientOptions) {
		o.baseURL = url
	}
}

func WithMaxTokens(n int) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// ParseModel splits a "provider/model" reference.
func ParseModel(model string) (provider, modelName string, err error) {
	parts := strings.SplitN(model, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid model format %q: expected provider/model_name", model)
	}
	return parts[0], parts[1], nil
}

func NewClient(provider, apiKey, model string, opts ...Option) (Client, error) {
	o := &clientOptions{maxTokens: defaultMaxTokens}
	for _, opt := range opts {
		opt(o)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s: api key is required", provider)
	}

	switch provider {
	case ProviderOpenAI:
		return newOpenAIClient(apiKey, model, o)
	case ProviderAnthropic:
		return newAnthropicClient(apiKey, model, o)
	case ProviderGemini:
		return newGeminiClient(apiKey, model, o)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q: supported providers are openai, anthropic, gemini", provider)
	}
}

func checkRequest(provider string, req Request) error {
	if strings.TrimSpace(req.Prompt) == "" && len(req.Audio) == 0 {
		return fmt.Errorf("%s: empty request", provider)
	}
	return nil
}

var languageNames = map[string]string{
	"ja": "Japanese",
	"en": "English",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"zh": "Chinese",
	"ko": "Korean",
}

// LanguageName maps an ISO 639-1 code to the name used in prompts. Unknown
// codes are returned unchanged.
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}
