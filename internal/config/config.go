package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sjawhar/interview-minutes/internal/llm"
	"github.com/sjawhar/interview-minutes/internal/transcribe"
	"github.com/sjawhar/interview-minutes/internal/tts"
)

// EnvPrefix is the namespace prefix for all interview-minutes environment variables.
const EnvPrefix = "INTERVIEW_MINUTES_"

// Config holds all application configuration. Secrets (API keys) are loaded
// exclusively from environment variables and never appear in the config file.
type Config struct {
	ListenAddr            string `yaml:"listen_addr"`
	TemplatesDir          string `yaml:"templates_dir"`
	DefaultTemplate       string `yaml:"default_template"`
	OutputDir             string `yaml:"output_dir"`
	DBPath                string `yaml:"db_path"`
	Language              string `yaml:"language"`
	WatchTemplates        bool   `yaml:"watch_templates"`
	SummarizationModel    string `yaml:"summarization_model"`
	TranscriptionProvider string `yaml:"transcription_provider"`
	TranscriptionModel    string `yaml:"transcription_model"`
	SynthesisProvider     string `yaml:"synthesis_provider"`
	SynthesisVoice        string `yaml:"synthesis_voice"`
	GDriveFolderID        string `yaml:"gdrive_folder_id"`
	GoogleCredentialsFile string `yaml:"google_credentials_file"`
	LogLevel              string `yaml:"log_level"`

	// Secrets, env vars only.
	GeminiAPIKey     string `yaml:"-"`
	OpenAIAPIKey     string `yaml:"-"`
	AnthropicAPIKey  string `yaml:"-"`
	DeepgramAPIKey   string `yaml:"-"`
	ElevenLabsAPIKey string `yaml:"-"`
	SentryDSN        string `yaml:"-"`
}

func defaults() Config {
	return Config{
		ListenAddr:            ":8001",
		TemplatesDir:          "templates",
		OutputDir:             "outputs",
		DBPath:                ":memory:",
		Language:              "ja",
		WatchTemplates:        true,
		SummarizationModel:    "gemini/gemini-2.5-flash",
		TranscriptionProvider: transcribe.ProviderGemini,
		SynthesisProvider:     tts.ProviderNone,
		GoogleCredentialsFile: "./service-account.json",
		LogLevel:              "info",
	}
}

// Load reads configuration from a YAML file (if it exists), applies
// environment variable overrides, loads secrets, and validates the result.
// It returns the config, any validation warnings, and an error if the file
// exists but cannot be read or parsed.
func Load(path string) (Config, []string, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, nil, fmt.Errorf("read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	loadSecrets(&cfg)

	warnings := validate(&cfg)
	return cfg, warnings, nil
}

// APIKey returns the secret for a provider name, or "" when none is set.
func (c *Config) APIKey(provider string) string {
	switch provider {
	case llm.ProviderGemini:
		return c.GeminiAPIKey
	case llm.ProviderOpenAI:
		return c.OpenAIAPIKey
	case llm.ProviderAnthropic:
		return c.AnthropicAPIKey
	case transcribe.ProviderDeepgram:
		return c.DeepgramAPIKey
	case tts.ProviderElevenLabs:
		return c.ElevenLabsAPIKey
	default:
		return ""
	}
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func applyEnvOverrides(cfg *Config) {
	overrides := map[string]*string{
		"LISTEN_ADDR":             &cfg.ListenAddr,
		"TEMPLATES_DIR":           &cfg.TemplatesDir,
		"DEFAULT_TEMPLATE":        &cfg.DefaultTemplate,
		"OUTPUT_DIR":              &cfg.OutputDir,
		"DB_PATH":                 &cfg.DBPath,
		"LANGUAGE":                &cfg.Language,
		"SUMMARIZATION_MODEL":     &cfg.SummarizationModel,
		"TRANSCRIPTION_PROVIDER":  &cfg.TranscriptionProvider,
		"TRANSCRIPTION_MODEL":     &cfg.TranscriptionModel,
		"SYNTHESIS_PROVIDER":      &cfg.SynthesisProvider,
		"SYNTHESIS_VOICE":         &cfg.SynthesisVoice,
		"GDRIVE_FOLDER_ID":        &cfg.GDriveFolderID,
		"GOOGLE_CREDENTIALS_FILE": &cfg.GoogleCredentialsFile,
		"LOG_LEVEL":               &cfg.LogLevel,
	}
	for key, dst := range overrides {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv(EnvPrefix + "WATCH_TEMPLATES"); v != "" {
		if watch, err := strconv.ParseBool(v); err == nil {
			cfg.WatchTemplates = watch
		}
	}
}

// loadSecrets prefers the prefixed variable and falls back to the name the
// provider documents.
func loadSecrets(cfg *Config) {
	cfg.GeminiAPIKey = secret("GEMINI_API_KEY")
	cfg.OpenAIAPIKey = secret("OPENAI_API_KEY")
	cfg.AnthropicAPIKey = secret("ANTHROPIC_API_KEY")
	cfg.DeepgramAPIKey = secret("DEEPGRAM_API_KEY")
	cfg.ElevenLabsAPIKey = secret("ELEVENLABS_API_KEY")
	cfg.SentryDSN = secret("SENTRY_DSN")
}

func secret(name string) string {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		return v
	}
	return os.Getenv(name)
}

func validate(cfg *Config) []string {
	var warnings []string

	provider, _, err := llm.ParseModel(cfg.SummarizationModel)
	switch {
	case err != nil:
		warnings = append(warnings, fmt.Sprintf("Invalid summarization_model %q: summaries will use placeholder text.", cfg.SummarizationModel))
	case provider != llm.ProviderGemini && provider != llm.ProviderOpenAI && provider != llm.ProviderAnthropic:
		warnings = append(warnings, fmt.Sprintf("Unknown summarization provider %q: summaries will use placeholder text.", provider))
	case cfg.APIKey(provider) == "":
		warnings = append(warnings, fmt.Sprintf("%s API key not configured: summaries will use placeholder text. Set %s.", provider, keyEnv(provider)))
	}

	switch cfg.TranscriptionProvider {
	case transcribe.ProviderGemini, transcribe.ProviderOpenAI, transcribe.ProviderDeepgram:
		if cfg.APIKey(cfg.TranscriptionProvider) == "" {
			warnings = append(warnings, fmt.Sprintf("%s API key not configured: transcription will use placeholder text. Set %s.", cfg.TranscriptionProvider, keyEnv(cfg.TranscriptionProvider)))
		}
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown transcription_provider %q: transcription will use placeholder text.", cfg.TranscriptionProvider))
	}

	switch cfg.SynthesisProvider {
	case "", tts.ProviderNone:
	case tts.ProviderOpenAI, tts.ProviderElevenLabs:
		if cfg.APIKey(cfg.SynthesisProvider) == "" {
			warnings = append(warnings, fmt.Sprintf("%s API key not configured: question audio is disabled. Set %s.", cfg.SynthesisProvider, keyEnv(cfg.SynthesisProvider)))
		}
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown synthesis_provider %q: question audio is disabled.", cfg.SynthesisProvider))
	}

	if cfg.GDriveFolderID != "" {
		if _, err := os.Stat(cfg.GoogleCredentialsFile); err != nil {
			warnings = append(warnings, fmt.Sprintf("Google credentials file %q not readable: Drive publishing is disabled.", cfg.GoogleCredentialsFile))
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(cfg.LogLevel))); err != nil {
		warnings = append(warnings, fmt.Sprintf("Invalid log_level %q: using info.", cfg.LogLevel))
	}

	return warnings
}

func keyEnv(provider string) string {
	return strings.ToUpper(provider) + "_API_KEY"
}
