package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var secretNames = []string{
	"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
	"DEEPGRAM_API_KEY", "ELEVENLABS_API_KEY", "SENTRY_DSN",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LISTEN_ADDR", "TEMPLATES_DIR", "DEFAULT_TEMPLATE", "OUTPUT_DIR",
		"DB_PATH", "LANGUAGE", "WATCH_TEMPLATES", "SUMMARIZATION_MODEL",
		"TRANSCRIPTION_PROVIDER", "TRANSCRIPTION_MODEL", "SYNTHESIS_PROVIDER",
		"SYNTHESIS_VOICE", "GDRIVE_FOLDER_ID", "GOOGLE_CREDENTIALS_FILE", "LOG_LEVEL",
	} {
		t.Setenv(EnvPrefix+key, "")
	}
	for _, key := range secretNames {
		t.Setenv(EnvPrefix+key, "")
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, _, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	checks := map[string][2]string{
		"listen_addr":            {cfg.ListenAddr, ":8001"},
		"templates_dir":          {cfg.TemplatesDir, "templates"},
		"output_dir":             {cfg.OutputDir, "outputs"},
		"db_path":                {cfg.DBPath, ":memory:"},
		"language":               {cfg.Language, "ja"},
		"summarization_model":    {cfg.SummarizationModel, "gemini/gemini-2.5-flash"},
		"transcription_provider": {cfg.TranscriptionProvider, "gemini"},
		"synthesis_provider":     {cfg.SynthesisProvider, "none"},
		"log_level":              {cfg.LogLevel, "info"},
	}
	for key, c := range checks {
		if c[0] != c[1] {
			t.Fatalf("expected default %s %q, got %q", key, c[1], c[0])
		}
	}
	if !cfg.WatchTemplates {
		t.Fatal("expected templates to be watched by default")
	}
}

func TestYAMLLoading(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
listen_addr: 127.0.0.1:9000
templates_dir: /srv/templates
default_template: denryoku
output_dir: /srv/out
db_path: /srv/minutes.db
language: en
watch_templates: false
summarization_model: anthropic/claude-sonnet-4-5
transcription_provider: deepgram
transcription_model: nova-3
synthesis_provider: elevenlabs
synthesis_voice: voice-1
gdrive_folder_id: my-folder
google_credentials_file: /path/to/creds.json
log_level: debug
`)

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != "127.0.0.1:9000" || cfg.TemplatesDir != "/srv/templates" || cfg.DefaultTemplate != "denryoku" {
		t.Fatalf("unexpected server fields %+v", cfg)
	}
	if cfg.OutputDir != "/srv/out" || cfg.DBPath != "/srv/minutes.db" || cfg.Language != "en" || cfg.WatchTemplates {
		t.Fatalf("unexpected storage fields %+v", cfg)
	}
	if cfg.SummarizationModel != "anthropic/claude-sonnet-4-5" || cfg.TranscriptionProvider != "deepgram" || cfg.TranscriptionModel != "nova-3" {
		t.Fatalf("unexpected provider fields %+v", cfg)
	}
	if cfg.SynthesisProvider != "elevenlabs" || cfg.SynthesisVoice != "voice-1" {
		t.Fatalf("unexpected synthesis fields %+v", cfg)
	}
	if cfg.GDriveFolderID != "my-folder" || cfg.GoogleCredentialsFile != "/path/to/creds.json" {
		t.Fatalf("unexpected drive fields %+v", cfg)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
db_path: /from/yaml
summarization_model: openai/gpt-yaml
watch_templates: true
`)

	clearEnv(t)
	t.Setenv(EnvPrefix+"DB_PATH", "/from/env")
	t.Setenv(EnvPrefix+"SUMMARIZATION_MODEL", "openai/gpt-env")
	t.Setenv(EnvPrefix+"WATCH_TEMPLATES", "false")

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DBPath != "/from/env" {
		t.Fatalf("expected env override for db_path, got %q", cfg.DBPath)
	}
	if cfg.SummarizationModel != "openai/gpt-env" {
		t.Fatalf("expected env override for summarization_model, got %q", cfg.SummarizationModel)
	}
	if cfg.WatchTemplates {
		t.Fatal("expected env override for watch_templates")
	}
}

func TestSecretsFromEnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPrefix+"GEMINI_API_KEY", "prefixed")
	t.Setenv("GEMINI_API_KEY", "plain")
	t.Setenv("DEEPGRAM_API_KEY", "dg-secret")
	t.Setenv("SENTRY_DSN", "https://key@sentry.example/1")

	cfg, _, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.GeminiAPIKey != "prefixed" {
		t.Fatalf("expected prefixed gemini key to win, got %q", cfg.GeminiAPIKey)
	}
	if cfg.APIKey("deepgram") != "dg-secret" {
		t.Fatalf("expected deepgram key from env, got %q", cfg.APIKey("deepgram"))
	}
	if cfg.SentryDSN == "" {
		t.Fatal("expected sentry dsn from env")
	}
	if cfg.APIKey("unknown") != "" {
		t.Fatal("expected no key for unknown provider")
	}
}

func TestSecretsIgnoredInYAML(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
gemini_api_key: should-be-ignored
openai_api_key: also-ignored
sentry_dsn: ignored
`)

	cfg, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.GeminiAPIKey != "" || cfg.OpenAIAPIKey != "" || cfg.SentryDSN != "" {
		t.Fatalf("expected secrets to be ignored in yaml, got %+v", cfg)
	}
}

func TestValidationWarnings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want []string
	}{
		{
			name: "missing keys",
			want: []string{"gemini API key not configured: summaries", "gemini API key not configured: transcription"},
		},
		{
			name: "bad model",
			env:  map[string]string{"SUMMARIZATION_MODEL": "gpt-4o", "GEMINI_API_KEY": "k"},
			want: []string{"Invalid summarization_model"},
		},
		{
			name: "unknown summarization provider",
			env:  map[string]string{"SUMMARIZATION_MODEL": "mistral/large", "GEMINI_API_KEY": "k"},
			want: []string{"Unknown summarization provider"},
		},
		{
			name: "unknown transcription provider",
			env:  map[string]string{"TRANSCRIPTION_PROVIDER": "vosk", "GEMINI_API_KEY": "k"},
			want: []string{"Unknown transcription_provider"},
		},
		{
			name: "synthesis key",
			env:  map[string]string{"SYNTHESIS_PROVIDER": "elevenlabs", "GEMINI_API_KEY": "k"},
			want: []string{"ELEVENLABS_API_KEY"},
		},
		{
			name: "drive credentials",
			env:  map[string]string{"GDRIVE_FOLDER_ID": "folder", "GOOGLE_CREDENTIALS_FILE": "/nonexistent/creds.json", "GEMINI_API_KEY": "k"},
			want: []string{"Drive publishing is disabled"},
		},
		{
			name: "log level",
			env:  map[string]string{"LOG_LEVEL": "loud", "GEMINI_API_KEY": "k"},
			want: []string{"Invalid log_level"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				if strings.HasSuffix(k, "_API_KEY") {
					t.Setenv(k, v)
					continue
				}
				t.Setenv(EnvPrefix+k, v)
			}

			_, warnings, err := Load("")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			joined := strings.Join(warnings, "\n")
			for _, w := range tt.want {
				if !strings.Contains(joined, w) {
					t.Fatalf("expected warning containing %q, got %v", w, warnings)
				}
			}
			if len(warnings) != len(tt.want) {
				t.Fatalf("expected %d warnings, got %v", len(tt.want), warnings)
			}
		})
	}
}

func TestValidationNoWarningsWhenConfigured(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "key")

	cfg, warnings, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings when fully configured, got: %v", warnings)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Fatalf("expected info level, got %v", cfg.SlogLevel())
	}
}

func TestMissingConfigFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, _, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("Load should not fail for missing config file, got: %v", err)
	}
	if cfg.DBPath != ":memory:" {
		t.Fatalf("expected defaults when config file missing, got db_path=%q", cfg.DBPath)
	}
}

func TestInvalidConfigFileReturnsError(t *testing.T) {
	path := writeConfig(t, ":::invalid yaml")
	clearEnv(t)

	if _, _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml, got nil")
	}
}
