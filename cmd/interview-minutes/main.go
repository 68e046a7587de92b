package main

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"github.com/sjawhar/interview-minutes/internal/catalog"
	"github.com/sjawhar/interview-minutes/internal/compile"
	"github.com/sjawhar/interview-minutes/internal/config"
	"github.com/sjawhar/interview-minutes/internal/gdrive"
	"github.com/sjawhar/interview-minutes/internal/interview"
	"github.com/sjawhar/interview-minutes/internal/ledger"
	"github.com/sjawhar/interview-minutes/internal/llm"
	"github.com/sjawhar/interview-minutes/internal/server"
	"github.com/sjawhar/interview-minutes/internal/session"
	"github.com/sjawhar/interview-minutes/internal/storage"
	"github.com/sjawhar/interview-minutes/internal/summary"
	"github.com/sjawhar/interview-minutes/internal/transcribe"
	"github.com/sjawhar/interview-minutes/internal/tts"
)

//go:embed static/*
var staticFiles embed.FS

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("interview-minutes: .env not loaded", "error", err)
	}

	cfg, warnings, err := config.Load(envOrDefault(config.EnvPrefix+"CONFIG", "config.yaml"))
	if err != nil {
		slog.Error("interview-minutes: load config failed", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	for _, w := range warnings {
		slog.Warn("config: " + w)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
		}); err != nil {
			slog.Warn("interview-minutes: sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, loadWarnings, err := catalog.NewRegistry(cfg.TemplatesDir)
	if err != nil {
		fatal("load templates failed", err)
	}
	warnings = append(warnings, loadWarnings...)
	for _, w := range loadWarnings {
		slog.Warn("catalog: " + w)
	}

	if cfg.WatchTemplates {
		watcher, err := catalog.NewWatcher(registry)
		if err != nil {
			slog.Warn("interview-minutes: template watching disabled", "error", err)
		} else {
			defer func() { _ = watcher.Close() }()
			go func() {
				if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					slog.Error("catalog: watcher stopped", "error", err)
				}
			}()
		}
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		fatal("storage init failed", err)
	}
	defer func() { _ = store.Close() }()

	summarizer := newSummarizer(cfg)
	transcriber := newTranscriber(cfg)
	synthesizer, err := tts.New(tts.Config{
		Provider: cfg.SynthesisProvider,
		Voice:    cfg.SynthesisVoice,
		APIKey:   cfg.APIKey(cfg.SynthesisProvider),
	})
	if err != nil {
		slog.Warn("interview-minutes: question audio disabled", "error", err)
	}

	hub := server.NewHub()
	manager := session.NewManager(registry, func(id string, tmpl *catalog.Template, l *ledger.Ledger) *interview.Orchestrator {
		opts := []interview.Option{
			interview.WithArchive(store),
			interview.WithFailureReporter(reportFailure),
			interview.WithSessionID(id),
		}
		if synthesizer != nil {
			opts = append(opts, interview.WithSynthesizer(synthesizer))
		}
		return interview.New(tmpl, l, transcriber, summarizer, opts...)
	}, store, hub)

	if cfg.DefaultTemplate != "" {
		if _, err := manager.Get(ctx, cfg.DefaultTemplate); err != nil {
			slog.Warn("interview-minutes: default template unavailable", "template", cfg.DefaultTemplate, "error", err)
		}
	}

	compileOpts := []compile.Option{compile.WithFailureReporter(reportFailure)}
	if cfg.GDriveFolderID != "" {
		publisher, err := gdrive.NewPublisher(ctx, cfg.GoogleCredentialsFile, cfg.GDriveFolderID)
		if err != nil {
			slog.Warn("interview-minutes: drive publishing disabled", "error", err)
		} else {
			compileOpts = append(compileOpts, compile.WithPublisher(publisher))
		}
	}
	compiler := compile.New(summarizer, cfg.OutputDir, compileOpts...)

	assets, err := fs.Sub(staticFiles, "static")
	if err != nil {
		fatal("static assets init failed", err)
	}

	handler, err := server.Handler(assets, hub, server.Deps{
		Templates: registry,
		Sessions:  manager,
		Compiler:  compiler,
		Store:     store,
		Warnings:  func() []string { return warnings },
	})
	if err != nil {
		fatal("build http handler failed", err)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.WithRecovery(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("interview-minutes: listening", "addr", cfg.ListenAddr, "templates", registry.Names())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("interview-minutes: http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("interview-minutes: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("interview-minutes: http shutdown failed", "error", err)
	}
}

// newSummarizer falls back to a summarizer that always fails, so answers get
// the placeholder text instead of the server refusing to start.
func newSummarizer(cfg config.Config) interview.Summarizer {
	s, err := summary.New(cfg.SummarizationModel, cfg.Language, func(provider, model string) (llm.Client, error) {
		return llm.NewClient(provider, cfg.APIKey(provider), model)
	})
	if err != nil {
		slog.Warn("interview-minutes: summarization unavailable", "model", cfg.SummarizationModel, "error", err)
		return interview.SummarizerFunc(func(context.Context, string) (string, error) { return "", err })
	}
	return s
}

func newTranscriber(cfg config.Config) interview.Transcriber {
	t, err := transcribe.New(transcribe.Config{
		Provider: cfg.TranscriptionProvider,
		Model:    cfg.TranscriptionModel,
		Language: cfg.Language,
		APIKey:   cfg.APIKey(cfg.TranscriptionProvider),
	})
	if err != nil {
		slog.Warn("interview-minutes: transcription unavailable", "provider", cfg.TranscriptionProvider, "error", err)
		return interview.TranscriberFunc(func(context.Context, []byte) (string, error) { return "", err })
	}
	return t
}

func reportFailure(op string, err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("op", op)
		sentry.CaptureException(err)
	})
}

func fatal(msg string, err error) {
	slog.Error("interview-minutes: "+msg, "error", err)
	sentry.CaptureException(err)
	sentry.Flush(2 * time.Second)
	os.Exit(1)
}

func envOrDefault(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
