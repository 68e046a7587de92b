package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sjawhar/interview-minutes/internal/catalog"
	"github.com/sjawhar/interview-minutes/internal/compile"
	"github.com/sjawhar/interview-minutes/internal/interview"
	"github.com/sjawhar/interview-minutes/internal/ledger"
	"github.com/sjawhar/interview-minutes/internal/session"
	"github.com/sjawhar/interview-minutes/internal/storage"
)

const (
	maxAnswerUpload = 32 << 20
	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

type TemplateSource interface {
	Template(name string) (*catalog.Template, error)
	Names() []string
}

type SessionService interface {
	Get(ctx context.Context, template string) (*session.Session, error)
	Current(template string) (*session.Session, bool)
	Reset(ctx context.Context, template string) (*session.Session, error)
	Answer(ctx context.Context, template string, questionID int, audio []byte) (interview.Outcome, *session.Session, error)
}

type DocumentCompiler interface {
	Compile(ctx context.Context, batch compile.AnswerBatch, tmpl *catalog.Template, opts compile.Options) (compile.Result, error)
}

type DocumentStore interface {
	RecordDocument(ctx context.Context, d storage.Document) error
	Documents(ctx context.Context, template string) ([]storage.Document, error)
}

// Deps are the services behind the API routes. Store and Warnings may be nil.
type Deps struct {
	Templates TemplateSource
	Sessions  SessionService
	Compiler  DocumentCompiler
	Store     DocumentStore
	Warnings  func() []string
}

type templateInfo struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Questions int    `json:"questions"`
}

type questionInfo struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
	IsLast   bool   `json:"is_last"`
}

type compileRequest struct {
	Answers map[string]compile.Answer `json:"answers"`
}

func registerAPIRoutes(mux *http.ServeMux, hub *Hub, deps Deps) {
	mux.HandleFunc("GET /api/templates", func(w http.ResponseWriter, r *http.Request) {
		infos := []templateInfo{}
		for _, name := range deps.Templates.Names() {
			tmpl, err := deps.Templates.Template(name)
			if err != nil {
				continue
			}
			infos = append(infos, templateInfo{Name: tmpl.Name, Title: tmpl.Title, Questions: tmpl.Len()})
		}
		writeJSON(w, http.StatusOK, infos)
	})

	mux.HandleFunc("GET /api/interviews/{type}/questions/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid question id")
			return
		}
		tmpl, err := deps.Templates.Template(r.PathValue("type"))
		if err != nil {
			writeDomainError(w, "get template", err)
			return
		}
		q, err := tmpl.Lookup(id)
		if err != nil {
			writeDomainError(w, "get question", err)
			return
		}
		writeJSON(w, http.StatusOK, questionInfo{ID: q.ID, Text: q.Text, Category: q.Category, IsLast: tmpl.IsLast(q.ID)})
	})

	mux.HandleFunc("GET /api/interviews/{type}/questions/{id}/audio", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid question id")
			return
		}
		sess, err := deps.Sessions.Get(r.Context(), r.PathValue("type"))
		if err != nil {
			writeDomainError(w, "get session", err)
			return
		}
		audio, err := sess.Orchestrator.SynthesizeQuestionAudio(r.Context(), id)
		if err != nil {
			writeDomainError(w, "synthesize question", err)
			return
		}
		if len(audio) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(audio)
	})

	mux.HandleFunc("POST /api/interviews/{type}/answers", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxAnswerUpload); err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("parse form: %v", err))
			return
		}
		id, err := strconv.Atoi(strings.TrimSpace(r.FormValue("question_id")))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid question_id")
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "missing audio file")
			return
		}
		defer func() { _ = file.Close() }()

		audio, err := io.ReadAll(file)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("read audio: %v", err))
			return
		}

		outcome, _, err := deps.Sessions.Answer(r.Context(), r.PathValue("type"), id, audio)
		if err != nil {
			writeDomainError(w, "answer question", err)
			return
		}
		writeJSON(w, http.StatusOK, outcome)
	})

	mux.HandleFunc("GET /api/interviews/{type}/session", func(w http.ResponseWriter, r *http.Request) {
		sess, err := deps.Sessions.Get(r.Context(), r.PathValue("type"))
		if err != nil {
			writeDomainError(w, "get session", err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Snapshot())
	})

	mux.HandleFunc("DELETE /api/interviews/{type}/session", func(w http.ResponseWriter, r *http.Request) {
		sess, err := deps.Sessions.Reset(r.Context(), r.PathValue("type"))
		if err != nil {
			writeDomainError(w, "reset session", err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Snapshot())
	})

	mux.HandleFunc("POST /api/interviews/{type}/documents", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("type")
		tmpl, err := deps.Templates.Template(name)
		if err != nil {
			writeDomainError(w, "get template", err)
			return
		}

		var req compileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
			return
		}
		batch, err := answerBatch(req.Answers)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		var (
			sessionID string
			summaries map[int]ledger.Summary
		)
		if sess, ok := deps.Sessions.Current(name); ok {
			sessionID = sess.ID
			summaries = sess.Ledger.Snapshot()
		}

		res, err := deps.Compiler.Compile(r.Context(), batch, tmpl, compile.Options{Summaries: summaries})
		if err != nil {
			writeDomainError(w, "compile minutes", err)
			return
		}

		if deps.Store != nil {
			doc := storage.Document{
				ID:           res.ID,
				SessionID:    sessionID,
				Template:     name,
				Path:         res.Path,
				RemoteID:     res.RemoteID,
				Consolidated: res.Consolidated,
				Questions:    res.Questions,
				CreatedAt:    time.Now().UTC(),
			}
			if err := deps.Store.RecordDocument(r.Context(), doc); err != nil {
				slog.Warn("api: record document failed", "document", res.ID, "error", err)
			}
		}
		hub.BroadcastDocumentCompiled(name, sessionID, res)

		serveDocument(w, r, res)
	})

	mux.HandleFunc("GET /api/interviews/{type}/documents", func(w http.ResponseWriter, r *http.Request) {
		docs := []storage.Document{}
		if deps.Store != nil {
			found, err := deps.Store.Documents(r.Context(), r.PathValue("type"))
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list documents: %v", err))
				return
			}
			docs = append(docs, found...)
		}
		writeJSON(w, http.StatusOK, docs)
	})

	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		var warnings []string
		if deps.Warnings != nil {
			warnings = deps.Warnings()
		}
		if warnings == nil {
			warnings = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"templates": deps.Templates.Names(),
			"warnings":  warnings,
		})
	})
}

func answerBatch(answers map[string]compile.Answer) (compile.AnswerBatch, error) {
	batch := make(compile.AnswerBatch, len(answers))
	for key, answer := range answers {
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("invalid question id %q", key)
		}
		batch[id] = answer
	}
	return batch, nil
}

func serveDocument(w http.ResponseWriter, r *http.Request, res compile.Result) {
	f, err := os.Open(res.Path)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("open minutes: %v", err))
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("stat minutes: %v", err))
		return
	}

	base := filepath.Base(res.Path)
	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base))
	w.Header().Set("X-Document-Id", res.ID)
	if res.RemoteID != "" {
		w.Header().Set("X-Remote-Id", res.RemoteID)
	}
	http.ServeContent(w, r, base, info.ModTime(), f)
}

func writeDomainError(w http.ResponseWriter, op string, err error) {
	writeJSONError(w, statusFor(err), fmt.Sprintf("%s: %v", op, err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrTemplateNotFound), errors.Is(err, catalog.ErrQuestionNotFound):
		return http.StatusNotFound
	case errors.Is(err, compile.ErrEmptyBatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
