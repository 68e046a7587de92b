package server

import (
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

func Handler(staticFS fs.FS, hub *Hub, deps Deps) (http.Handler, error) {
	mux := http.NewServeMux()

	registerWSRoute(mux, hub, deps.Templates)
	registerAPIRoutes(mux, hub, deps)

	fileServer := http.FileServer(http.FS(staticFS))
	mux.HandleFunc("/", serveSPA(fileServer))

	return mux, nil
}

func serveSPA(fileServer http.Handler) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/ws" {
			http.NotFound(w, r)
			return
		}

		cleanPath := path.Clean(strings.TrimPrefix(r.URL.Path, "/"))
		// Client-side routes have no extension and fall through to the index.
		if cleanPath == "." || cleanPath == "" || !strings.Contains(cleanPath, ".") {
			r.URL.Path = "/"
		} else {
			r.URL.Path = "/" + cleanPath
		}

		fileServer.ServeHTTP(w, r)
	}
}

// WithRecovery reports handler panics to Sentry and answers 500.
func WithRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("server: handler panic", "path", r.URL.Path, "panic", err)
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(r)
				hub.RecoverWithContext(r.Context(), err)
				hub.Flush(2 * time.Second)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
