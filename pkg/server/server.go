package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/levenlabs/go-lflag"

	"github.com/solarsim/solarsim/pkg/calculator"
	"github.com/solarsim/solarsim/pkg/catalog"
	"github.com/solarsim/solarsim/pkg/common"
	"github.com/solarsim/solarsim/pkg/log"
	"github.com/solarsim/solarsim/pkg/session"
	"github.com/solarsim/solarsim/pkg/storage"
	"github.com/solarsim/solarsim/pkg/types"
)

// Server exposes the dashboard session over HTTP and streams playback ticks
// over a WebSocket.
type Server struct {
	catalog    *catalog.Catalog
	session    *session.Session
	calculator *calculator.Calculator
	storage    storage.Database
	stream     *hub

	listenAddr string
	devProxy   string
	webDir     fs.FS
	httpServer *http.Server

	serverName       string
	webCacheDuration time.Duration
	streamAnyOrigin  bool
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration. A session
// must be attached with SetSession before Run.
func Configured(cat *catalog.Catalog, calc *calculator.Calculator, store storage.Database) *Server {
	srv := newServer(cat, calc, store)
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	devProxy := lflag.String("dev-proxy", "", "Address of the dashboard dev server (e.g. http://localhost:5173)")
	webDir := lflag.String("web-dir", "", "Directory of built dashboard files to serve at /")
	webCacheDuration := lflag.Duration("web-cache-duration", 0, "Duration to cache web files (e.g. 1h, 5m). 0 means no cache.")
	streamAnyOrigin := lflag.Bool("stream-any-origin", false, "Accept /api/stream connections from any origin")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		srv.devProxy = *devProxy
		if *webDir != "" {
			srv.webDir = os.DirFS(*webDir)
		}
		srv.webCacheDuration = *webCacheDuration
		srv.streamAnyOrigin = *streamAnyOrigin
	})

	return srv
}

// New returns a Server with default settings serving sess.
func New(cat *catalog.Catalog, sess *session.Session, calc *calculator.Calculator, store storage.Database) *Server {
	srv := newServer(cat, calc, store)
	srv.SetSession(sess)
	return srv
}

func newServer(cat *catalog.Catalog, calc *calculator.Calculator, store storage.Database) *Server {
	return &Server{
		catalog:    cat,
		calculator: calc,
		storage:    store,
		stream:     newHub(),
		listenAddr: ":8080",
		serverName: common.UserAgent(),
	}
}

// SetSession attaches the session the API serves and streams ticks from. It
// must be called once, before Run.
func (s *Server) SetSession(sess *session.Session) {
	s.session = sess
	sess.OnTick(s.stream.broadcastTick)
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/locations", s.handleListLocations)
	apiMux.HandleFunc("GET /api/models", s.handleListModels)
	apiMux.HandleFunc("GET /api/settings", s.handleGetSettings)
	apiMux.HandleFunc("POST /api/settings", s.handleUpdateSettings)
	apiMux.HandleFunc("GET /api/series", s.handleSeries)
	apiMux.HandleFunc("GET /api/state", s.handleState)
	apiMux.HandleFunc("GET /api/chart", s.handleChart)
	apiMux.HandleFunc("GET /api/analytics", s.handleAnalytics)
	apiMux.HandleFunc("POST /api/playback/start", s.handleStart)
	apiMux.HandleFunc("POST /api/playback/pause", s.handlePause)
	apiMux.HandleFunc("POST /api/playback/reset", s.handleReset)
	apiMux.HandleFunc("POST /api/alerts/toggle", s.handleToggleAlerts)
	apiMux.HandleFunc("GET /api/calculator", s.handleCalculator)
	apiMux.HandleFunc("GET /api/export", s.handleExport)
	apiMux.HandleFunc("POST /api/exports", s.handleArchiveExport)
	apiMux.HandleFunc("GET /api/exports", s.handleListExports)
	apiMux.HandleFunc("GET /api/exports/{id}", s.handleGetExport)

	mux := http.NewServeMux()
	mux.Handle("/api/", apiMux)

	// serve the dashboard, either from a directory or from the dev server
	if s.devProxy != "" {
		u, err := url.Parse(s.devProxy)
		if err != nil {
			panic(fmt.Errorf("invalid dev-proxy url (%s): %w", s.devProxy, err))
		}
		proxy := httputil.NewSingleHostReverseProxy(u)
		proxy.Transport = common.Transport(nil)
		mux.Handle("/", proxy)
	} else if s.webDir != nil {
		fileServer := http.FileServer(http.FS(s.webDir))
		mux.Handle("/", s.webHandler(s.webDir, fileServer))
	}
	mux.HandleFunc("/healthz", s.handleHealthz)

	// the stream hijacks the connection so it can't go through gzip
	root := http.NewServeMux()
	root.HandleFunc("GET /api/stream", s.handleStream)
	root.Handle("/", gziphandler.GzipHandler(mux))
	return s.revisionMiddleware(s.securityHeadersMiddleware(logContextMiddleware(root)))
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	if s.session == nil {
		return errors.New("no session attached")
	}
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	// use a channel to capture server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		s.stream.closeAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

// writeErr maps err to a status code. Invalid parameters are the caller's
// fault and their message is returned as is.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, types.ErrInvalidParameter):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrExportNotFound):
		writeJSONError(w, "export not found", http.StatusNotFound)
	default:
		ctx := r.Context()
		log.Ctx(ctx).ErrorContext(ctx, "request failed", slog.Any("error", err))
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) webHandler(dir fs.FS, h http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// unknown paths get index.html so the dashboard can route them
		if r.URL.Path != "/" {
			f, err := dir.Open(strings.TrimPrefix(r.URL.Path, "/"))
			if err == nil {
				f.Close()
			} else if errors.Is(err, fs.ErrNotExist) {
				if strings.HasPrefix(r.URL.Path, "/.well-known/") {
					// we don't write JSON here because we don't know what file type is expected
					http.Error(w, "not found", http.StatusNotFound)
					return
				}
				r.URL.Path = "/"
			} else {
				log.Ctx(r.Context()).ErrorContext(r.Context(), "failed to open file", "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
		}
		if s.webCacheDuration > 0 {
			w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(s.webCacheDuration.Seconds())))
		}

		h.ServeHTTP(w, r)
	}
}

// logContextMiddleware tags the request's logger with the method and path.
func logContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := log.WithAttrs(r.Context(), slog.String("method", r.Method), slog.String("path", r.URL.Path))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}
