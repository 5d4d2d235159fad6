package httpapi

import (
	"context"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MimeLyc/sentence-sub-translator/internal/config"
	"github.com/MimeLyc/sentence-sub-translator/internal/jobs"
	"github.com/MimeLyc/sentence-sub-translator/internal/service"
	"github.com/MimeLyc/sentence-sub-translator/internal/subtitle"
	"github.com/MimeLyc/sentence-sub-translator/internal/termmap"
	"github.com/MimeLyc/sentence-sub-translator/internal/translator"
)

// maxUploadBytes bounds a subtitle upload.
const maxUploadBytes = 10 << 20

// Session is the translation session served over HTTP.
type Session interface {
	Load(data []byte, format string) (*service.LoadResult, error)
	Entries(query string) []subtitle.Entry
	EditEntry(id int, patch service.EntryPatch) (*subtitle.Entry, error)

	BackendStatus() service.BackendStatus
	CheckConnection(ctx context.Context) service.BackendStatus
	Languages() []translator.Language

	StartTranslation(ctx context.Context, req service.StartRequest) (*jobs.Job, error)
	CancelTranslation() (*jobs.Job, error)
	CurrentJob() (*jobs.Job, bool)

	ExportName(name string) string
	Export(w io.Writer, encoding string) error

	Settings() config.RuntimeSettings
	ApplyRuntimeSettings(ctx context.Context, next config.RuntimeSettings) (config.RuntimeSettings, error)
	Glossary() termmap.TermMap
	UpdateGlossary(tm termmap.TermMap) (termmap.TermMap, error)
}

type Server struct {
	session Session

	corsOrigins    []string
	streamInterval time.Duration

	uiEnabled   bool
	uiStaticDir string

	router chi.Router
	server *http.Server
}

type Option func(*Server)

func WithUI(staticDir string, enabled bool) Option {
	return func(s *Server) {
		s.uiStaticDir = staticDir
		s.uiEnabled = enabled
	}
}

// WithCORS sets the allowed browser origins.
func WithCORS(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithStreamInterval sets how often the job stream emits a snapshot.
func WithStreamInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.streamInterval = d
		}
	}
}

func NewServer(session Session, opts ...Option) *Server {
	s := &Server{
		session:        session,
		corsOrigins:    []string{"*"},
		streamInterval: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/subtitles", s.handleLoadSubtitles)
		r.Get("/subtitles", s.handleListSubtitles)
		r.Patch("/subtitles/{id}", s.handleEditSubtitle)

		r.Get("/backend", s.handleBackendStatus)
		r.Post("/backend/check", s.handleBackendCheck)
		r.Get("/languages", s.handleLanguages)

		r.Post("/jobs", s.handleStartJob)
		r.Get("/jobs/current", s.handleCurrentJob)
		r.Delete("/jobs/current", s.handleCancelJob)
		r.Get("/jobs/stream", s.handleJobStream)

		r.Get("/export", s.handleExport)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
		r.Get("/glossary", s.handleGetGlossary)
		r.Put("/glossary", s.handlePutGlossary)
	})

	r.NotFound(s.handleStatic)
	s.router = r
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !s.uiEnabled || s.uiStaticDir == "" || strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	indexPath := filepath.Join(s.uiStaticDir, "index.html")

	if rel == "" || !strings.Contains(filepath.Base(rel), ".") {
		http.ServeFile(w, r, indexPath)
		return
	}

	filePath := filepath.Join(s.uiStaticDir, rel)
	if _, err := os.Stat(filePath); err != nil {
		// SPA fallback: non-existing static file path returns index
		http.ServeFile(w, r, indexPath)
		return
	}
	http.ServeFile(w, r, filePath)
}
