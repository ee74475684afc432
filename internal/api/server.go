// Package api exposes correction configuration editing over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/hugo-lorenzo-mato/corrector/internal/adapters/store"
	apimw "github.com/hugo-lorenzo-mato/corrector/internal/api/middleware"
	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
	"github.com/hugo-lorenzo-mato/corrector/internal/doctype"
	"github.com/hugo-lorenzo-mato/corrector/internal/editor"
	"github.com/hugo-lorenzo-mato/corrector/internal/events"
	"github.com/hugo-lorenzo-mato/corrector/internal/logging"
)

// DefaultMaxTextBytes bounds the text accepted by the detect endpoint.
const DefaultMaxTextBytes int64 = 4 << 20

// maxJSONBytes bounds every other request body.
const maxJSONBytes int64 = 1 << 20

// DocumentStore manages document metadata and the stored type and subtype
// overrides.
type DocumentStore interface {
	RegisterDocument(ctx context.Context, doc store.Document) (store.Document, error)
	Document(ctx context.Context, id string) (store.Document, error)
	Documents(ctx context.Context) ([]store.Document, error)
	RecordFeatures(ctx context.Context, id string, f detect.Features) error
	Registry() *doctype.Registry

	Overrides(ctx context.Context) ([]store.Override, error)
	OverrideStatus(overrides []store.Override) map[string]store.TypeOverrideStatus
	ClearOverrides(ctx context.Context) ([]core.Scope, error)
	DiffConfig(ctx context.Context, scope core.Scope) (store.ConfigDiff, error)
}

// Server provides HTTP REST API endpoints for configuration editing.
type Server struct {
	router       chi.Router
	engine       *editor.Engine
	docs         DocumentStore
	eventBus     *events.EventBus
	logger       *logging.Logger
	corsOrigins  []string
	maxTextBytes int64
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *logging.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithEventBus streams bus events on /api/v1/events.
func WithEventBus(bus *events.EventBus) ServerOption {
	return func(s *Server) {
		s.eventBus = bus
	}
}

// WithCORSOrigins sets the origins allowed to call the API from a browser.
func WithCORSOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithMaxTextBytes bounds the text accepted for detection.
func WithMaxTextBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxTextBytes = n
		}
	}
}

// NewServer creates a new API server.
func NewServer(engine *editor.Engine, docs DocumentStore, opts ...ServerOption) *Server {
	s := &Server{
		engine:       engine,
		docs:         docs,
		logger:       logging.NewNop(),
		corsOrigins:  []string{"*"},
		maxTextBytes: DefaultMaxTextBytes,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(apimw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", apimw.RequestIDHeader},
		ExposedHeaders:   []string{apimw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(corsHandler.Handler)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		// SSE streams outlive any request timeout.
		r.Get("/events", s.handleSSE)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/presets", s.handleListPresets)

			r.Get("/overrides", s.handleListOverrides)
			r.Delete("/overrides", s.handleClearOverrides)

			r.Route("/types", func(r chi.Router) {
				r.Get("/", s.handleListTypes)
				r.Route("/{typeCode}/config", func(r chi.Router) {
					r.Use(apimw.TypeScope(s.logger))
					r.Get("/", s.handleGetConfig)
					r.Put("/", s.handlePutTypeConfig)
					r.Delete("/", s.handleClearConfig)
					r.Get("/diff", s.handleConfigDiff)
				})
			})

			r.Route("/documents", func(r chi.Router) {
				r.Get("/", s.handleListDocuments)

				r.Route("/{docID}", func(r chi.Router) {
					r.Get("/", s.handleGetDocument)
					r.Put("/", s.handlePutDocument)

					r.Route("/config", func(r chi.Router) {
						r.Use(apimw.DocumentScope(s.logger))
						r.Get("/", s.handleGetConfig)
						r.Delete("/", s.handleClearConfig)
						r.Post("/save", s.handleSaveConfig)
						r.Post("/detect", s.handleDetect)
						r.Post("/apply-preset", s.handleApplyPreset)

						r.Delete("/params", s.handleResetAll)
						r.Put("/params/{path}", s.handleSetParam)
						r.Delete("/params/{path}", s.handleResetParam)

						r.Post("/rules", s.handleAddRule)
						r.Patch("/rules/{ruleID}", s.handlePatchRule)
						r.Delete("/rules/{ruleID}", s.handleDeleteRule)
						r.Post("/rules/{ruleID}/reset", s.handleResetRule)
					})
				})
			})
		})
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.Error("failed to encode response", "error", err)
		}
	}
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps err onto a status and a {"error","code"} body.
func (s *Server) respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
	}
	body := map[string]string{"error": err.Error()}
	var de *core.DomainError
	if errors.As(err, &de) {
		body["error"] = de.Message
		body["code"] = de.Code
	}
	s.respondJSON(w, status, body)
}

// decodeJSON reads a bounded JSON body into v. Numbers stay json.Number so
// the schema decides between integer and decimal.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.ErrValidation("BODY_TOO_LARGE", fmt.Sprintf("request body exceeds %d bytes", limit))
		}
		if errors.Is(err, io.EOF) {
			return core.ErrValidation("EMPTY_BODY", "request body is required")
		}
		return core.ErrValidation("INVALID_JSON", "invalid JSON body").WithCause(err)
	}
	return nil
}

func requestScope(r *http.Request) core.Scope {
	scope, _ := apimw.GetScope(r.Context())
	return scope
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("API server stopped")
	return nil
}
