// Package middleware provides HTTP middleware for the corrector API.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/logging"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const scopeContextKey contextKey = "scope"

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// GetScope retrieves the configuration scope resolved for the request.
func GetScope(ctx context.Context) (core.Scope, bool) {
	s, ok := ctx.Value(scopeContextKey).(core.Scope)
	return s, ok
}

// WithScope adds a scope to the request context.
func WithScope(ctx context.Context, s core.Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey, s)
}

// RequestID reuses a client supplied X-Request-ID or assigns a new UUID. The
// id is echoed in the response and stored where chi's GetReqID finds it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), chimw.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DocumentScope resolves the {docID} URL parameter into a document scope.
//
// Error responses:
//   - 422 Unprocessable Entity: docID missing
func DocumentScope(logger *logging.Logger) func(http.Handler) http.Handler {
	return scopeMiddleware(logger, func(r *http.Request) core.Scope {
		return core.DocumentScope(chi.URLParam(r, "docID"))
	})
}

// TypeScope resolves the {typeCode} URL parameter and the optional
// ?subtype= query parameter into a type or subtype scope.
//
// Error responses:
//   - 422 Unprocessable Entity: type missing or subtype of another type
func TypeScope(logger *logging.Logger) func(http.Handler) http.Handler {
	return scopeMiddleware(logger, func(r *http.Request) core.Scope {
		return core.TypeScope(chi.URLParam(r, "typeCode"), r.URL.Query().Get("subtype"))
	})
}

func scopeMiddleware(logger *logging.Logger, resolve func(*http.Request) core.Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := resolve(r)
			if err := scope.Validate(); err != nil {
				logger.Warn("scope middleware: invalid scope",
					"path", r.URL.Path,
					"method", r.Method,
					"error", err,
				)
				writeError(w, http.StatusUnprocessableEntity, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), scope)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := map[string]string{"error": err.Error()}
	var de *core.DomainError
	if errors.As(err, &de) {
		body["error"] = de.Message
		body["code"] = de.Code
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
