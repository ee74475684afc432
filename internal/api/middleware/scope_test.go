package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/logging"
)

func scopeEcho(w http.ResponseWriter, r *http.Request) {
	s, ok := GetScope(r.Context())
	if !ok {
		http.Error(w, "no scope", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(s.Key()))
}

func TestGetScope(t *testing.T) {
	t.Run("returns false for empty context", func(t *testing.T) {
		_, ok := GetScope(context.Background())
		assert.False(t, ok)
	})

	t.Run("returns stored scope", func(t *testing.T) {
		ctx := WithScope(context.Background(), core.DocumentScope("doc-1"))
		s, ok := GetScope(ctx)
		require.True(t, ok)
		assert.Equal(t, "doc:doc-1", s.Key())
	})
}

func TestDocumentScope(t *testing.T) {
	r := chi.NewRouter()
	r.With(DocumentScope(logging.NewNop())).Get("/documents/{docID}", scopeEcho)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/novela-1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "doc:novela-1", rec.Body.String())
}

func TestTypeScope(t *testing.T) {
	r := chi.NewRouter()
	r.With(TypeScope(logging.NewNop())).Get("/types/{typeCode}", scopeEcho)

	tests := []struct {
		name       string
		url        string
		wantStatus int
		wantBody   string
	}{
		{"type", "/types/fic", http.StatusOK, "type:FIC"},
		{"subtype", "/types/FIC?subtype=fic_nov", http.StatusOK, "type:FIC/FIC_NOV"},
		{"foreign subtype", "/types/FIC?subtype=ENS_ACA", http.StatusUnprocessableEntity, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
				return
			}
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, core.CodeInvalidScope, body["code"])
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = chimw.GetReqID(r.Context())
	}))

	t.Run("generates an id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("keeps the client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	})
}
