package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
)

func TestHttpStatusForDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantOK     bool
	}{
		{"validation", core.ErrValidation(core.CodeOutOfRange, "bad"), http.StatusUnprocessableEntity, true},
		{"invalid operation", core.ErrInvalidOperation(core.CodeCannotDeleteInherited, "no"), http.StatusConflict, true},
		{"not found", core.ErrNotFound("document", "x"), http.StatusNotFound, true},
		{"persistence", core.ErrPersistence(core.CodeSaveFailed, "disk"), http.StatusServiceUnavailable, true},
		{"internal", core.ErrInternal("boom"), http.StatusInternalServerError, true},
		{"wrapped", fmt.Errorf("handler: %w", core.ErrNotFound("rule", "r1")), http.StatusNotFound, true},
		{"non-domain error", errors.New("plain"), 0, false},
		{"nil error", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, ok := httpStatusForDomainError(tt.err)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
		})
	}
}

func TestHttpStatusForError_DefaultsTo500(t *testing.T) {
	if got := httpStatusForError(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", got)
	}
}
