package api

import (
	"errors"
	"net/http"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
)

func httpStatusForDomainError(err error) (int, bool) {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return 0, false
	}

	switch domErr.Category {
	case core.ErrCatValidation:
		return http.StatusUnprocessableEntity, true
	case core.ErrCatInvalidOperation:
		return http.StatusConflict, true
	case core.ErrCatNotFound:
		return http.StatusNotFound, true
	case core.ErrCatPersistence:
		return http.StatusServiceUnavailable, true
	default:
		return http.StatusInternalServerError, true
	}
}

func httpStatusForError(err error) int {
	if status, ok := httpStatusForDomainError(err); ok {
		return status
	}
	return http.StatusInternalServerError
}
