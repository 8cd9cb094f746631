package handler

import (
	"errors"
	"net/http"

	"loyaltypush/internal/httputil"
	"loyaltypush/internal/model"
)

// writeFailure maps a model.Failure kind to an HTTP status. Anything else is a 500.
func writeFailure(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, model.ErrProfileNotFound) {
		httputil.WriteNotFound(w, "Profile not found")
		return
	}

	var f *model.Failure
	if !errors.As(err, &f) {
		httputil.WriteInternalError(w, fallback)
		return
	}

	switch f.Kind {
	case model.FailureInvalidInput:
		msg := fallback
		if f.Err != nil {
			msg = f.Err.Error()
		}
		httputil.WriteBadRequest(w, msg)
	case model.FailureUnsupported:
		httputil.WriteUnavailable(w, fallback)
	case model.FailureGateway:
		httputil.WriteBadGateway(w, fallback)
	default:
		httputil.WriteInternalError(w, fallback)
	}
}
