package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrJamesThe3rd/steppin/internal/errx"
	"github.com/MrJamesThe3rd/steppin/internal/logx"
)

type errorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Message   string `json:"message"`
	Available *int   `json:"available,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("failed to encode response")
	}
}

// Error answers with the status for err's kind. Errors without a kind are
// logged and reported as a bare internal error.
func Error(w http.ResponseWriter, err error) {
	var e *errx.Error
	if !errors.As(err, &e) {
		logx.Error().Err(err).Msg("request failed")
		JSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Message: "internal error"})

		return
	}

	resp := errorResponse{Error: string(e.Kind), Field: e.Field, Message: e.Message}

	switch e.Kind {
	case errx.KindInsufficientStock:
		resp.Available = &e.Available
	case errx.KindPartialCommit, errx.KindConflict:
		// The cause stays in the log; the client only needs the kind.
		logx.Warn().Err(err).Msg("sale not completed")
	}

	JSON(w, errx.Status(err), resp)
}

// BadRequest reports a malformed request body or parameter.
func BadRequest(w http.ResponseWriter, field, message string) {
	Error(w, errx.InvalidInput(field, message))
}
