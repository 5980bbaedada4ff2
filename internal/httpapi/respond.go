package httpapi

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"library-circulation/internal/model"
)

var json = jsoniter.ConfigFastest

// errorResponse is the uniform error body every endpoint renders.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON renders v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}

	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a core error onto a status code and structured body.
// Business-rule violations surface as 400, missing entities and the
// no-fine-required outcome as 404, everything else as 500.
func writeError(w http.ResponseWriter, err error) {
	var notFound *model.NotFoundError
	if errors.As(err, &notFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "NotFound", Message: notFound.Error()})
		return
	}

	if errors.Is(err, model.ErrNoFineRequired) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "NoFineRequired", Message: err.Error()})
		return
	}

	var invalidState *model.InvalidStateError
	if errors.As(err, &invalidState) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "InvalidState:" + string(invalidState.Reason),
			Message: invalidState.Error(),
		})
		return
	}

	if errors.Is(err, model.ErrAlreadyPaid) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "AlreadyPaid", Message: err.Error()})
		return
	}

	if errors.Is(err, model.ErrFineExists) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "FineExists", Message: err.Error()})
		return
	}

	var validation *model.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Validation", Message: validation.Error()})
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal", Message: "internal server error"})
}
