package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"library-circulation/internal/fines"
	"library-circulation/internal/model"
	"library-circulation/internal/store"
)

// FinesHandler serves the fine endpoints.
type FinesHandler struct {
	fines *fines.Engine
	store store.Store
}

// NewFinesHandler creates the handler for fine endpoints.
func NewFinesHandler(engine *fines.Engine, s store.Store) *FinesHandler {
	return &FinesHandler{fines: engine, store: s}
}

type createFineRequest struct {
	TransactionID uuid.UUID `json:"transaction_id"`
}

type payFineRequest struct {
	FineID uuid.UUID `json:"fine_id"`
}

// Create handles POST /api/fines.
func (h *FinesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Message: "malformed json"})
		return
	}

	if req.TransactionID == uuid.Nil {
		writeError(w, &model.ValidationError{Field: "transaction_id", Message: "must not be empty"})
		return
	}

	fine, err := h.fines.CreateFine(r.Context(), req.TransactionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, fine)
}

// Pay handles PUT /api/fines.
func (h *FinesHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req payFineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Message: "malformed json"})
		return
	}

	if req.FineID == uuid.Nil {
		writeError(w, &model.ValidationError{Field: "fine_id", Message: "must not be empty"})
		return
	}

	fine, err := h.fines.PayFine(r.Context(), req.FineID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, fine)
}

// Check handles GET /api/fines/check/{transactionId}. It answers 201 when a
// fine was created and 200 when none was needed; expected business outcomes
// never surface as errors here.
func (h *FinesHandler) Check(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transactionId")
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := h.fines.CheckAndCreateFine(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}

	writeJSON(w, status, map[string]bool{"fine_created": created})
}

// List handles GET /api/fines.
func (h *FinesHandler) List(w http.ResponseWriter, r *http.Request) {
	allFines, err := h.store.Fines(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, allFines)
}

// Get handles GET /api/fines/{id}.
func (h *FinesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	fine, err := h.store.FineByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, fine)
}

// Delete handles DELETE /api/fines/{id}.
func (h *FinesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.store.DeleteFine(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
