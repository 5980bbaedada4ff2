package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"library-circulation/internal/circulation"
	"library-circulation/internal/model"
	"library-circulation/internal/store"
)

// TransactionsHandler serves the loan endpoints.
type TransactionsHandler struct {
	circulation *circulation.Service
	store       store.Store
}

// NewTransactionsHandler creates the handler for loan endpoints.
func NewTransactionsHandler(svc *circulation.Service, s store.Store) *TransactionsHandler {
	return &TransactionsHandler{circulation: svc, store: s}
}

// borrowRequest is the body of both the borrow and return endpoints.
type borrowRequest struct {
	BookID   uuid.UUID `json:"book_id"`
	Username string    `json:"username"`
}

func (req *borrowRequest) validate() error {
	if req.BookID == uuid.Nil {
		return &model.ValidationError{Field: "book_id", Message: "must not be empty"}
	}

	if req.Username == "" {
		return &model.ValidationError{Field: "username", Message: "must not be empty"}
	}

	return nil
}

// Borrow handles POST /api/transactions/borrow.
func (h *TransactionsHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Message: "malformed json"})
		return
	}

	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	txn, err := h.circulation.Borrow(r.Context(), req.BookID, req.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, txn)
}

// Return handles PUT /api/transactions/return.
func (h *TransactionsHandler) Return(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Message: "malformed json"})
		return
	}

	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	txn, err := h.circulation.Return(r.Context(), req.BookID, req.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, txn)
}

// List handles GET /api/transactions.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	txns, err := h.store.Transactions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, txns)
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	txn, err := h.store.TransactionByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, txn)
}

// Delete handles DELETE /api/transactions/{id}.
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.store.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
