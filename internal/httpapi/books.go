package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"library-circulation/internal/model"
	"library-circulation/internal/store"
)

// BooksHandler serves the catalog endpoints.
type BooksHandler struct {
	store store.Store
}

// NewBooksHandler creates the handler for catalog endpoints.
func NewBooksHandler(s store.Store) *BooksHandler {
	return &BooksHandler{store: s}
}

type createBookRequest struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn"`
	Quantity      int    `json:"quantity"`
	PublishedYear int    `json:"published_year"`
}

func (req createBookRequest) validate() error {
	if req.Title == "" {
		return &model.ValidationError{Field: "title", Message: "must not be empty"}
	}
	if req.Author == "" {
		return &model.ValidationError{Field: "author", Message: "must not be empty"}
	}
	if req.Quantity < 0 {
		return &model.ValidationError{Field: "quantity", Message: "must not be negative"}
	}

	return nil
}

// Create handles POST /api/books. Status is derived from the quantity, not
// taken from the request.
func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &model.ValidationError{Field: "body", Message: "malformed json"})
		return
	}

	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	status := model.BookStatusAvailable
	if req.Quantity == 0 {
		status = model.BookStatusUnavailable
	}

	book := &model.Book{
		ID:            uuid.New(),
		Title:         req.Title,
		Author:        req.Author,
		ISBN:          req.ISBN,
		Quantity:      req.Quantity,
		Status:        status,
		PublishedYear: req.PublishedYear,
		CreatedAt:     time.Now().UTC(),
	}

	if err := h.store.CreateBook(r.Context(), book); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, book)
}

// List handles GET /api/books.
func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.store.Books(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, books)
}

// Get handles GET /api/books/{id}.
func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	book, err := h.store.BookByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}
